package logging

import (
	"io"
	"os"
	"path/filepath"

	hclog "github.com/hashicorp/go-hclog"
)

// New builds the process logger. Hook invocations must keep stdout clean for
// the upstream caller, so log output goes to stderr plus an append-only file
// under the home directory when one can be opened.
func New(name, level, logPath string) hclog.Logger {
	writers := []io.Writer{os.Stderr}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err == nil {
			if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				writers = append(writers, f)
			}
		}
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.LevelFromString(level),
		Output: io.MultiWriter(writers...),
	})
}

// Discard returns a silent logger for tests.
func Discard() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel})
}
