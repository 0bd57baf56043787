package projectid

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// FromWorkdir derives the project identity from a working directory. The name
// of the enclosing version-control root wins over the raw basename, so hook
// events fired from subdirectories of one checkout map to the same project.
func FromWorkdir(workdir string) string {
	if workdir == "" {
		return "unknown"
	}
	if root := vcsRoot(workdir); root != "" {
		return sanitize(filepath.Base(root))
	}
	return sanitize(filepath.Base(workdir))
}

func vcsRoot(dir string) string {
	for current := filepath.Clean(dir); ; {
		if info, err := os.Stat(filepath.Join(current, ".git")); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

func sanitize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}
