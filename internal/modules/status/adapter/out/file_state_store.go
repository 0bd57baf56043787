package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"statusrelay/internal/modules/status/port/out"
	"statusrelay/internal/platform/clock"
)

// FileStateStore keeps one file per record field under
// <root>/<project>/<field>. Single-field files keep concurrent hook
// invocations from clobbering each other's unrelated writes.
type FileStateStore struct {
	root  string
	clock clock.Clock
}

func NewFileStateStore(root string, clk clock.Clock) out.StateStore {
	return &FileStateStore{root: root, clock: clk}
}

func (s *FileStateStore) fieldPath(project string, field out.Field) string {
	return filepath.Join(s.root, project, string(field))
}

func (s *FileStateStore) Read(_ context.Context, project string, field out.Field) (string, bool, error) {
	raw, err := os.ReadFile(s.fieldPath(project, field))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read field %s/%s: %w", project, field, err)
	}
	return string(raw), true, nil
}

func (s *FileStateStore) Write(ctx context.Context, project string, field out.Field, value string) error {
	if field == out.FieldState {
		current, ok, _ := s.Read(ctx, project, field)
		if err := s.writeRaw(project, field, value); err != nil {
			return err
		}
		// Stamp the transition time only on a real change; heartbeat
		// same-state refreshes must not reset staleness tracking.
		if !ok || current != value {
			stamp := s.clock.Now().UTC().Format(time.RFC3339Nano)
			return s.writeRaw(project, out.FieldLastTransition, stamp)
		}
		return nil
	}
	return s.writeRaw(project, field, value)
}

// writeRaw writes through a temp file and rename so a concurrent reader
// never observes a torn value. When the rename path fails (exotic
// filesystems), a direct write is still better than losing the update.
func (s *FileStateStore) writeRaw(project string, field out.Field, value string) error {
	dir := filepath.Join(s.root, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	path := filepath.Join(dir, string(field))
	tmp := path + ".tmp." + strconv.Itoa(os.Getpid())
	if err := os.WriteFile(tmp, []byte(value), 0o644); err == nil {
		if err := os.Rename(tmp, path); err == nil {
			return nil
		}
		_ = os.Remove(tmp)
	}
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write field %s/%s: %w", project, field, err)
	}
	return nil
}

func (s *FileStateStore) Clear(ctx context.Context, project string, preserveHandle bool) error {
	handle := ""
	if preserveHandle {
		handle, _, _ = s.Read(ctx, project, out.FieldMessageID)
	}
	if err := os.RemoveAll(filepath.Join(s.root, project)); err != nil {
		return fmt.Errorf("clear project %s: %w", project, err)
	}
	if preserveHandle && handle != "" {
		return s.writeRaw(project, out.FieldMessageID, handle)
	}
	return nil
}

func (s *FileStateStore) Projects(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}
