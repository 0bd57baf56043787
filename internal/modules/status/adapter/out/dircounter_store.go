package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"statusrelay/internal/modules/status/domain"
	"statusrelay/internal/modules/status/port/out"
)

const (
	lockAttempts = 40
	lockSpinGap  = 25 * time.Millisecond
)

// DirCounterStore guards counter updates with a directory-creation lock,
// which is the one mutual-exclusion primitive that works across the
// independently-invoked hook processes sharing these files.
type DirCounterStore struct {
	root string
}

func NewDirCounterStore(root string) out.CounterStore {
	return &DirCounterStore{root: root}
}

func (s *DirCounterStore) Increment(ctx context.Context, project string, counter out.Counter) (int, int, error) {
	valueField, peakField := counterFields(counter)
	unlock, err := s.acquire(ctx, project)
	if err != nil {
		return 0, 0, err
	}
	defer unlock()

	value := s.readInt(project, valueField) + 1
	if err := s.writeInt(project, valueField, value); err != nil {
		return 0, 0, err
	}
	peak := s.readInt(project, peakField)
	if value > peak {
		peak = value
		if err := s.writeInt(project, peakField, peak); err != nil {
			return 0, 0, err
		}
	}
	return value, peak, nil
}

func (s *DirCounterStore) Decrement(ctx context.Context, project string, counter out.Counter) (int, error) {
	valueField, _ := counterFields(counter)
	unlock, err := s.acquire(ctx, project)
	if err != nil {
		return 0, err
	}
	defer unlock()

	value := s.readInt(project, valueField) - 1
	if value < 0 {
		value = 0
	}
	if err := s.writeInt(project, valueField, value); err != nil {
		return 0, err
	}
	return value, nil
}

func counterFields(counter out.Counter) (out.Field, out.Field) {
	if counter == out.CounterTasks {
		return out.FieldTasks, out.FieldTaskPeak
	}
	return out.FieldSubagents, out.FieldSubagentPeak
}

// acquire spins on os.Mkdir for the project lock directory. Exhausting the
// bound returns domain.ErrLockBusy; callers skip the update entirely rather
// than race.
func (s *DirCounterStore) acquire(ctx context.Context, project string) (func(), error) {
	lockDir := filepath.Join(s.root, project, ".counter.lock")
	if err := os.MkdirAll(filepath.Join(s.root, project), 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	for attempt := 0; attempt < lockAttempts; attempt++ {
		if err := os.Mkdir(lockDir, 0o755); err == nil {
			return func() { _ = os.Remove(lockDir) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockSpinGap):
		}
	}
	return nil, domain.ErrLockBusy
}

func (s *DirCounterStore) readInt(project string, field out.Field) int {
	raw, err := os.ReadFile(filepath.Join(s.root, project, string(field)))
	if err != nil {
		return 0
	}
	value, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0
	}
	return value
}

func (s *DirCounterStore) writeInt(project string, field out.Field, value int) error {
	path := filepath.Join(s.root, project, string(field))
	tmp := path + ".tmp." + strconv.Itoa(os.Getpid())
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(value)), 0o644); err == nil {
		if err := os.Rename(tmp, path); err == nil {
			return nil
		}
		_ = os.Remove(tmp)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(value)), 0o644); err != nil {
		return fmt.Errorf("write counter %s/%s: %w", project, field, err)
	}
	return nil
}
