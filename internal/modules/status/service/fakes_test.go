package service_test

import (
	"context"
	"strconv"
	"sync"
	"time"

	"statusrelay/internal/modules/status/domain"
	statusout "statusrelay/internal/modules/status/port/out"
	"statusrelay/internal/platform/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{now: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore mirrors the file store contract in memory, including the
// transition stamp on real state changes.
type memStore struct {
	mu     sync.Mutex
	clock  *fakeClock
	fields map[string]map[statusout.Field]string
}

func newMemStore(clock *fakeClock) *memStore {
	return &memStore{clock: clock, fields: map[string]map[statusout.Field]string{}}
}

func (s *memStore) Read(_ context.Context, project string, field statusout.Field) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.fields[project][field]
	return value, ok, nil
}

func (s *memStore) Write(_ context.Context, project string, field statusout.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fields[project] == nil {
		s.fields[project] = map[statusout.Field]string{}
	}
	if field == statusout.FieldState {
		if current, ok := s.fields[project][field]; !ok || current != value {
			s.fields[project][statusout.FieldLastTransition] = s.clock.Now().UTC().Format(time.RFC3339Nano)
		}
	}
	s.fields[project][field] = value
	return nil
}

func (s *memStore) Clear(_ context.Context, project string, preserveHandle bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := s.fields[project][statusout.FieldMessageID]
	delete(s.fields, project)
	if preserveHandle && handle != "" {
		s.fields[project] = map[statusout.Field]string{statusout.FieldMessageID: handle}
	}
	return nil
}

func (s *memStore) Projects(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := []string{}
	for p := range s.fields {
		projects = append(projects, p)
	}
	return projects, nil
}

func (s *memStore) get(project string, field statusout.Field) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[project][field]
}

type memCounters struct {
	mu    sync.Mutex
	store *memStore
	err   error
}

func (c *memCounters) fields(counter statusout.Counter) (statusout.Field, statusout.Field) {
	if counter == statusout.CounterTasks {
		return statusout.FieldTasks, statusout.FieldTaskPeak
	}
	return statusout.FieldSubagents, statusout.FieldSubagentPeak
}

func (c *memCounters) readInt(project string, field statusout.Field) int {
	value, _ := strconv.Atoi(c.store.get(project, field))
	return value
}

func (c *memCounters) Increment(ctx context.Context, project string, counter statusout.Counter) (int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, 0, c.err
	}
	valueField, peakField := c.fields(counter)
	value := c.readInt(project, valueField) + 1
	_ = c.store.Write(ctx, project, valueField, strconv.Itoa(value))
	peak := c.readInt(project, peakField)
	if value > peak {
		peak = value
		_ = c.store.Write(ctx, project, peakField, strconv.Itoa(peak))
	}
	return value, peak, nil
}

func (c *memCounters) Decrement(ctx context.Context, project string, counter statusout.Counter) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	valueField, _ := c.fields(counter)
	value := c.readInt(project, valueField) - 1
	if value < 0 {
		value = 0
	}
	_ = c.store.Write(ctx, project, valueField, strconv.Itoa(value))
	return value, nil
}

type messengerCall struct {
	Op    string
	ID    string
	Frame domain.Frame
}

// recordingMessenger logs every remote operation and assigns sequential ids.
type recordingMessenger struct {
	mu      sync.Mutex
	calls   []messengerCall
	nextID  int
	editErr error
}

func (m *recordingMessenger) Create(_ context.Context, frame domain.Frame) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := "m-" + strconv.Itoa(m.nextID)
	m.calls = append(m.calls, messengerCall{Op: "create", ID: id, Frame: frame})
	return id, nil
}

func (m *recordingMessenger) Edit(_ context.Context, id string, frame domain.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messengerCall{Op: "edit", ID: id, Frame: frame})
	return m.editErr
}

func (m *recordingMessenger) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messengerCall{Op: "delete", ID: id})
	return nil
}

func (m *recordingMessenger) ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := make([]string, len(m.calls))
	for i, c := range m.calls {
		ops[i] = c.Op
	}
	return ops
}

func (m *recordingMessenger) last() messengerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return messengerCall{}
	}
	return m.calls[len(m.calls)-1]
}

func (m *recordingMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

type memTransitions struct {
	mu      sync.Mutex
	records []domain.TransitionRecord
}

func (l *memTransitions) Append(_ context.Context, record domain.TransitionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return nil
}

func (l *memTransitions) Recent(_ context.Context, project string, limit int) ([]domain.TransitionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	records := []domain.TransitionRecord{}
	for i := len(l.records) - 1; i >= 0; i-- {
		if project != "" && l.records[i].Project != project {
			continue
		}
		records = append(records, l.records[i])
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}

type fakeHeartbeats struct {
	mu       sync.Mutex
	respawns []string
	stops    []string
}

func (h *fakeHeartbeats) Respawn(_ context.Context, project string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.respawns = append(h.respawns, project)
	return nil
}

func (h *fakeHeartbeats) Stop(_ context.Context, project string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops = append(h.stops, project)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		DisplayName:       "relay",
		WebhookURL:        "https://hooks.example/wh",
		HeartbeatInterval: config.Duration(90 * time.Second),
		StaleAfter:        config.Duration(10 * time.Minute),
		AnnounceGap:       config.Duration(3 * time.Second),
	}
}
