package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	sinkdto "statusrelay/internal/modules/sink/dto"
	"statusrelay/internal/modules/status/domain"
	statusdto "statusrelay/internal/modules/status/dto"
	statusin "statusrelay/internal/modules/status/port/in"
	statusout "statusrelay/internal/modules/status/port/out"
	"statusrelay/internal/modules/status/service"
	"statusrelay/internal/modules/status/usecase"
	"statusrelay/internal/platform/clock"
	"statusrelay/internal/platform/config"
)

type mapStore struct {
	fields map[string]map[statusout.Field]string
}

func newMapStore() *mapStore {
	return &mapStore{fields: map[string]map[statusout.Field]string{}}
}

func (s *mapStore) Read(_ context.Context, project string, field statusout.Field) (string, bool, error) {
	value, ok := s.fields[project][field]
	return value, ok, nil
}

func (s *mapStore) Write(_ context.Context, project string, field statusout.Field, value string) error {
	if s.fields[project] == nil {
		s.fields[project] = map[statusout.Field]string{}
	}
	s.fields[project][field] = value
	return nil
}

func (s *mapStore) Clear(_ context.Context, project string, preserveHandle bool) error {
	handle := s.fields[project][statusout.FieldMessageID]
	delete(s.fields, project)
	if preserveHandle && handle != "" {
		s.fields[project] = map[statusout.Field]string{statusout.FieldMessageID: handle}
	}
	return nil
}

func (s *mapStore) Projects(context.Context) ([]string, error) {
	projects := []string{}
	for p := range s.fields {
		projects = append(projects, p)
	}
	return projects, nil
}

type nullCounters struct{}

func (nullCounters) Increment(context.Context, string, statusout.Counter) (int, int, error) {
	return 1, 1, nil
}

func (nullCounters) Decrement(context.Context, string, statusout.Counter) (int, error) {
	return 0, nil
}

type nullMessenger struct{ creates int }

func (m *nullMessenger) Create(context.Context, domain.Frame) (string, error) {
	m.creates++
	return "m-1", nil
}

func (m *nullMessenger) Edit(context.Context, string, domain.Frame) error { return nil }

func (m *nullMessenger) Delete(context.Context, string) error { return nil }

type nullTransitions struct{ records []domain.TransitionRecord }

func (l *nullTransitions) Append(_ context.Context, record domain.TransitionRecord) error {
	l.records = append(l.records, record)
	return nil
}

func (l *nullTransitions) Recent(context.Context, string, int) ([]domain.TransitionRecord, error) {
	return l.records, nil
}

type nullHeartbeats struct{}

func (nullHeartbeats) Respawn(context.Context, string) error { return nil }

func (nullHeartbeats) Stop(context.Context, string) error { return nil }

type recordingSinks struct{ frames []sinkdto.FrameInput }

func (s *recordingSinks) Broadcast(_ context.Context, frame sinkdto.FrameInput) error {
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordingSinks) List(context.Context) ([]sinkdto.SinkInfo, error) { return nil, nil }

func (s *recordingSinks) Check(context.Context, string) (sinkdto.SinkInfo, error) {
	return sinkdto.SinkInfo{}, nil
}

type harness struct {
	usecase   statusin.Usecase
	store     *mapStore
	messenger *nullMessenger
	sinks     *recordingSinks
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMapStore()
	messenger := &nullMessenger{}
	sinks := &recordingSinks{}
	cfg := config.Config{DisplayName: "relay", AnnounceGap: config.Duration(3 * time.Second)}
	svc := service.NewStatusService(clock.SystemClock{}, cfg, store, nullCounters{}, messenger,
		&nullTransitions{}, nullHeartbeats{}, hclog.NewNullLogger())
	uc := usecase.NewInteractor(svc, sinks, store, &nullTransitions{}, clock.SystemClock{},
		10*time.Minute, hclog.NewNullLogger())
	return &harness{usecase: uc, store: store, messenger: messenger, sinks: sinks}
}

func gitWorkdir(t *testing.T, name string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return root
}

func TestHandleEventDerivesProjectAndBroadcasts(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	workdir := gitWorkdir(t, "Status Relay")

	err := h.usecase.HandleEvent(context.Background(), statusdto.EventInput{
		Kind:    "session_start",
		Workdir: workdir,
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if got := h.store.fields["status-relay"][statusout.FieldState]; got != "online" {
		t.Fatalf("project identity should derive from the checkout, store=%v", h.store.fields)
	}
	if len(h.sinks.frames) != 1 {
		t.Fatalf("delivered frame should fan out to sinks, got %d", len(h.sinks.frames))
	}
	if h.sinks.frames[0].Project != "status-relay" || h.sinks.frames[0].State != "online" {
		t.Fatalf("unexpected sink frame: %+v", h.sinks.frames[0])
	}
}

func TestHandleEventUnknownKindIsNoop(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	err := h.usecase.HandleEvent(context.Background(), statusdto.EventInput{Kind: "", Workdir: "/tmp/x"})
	if err != nil {
		t.Fatalf("unknown kind should be a silent no-op: %v", err)
	}
	if h.messenger.creates != 0 || len(h.sinks.frames) != 0 {
		t.Fatalf("no-op should touch nothing: creates=%d sinks=%d", h.messenger.creates, len(h.sinks.frames))
	}
}

func TestListProjectsReportsState(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	workdir := gitWorkdir(t, "api")

	if err := h.usecase.HandleEvent(context.Background(), statusdto.EventInput{Kind: "session_start", Workdir: workdir}); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	statuses, err := h.usecase.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(statuses) != 1 || statuses[0].Project != "api" || statuses[0].State != "online" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
	if statuses[0].Stale {
		t.Fatalf("fresh session should not be stale")
	}
}
