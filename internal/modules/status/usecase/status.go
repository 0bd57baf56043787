package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	sinkdto "statusrelay/internal/modules/sink/dto"
	sinkin "statusrelay/internal/modules/sink/port/in"
	"statusrelay/internal/modules/status/domain"
	statusdto "statusrelay/internal/modules/status/dto"
	statusin "statusrelay/internal/modules/status/port/in"
	statusout "statusrelay/internal/modules/status/port/out"
	"statusrelay/internal/modules/status/service"
	"statusrelay/internal/platform/clock"
	apperrors "statusrelay/internal/platform/errors"
	"statusrelay/internal/platform/projectid"
)

type Interactor struct {
	svc         *service.StatusService
	sinks       sinkin.Usecase
	store       statusout.StateStore
	transitions statusout.TransitionLog
	clock       clock.Clock
	staleAfter  time.Duration
	logger      hclog.Logger
}

func NewInteractor(
	svc *service.StatusService,
	sinks sinkin.Usecase,
	store statusout.StateStore,
	transitions statusout.TransitionLog,
	clk clock.Clock,
	staleAfter time.Duration,
	logger hclog.Logger,
) statusin.Usecase {
	return &Interactor{
		svc:         svc,
		sinks:       sinks,
		store:       store,
		transitions: transitions,
		clock:       clk,
		staleAfter:  staleAfter,
		logger:      logger,
	}
}

// HandleEvent runs one hook event through the engine. Unknown kinds and
// empty inputs fall through as no-ops; any returned error is diagnostic.
func (i *Interactor) HandleEvent(ctx context.Context, input statusdto.EventInput) error {
	event, ok := toDomainEvent(input)
	if !ok {
		i.logger.Debug("ignoring event", "kind", input.Kind)
		return nil
	}
	project := projectid.FromWorkdir(event.Workdir)

	frame, err := i.svc.Apply(ctx, project, event)
	if err != nil {
		return err
	}
	if frame != nil && i.sinks != nil {
		if err := i.sinks.Broadcast(ctx, toFrameInput(*frame)); err != nil {
			i.logger.Warn("sink broadcast failed", "project", project, "error", err)
		}
	}
	return nil
}

func (i *Interactor) RunHeartbeat(ctx context.Context, project string) error {
	return i.svc.RunHeartbeat(ctx, project)
}

func (i *Interactor) ListProjects(ctx context.Context) ([]statusdto.ProjectStatus, error) {
	projects, err := i.store.Projects(ctx)
	if err != nil {
		return nil, err
	}
	now := i.clock.Now()
	statuses := make([]statusdto.ProjectStatus, 0, len(projects))
	for _, project := range projects {
		session := i.svc.Snapshot(ctx, project)
		state := session.State
		if state == "" {
			state = domain.StateOffline
		}
		stale := i.staleAfter > 0 && state.Active() && !session.LastTransition.IsZero() &&
			now.Sub(session.LastTransition) > i.staleAfter
		statuses = append(statuses, statusdto.ProjectStatus{
			Project:        project,
			State:          string(state),
			Stale:          stale,
			Subagents:      session.Subagents,
			Tasks:          session.Tasks,
			ToolCount:      session.ToolCount,
			LastTool:       session.LastTool,
			StartedAt:      session.StartedAt,
			LastTransition: session.LastTransition,
		})
	}
	return statuses, nil
}

func (i *Interactor) History(ctx context.Context, project string, limit int) ([]statusdto.TransitionOutput, error) {
	records, err := i.transitions.Recent(ctx, project, limit)
	if err != nil {
		return nil, err
	}
	outputs := make([]statusdto.TransitionOutput, 0, len(records))
	for _, record := range records {
		outputs = append(outputs, statusdto.TransitionOutput{
			Project: record.Project,
			From:    string(record.From),
			To:      string(record.To),
			Event:   string(record.Event),
			At:      record.At,
		})
	}
	return outputs, nil
}

func (i *Interactor) Clear(ctx context.Context, project string, preserveHandle bool) error {
	projects, err := i.store.Projects(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(projects, project) {
		return fmt.Errorf("%w: %s", apperrors.ErrNoSession, project)
	}
	return i.store.Clear(ctx, project, preserveHandle)
}

func toDomainEvent(input statusdto.EventInput) (domain.Event, bool) {
	kind := domain.EventKind(input.Kind)
	switch kind {
	case domain.EventSessionStart, domain.EventSessionEnd, domain.EventNotification,
		domain.EventToolUse, domain.EventSubagentStart, domain.EventSubagentStop,
		domain.EventTaskLaunch:
	default:
		return domain.Event{}, false
	}
	return domain.Event{
		Kind:           kind,
		Notification:   domain.NotificationKind(input.Notification),
		Message:        input.Message,
		Tool:           input.Tool,
		ToolDetail:     input.ToolDetail,
		SessionID:      input.SessionID,
		PermissionMode: input.PermissionMode,
		Workdir:        input.Workdir,
	}, true
}

func toFrameInput(frame domain.Frame) sinkdto.FrameInput {
	fields := make([]sinkdto.FrameField, 0, len(frame.Fields))
	for _, f := range frame.Fields {
		fields = append(fields, sinkdto.FrameField{Name: f.Name, Value: f.Value})
	}
	return sinkdto.FrameInput{
		Project:     frame.Project,
		State:       string(frame.State),
		Title:       frame.Title,
		Description: frame.Description,
		Color:       frame.Color,
		Stale:       frame.Stale,
		Fields:      fields,
		Timestamp:   frame.Timestamp,
	}
}
