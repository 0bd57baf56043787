package service

import (
	"context"
	"strconv"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"statusrelay/internal/modules/status/domain"
	statusout "statusrelay/internal/modules/status/port/out"
	"statusrelay/internal/platform/clock"
	"statusrelay/internal/platform/config"
)

// StatusService is the transition engine: it runs inbound events through the
// lifecycle table and carries the results out to the store, the channel
// message, the counters and the history projection. Nothing it does may
// surface as a fatal failure to the hook invocation.
type StatusService struct {
	clock       clock.Clock
	cfg         config.Config
	store       statusout.StateStore
	counters    statusout.CounterStore
	messenger   statusout.Messenger
	transitions statusout.TransitionLog
	heartbeats  statusout.HeartbeatRunner
	logger      hclog.Logger
}

func NewStatusService(
	clk clock.Clock,
	cfg config.Config,
	store statusout.StateStore,
	counters statusout.CounterStore,
	messenger statusout.Messenger,
	transitions statusout.TransitionLog,
	heartbeats statusout.HeartbeatRunner,
	logger hclog.Logger,
) *StatusService {
	return &StatusService{
		clock:       clk,
		cfg:         cfg,
		store:       store,
		counters:    counters,
		messenger:   messenger,
		transitions: transitions,
		heartbeats:  heartbeats,
		logger:      logger,
	}
}

// Apply dispatches one event for a project. The returned frame is the render
// that was delivered, when one was; callers use it for fan-out.
func (s *StatusService) Apply(ctx context.Context, project string, event domain.Event) (*domain.Frame, error) {
	if event.Kind == domain.EventSessionStart {
		return s.startSession(ctx, project, event)
	}

	session := s.load(ctx, project)
	s.recordSideEffects(ctx, project, &session, event)

	step := domain.Plan(session.State, event.Kind, event.Notification, session.Subagents)
	now := s.clock.Now()

	announced := true
	if step.Next == domain.StateIdleBusy && step.Mode == domain.ModeResurface {
		announced = domain.ShouldAnnounce(session.Subagents, session.LastAnnounced,
			session.LastAnnouncedAt, now, s.cfg.AnnounceGap.Std())
	}

	if step.Next != session.State {
		s.write(ctx, project, statusout.FieldState, string(step.Next))
		if err := s.transitions.Append(ctx, domain.TransitionRecord{
			Project: project,
			From:    session.State,
			To:      step.Next,
			Event:   event.Kind,
			At:      now,
		}); err != nil {
			s.logger.Warn("append transition history", "project", project, "error", err)
		}
		session.State = step.Next
		session.LastTransition = now
	}

	var frame *domain.Frame
	if step.Mode != domain.ModeNone && announced {
		frame = s.deliver(ctx, &session, step)
		if step.Next == domain.StateIdleBusy {
			s.write(ctx, project, statusout.FieldLastAnnounced, strconv.Itoa(session.Subagents))
			s.write(ctx, project, statusout.FieldLastAnnouncedAt, now.Format(time.RFC3339Nano))
		}
	}

	if event.Kind == domain.EventSessionEnd && session.State == domain.StateOffline {
		if err := s.heartbeats.Stop(ctx, project); err != nil {
			s.logger.Warn("stop heartbeat", "project", project, "error", err)
		}
		s.logger.Info("session ended",
			"project", project,
			"tools", session.ToolCount,
			"peak_subagents", session.SubagentPeak,
			"background_tasks", session.Tasks,
			"peak_tasks", session.TaskPeak)
		if err := s.store.Clear(ctx, project, true); err != nil {
			s.logger.Warn("clear session state", "project", project, "error", err)
		}
	}
	return frame, nil
}

// startSession wipes any residue from the previous generation, removes its
// retained offline message before creating a fresh one, and brings the
// heartbeat up.
func (s *StatusService) startSession(ctx context.Context, project string, event domain.Event) (*domain.Frame, error) {
	now := s.clock.Now()
	retained, _, _ := s.store.Read(ctx, project, statusout.FieldMessageID)

	if err := s.store.Clear(ctx, project, false); err != nil {
		s.logger.Warn("clear previous session state", "project", project, "error", err)
	}
	s.write(ctx, project, statusout.FieldStartedAt, now.Format(time.RFC3339Nano))
	s.write(ctx, project, statusout.FieldWorkdir, event.Workdir)
	if event.SessionID != "" {
		s.write(ctx, project, statusout.FieldSessionID, event.SessionID)
	}
	if event.PermissionMode != "" {
		s.write(ctx, project, statusout.FieldPermissionMode, event.PermissionMode)
	}
	s.write(ctx, project, statusout.FieldState, string(domain.StateOnline))
	if err := s.transitions.Append(ctx, domain.TransitionRecord{
		Project: project,
		From:    domain.StateOffline,
		To:      domain.StateOnline,
		Event:   domain.EventSessionStart,
		At:      now,
	}); err != nil {
		s.logger.Warn("append transition history", "project", project, "error", err)
	}

	if retained != "" {
		if err := s.messenger.Delete(ctx, retained); err != nil && err != domain.ErrMessageGone {
			s.logger.Info("delete retained message", "project", project, "error", err)
		}
	}

	session := s.load(ctx, project)
	frame := s.createMessage(ctx, &session)

	if s.cfg.HeartbeatInterval.Std() > 0 {
		if err := s.heartbeats.Respawn(ctx, project); err != nil {
			s.logger.Warn("spawn heartbeat", "project", project, "error", err)
		}
	}
	return frame, nil
}

// recordSideEffects applies the event's bookkeeping that happens regardless
// of whether a state transition follows.
func (s *StatusService) recordSideEffects(ctx context.Context, project string, session *domain.Session, event domain.Event) {
	switch event.Kind {
	case domain.EventToolUse:
		session.ToolCount++
		s.write(ctx, project, statusout.FieldToolCount, strconv.Itoa(session.ToolCount))
		if event.Tool != "" {
			session.LastTool = event.Tool
			s.write(ctx, project, statusout.FieldLastTool, event.Tool)
		}
		if event.ToolDetail != "" {
			session.LastToolDetail = event.ToolDetail
			s.write(ctx, project, statusout.FieldLastToolDetail, event.ToolDetail)
		}

	case domain.EventSubagentStart:
		value, peak, err := s.counters.Increment(ctx, project, statusout.CounterSubagents)
		if err != nil {
			s.logger.Warn("subagent count update skipped", "project", project, "error", err)
			return
		}
		session.Subagents = value
		session.SubagentPeak = peak

	case domain.EventSubagentStop:
		value, err := s.counters.Decrement(ctx, project, statusout.CounterSubagents)
		if err != nil {
			s.logger.Warn("subagent count update skipped", "project", project, "error", err)
			return
		}
		session.Subagents = value

	case domain.EventTaskLaunch:
		value, peak, err := s.counters.Increment(ctx, project, statusout.CounterTasks)
		if err != nil {
			s.logger.Warn("task count update skipped", "project", project, "error", err)
			return
		}
		session.Tasks = value
		session.TaskPeak = peak

	case domain.EventNotification:
		if event.Message != "" {
			session.LastMessage = event.Message
			s.write(ctx, project, statusout.FieldLastMessage, event.Message)
		}
	}

	if event.PermissionMode != "" && event.PermissionMode != session.PermissionMode {
		session.PermissionMode = event.PermissionMode
		s.write(ctx, project, statusout.FieldPermissionMode, event.PermissionMode)
	}
}

// deliver renders the session at its (possibly new) state and pushes it out.
// Quiet updates edit in place; resurfacing deletes the old message and
// creates a new one so the channel re-notifies.
func (s *StatusService) deliver(ctx context.Context, session *domain.Session, step domain.Step) *domain.Frame {
	frame, err := domain.BuildFrame(*session, session.State, s.clock.Now(), s.renderOptions(session.Project))
	if err != nil {
		s.logger.Warn("rendering unknown state as online", "project", session.Project, "error", err)
	}

	switch step.Mode {
	case domain.ModeQuiet:
		if session.MessageID == "" {
			s.createAndPersist(ctx, session, frame)
			return &frame
		}
		if err := s.messenger.Edit(ctx, session.MessageID, frame); err != nil {
			if err == domain.ErrMessageGone {
				s.logger.Info("message vanished, recreating", "project", session.Project)
				s.createAndPersist(ctx, session, frame)
				return &frame
			}
			s.logger.Warn("edit message", "project", session.Project, "error", err)
		}

	case domain.ModeResurface:
		if session.MessageID != "" {
			if err := s.messenger.Delete(ctx, session.MessageID); err != nil && err != domain.ErrMessageGone {
				s.logger.Info("delete message before resurface", "project", session.Project, "error", err)
			}
		}
		s.createAndPersist(ctx, session, frame)
	}
	return &frame
}

func (s *StatusService) createMessage(ctx context.Context, session *domain.Session) *domain.Frame {
	frame, err := domain.BuildFrame(*session, session.State, s.clock.Now(), s.renderOptions(session.Project))
	if err != nil {
		s.logger.Warn("rendering unknown state as online", "project", session.Project, "error", err)
	}
	s.createAndPersist(ctx, session, frame)
	return &frame
}

func (s *StatusService) createAndPersist(ctx context.Context, session *domain.Session, frame domain.Frame) {
	id, err := s.messenger.Create(ctx, frame)
	if err != nil {
		s.logger.Warn("create message", "project", session.Project, "error", err)
		return
	}
	if id == "" {
		return
	}
	session.MessageID = id
	s.write(ctx, session.Project, statusout.FieldMessageID, id)
}

func (s *StatusService) renderOptions(project string) domain.RenderOptions {
	colors := map[domain.State]string{}
	for name, raw := range s.cfg.Colors {
		colors[domain.State(name)] = raw
	}
	return domain.RenderOptions{
		DisplayName:    s.cfg.DisplayName,
		ShowSessionID:  s.cfg.Show.SessionID,
		ShowPermission: s.cfg.Show.PermissionMode,
		ShowWorkdir:    s.cfg.Show.Workdir,
		ShowToolDetail: s.cfg.Show.ToolDetail,
		StaleAfter:     s.cfg.StaleAfter.Std(),
		Colors:         colors,
		ProjectColor:   s.cfg.ProjectColors[project],
	}
}

// write is the storage policy from the error-handling design: failures are
// logged and swallowed, callers proceed on best-effort defaults.
func (s *StatusService) write(ctx context.Context, project string, field statusout.Field, value string) {
	if err := s.store.Write(ctx, project, field, value); err != nil {
		s.logger.Warn("state write failed", "project", project, "field", field, "error", err)
	}
}

// load assembles the session snapshot from the per-field records, defaulting
// every unreadable field.
func (s *StatusService) load(ctx context.Context, project string) domain.Session {
	session := domain.Session{Project: project}
	session.State = domain.State(s.readString(ctx, project, statusout.FieldState))
	session.MessageID = s.readString(ctx, project, statusout.FieldMessageID)
	session.SessionID = s.readString(ctx, project, statusout.FieldSessionID)
	session.PermissionMode = s.readString(ctx, project, statusout.FieldPermissionMode)
	session.Workdir = s.readString(ctx, project, statusout.FieldWorkdir)
	session.LastTool = s.readString(ctx, project, statusout.FieldLastTool)
	session.LastToolDetail = s.readString(ctx, project, statusout.FieldLastToolDetail)
	session.LastMessage = s.readString(ctx, project, statusout.FieldLastMessage)
	session.StartedAt = s.readTime(ctx, project, statusout.FieldStartedAt)
	session.LastTransition = s.readTime(ctx, project, statusout.FieldLastTransition)
	session.LastAnnouncedAt = s.readTime(ctx, project, statusout.FieldLastAnnouncedAt)
	session.ToolCount = s.readInt(ctx, project, statusout.FieldToolCount)
	session.Subagents = s.readInt(ctx, project, statusout.FieldSubagents)
	session.SubagentPeak = s.readInt(ctx, project, statusout.FieldSubagentPeak)
	session.Tasks = s.readInt(ctx, project, statusout.FieldTasks)
	session.TaskPeak = s.readInt(ctx, project, statusout.FieldTaskPeak)
	session.LastAnnounced = s.readInt(ctx, project, statusout.FieldLastAnnounced)
	return session
}

func (s *StatusService) readString(ctx context.Context, project string, field statusout.Field) string {
	value, _, err := s.store.Read(ctx, project, field)
	if err != nil {
		s.logger.Warn("state read failed", "project", project, "field", field, "error", err)
		return ""
	}
	return value
}

func (s *StatusService) readInt(ctx context.Context, project string, field statusout.Field) int {
	raw := s.readString(ctx, project, field)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

func (s *StatusService) readTime(ctx context.Context, project string, field statusout.Field) time.Time {
	raw := s.readString(ctx, project, field)
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// Snapshot exposes the assembled session for read-side consumers.
func (s *StatusService) Snapshot(ctx context.Context, project string) domain.Session {
	return s.load(ctx, project)
}
