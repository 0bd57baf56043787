package service

import (
	"context"
	"time"

	"statusrelay/internal/modules/status/domain"
	statusout "statusrelay/internal/modules/status/port/out"
)

// RunHeartbeat re-renders and re-delivers the project's current state on a
// fixed interval, compensating for the upstream tool emitting no periodic
// liveness events. It returns when the session goes offline or disappears,
// or when the context is cancelled.
func (s *StatusService) RunHeartbeat(ctx context.Context, project string) error {
	interval := s.cfg.HeartbeatInterval.Std()
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("heartbeat started", "project", project, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("heartbeat stopped", "project", project)
			return nil
		case <-ticker.C:
			if !s.refresh(ctx, project) {
				s.logger.Info("heartbeat exiting, session over", "project", project)
				return nil
			}
		}
	}
}

// refresh runs one heartbeat cycle. It re-reads the state immediately before
// delivering and skips the cycle if a foreground event transitioned
// concurrently, so a stale render never overwrites newer state. The window
// between that check and the edit remains open; the next cycle or event
// corrects anything that slips through.
func (s *StatusService) refresh(ctx context.Context, project string) bool {
	session := s.load(ctx, project)
	if session.State == "" || session.State == domain.StateOffline {
		return false
	}

	frame, err := domain.BuildFrame(session, session.State, s.clock.Now(), s.renderOptions(project))
	if err != nil {
		s.logger.Warn("rendering unknown state as online", "project", project, "error", err)
	}

	current, ok, err := s.store.Read(ctx, project, statusout.FieldState)
	if err != nil {
		return true
	}
	if !ok {
		return false
	}
	if current != string(session.State) {
		s.logger.Debug("state moved underneath heartbeat, skipping cycle",
			"project", project, "built", session.State, "current", current)
		return true
	}

	if session.MessageID == "" {
		return true
	}
	if err := s.messenger.Edit(ctx, session.MessageID, frame); err != nil {
		if err == domain.ErrMessageGone {
			s.logger.Info("message vanished, recreating", "project", project)
			s.createAndPersist(ctx, &session, frame)
			return true
		}
		s.logger.Warn("heartbeat refresh failed", "project", project, "error", err)
	}
	return true
}
