package domain_test

import (
	"testing"
	"time"

	"statusrelay/internal/modules/status/domain"
)

func TestStateValidate(t *testing.T) {
	t.Parallel()
	for _, s := range []domain.State{
		domain.StateOnline, domain.StateIdle, domain.StateIdleBusy,
		domain.StatePermission, domain.StateApproved, domain.StateOffline,
	} {
		if err := s.Validate(); err != nil {
			t.Fatalf("%s should be valid: %v", s, err)
		}
	}
	if err := domain.State("sleeping").Validate(); err == nil {
		t.Fatalf("out-of-set state should fail")
	}
}

func TestStateActive(t *testing.T) {
	t.Parallel()
	if domain.StateOffline.Active() {
		t.Fatalf("offline should not be active")
	}
	if domain.State("").Active() {
		t.Fatalf("empty state should not be active")
	}
	if !domain.StatePermission.Active() {
		t.Fatalf("permission should be active")
	}
}

func TestPlanSessionLifecycle(t *testing.T) {
	t.Parallel()
	start := domain.Plan("", domain.EventSessionStart, "", 0)
	if start.Next != domain.StateOnline || start.Mode != domain.ModeResurface {
		t.Fatalf("session start should resurface into online, got %+v", start)
	}

	end := domain.Plan(domain.StateIdle, domain.EventSessionEnd, "", 0)
	if end.Next != domain.StateOffline || end.Mode != domain.ModeQuiet {
		t.Fatalf("session end should quietly go offline, got %+v", end)
	}
	if step := domain.Plan(domain.StateOffline, domain.EventSessionEnd, "", 0); step.Mode != domain.ModeNone {
		t.Fatalf("session end on an offline session should be a no-op, got %+v", step)
	}
}

func TestPlanIdleNotification(t *testing.T) {
	t.Parallel()
	step := domain.Plan(domain.StateOnline, domain.EventNotification, domain.NotifyIdle, 0)
	if step.Next != domain.StateIdle || step.Mode != domain.ModeResurface {
		t.Fatalf("idle from online should resurface, got %+v", step)
	}

	busy := domain.Plan(domain.StateOnline, domain.EventNotification, domain.NotifyIdle, 2)
	if busy.Next != domain.StateIdleBusy || busy.Mode != domain.ModeResurface {
		t.Fatalf("idle with running subagents should become idle_busy, got %+v", busy)
	}

	// Repeated idle notifications while already waiting do not re-deliver.
	for _, current := range []domain.State{domain.StateIdle, domain.StateIdleBusy, domain.StatePermission} {
		if step := domain.Plan(current, domain.EventNotification, domain.NotifyIdle, 0); step.Mode != domain.ModeNone {
			t.Fatalf("idle from %s should be a no-op, got %+v", current, step)
		}
	}
	if step := domain.Plan(domain.StateOffline, domain.EventNotification, domain.NotifyIdle, 0); step.Mode != domain.ModeNone {
		t.Fatalf("idle without a live session should be a no-op, got %+v", step)
	}
}

func TestPlanPermissionFlow(t *testing.T) {
	t.Parallel()
	ask := domain.Plan(domain.StateOnline, domain.EventNotification, domain.NotifyPermission, 0)
	if ask.Next != domain.StatePermission || ask.Mode != domain.ModeResurface {
		t.Fatalf("permission request should resurface, got %+v", ask)
	}
	if step := domain.Plan(domain.StateOffline, domain.EventNotification, domain.NotifyPermission, 0); step.Mode != domain.ModeNone {
		t.Fatalf("permission without a live session should be a no-op, got %+v", step)
	}

	approve := domain.Plan(domain.StatePermission, domain.EventToolUse, "", 0)
	if approve.Next != domain.StateApproved || approve.Mode != domain.ModeQuiet {
		t.Fatalf("tool use under permission should quietly approve, got %+v", approve)
	}
	resume := domain.Plan(domain.StateApproved, domain.EventToolUse, "", 0)
	if resume.Next != domain.StateOnline || resume.Mode != domain.ModeQuiet {
		t.Fatalf("tool use after approval should quietly resume, got %+v", resume)
	}
}

func TestPlanToolUseWakesIdle(t *testing.T) {
	t.Parallel()
	wake := domain.Plan(domain.StateIdle, domain.EventToolUse, "", 0)
	if wake.Next != domain.StateOnline || wake.Mode != domain.ModeQuiet {
		t.Fatalf("tool use should quietly wake an idle session, got %+v", wake)
	}
	// Subagent tools do not wake the main session.
	if step := domain.Plan(domain.StateIdleBusy, domain.EventToolUse, "", 3); step.Mode != domain.ModeNone {
		t.Fatalf("tool use with subagents running should be a no-op, got %+v", step)
	}
	if step := domain.Plan(domain.StateOnline, domain.EventToolUse, "", 0); step.Mode != domain.ModeNone {
		t.Fatalf("tool use while online should not transition, got %+v", step)
	}
}

func TestPlanSubagentEvents(t *testing.T) {
	t.Parallel()
	start := domain.Plan(domain.StateIdle, domain.EventSubagentStart, "", 1)
	if start.Next != domain.StateIdleBusy || start.Mode != domain.ModeResurface {
		t.Fatalf("subagent start while idle should become idle_busy, got %+v", start)
	}
	if step := domain.Plan(domain.StateOnline, domain.EventSubagentStart, "", 1); step.Mode != domain.ModeNone {
		t.Fatalf("subagent start while online should not transition, got %+v", step)
	}

	last := domain.Plan(domain.StateIdleBusy, domain.EventSubagentStop, "", 0)
	if last.Next != domain.StateIdle || last.Mode != domain.ModeResurface {
		t.Fatalf("last subagent stop should return to idle, got %+v", last)
	}
	some := domain.Plan(domain.StateIdleBusy, domain.EventSubagentStop, "", 2)
	if some.Next != domain.StateIdleBusy || some.Mode != domain.ModeResurface {
		t.Fatalf("subagent stop with others running should re-render idle_busy, got %+v", some)
	}
	if step := domain.Plan(domain.StateOnline, domain.EventSubagentStop, "", 0); step.Mode != domain.ModeNone {
		t.Fatalf("subagent stop outside idle_busy should be a no-op, got %+v", step)
	}
}

func TestPlanUnknownEvent(t *testing.T) {
	t.Parallel()
	step := domain.Plan(domain.StateOnline, domain.EventKind("mystery"), "", 0)
	if step.Next != domain.StateOnline || step.Mode != domain.ModeNone {
		t.Fatalf("unknown event should be a no-op, got %+v", step)
	}
}

func TestShouldAnnounce(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	gap := 3 * time.Second

	if !domain.ShouldAnnounce(0, 5, now.Add(-time.Millisecond), now, gap) {
		t.Fatalf("count zero should always announce")
	}
	if domain.ShouldAnnounce(4, 4, now.Add(-time.Hour), now, gap) {
		t.Fatalf("unchanged count should not re-announce")
	}
	if domain.ShouldAnnounce(4, 3, now.Add(-time.Second), now, gap) {
		t.Fatalf("update inside the gap should be suppressed")
	}
	if !domain.ShouldAnnounce(4, 3, now.Add(-5*time.Second), now, gap) {
		t.Fatalf("changed count past the gap should announce")
	}
	if !domain.ShouldAnnounce(4, 3, time.Time{}, now, gap) {
		t.Fatalf("first announcement should pass")
	}
}
