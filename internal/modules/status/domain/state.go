package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMessageGone  = errors.New("remote message no longer exists")
	ErrLockBusy     = errors.New("counter lock busy")
	ErrUnknownState = errors.New("unknown lifecycle state")
)

// State is the closed set of lifecycle phases a tracked project moves through.
type State string

const (
	StateOnline     State = "online"
	StateIdle       State = "idle"
	StateIdleBusy   State = "idle_busy"
	StatePermission State = "permission"
	StateApproved   State = "approved"
	StateOffline    State = "offline"
)

func (s State) Validate() error {
	switch s {
	case StateOnline, StateIdle, StateIdleBusy, StatePermission, StateApproved, StateOffline:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownState, s)
	}
}

// Active reports whether the state belongs to a running session.
func (s State) Active() bool {
	switch s {
	case StateOnline, StateIdle, StateIdleBusy, StatePermission, StateApproved:
		return true
	default:
		return false
	}
}

func (s State) Label() string {
	switch s {
	case StateOnline:
		return "Working"
	case StateIdle:
		return "Waiting for input"
	case StateIdleBusy:
		return "Waiting (subagents running)"
	case StatePermission:
		return "Permission needed"
	case StateApproved:
		return "Approved"
	case StateOffline:
		return "Offline"
	default:
		return string(s)
	}
}

type EventKind string

const (
	EventSessionStart  EventKind = "session_start"
	EventSessionEnd    EventKind = "session_end"
	EventNotification  EventKind = "notification"
	EventToolUse       EventKind = "tool_use"
	EventSubagentStart EventKind = "subagent_start"
	EventSubagentStop  EventKind = "subagent_stop"
	EventTaskLaunch    EventKind = "task_launch"
)

type NotificationKind string

const (
	NotifyIdle       NotificationKind = "idle"
	NotifyPermission NotificationKind = "permission"
)

// Event is one inbound hook occurrence, already reduced to domain terms.
type Event struct {
	Kind           EventKind
	Notification   NotificationKind
	Message        string
	Tool           string
	ToolDetail     string
	SessionID      string
	PermissionMode string
	Workdir        string
}

// Session is the persisted per-project record, assembled from the state store.
type Session struct {
	Project         string
	State           State
	MessageID       string
	SessionID       string
	PermissionMode  string
	Workdir         string
	StartedAt       time.Time
	LastTransition  time.Time
	ToolCount       int
	LastTool        string
	LastToolDetail  string
	Subagents       int
	SubagentPeak    int
	Tasks           int
	TaskPeak        int
	LastMessage     string
	LastAnnounced   int
	LastAnnouncedAt time.Time
}

// TransitionRecord is one row of the transition history projection.
type TransitionRecord struct {
	Project string
	From    State
	To      State
	Event   EventKind
	At      time.Time
}

// DeliveryMode selects how a transition reaches the channel. Quiet edits do
// not re-notify readers; a resurface (delete + recreate) does, so it is
// reserved for states meant to draw attention.
type DeliveryMode int

const (
	ModeNone DeliveryMode = iota
	ModeQuiet
	ModeResurface
)

// Step is the outcome of running one event through the transition table.
type Step struct {
	Next State
	Mode DeliveryMode
}

// Plan runs the lifecycle transition table. current carries the stored state
// ("" when no record exists); subagents is the count after the event's
// counter update has been applied. Events that do not transition return the
// current state with ModeNone.
func Plan(current State, kind EventKind, notification NotificationKind, subagents int) Step {
	stay := Step{Next: current, Mode: ModeNone}

	switch kind {
	case EventSessionStart:
		return Step{Next: StateOnline, Mode: ModeResurface}

	case EventSessionEnd:
		if current.Active() {
			return Step{Next: StateOffline, Mode: ModeQuiet}
		}
		return stay

	case EventNotification:
		switch notification {
		case NotifyIdle:
			if current == StateIdle || current == StateIdleBusy || current == StatePermission {
				return stay
			}
			if !current.Active() {
				return stay
			}
			if subagents > 0 {
				return Step{Next: StateIdleBusy, Mode: ModeResurface}
			}
			return Step{Next: StateIdle, Mode: ModeResurface}
		case NotifyPermission:
			if current.Active() {
				return Step{Next: StatePermission, Mode: ModeResurface}
			}
			return stay
		default:
			return stay
		}

	case EventSubagentStart:
		if current == StateIdle || current == StateIdleBusy {
			return Step{Next: StateIdleBusy, Mode: ModeResurface}
		}
		return stay

	case EventSubagentStop:
		if current != StateIdleBusy {
			return stay
		}
		if subagents == 0 {
			return Step{Next: StateIdle, Mode: ModeResurface}
		}
		return Step{Next: StateIdleBusy, Mode: ModeResurface}

	case EventToolUse:
		switch current {
		case StatePermission:
			return Step{Next: StateApproved, Mode: ModeQuiet}
		case StateApproved:
			return Step{Next: StateOnline, Mode: ModeQuiet}
		case StateIdle, StateIdleBusy:
			if subagents == 0 {
				return Step{Next: StateOnline, Mode: ModeQuiet}
			}
			return stay
		default:
			return stay
		}

	default:
		return stay
	}
}

// ShouldAnnounce gates repeated subagent-count renders. A count of zero
// always passes; otherwise identical counts and updates inside the minimum
// gap are suppressed.
func ShouldAnnounce(count, lastAnnounced int, lastAt, now time.Time, minGap time.Duration) bool {
	if count == 0 {
		return true
	}
	if count == lastAnnounced {
		return false
	}
	if !lastAt.IsZero() && now.Sub(lastAt) < minGap {
		return false
	}
	return true
}
