package out

import (
	"context"

	"statusrelay/internal/modules/status/domain"
)

// Field names one independently-writable slot of a project record. Keeping
// each field in its own slot lets concurrent writers touch disjoint fields
// without clobbering the whole record.
type Field string

const (
	FieldState           Field = "state"
	FieldMessageID       Field = "message_id"
	FieldSessionID       Field = "session_id"
	FieldPermissionMode  Field = "permission_mode"
	FieldWorkdir         Field = "workdir"
	FieldStartedAt       Field = "started_at"
	FieldLastTransition  Field = "last_transition"
	FieldToolCount       Field = "tool_count"
	FieldLastTool        Field = "last_tool"
	FieldLastToolDetail  Field = "last_tool_detail"
	FieldSubagents       Field = "subagents"
	FieldSubagentPeak    Field = "subagent_peak"
	FieldTasks           Field = "tasks"
	FieldTaskPeak        Field = "task_peak"
	FieldLastMessage     Field = "last_message"
	FieldLastAnnounced   Field = "last_announced"
	FieldLastAnnouncedAt Field = "last_announced_at"
	FieldHeartbeatPID    Field = "heartbeat_pid"
)

// StateStore persists project record fields. Writes must never leave a
// torn value visible to concurrent readers. Writing FieldState stamps
// FieldLastTransition only when the stored value actually changes, so a
// same-state refresh does not reset staleness tracking.
type StateStore interface {
	Read(ctx context.Context, project string, field Field) (string, bool, error)
	Write(ctx context.Context, project string, field Field, value string) error
	// Clear removes the project's ephemeral fields; preserveHandle keeps
	// FieldMessageID for the next session to reclaim.
	Clear(ctx context.Context, project string, preserveHandle bool) error
	Projects(ctx context.Context) ([]string, error)
}

type Counter string

const (
	CounterSubagents Counter = "subagents"
	CounterTasks     Counter = "tasks"
)

// CounterStore serializes count updates across independently-invoked
// processes. Both methods return domain.ErrLockBusy when the lock cannot be
// taken within the bound; callers skip the update rather than proceed
// unsafely. Increment raises the counter's high-water mark when exceeded;
// Decrement floors at zero.
type CounterStore interface {
	Increment(ctx context.Context, project string, counter Counter) (value, peak int, err error)
	Decrement(ctx context.Context, project string, counter Counter) (value int, err error)
}

// Messenger performs the raw remote message operations, retrying per policy.
// Edit reports domain.ErrMessageGone when the target no longer exists so the
// caller can self-heal by creating a fresh message.
type Messenger interface {
	Create(ctx context.Context, frame domain.Frame) (string, error)
	Edit(ctx context.Context, id string, frame domain.Frame) error
	Delete(ctx context.Context, id string) error
}

// TransitionLog is a best-effort read model of real state transitions.
type TransitionLog interface {
	Append(ctx context.Context, record domain.TransitionRecord) error
	Recent(ctx context.Context, project string, limit int) ([]domain.TransitionRecord, error)
}

// HeartbeatRunner owns the refresher process for a project: Respawn
// terminates any verified-live previous heartbeat and starts a fresh one;
// Stop terminates the current one if still alive.
type HeartbeatRunner interface {
	Respawn(ctx context.Context, project string) error
	Stop(ctx context.Context, project string) error
}
