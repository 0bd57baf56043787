package in

import (
	"context"
	"encoding/json"
	"io"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	statusdto "statusrelay/internal/modules/status/dto"
	statusin "statusrelay/internal/modules/status/port/in"
)

// readTimeout bounds the stdin read so a hung upstream caller cannot pin the
// handler forever.
const readTimeout = 5 * time.Second

// hookPayload is the upstream hook wire shape. Anything unrecognized decodes
// to zero values and falls through as a no-op.
type hookPayload struct {
	HookEventName    string          `json:"hook_event_name"`
	NotificationType string          `json:"notification_type"`
	Message          string          `json:"message"`
	ToolName         string          `json:"tool_name"`
	ToolInput        json.RawMessage `json:"tool_input"`
	SessionID        string          `json:"session_id"`
	PermissionMode   string          `json:"permission_mode"`
	Cwd              string          `json:"cwd"`
}

var eventKinds = map[string]string{
	"SessionStart":   "session_start",
	"SessionEnd":     "session_end",
	"Notification":   "notification",
	"PreToolUse":     "tool_use",
	"SubagentStart":  "subagent_start",
	"SubagentStop":   "subagent_stop",
	"BackgroundTask": "task_launch",
}

var notificationKinds = map[string]string{
	"idle":       "idle",
	"permission": "permission",
}

type HookHandler struct {
	usecase statusin.Usecase
	logger  hclog.Logger
}

func NewHookHandler(usecase statusin.Usecase, logger hclog.Logger) HookHandler {
	return HookHandler{usecase: usecase, logger: logger}
}

// Handle decodes one hook payload from r and dispatches it. It never fails
// the invocation: malformed input is treated as empty and the error return
// is diagnostic only.
func (h HookHandler) Handle(ctx context.Context, r io.Reader) error {
	raw, ok := h.readBounded(ctx, r)
	if !ok {
		return nil
	}

	payload := hookPayload{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Debug("malformed hook payload, ignoring", "error", err)
		return nil
	}

	input := statusdto.EventInput{
		Kind:           eventKinds[payload.HookEventName],
		Notification:   notificationKinds[payload.NotificationType],
		Message:        payload.Message,
		Tool:           payload.ToolName,
		SessionID:      payload.SessionID,
		PermissionMode: payload.PermissionMode,
		Workdir:        payload.Cwd,
	}
	if len(payload.ToolInput) > 0 {
		input.ToolDetail = string(payload.ToolInput)
	}
	return h.usecase.HandleEvent(ctx, input)
}

// readBounded pulls the payload off r with a deadline. On timeout the
// partial read is discarded and the event treated as empty.
func (h HookHandler) readBounded(ctx context.Context, r io.Reader) ([]byte, bool) {
	type result struct {
		raw []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
		done <- result{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, false
	case <-time.After(readTimeout):
		h.logger.Warn("timed out reading hook payload")
		return nil, false
	case res := <-done:
		if res.err != nil {
			h.logger.Debug("reading hook payload failed", "error", res.err)
			return nil, false
		}
		if len(res.raw) == 0 {
			return nil, false
		}
		return res.raw, true
	}
}
