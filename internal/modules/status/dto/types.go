package dto

import "time"

// EventInput is one decoded hook payload. Zero-valued fields are simply
// absent; an all-zero input is a no-op.
type EventInput struct {
	Kind           string
	Notification   string
	Message        string
	Tool           string
	ToolDetail     string
	SessionID      string
	PermissionMode string
	Workdir        string
}

type ProjectStatus struct {
	Project        string
	State          string
	Stale          bool
	Subagents      int
	Tasks          int
	ToolCount      int
	LastTool       string
	StartedAt      time.Time
	LastTransition time.Time
}

type TransitionOutput struct {
	Project string
	From    string
	To      string
	Event   string
	At      time.Time
}
