package dto

import "time"

type FrameField struct {
	Name  string
	Value string
}

// FrameInput carries one rendered status frame into the sink fan-out.
type FrameInput struct {
	Project     string
	State       string
	Title       string
	Description string
	Color       int
	Stale       bool
	Fields      []FrameField
	Timestamp   time.Time
}

type SinkInfo struct {
	Name    string
	Binary  string
	Version string
	States  []string
}
