package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DetailLimit bounds any free-text value rendered into a frame field.
const DetailLimit = 1024

const staleMarker = "possibly stale"

// Default embed accent per state; config colors override these.
var defaultColors = map[State]int{
	StateOnline:     0x57f287,
	StateIdle:       0xfee75c,
	StateIdleBusy:   0xe67e22,
	StatePermission: 0xed4245,
	StateApproved:   0x5865f2,
	StateOffline:    0x95a5a6,
}

type RenderOptions struct {
	DisplayName    string
	ShowSessionID  bool
	ShowPermission bool
	ShowWorkdir    bool
	ShowToolDetail bool
	StaleAfter     time.Duration
	Colors         map[State]string
	ProjectColor   string
}

// FrameField is one name/value pair in the rendered notification.
type FrameField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Frame is the ephemeral render of a session at one state. It is rebuilt for
// every delivery and never persisted.
type Frame struct {
	Project     string       `json:"project"`
	State       State        `json:"state"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []FrameField `json:"fields"`
	Footer      string       `json:"footer"`
	Timestamp   time.Time    `json:"timestamp"`
	Stale       bool         `json:"stale"`
}

// BuildFrame renders session at the target state. An out-of-set state falls
// back to the online look; the returned error flags the fallback so the
// caller can log it, the frame itself is still usable.
func BuildFrame(session Session, target State, now time.Time, opts RenderOptions) (Frame, error) {
	var fallback error
	look := target
	if err := look.Validate(); err != nil {
		fallback = err
		look = StateOnline
	}

	frame := Frame{
		Project:   session.Project,
		State:     look,
		Title:     fmt.Sprintf("%s · %s", opts.DisplayName, session.Project),
		Color:     resolveColor(look, opts),
		Timestamp: now,
	}

	desc := look.Label()
	stale := opts.StaleAfter > 0 && !session.LastTransition.IsZero() &&
		now.Sub(session.LastTransition) > opts.StaleAfter
	if stale {
		frame.Stale = true
		desc += " (" + staleMarker + ")"
	}
	frame.Description = desc

	switch look {
	case StateIdleBusy:
		frame.Fields = append(frame.Fields, FrameField{
			Name: "Subagents", Value: strconv.Itoa(session.Subagents), Inline: true,
		})
	case StatePermission:
		if session.LastMessage != "" {
			frame.Fields = append(frame.Fields, FrameField{
				Name: "Request", Value: Truncate(session.LastMessage, DetailLimit),
			})
		}
		if session.PermissionMode != "" && opts.ShowPermission {
			frame.Fields = append(frame.Fields, FrameField{
				Name: "Mode", Value: session.PermissionMode, Inline: true,
			})
		}
	case StateOffline:
		frame.Fields = append(frame.Fields,
			FrameField{Name: "Tools used", Value: strconv.Itoa(session.ToolCount), Inline: true},
			FrameField{Name: "Peak subagents", Value: strconv.Itoa(session.SubagentPeak), Inline: true},
			FrameField{Name: "Background tasks", Value: strconv.Itoa(session.Tasks), Inline: true},
		)
	}

	if session.LastTool != "" && look != StateOffline {
		value := session.LastTool
		if opts.ShowToolDetail && session.LastToolDetail != "" {
			value = session.LastTool + ": " + session.LastToolDetail
		}
		frame.Fields = append(frame.Fields, FrameField{
			Name: "Last tool", Value: Truncate(value, DetailLimit), Inline: true,
		})
	}
	if opts.ShowWorkdir && session.Workdir != "" {
		frame.Fields = append(frame.Fields, FrameField{
			Name: "Directory", Value: Truncate(session.Workdir, DetailLimit),
		})
	}
	if opts.ShowSessionID && session.SessionID != "" {
		frame.Fields = append(frame.Fields, FrameField{
			Name: "Session", Value: session.SessionID, Inline: true,
		})
	}

	if !session.StartedAt.IsZero() {
		frame.Footer = "since " + session.StartedAt.Format("15:04 MST")
	}
	return frame, fallback
}

// Truncate cuts value to at most limit runes, marking the cut with a
// continuation marker. A value exactly at the limit passes untouched.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func resolveColor(s State, opts RenderOptions) int {
	if opts.ProjectColor != "" {
		if v, ok := parseHexColor(opts.ProjectColor); ok {
			return v
		}
	}
	if raw, ok := opts.Colors[s]; ok {
		if v, ok := parseHexColor(raw); ok {
			return v
		}
	}
	return defaultColors[s]
}

func parseHexColor(raw string) (int, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(trimmed, 16, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
