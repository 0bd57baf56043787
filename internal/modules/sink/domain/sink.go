package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSinkNotFound = errors.New("sink not found")
	ErrSinkTimeout  = errors.New("sink timeout")
)

// Manifest declares one out-of-process notification sink: where its binary
// lives and, optionally, which lifecycle states it wants to hear about.
type Manifest struct {
	Name   string   `yaml:"name"`
	Binary string   `yaml:"binary"`
	States []string `yaml:"states"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("sink name is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("sink binary path is required")
	}
	return nil
}

// Wants reports whether the manifest subscribes to the given state. An empty
// filter subscribes to everything.
func (m Manifest) Wants(state string) bool {
	if len(m.States) == 0 {
		return true
	}
	for _, s := range m.States {
		if s == state {
			return true
		}
	}
	return false
}

type Metadata struct {
	Name    string
	Version string
}

// PayloadField mirrors one rendered name/value pair.
type PayloadField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Payload is the frame hand-off pushed to sinks after a successful primary
// delivery.
type Payload struct {
	Project     string         `json:"project"`
	State       string         `json:"state"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Stale       bool           `json:"stale"`
	Fields      []PayloadField `json:"fields,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}
