// Package trace records execution spans as per-session trees for later
// inspection. Spans are created by whichever component starts a unit of work
// (coordinator for agent stages, registry for tool calls), finalized once,
// and immutable afterwards.
package trace

import (
	"time"

	"github.com/segmentio/encoding/json"
)

// Component identifies the kind of work a span records
type Component string

const (
	// ComponentCoordinator marks spans for session-level pipeline work
	ComponentCoordinator Component = "coordinator"
	// ComponentAgent marks spans for a single agent execution
	ComponentAgent Component = "agent"
	// ComponentTool marks spans for a single tool invocation
	ComponentTool Component = "tool"
)

// Span is one recorded unit of work within a trace. A span belongs to
// exactly one trace; root spans have an empty ParentID. Once Duration is
// set the span is finalized and never mutated again.
type Span struct {
	ID          string            `json:"id"`
	ParentID    string            `json:"parent_id,omitempty"`
	TraceID     string            `json:"trace_id"`
	StartedAt   time.Time         `json:"started_at"`
	Duration    time.Duration     `json:"duration"`
	Component   Component         `json:"component"`
	ComponentID string            `json:"component_id"`
	Action      string            `json:"action"`
	Input       json.RawMessage   `json:"input,omitempty"`
	Output      json.RawMessage   `json:"output,omitempty"`
	Error       string            `json:"error,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// Root reports whether this span is the root of its trace
func (s *Span) Root() bool {
	return s.ParentID == ""
}
