package trace

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

// Recorder is the append-only span-tree recorder, keyed by trace id
// (= session id). All access goes through a single lock; the recorder is
// process-local state and is not shared across coordinator instances.
type Recorder struct {
	mu           sync.Mutex
	logger       *slog.Logger
	maxPayload   int
	active       map[string]*Span
	traces       map[string][]Span
	lastActivity map[string]time.Time
	now          func() time.Time
}

// NewRecorder creates a recorder with the given payload size cap.
// Payloads whose serialized form exceeds maxPayloadBytes are replaced with
// a size marker to bound memory.
func NewRecorder(logger *slog.Logger, maxPayloadBytes int) *Recorder {
	return &Recorder{
		logger:       logger,
		maxPayload:   maxPayloadBytes,
		active:       make(map[string]*Span),
		traces:       make(map[string][]Span),
		lastActivity: make(map[string]time.Time),
		now:          time.Now,
	}
}

// StartSpan creates and activates a span under the given parent (empty
// parentID starts a root span) and returns its id.
func (r *Recorder) StartSpan(
	traceID, parentID string,
	component Component,
	componentID, action string,
	input any,
	tags map[string]string,
) string {
	span := &Span{
		ID:          uuid.NewString(),
		ParentID:    parentID,
		TraceID:     traceID,
		StartedAt:   r.now(),
		Component:   component,
		ComponentID: componentID,
		Action:      action,
		Input:       r.snapshot(input),
		Tags:        cloneTags(tags),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[span.ID] = span
	r.lastActivity[traceID] = span.StartedAt
	return span.ID
}

// EndSpan finalizes an active span with either an output snapshot or an
// error, computing the duration from wall-clock elapsed time. Ending an
// unknown span id is a logged no-op.
func (r *Recorder) EndSpan(spanID string, output any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span, ok := r.active[spanID]
	if !ok {
		r.logger.Warn("end of unknown span ignored", "span_id", spanID)
		return
	}
	delete(r.active, spanID)

	span.Duration = r.now().Sub(span.StartedAt)
	if err != nil {
		span.Error = err.Error()
	} else {
		span.Output = r.snapshot(output)
	}

	r.traces[span.TraceID] = append(r.traces[span.TraceID], *span)
	r.lastActivity[span.TraceID] = r.now()
}

// Spans returns a copy of the finalized spans for a trace in completion
// order. The second return is false when the trace has no spans at all.
func (r *Recorder) Spans(traceID string) ([]Span, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	spans, ok := r.traces[traceID]
	if !ok {
		return nil, false
	}
	out := make([]Span, len(spans))
	copy(out, spans)
	return out, true
}

// ActiveCount returns the number of in-flight spans across all traces
func (r *Recorder) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// SweepIdle purges every trace whose most recent activity is older than
// maxAge, wholesale. A still-active span inside a purged trace is a defect:
// it is logged, then dropped with its trace. Returns the number of purged
// traces.
func (r *Recorder) SweepIdle(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	purged := 0
	for traceID, last := range r.lastActivity {
		if last.After(cutoff) {
			continue
		}
		for spanID, span := range r.active {
			if span.TraceID == traceID {
				r.logger.Error("purging trace with unfinalized span",
					"trace_id", traceID,
					"span_id", spanID,
					"component", span.Component,
					"action", span.Action,
				)
				delete(r.active, spanID)
			}
		}
		delete(r.traces, traceID)
		delete(r.lastActivity, traceID)
		purged++
	}
	return purged
}

// snapshot serializes a span payload, substituting a size marker when the
// encoding exceeds the configured cap
func (r *Recorder) snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf(`{"unserializable":%q}`, err.Error()))
	}
	if r.maxPayload > 0 && len(data) > r.maxPayload {
		return json.RawMessage(fmt.Sprintf(`{"truncated":true,"bytes":%d}`, len(data)))
	}
	return data
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
