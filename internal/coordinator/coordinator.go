// Package coordinator owns the audit session lifecycle: it creates sessions,
// drives the fixed agent pipeline against each one, publishes lifecycle
// events, and answers status and trace queries.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/repoaudit/coordinator/internal/trace"
)

// Request is one audit submission
type Request struct {
	Path    string
	Options map[string]any
}

// Coordinator drives the pipeline and owns all session state. State is
// process-local; instances never share sessions.
type Coordinator struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	pipeline *Pipeline
	tracer   *trace.Recorder
	notifier *Notifier
	logger   *slog.Logger
}

// New creates a coordinator. One instance is constructed at startup and
// passed to every handler; there is no ambient global.
func New(pipeline *Pipeline, tracer *trace.Recorder, notifier *Notifier, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		sessions: make(map[string]*Session),
		pipeline: pipeline,
		tracer:   tracer,
		notifier: notifier,
		logger:   logger,
	}
}

// Create validates the request, registers a Planning session, and starts
// the pipeline asynchronously. It returns the session id without waiting
// for the pipeline.
func (c *Coordinator) Create(ctx context.Context, req Request) (string, error) {
	if req.Path == "" {
		return "", errors.New("create session: repository path is required")
	}

	id := uuid.NewString()
	session := &Session{
		ID:        id,
		Path:      req.Path,
		Status:    StatusPlanning,
		StartedAt: time.Now(),
	}

	c.mu.Lock()
	c.sessions[id] = session
	c.mu.Unlock()

	c.logger.Info("session created", "session_id", id, "path", req.Path)
	c.notifier.Publish(Event{
		Name:      EventSessionStarted,
		SessionID: id,
		Payload:   map[string]any{"path": req.Path},
	})

	// Sessions are not cancelable, so the run does not inherit the
	// caller's context
	go c.run(context.Background(), id, req)

	return id, nil
}

// run drives the pipeline for one session and records the outcome
func (c *Coordinator) run(ctx context.Context, id string, req Request) {
	c.setStatus(id, StatusRunning, nil)

	result, err := c.pipeline.Run(ctx, id, req)
	done := time.Now()

	if err != nil {
		c.setStatus(id, StatusFailed, func(s *Session) {
			s.CompletedAt = &done
			s.Error = err.Error()
		})
		c.logger.Warn("session failed", "session_id", id, "error", err)
		c.notifier.Publish(Event{
			Name:      EventSessionFailed,
			SessionID: id,
			Payload:   map[string]any{"error": err.Error()},
		})
		return
	}

	c.setStatus(id, StatusCompleted, func(s *Session) {
		s.CompletedAt = &done
		s.Result = result
	})
	c.logger.Info("session completed", "session_id", id, "duration", done.Sub(c.startOf(id)))
	c.notifier.Publish(Event{
		Name:      EventSessionCompleted,
		SessionID: id,
	})
}

// setStatus applies a lifecycle transition. A transition out of a terminal
// state is a defect: it is logged and refused, never applied.
func (c *Coordinator) setStatus(id string, to Status, mutate func(*Session)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[id]
	if !ok {
		return false
	}
	if !validTransition(s.Status, to) {
		c.logger.Error("invalid session transition",
			"session_id", id,
			"from", string(s.Status),
			"to", string(to),
		)
		return false
	}
	s.Status = to
	if mutate != nil {
		mutate(s)
	}
	return true
}

func (c *Coordinator) startOf(id string) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.sessions[id]; ok {
		return s.StartedAt
	}
	return time.Time{}
}

// Get returns a copy of the session snapshot
func (c *Coordinator) Get(id string) (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sessions[id]
	if !ok {
		return Session{}, false
	}
	return s.snapshot(), true
}

// Trace returns the session's span timeline with offsets relative to the
// earliest span
func (c *Coordinator) Trace(id string) (trace.Timeline, bool) {
	return c.tracer.Timeline(id)
}

// SweepIdle purges traces idle past maxAge and evicts the sessions that
// owned them. It returns the number of evicted sessions.
func (c *Coordinator) SweepIdle(maxAge time.Duration) int {
	c.tracer.SweepIdle(maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, s := range c.sessions {
		if _, alive := c.tracer.Spans(id); alive {
			continue
		}
		// A session briefly has no trace before its root span starts;
		// only evict once it is terminal or clearly stale
		if !s.Status.Terminal() && time.Since(s.StartedAt) <= maxAge {
			continue
		}
		delete(c.sessions, id)
		evicted++
	}
	if evicted > 0 {
		c.logger.Info("evicted idle sessions", "count", evicted)
	}
	return evicted
}
