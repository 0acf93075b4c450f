package coordinator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/repoaudit/coordinator/internal/coordinator/config"
)

// Lifecycle event names published to subscribers
const (
	EventSessionStarted   = "session.started"
	EventSessionCompleted = "session.completed"
	EventSessionFailed    = "session.failed"
	EventStageStarted     = "stage.started"
	EventAgentStarted     = "agent.started"
	EventAgentCompleted   = "agent.completed"
	EventAgentFailed      = "agent.failed"
)

// Event is one lifecycle notification
type Event struct {
	Name      string         `json:"name"`
	SessionID string         `json:"session_id"`
	At        time.Time      `json:"at"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Notifier fans lifecycle events out to subscribers. Delivery is
// fire-and-forget: each subscriber drains its own buffered channel on its
// own goroutine, a full buffer drops the event, and a panicking subscriber
// is recovered and logged. The pipeline is never blocked or failed by a
// subscriber.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	subs   []chan Event
	wg     sync.WaitGroup
	closed bool
}

// NewNotifier creates a notifier with no subscribers
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Subscribe registers a callback for all future events
func (n *Notifier) Subscribe(fn func(Event)) {
	ch := make(chan Event, config.DefaultNotifierBuffer)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return
	}
	n.subs = append(n.subs, ch)
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		for evt := range ch {
			n.deliver(fn, evt)
		}
	}()
}

func (n *Notifier) deliver(fn func(Event), evt Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("notification subscriber panicked",
				"event", evt.Name,
				"session_id", evt.SessionID,
				"panic", r,
			)
		}
	}()
	fn(evt)
}

// Publish sends the event to every subscriber without blocking. Events to a
// subscriber with a full buffer are dropped and logged.
func (n *Notifier) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	for _, ch := range n.subs {
		select {
		case ch <- evt:
		default:
			n.logger.Warn("notification dropped, subscriber buffer full",
				"event", evt.Name,
				"session_id", evt.SessionID,
			)
		}
	}
}

// Close stops delivery and waits for subscriber goroutines to drain
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	for _, ch := range n.subs {
		close(ch)
	}
	n.mu.Unlock()

	n.wg.Wait()
}
