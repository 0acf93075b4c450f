// Package ratelimit implements per-(tool, session) sliding-window request
// counting for the tool registry.
package ratelimit

import (
	"sync"
	"time"
)

// Config is the per-tool window configuration
type Config struct {
	// RequestsPerWindow admits at most this many requests per trailing window
	RequestsPerWindow int
	// Window is the trailing duration requests are counted over
	Window time.Duration
}

// Limiter tracks request timestamps per (tool id, session id) pair. A
// request is admitted iff the pruned count for its pair is strictly below
// the tool's configured limit. State is process-local; each coordinator
// instance owns an independent copy.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Config
	windows map[string][]time.Time
	now     func() time.Time
}

// New creates an empty limiter
func New() *Limiter {
	return &Limiter{
		limits:  make(map[string]Config),
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// SetLimit installs or replaces the window configuration for a tool. A
// non-positive RequestsPerWindow disables limiting for that tool.
func (l *Limiter) SetLimit(toolID string, cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[toolID] = cfg
}

// Reset drops all recorded windows for a tool, used when a tool is
// re-registered under the same identity.
func (l *Limiter) Reset(toolID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := toolID + "\x00"
	for key := range l.windows {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(l.windows, key)
		}
	}
}

// Allow records and admits a request for the (tool, session) pair, or
// rejects it with the suggested backoff: the time until the window's oldest
// timestamp ages out.
func (l *Limiter) Allow(toolID, sessionID string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, ok := l.limits[toolID]
	if !ok || cfg.RequestsPerWindow <= 0 {
		return true, 0
	}

	key := toolID + "\x00" + sessionID
	now := l.now()
	window := l.prune(key, now.Add(-cfg.Window))

	if len(window) >= cfg.RequestsPerWindow {
		retryAfter := window[0].Add(cfg.Window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	l.windows[key] = append(window, now)
	return true, 0
}

// prune drops timestamps older than the cutoff and returns the survivors
func (l *Limiter) prune(key string, cutoff time.Time) []time.Time {
	window := l.windows[key]
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.windows, key)
		return nil
	}
	l.windows[key] = kept
	return kept
}
