package coordinator

import "time"

// Session is the immutable snapshot of one audit run returned by status
// queries. The coordinator owns the live record; callers only ever see
// copies.
type Session struct {
	ID          string         `json:"id"`
	Path        string         `json:"path"`
	Status      Status         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// snapshot copies the session for handing outside the lock. The result map
// is cloned shallowly; stage outputs inside it are never mutated after
// composition.
func (s *Session) snapshot() Session {
	out := *s
	if s.CompletedAt != nil {
		done := *s.CompletedAt
		out.CompletedAt = &done
	}
	if s.Result != nil {
		out.Result = make(map[string]any, len(s.Result))
		for k, v := range s.Result {
			out.Result[k] = v
		}
	}
	return out
}
