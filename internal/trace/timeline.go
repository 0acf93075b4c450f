package trace

import (
	"sort"
	"time"
)

// TimelineEntry is a finalized span with its start offset relative to the
// earliest span in the trace
type TimelineEntry struct {
	Span   Span          `json:"span"`
	Offset time.Duration `json:"offset"`
}

// Timeline is the full span tree for one trace with normalized timestamps
type Timeline struct {
	TraceID string          `json:"trace_id"`
	Total   time.Duration   `json:"total"`
	Entries []TimelineEntry `json:"entries"`
}

// Timeline returns all finalized spans for a trace ordered by start time,
// with offsets relative to the earliest span and the total observed
// duration (earliest start to latest completion).
func (r *Recorder) Timeline(traceID string) (Timeline, bool) {
	spans, ok := r.Spans(traceID)
	if !ok {
		return Timeline{}, false
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].StartedAt.Before(spans[j].StartedAt)
	})

	tl := Timeline{TraceID: traceID, Entries: make([]TimelineEntry, 0, len(spans))}
	if len(spans) == 0 {
		return tl, true
	}

	earliest := spans[0].StartedAt
	var latestEnd time.Time
	for _, s := range spans {
		tl.Entries = append(tl.Entries, TimelineEntry{
			Span:   s,
			Offset: s.StartedAt.Sub(earliest),
		})
		if end := s.StartedAt.Add(s.Duration); end.After(latestEnd) {
			latestEnd = end
		}
	}
	tl.Total = latestEnd.Sub(earliest)
	return tl, true
}
