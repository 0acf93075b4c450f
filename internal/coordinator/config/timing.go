package config

import "time"

// Default timing configurations used throughout the coordinator
const (
	// DefaultToolCallTimeout bounds a single outbound tool-server call
	DefaultToolCallTimeout = 30 * time.Second

	// DefaultHealthCheckTimeout bounds a tool liveness probe
	DefaultHealthCheckTimeout = 5 * time.Second

	// DefaultRateWindow is the trailing window for per-tool rate limits
	DefaultRateWindow = 60 * time.Second

	// DefaultTraceMaxIdle is how long a trace may sit idle before the
	// retention sweep purges it together with its session
	DefaultTraceMaxIdle = 30 * time.Minute

	// DefaultSweepInterval is how often the retention sweep runs
	DefaultSweepInterval = 5 * time.Minute
)

// Non-timing defaults for the pipeline and tracer
const (
	// MaxSpanPayloadBytes caps the serialized size of a span input/output
	// snapshot; larger payloads are replaced with a size marker
	MaxSpanPayloadBytes = 8192

	// DefaultExplainTopN is the fixed cutoff of prioritized findings the
	// explanation stage operates on (cost control, not correctness)
	DefaultExplainTopN = 5

	// DefaultNotifierBuffer is the per-subscriber event queue depth
	DefaultNotifierBuffer = 64
)
