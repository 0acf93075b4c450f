package config

import "time"

// TracerConfig holds configuration for the execution tracer
type TracerConfig struct {
	// MaxIdle is how long a trace may sit idle before the sweep purges it
	MaxIdle time.Duration
	// MaxPayloadBytes caps serialized span snapshot size
	MaxPayloadBytes int
}

// DefaultTracerConfig returns default configuration for the tracer
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{
		MaxIdle:         DefaultTraceMaxIdle,
		MaxPayloadBytes: MaxSpanPayloadBytes,
	}
}

// RegistryConfig holds configuration for the tool registry
type RegistryConfig struct {
	// CallTimeout bounds a single outbound tool call
	CallTimeout time.Duration
	// HealthCheckTimeout bounds a tool liveness probe
	HealthCheckTimeout time.Duration
}

// DefaultRegistryConfig returns default configuration for the tool registry
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		CallTimeout:        DefaultToolCallTimeout,
		HealthCheckTimeout: DefaultHealthCheckTimeout,
	}
}

// PipelineConfig holds configuration for the audit pipeline
type PipelineConfig struct {
	// ExplainTopN is the fixed cutoff for the explanation stage
	ExplainTopN int
}

// DefaultPipelineConfig returns default configuration for the pipeline
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ExplainTopN: DefaultExplainTopN,
	}
}
