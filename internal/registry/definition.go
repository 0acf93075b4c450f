// Package registry mediates every external tool call: capability lookup,
// policy enforcement, rate limiting, input sanitization, the bounded HTTP
// call itself, and output redaction, with one trace span per invocation.
package registry

import (
	"errors"
	"time"
)

// AuthConfig describes the static auth header sent to a tool server
type AuthConfig struct {
	Kind   string
	Header string
	Token  string
}

// RateLimitConfig declares a tool's admission limits. MaxConcurrent is
// actively enforced with a per-tool gate, not recorded as metadata.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	MaxConcurrent     int64
}

// Definition describes one registered tool server. Immutable once
// registered; re-registration under the same id overwrites.
type Definition struct {
	ID             string
	Endpoint       string
	Capabilities   []string
	HealthCheckURL string
	Auth           *AuthConfig
	RateLimit      RateLimitConfig
}

// Validate rejects definitions missing identity, endpoint, or capabilities
func (d *Definition) Validate() error {
	if d.ID == "" {
		return errors.New("tool definition missing id")
	}
	if d.Endpoint == "" {
		return errors.New("tool definition missing endpoint")
	}
	if len(d.Capabilities) == 0 {
		return errors.New("tool definition has empty capability set")
	}
	return nil
}

// HasCapability reports whether the definition declares the capability
func (d *Definition) HasCapability(capability string) bool {
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
