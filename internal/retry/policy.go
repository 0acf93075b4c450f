// Package retry holds the backoff policy the tool registry applies to
// transient upstream failures. Retries happen per call inside the registry;
// pipeline stages are never retried.
package retry

import (
	"errors"
	"math"
	"time"
)

// Policy defines backoff behavior for retryable tool-call failures
type Policy struct {
	MaxRetries        int           // Retry attempts after the first call (0 = no retries)
	InitialDelay      time.Duration // Delay before the first retry
	MaxDelay          time.Duration // Ceiling for the backoff delay
	BackoffMultiplier float64       // Exponential growth factor (e.g. 2.0)
}

// DefaultPolicy returns the default backoff for transient tool failures
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        2,
		InitialDelay:      200 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Disabled returns a policy that never retries
func Disabled() Policy {
	return Policy{}
}

// Delay returns the backoff before the given retry attempt, counted from
// zero. The delay grows exponentially and is clamped to MaxDelay.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return p.InitialDelay
	}
	delay := float64(p.InitialDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Validate checks that the policy is internally consistent. A zero policy
// (no retries) is valid.
func (p *Policy) Validate() error {
	if p.MaxRetries < 0 {
		return errors.New("MaxRetries must be non-negative")
	}
	if p.MaxRetries == 0 {
		return nil
	}
	if p.InitialDelay <= 0 {
		return errors.New("InitialDelay must be positive")
	}
	if p.MaxDelay <= 0 {
		return errors.New("MaxDelay must be positive")
	}
	if p.BackoffMultiplier <= 0 {
		return errors.New("BackoffMultiplier must be positive")
	}
	if p.InitialDelay > p.MaxDelay {
		return errors.New("InitialDelay cannot be greater than MaxDelay")
	}
	return nil
}
