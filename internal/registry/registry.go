package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/repoaudit/coordinator/internal/policy"
	"github.com/repoaudit/coordinator/internal/ratelimit"
	"github.com/repoaudit/coordinator/internal/retry"
	"github.com/repoaudit/coordinator/internal/trace"
)

// Registry is the policy-enforcing tool registry. All mutable state lives
// behind one lock; the registry is process-local and not shared across
// coordinator instances.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]Definition
	order  []string
	gates  map[string]*semaphore.Weighted
	logger *slog.Logger

	policy       *policy.AccessPolicy
	limiter      *ratelimit.Limiter
	tracer       *trace.Recorder
	client       *http.Client
	callTimeout  time.Duration
	probeTimeout time.Duration
	retryPolicy  retry.Policy
}

// Config holds registry construction options
type Config struct {
	// CallTimeout bounds a single outbound tool call
	CallTimeout time.Duration
	// HealthCheckTimeout bounds a liveness probe
	HealthCheckTimeout time.Duration
	// Retry is the backoff applied to transient upstream failures within
	// one invocation. The zero value disables retries.
	Retry retry.Policy
	// Client overrides the HTTP client, used by tests
	Client *http.Client
}

// New creates a registry enforcing the given access policy
func New(
	cfg Config,
	accessPolicy *policy.AccessPolicy,
	limiter *ratelimit.Limiter,
	tracer *trace.Recorder,
	logger *slog.Logger,
) *Registry {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Registry{
		defs:         make(map[string]Definition),
		gates:        make(map[string]*semaphore.Weighted),
		logger:       logger,
		policy:       accessPolicy,
		limiter:      limiter,
		tracer:       tracer,
		client:       client,
		callTimeout:  cfg.CallTimeout,
		probeTimeout: cfg.HealthCheckTimeout,
		retryPolicy:  cfg.Retry,
	}
}

// Register validates and installs a tool definition, allocating its rate
// tracker and concurrency gate. Re-registering an id overwrites the
// definition and resets both.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("register tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.ID]; !exists {
		r.order = append(r.order, def.ID)
	}
	r.defs[def.ID] = def

	r.limiter.Reset(def.ID)
	r.limiter.SetLimit(def.ID, ratelimit.Config{
		RequestsPerWindow: def.RateLimit.RequestsPerWindow,
		Window:            def.RateLimit.Window,
	})

	if def.RateLimit.MaxConcurrent > 0 {
		r.gates[def.ID] = semaphore.NewWeighted(def.RateLimit.MaxConcurrent)
	} else {
		delete(r.gates, def.ID)
	}

	r.logger.Info("tool registered",
		"tool_id", def.ID,
		"endpoint", def.Endpoint,
		"capabilities", def.Capabilities,
		"max_concurrent", def.RateLimit.MaxConcurrent,
	)
	return nil
}

// Discover returns the definitions declaring the given capability in
// registration order. Load and health never reorder the result.
func (r *Registry) Discover(capability string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Definition
	for _, id := range r.order {
		def := r.defs[id]
		if def.HasCapability(capability) {
			out = append(out, def)
		}
	}
	return out
}

// Get returns the definition for a tool id
func (r *Registry) Get(toolID string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[toolID]
	return def, ok
}

// CheckHealth probes the tool's health-check address. Tools without a
// configured address are assumed healthy.
func (r *Registry) CheckHealth(ctx context.Context, toolID string) error {
	def, ok := r.Get(toolID)
	if !ok {
		return fmt.Errorf("unknown tool: %s", toolID)
	}
	if def.HealthCheckURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, def.HealthCheckURL, nil)
	if err != nil {
		return fmt.Errorf("health check %s: %w", toolID, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check %s: %w", toolID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health check %s: status %d", toolID, resp.StatusCode)
	}
	return nil
}

func (r *Registry) gate(toolID string) *semaphore.Weighted {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gates[toolID]
}
