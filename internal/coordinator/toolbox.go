package coordinator

import (
	"context"

	"github.com/repoaudit/coordinator/internal/registry"
)

// agentToolbox is the registry slice handed to an agent, bound to the
// agent's identity and the owning session so every invocation is attributed
// and rate-limited under the right keys.
type agentToolbox struct {
	registry  *registry.Registry
	callerID  string
	sessionID string
}

func (t agentToolbox) Invoke(
	ctx context.Context,
	toolID, method string,
	params map[string]any,
) registry.InvocationResult {
	return t.registry.Invoke(ctx, toolID, method, params, t.callerID, t.sessionID)
}
