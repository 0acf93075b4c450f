// Package agent defines the contract each pipeline stage implements and the
// built-in agents for the fixed audit pipeline. Agents never talk to tool
// servers directly; every external capability goes through a Toolbox bound to
// the agent's identity.
package agent

import (
	"context"
	"fmt"

	"github.com/repoaudit/coordinator/internal/registry"
)

// Toolbox is the agent-facing slice of the tool registry, pre-bound to the
// calling agent's id and the owning session so every call is attributed.
type Toolbox interface {
	Invoke(ctx context.Context, toolID, method string, params map[string]any) registry.InvocationResult
}

// Input carries the stage-specific input for one agent execution. Stages only
// read the fields their position in the pipeline guarantees are set.
type Input struct {
	Path     string
	Options  map[string]any
	Plan     *Plan
	Findings []Finding
}

// Output carries whatever an agent produced for the next stage
type Output struct {
	Plan     *Plan
	Findings []Finding
	Result   map[string]any
}

// Agent is one pluggable pipeline unit. Execute must be safe to re-invoke
// with the same input, and must surface fatal tool failures as its own error
// rather than swallowing them.
type Agent interface {
	ID() string
	Execute(ctx context.Context, sessionID string, in Input) (Output, error)
}

// toolError converts a failed invocation into the agent's own failure so the
// coordinator's fail-fast policy sees it
func toolError(toolID string, res registry.InvocationResult) error {
	return fmt.Errorf("tool %s failed (%s): %s", toolID, res.Code, res.Message)
}
