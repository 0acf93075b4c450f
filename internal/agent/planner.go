package agent

import (
	"context"
	"errors"
	"path"

	"github.com/repoaudit/coordinator/internal/coordinator/config"
)

// Planner produces the audit plan every later stage consumes. When an
// inventory tool is configured it asks the tool for the repository's module
// breakdown; otherwise it falls back to a minimal two-module plan.
type Planner struct {
	tools         Toolbox
	inventoryTool string
}

// NewPlanner creates the planning agent. inventoryTool may be empty.
func NewPlanner(tools Toolbox, inventoryTool string) *Planner {
	return &Planner{tools: tools, inventoryTool: inventoryTool}
}

func (p *Planner) ID() string { return config.AgentPlanner }

func (p *Planner) Execute(ctx context.Context, sessionID string, in Input) (Output, error) {
	if in.Path == "" {
		return Output{}, errors.New("planning requires a repository path")
	}

	plan := &Plan{Path: in.Path}
	if p.inventoryTool != "" {
		res := p.tools.Invoke(ctx, p.inventoryTool, "inventory", map[string]any{
			"path": in.Path,
		})
		if !res.OK {
			return Output{}, toolError(p.inventoryTool, res)
		}
		plan.Modules = modulesFromOutput(res.Output)
	}

	if len(plan.Modules) == 0 {
		plan.Modules = []PlanModule{
			{Name: path.Base(in.Path), Priority: 1},
			{Name: "dependencies", Priority: 2},
		}
	}
	return Output{Plan: plan}, nil
}

// modulesFromOutput decodes the inventory tool's module list. Entries may be
// bare names or objects with a priority; priorities default to list position.
func modulesFromOutput(output map[string]any) []PlanModule {
	raw, _ := output["modules"].([]any)
	out := make([]PlanModule, 0, len(raw))
	for i, entry := range raw {
		switch v := entry.(type) {
		case string:
			out = append(out, PlanModule{Name: v, Priority: i + 1})
		case map[string]any:
			m := PlanModule{Name: stringField(v, "name"), Priority: i + 1}
			if prio, ok := v["priority"].(float64); ok && prio > 0 {
				m.Priority = int(prio)
			}
			if m.Name != "" {
				out = append(out, m)
			}
		}
	}
	return out
}
