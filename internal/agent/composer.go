package agent

import (
	"context"
	"errors"

	"github.com/repoaudit/coordinator/internal/coordinator/config"
)

// Composer aggregates the prioritized, explained findings into the final
// session result payload.
type Composer struct{}

func NewComposer() *Composer { return &Composer{} }

func (c *Composer) ID() string { return config.AgentComposer }

func (c *Composer) Execute(ctx context.Context, sessionID string, in Input) (Output, error) {
	if in.Plan == nil {
		return Output{}, errors.New("composition requires a plan")
	}

	bySeverity := make(map[string]int)
	explained := 0
	for _, f := range in.Findings {
		bySeverity[string(f.Severity)]++
		if f.Explanation != "" {
			explained++
		}
	}

	result := map[string]any{
		"path":     in.Plan.Path,
		"modules":  in.Plan.Modules,
		"findings": in.Findings,
		"summary": map[string]any{
			"total":       len(in.Findings),
			"by_severity": bySeverity,
			"explained":   explained,
		},
	}
	return Output{Result: result}, nil
}
