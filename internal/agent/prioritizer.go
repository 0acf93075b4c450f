package agent

import (
	"context"
	"sort"

	"github.com/repoaudit/coordinator/internal/coordinator/config"
)

// Prioritizer assigns each validated finding a score and orders the list by
// descending score. Ties keep their incoming order.
type Prioritizer struct{}

func NewPrioritizer() *Prioritizer { return &Prioritizer{} }

func (p *Prioritizer) ID() string { return config.AgentPrioritizer }

func (p *Prioritizer) Execute(ctx context.Context, sessionID string, in Input) (Output, error) {
	priorities := make(map[string]int)
	if in.Plan != nil {
		for _, m := range in.Plan.Modules {
			priorities[m.Name] = m.Priority
		}
	}

	scored := make([]Finding, len(in.Findings))
	copy(scored, in.Findings)
	for i := range scored {
		scored[i].Score = score(scored[i], priorities)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return Output{Findings: scored}, nil
}

// score weights the severity class, with a bonus for findings in
// high-priority planned modules
func score(f Finding, priorities map[string]int) int {
	s := severityWeight(f.Severity) * 10
	if prio, ok := priorities[f.Module]; ok && prio >= 1 && prio <= 5 {
		s += 5 - prio + 1
	}
	return s
}
