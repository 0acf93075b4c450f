package agent

import (
	"context"
	"fmt"

	"github.com/repoaudit/coordinator/internal/coordinator/config"
)

// Explainer attaches a human-readable explanation to the highest-scored
// findings. Only the top N are explained; the cutoff bounds cost, not
// correctness, and the remaining findings pass through untouched.
type Explainer struct {
	tools       Toolbox
	explainTool string
	topN        int
}

// NewExplainer creates the explanation agent. explainTool may be empty, in
// which case explanations are composed locally.
func NewExplainer(tools Toolbox, explainTool string, topN int) *Explainer {
	if topN <= 0 {
		topN = config.DefaultExplainTopN
	}
	return &Explainer{tools: tools, explainTool: explainTool, topN: topN}
}

func (e *Explainer) ID() string { return config.AgentExplainer }

func (e *Explainer) Execute(ctx context.Context, sessionID string, in Input) (Output, error) {
	findings := make([]Finding, len(in.Findings))
	copy(findings, in.Findings)

	limit := e.topN
	if limit > len(findings) {
		limit = len(findings)
	}
	for i := 0; i < limit; i++ {
		explanation, err := e.explain(ctx, findings[i])
		if err != nil {
			return Output{}, err
		}
		findings[i].Explanation = explanation
	}
	return Output{Findings: findings}, nil
}

func (e *Explainer) explain(ctx context.Context, f Finding) (string, error) {
	if e.explainTool == "" {
		return fmt.Sprintf("%s finding in %s: rule %s matched (%s).",
			f.Severity, f.Module, f.RuleID, f.Description), nil
	}
	res := e.tools.Invoke(ctx, e.explainTool, "explain", map[string]any{
		"rule_id":     f.RuleID,
		"module":      f.Module,
		"severity":    string(f.Severity),
		"description": f.Description,
	})
	if !res.OK {
		return "", toolError(e.explainTool, res)
	}
	explanation := stringField(res.Output, "explanation")
	if explanation == "" {
		return "", fmt.Errorf("tool %s returned no explanation for %s", e.explainTool, f.RuleID)
	}
	return explanation, nil
}
