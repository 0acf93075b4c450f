package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/repoaudit/coordinator/internal/coordinator/config"
)

// Analyzer is one member of the parallel analysis stage. The three built-in
// analyzers share the execution shape and differ only in identity, scan tool,
// and fallback rule family.
type Analyzer struct {
	id       string
	scanTool string
	ruleID   string
	tools    Toolbox
}

// NewStaticAnalyzer scans module source for rule violations
func NewStaticAnalyzer(tools Toolbox, scanTool string) *Analyzer {
	return &Analyzer{
		id:       config.AgentStaticAnalyzer,
		scanTool: scanTool,
		ruleID:   "static/unreviewed-module",
		tools:    tools,
	}
}

// NewDependencyAuditor checks declared dependencies against advisories
func NewDependencyAuditor(tools Toolbox, scanTool string) *Analyzer {
	return &Analyzer{
		id:       config.AgentDependencyAuditor,
		scanTool: scanTool,
		ruleID:   "deps/unaudited-manifest",
		tools:    tools,
	}
}

// NewComplianceChecker checks modules against the configured policy baseline
func NewComplianceChecker(tools Toolbox, scanTool string) *Analyzer {
	return &Analyzer{
		id:       config.AgentComplianceChecker,
		scanTool: scanTool,
		ruleID:   "compliance/unverified-module",
		tools:    tools,
	}
}

func (a *Analyzer) ID() string { return a.id }

func (a *Analyzer) Execute(ctx context.Context, sessionID string, in Input) (Output, error) {
	if in.Plan == nil {
		return Output{}, errors.New("analysis requires a plan")
	}

	if a.scanTool != "" {
		names := make([]any, 0, len(in.Plan.Modules))
		for _, m := range in.Plan.Modules {
			names = append(names, m.Name)
		}
		res := a.tools.Invoke(ctx, a.scanTool, "scan", map[string]any{
			"path":    in.Plan.Path,
			"modules": names,
		})
		if !res.OK {
			return Output{}, toolError(a.scanTool, res)
		}
		return Output{Findings: findingsFromOutput(res.Output, a.id)}, nil
	}

	// No scanner configured: flag every planned module for manual review,
	// weighted by its planned priority.
	findings := make([]Finding, 0, len(in.Plan.Modules))
	for _, m := range in.Plan.Modules {
		severity := SeverityLow
		if m.Priority == 1 {
			severity = SeverityMedium
		}
		findings = append(findings, Finding{
			ID:          newFindingID(),
			RuleID:      a.ruleID,
			Module:      m.Name,
			Severity:    severity,
			Description: fmt.Sprintf("module %s was not scanned and needs manual review", m.Name),
			Source:      a.id,
		})
	}
	return Output{Findings: findings}, nil
}
