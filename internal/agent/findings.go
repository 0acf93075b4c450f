package agent

import (
	"github.com/google/uuid"
)

// Severity classifies a finding's impact
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// severityWeight is the base score contribution of a severity class
func severityWeight(s Severity) int {
	switch s {
	case SeverityCritical:
		return 9
	case SeverityHigh:
		return 7
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// PlanModule is one unit of the repository the planner scheduled for analysis
type PlanModule struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// Plan is the planning stage's output, consumed by every later stage
type Plan struct {
	Path    string       `json:"path"`
	Modules []PlanModule `json:"modules"`
}

// Module returns the planned module with the given name
func (p *Plan) Module(name string) (PlanModule, bool) {
	for _, m := range p.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return PlanModule{}, false
}

// Finding is one issue reported by an analysis agent. Score is assigned by
// the prioritization stage; Explanation by the explanation stage.
type Finding struct {
	ID            string   `json:"id"`
	RuleID        string   `json:"rule_id"`
	Module        string   `json:"module"`
	Severity      Severity `json:"severity"`
	Score         int      `json:"score"`
	Description   string   `json:"description"`
	Source        string   `json:"source"`
	FalsePositive bool     `json:"false_positive,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// findingsFromOutput decodes a tool server's findings list. Entries missing
// an id get one allocated; entries that are not objects are skipped.
func findingsFromOutput(output map[string]any, source string) []Finding {
	raw, _ := output["findings"].([]any)
	out := make([]Finding, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		f := Finding{
			ID:          stringField(m, "id"),
			RuleID:      stringField(m, "rule_id"),
			Module:      stringField(m, "module"),
			Severity:    Severity(stringField(m, "severity")),
			Description: stringField(m, "description"),
			Source:      source,
		}
		if fp, ok := m["false_positive"].(bool); ok {
			f.FalsePositive = fp
		}
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if f.Severity == "" {
			f.Severity = SeverityInfo
		}
		out = append(out, f)
	}
	return out
}

func newFindingID() string {
	return uuid.NewString()
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
