package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/repoaudit/coordinator/internal/coordinator/config"
)

// vendoredPaths are module names whose findings are treated as false
// positives: code the repository owner does not maintain.
var vendoredPaths = []string{"vendor", "testdata", "third_party", "node_modules"}

// Validator filters the joined analysis output: false positives and
// duplicate (rule, module) reports are dropped before prioritization.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

func (v *Validator) ID() string { return config.AgentValidator }

func (v *Validator) Execute(ctx context.Context, sessionID string, in Input) (Output, error) {
	if in.Plan == nil {
		return Output{}, errors.New("validation requires a plan")
	}

	seen := make(map[string]struct{}, len(in.Findings))
	kept := make([]Finding, 0, len(in.Findings))
	for _, f := range in.Findings {
		if isFalsePositive(f, in.Plan) {
			continue
		}
		key := f.RuleID + "\x00" + f.Module
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, f)
	}
	return Output{Findings: kept}, nil
}

func isFalsePositive(f Finding, plan *Plan) bool {
	if f.FalsePositive {
		return true
	}
	module := strings.ToLower(f.Module)
	for _, skip := range vendoredPaths {
		if module == skip || strings.HasPrefix(module, skip+"/") {
			return true
		}
	}
	// Findings outside the planned module set have nothing to attach to
	if _, planned := plan.Module(f.Module); !planned {
		return true
	}
	return false
}
