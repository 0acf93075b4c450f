package agent_test

import (
	"context"
	"strings"
	"testing"

	"github.com/repoaudit/coordinator/internal/agent"
	"github.com/repoaudit/coordinator/internal/registry"
)

// fakeToolbox returns canned results keyed by tool id
type fakeToolbox struct {
	results map[string]registry.InvocationResult
	calls   []string
}

func (f *fakeToolbox) Invoke(_ context.Context, toolID, method string, _ map[string]any) registry.InvocationResult {
	f.calls = append(f.calls, toolID+"/"+method)
	res, ok := f.results[toolID]
	if !ok {
		return registry.InvocationResult{Code: registry.CodeNotFound, Message: "unknown tool: " + toolID}
	}
	return res
}

func okResult(output map[string]any) registry.InvocationResult {
	return registry.InvocationResult{OK: true, Output: output}
}

func testPlan() *agent.Plan {
	return &agent.Plan{
		Path: "/repo",
		Modules: []agent.PlanModule{
			{Name: "core", Priority: 1},
			{Name: "dependencies", Priority: 2},
		},
	}
}

func TestPlanner_RequiresPath(t *testing.T) {
	p := agent.NewPlanner(&fakeToolbox{}, "")
	if _, err := p.Execute(context.Background(), "s1", agent.Input{}); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestPlanner_FallbackPlan(t *testing.T) {
	p := agent.NewPlanner(&fakeToolbox{}, "")
	out, err := p.Execute(context.Background(), "s1", agent.Input{Path: "/work/myrepo"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Plan == nil || len(out.Plan.Modules) != 2 {
		t.Fatalf("Expected 2-module fallback plan, got %+v", out.Plan)
	}
	if out.Plan.Modules[0].Name != "myrepo" || out.Plan.Modules[0].Priority != 1 {
		t.Errorf("Expected repo module at priority 1, got %+v", out.Plan.Modules[0])
	}
}

func TestPlanner_InventoryTool(t *testing.T) {
	tb := &fakeToolbox{results: map[string]registry.InvocationResult{
		"repo-scanner": okResult(map[string]any{
			"modules": []any{
				map[string]any{"name": "api", "priority": float64(1)},
				"internal",
			},
		}),
	}}
	p := agent.NewPlanner(tb, "repo-scanner")
	out, err := p.Execute(context.Background(), "s1", agent.Input{Path: "/repo"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Plan.Modules) != 2 {
		t.Fatalf("Expected 2 modules, got %d", len(out.Plan.Modules))
	}
	if out.Plan.Modules[0].Name != "api" || out.Plan.Modules[1].Name != "internal" {
		t.Errorf("Unexpected modules: %+v", out.Plan.Modules)
	}
	if out.Plan.Modules[1].Priority != 2 {
		t.Errorf("Expected positional priority 2, got %d", out.Plan.Modules[1].Priority)
	}
}

func TestPlanner_ToolFailurePropagates(t *testing.T) {
	tb := &fakeToolbox{results: map[string]registry.InvocationResult{
		"repo-scanner": {Code: registry.CodeUpstreamError, Message: "connection refused", Retryable: true},
	}}
	p := agent.NewPlanner(tb, "repo-scanner")
	_, err := p.Execute(context.Background(), "s1", agent.Input{Path: "/repo"})
	if err == nil {
		t.Fatal("Expected tool failure to propagate")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected underlying message in error, got %v", err)
	}
}

func TestAnalyzer_RequiresPlan(t *testing.T) {
	a := agent.NewStaticAnalyzer(&fakeToolbox{}, "")
	if _, err := a.Execute(context.Background(), "s1", agent.Input{}); err == nil {
		t.Error("Expected error without plan")
	}
}

func TestAnalyzer_FallbackFindings(t *testing.T) {
	a := agent.NewStaticAnalyzer(&fakeToolbox{}, "")
	out, err := a.Execute(context.Background(), "s1", agent.Input{Plan: testPlan()})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Findings) != 2 {
		t.Fatalf("Expected one finding per module, got %d", len(out.Findings))
	}
	if out.Findings[0].Severity != agent.SeverityMedium {
		t.Errorf("Priority-1 module should be medium, got %s", out.Findings[0].Severity)
	}
	if out.Findings[1].Severity != agent.SeverityLow {
		t.Errorf("Priority-2 module should be low, got %s", out.Findings[1].Severity)
	}
	for _, f := range out.Findings {
		if f.ID == "" || f.Source != a.ID() {
			t.Errorf("Finding missing id or source: %+v", f)
		}
	}
}

func TestAnalyzer_ScanTool(t *testing.T) {
	tb := &fakeToolbox{results: map[string]registry.InvocationResult{
		"static-scanner": okResult(map[string]any{
			"findings": []any{
				map[string]any{
					"rule_id":     "hardcoded-credentials",
					"module":      "core",
					"severity":    "high",
					"description": "credential literal in source",
				},
				map[string]any{
					"rule_id":        "unused-import",
					"module":         "core",
					"severity":       "info",
					"description":    "import is never used",
					"false_positive": true,
				},
			},
		}),
	}}
	a := agent.NewStaticAnalyzer(tb, "static-scanner")
	out, err := a.Execute(context.Background(), "s1", agent.Input{Plan: testPlan()})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Findings) != 2 {
		t.Fatalf("Expected 2 findings, got %d", len(out.Findings))
	}
	if out.Findings[0].RuleID != "hardcoded-credentials" || out.Findings[0].Severity != agent.SeverityHigh {
		t.Errorf("Unexpected first finding: %+v", out.Findings[0])
	}
	if !out.Findings[1].FalsePositive {
		t.Error("Expected false_positive flag carried through")
	}
	if len(tb.calls) != 1 || tb.calls[0] != "static-scanner/scan" {
		t.Errorf("Expected one scan call, got %v", tb.calls)
	}
}

func TestValidator_FiltersFindings(t *testing.T) {
	v := agent.NewValidator()
	in := agent.Input{
		Plan: testPlan(),
		Findings: []agent.Finding{
			{ID: "1", RuleID: "r1", Module: "core", Severity: agent.SeverityHigh},
			{ID: "2", RuleID: "r1", Module: "core", Severity: agent.SeverityHigh},             // duplicate
			{ID: "3", RuleID: "r2", Module: "vendor/lib", Severity: agent.SeverityMedium},    // vendored
			{ID: "4", RuleID: "r3", Module: "core", FalsePositive: true},                     // flagged
			{ID: "5", RuleID: "r4", Module: "unknown-module", Severity: agent.SeverityHigh},  // off-plan
			{ID: "6", RuleID: "r5", Module: "dependencies", Severity: agent.SeverityMedium},
		},
	}
	out, err := v.Execute(context.Background(), "s1", in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Findings) != 2 {
		t.Fatalf("Expected 2 surviving findings, got %d", len(out.Findings))
	}
	if out.Findings[0].ID != "1" || out.Findings[1].ID != "6" {
		t.Errorf("Unexpected survivors: %+v", out.Findings)
	}
}

func TestPrioritizer_OrdersByScore(t *testing.T) {
	p := agent.NewPrioritizer()
	in := agent.Input{
		Plan: testPlan(),
		Findings: []agent.Finding{
			{ID: "low", Module: "dependencies", Severity: agent.SeverityLow},
			{ID: "high", Module: "core", Severity: agent.SeverityHigh},
			{ID: "medium", Module: "core", Severity: agent.SeverityMedium},
		},
	}
	out, err := p.Execute(context.Background(), "s1", in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"high", "medium", "low"}
	for i, f := range out.Findings {
		if f.ID != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], f.ID)
		}
		if f.Score == 0 {
			t.Errorf("Finding %s has no score", f.ID)
		}
	}
	if out.Findings[0].Score <= out.Findings[1].Score {
		t.Error("Expected strictly decreasing scores for distinct severities")
	}
	// Input order untouched
	if in.Findings[0].ID != "low" || in.Findings[0].Score != 0 {
		t.Error("Prioritizer must not mutate its input")
	}
}

func TestPrioritizer_ModulePriorityBreaksTies(t *testing.T) {
	p := agent.NewPrioritizer()
	in := agent.Input{
		Plan: testPlan(),
		Findings: []agent.Finding{
			{ID: "second", Module: "dependencies", Severity: agent.SeverityHigh},
			{ID: "first", Module: "core", Severity: agent.SeverityHigh},
		},
	}
	out, _ := p.Execute(context.Background(), "s1", in)
	if out.Findings[0].ID != "first" {
		t.Errorf("Expected priority-1 module finding first, got %s", out.Findings[0].ID)
	}
}

func TestExplainer_TopNOnly(t *testing.T) {
	e := agent.NewExplainer(&fakeToolbox{}, "", 2)
	in := agent.Input{Findings: []agent.Finding{
		{ID: "1", RuleID: "r1", Module: "core", Severity: agent.SeverityHigh, Score: 75},
		{ID: "2", RuleID: "r2", Module: "core", Severity: agent.SeverityMedium, Score: 55},
		{ID: "3", RuleID: "r3", Module: "core", Severity: agent.SeverityLow, Score: 35},
	}}
	out, err := e.Execute(context.Background(), "s1", in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Findings[0].Explanation == "" || out.Findings[1].Explanation == "" {
		t.Error("Expected top 2 findings explained")
	}
	if out.Findings[2].Explanation != "" {
		t.Error("Expected findings past the cutoff untouched")
	}
}

func TestExplainer_Tool(t *testing.T) {
	tb := &fakeToolbox{results: map[string]registry.InvocationResult{
		"explain-svc": okResult(map[string]any{"explanation": "because reasons"}),
	}}
	e := agent.NewExplainer(tb, "explain-svc", 1)
	in := agent.Input{Findings: []agent.Finding{{ID: "1", RuleID: "r1"}}}
	out, err := e.Execute(context.Background(), "s1", in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Findings[0].Explanation != "because reasons" {
		t.Errorf("Expected tool explanation, got %q", out.Findings[0].Explanation)
	}
}

func TestExplainer_ToolFailurePropagates(t *testing.T) {
	tb := &fakeToolbox{results: map[string]registry.InvocationResult{
		"explain-svc": {Code: registry.CodeRateLimited, Message: "rate limit exceeded", Retryable: true},
	}}
	e := agent.NewExplainer(tb, "explain-svc", 5)
	in := agent.Input{Findings: []agent.Finding{{ID: "1", RuleID: "r1"}}}
	if _, err := e.Execute(context.Background(), "s1", in); err == nil {
		t.Error("Expected tool failure to propagate")
	}
}

func TestComposer_Result(t *testing.T) {
	c := agent.NewComposer()
	in := agent.Input{
		Plan: testPlan(),
		Findings: []agent.Finding{
			{ID: "1", Severity: agent.SeverityHigh, Explanation: "explained"},
			{ID: "2", Severity: agent.SeverityHigh},
			{ID: "3", Severity: agent.SeverityLow},
		},
	}
	out, err := c.Execute(context.Background(), "s1", in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Result == nil {
		t.Fatal("Expected a result payload")
	}
	summary, ok := out.Result["summary"].(map[string]any)
	if !ok {
		t.Fatal("Expected summary in result")
	}
	if summary["total"] != 3 || summary["explained"] != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	bySev, _ := summary["by_severity"].(map[string]int)
	if bySev["high"] != 2 || bySev["low"] != 1 {
		t.Errorf("Unexpected severity counts: %+v", bySev)
	}
}
