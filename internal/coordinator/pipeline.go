package coordinator

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/repoaudit/coordinator/internal/agent"
	"github.com/repoaudit/coordinator/internal/coordinator/config"
	"github.com/repoaudit/coordinator/internal/registry"
	"github.com/repoaudit/coordinator/internal/trace"
)

// Pipeline runs the fixed audit stage sequence for one session: planning,
// the parallel analysis fan-out, validation, prioritization, explanation of
// the top-scored findings, and composition. Any stage failure fails the run;
// there is no partial success and no stage-level retry.
type Pipeline struct {
	registry    *registry.Registry
	tracer      *trace.Recorder
	notifier    *Notifier
	logger      *slog.Logger
	explainTopN int
}

// NewPipeline wires the stage runner
func NewPipeline(
	reg *registry.Registry,
	tracer *trace.Recorder,
	notifier *Notifier,
	logger *slog.Logger,
	cfg config.PipelineConfig,
) *Pipeline {
	topN := cfg.ExplainTopN
	if topN <= 0 {
		topN = config.DefaultExplainTopN
	}
	return &Pipeline{
		registry:    reg,
		tracer:      tracer,
		notifier:    notifier,
		logger:      logger,
		explainTopN: topN,
	}
}

// Run executes all stages under one root span and returns the composed
// result payload
func (p *Pipeline) Run(ctx context.Context, sessionID string, req Request) (map[string]any, error) {
	root := p.tracer.StartSpan(sessionID, "", trace.ComponentCoordinator,
		"coordinator", "audit", map[string]any{"path": req.Path}, nil)
	ctx = trace.ContextWithSpan(ctx, root)

	result, err := p.stages(ctx, sessionID, req)
	if err != nil {
		p.tracer.EndSpan(root, nil, err)
		return nil, err
	}
	p.tracer.EndSpan(root, map[string]any{"summary": result["summary"]}, nil)
	return result, nil
}

func (p *Pipeline) stages(ctx context.Context, sessionID string, req Request) (map[string]any, error) {
	p.stageStarted(sessionID, "planning")
	planner := agent.NewPlanner(
		p.toolbox(config.AgentPlanner, sessionID),
		p.toolFor(config.CapRepoInventory),
	)
	planOut, err := p.runAgent(ctx, sessionID, "planning", planner, agent.Input{
		Path:    req.Path,
		Options: req.Options,
	})
	if err != nil {
		return nil, err
	}

	p.stageStarted(sessionID, "analysis")
	analyzers := []agent.Agent{
		agent.NewStaticAnalyzer(
			p.toolbox(config.AgentStaticAnalyzer, sessionID),
			p.toolFor(config.CapStaticScan)),
		agent.NewDependencyAuditor(
			p.toolbox(config.AgentDependencyAuditor, sessionID),
			p.toolFor(config.CapDependencyScan)),
		agent.NewComplianceChecker(
			p.toolbox(config.AgentComplianceChecker, sessionID),
			p.toolFor(config.CapComplianceScan)),
	}
	analysisIn := agent.Input{Path: req.Path, Plan: planOut.Plan}
	outputs := make([]agent.Output, len(analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range analyzers {
		g.Go(func() error {
			out, err := p.runAgent(gctx, sessionID, "analysis", a, analysisIn)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Sibling outputs are discarded; their spans stay in the trace
		return nil, err
	}

	var findings []agent.Finding
	for _, out := range outputs {
		findings = append(findings, out.Findings...)
	}

	p.stageStarted(sessionID, "validation")
	validated, err := p.runAgent(ctx, sessionID, "validation", agent.NewValidator(), agent.Input{
		Plan:     planOut.Plan,
		Findings: findings,
	})
	if err != nil {
		return nil, err
	}

	p.stageStarted(sessionID, "prioritization")
	prioritized, err := p.runAgent(ctx, sessionID, "prioritization", agent.NewPrioritizer(), agent.Input{
		Plan:     planOut.Plan,
		Findings: validated.Findings,
	})
	if err != nil {
		return nil, err
	}

	p.stageStarted(sessionID, "explanation")
	explainer := agent.NewExplainer(
		p.toolbox(config.AgentExplainer, sessionID),
		p.toolFor(config.CapExplain),
		p.explainTopN,
	)
	explained, err := p.runAgent(ctx, sessionID, "explanation", explainer, agent.Input{
		Plan:     planOut.Plan,
		Findings: prioritized.Findings,
	})
	if err != nil {
		return nil, err
	}

	p.stageStarted(sessionID, "composition")
	composed, err := p.runAgent(ctx, sessionID, "composition", agent.NewComposer(), agent.Input{
		Plan:     planOut.Plan,
		Findings: explained.Findings,
	})
	if err != nil {
		return nil, err
	}
	return composed.Result, nil
}

// runAgent executes one agent under its own span and publishes its
// lifecycle events
func (p *Pipeline) runAgent(
	ctx context.Context,
	sessionID, stage string,
	a agent.Agent,
	in agent.Input,
) (agent.Output, error) {
	p.notifier.Publish(Event{
		Name:      EventAgentStarted,
		SessionID: sessionID,
		Payload:   map[string]any{"agent": a.ID(), "stage": stage},
	})

	span := p.tracer.StartSpan(sessionID, trace.SpanFromContext(ctx),
		trace.ComponentAgent, a.ID(), stage, stageInput(in), nil)

	out, err := a.Execute(trace.ContextWithSpan(ctx, span), sessionID, in)
	if err != nil {
		p.tracer.EndSpan(span, nil, err)
		p.notifier.Publish(Event{
			Name:      EventAgentFailed,
			SessionID: sessionID,
			Payload:   map[string]any{"agent": a.ID(), "stage": stage, "error": err.Error()},
		})
		return agent.Output{}, err
	}

	p.tracer.EndSpan(span, stageOutput(out), nil)
	p.notifier.Publish(Event{
		Name:      EventAgentCompleted,
		SessionID: sessionID,
		Payload:   map[string]any{"agent": a.ID(), "stage": stage},
	})
	return out, nil
}

func (p *Pipeline) stageStarted(sessionID, stage string) {
	p.notifier.Publish(Event{
		Name:      EventStageStarted,
		SessionID: sessionID,
		Payload:   map[string]any{"stage": stage},
	})
}

func (p *Pipeline) toolbox(callerID, sessionID string) agent.Toolbox {
	return agentToolbox{registry: p.registry, callerID: callerID, sessionID: sessionID}
}

// toolFor resolves a stage's tool by capability; the first registered match
// wins, and an empty id means the stage runs on its built-in fallback
func (p *Pipeline) toolFor(capability string) string {
	defs := p.registry.Discover(capability)
	if len(defs) == 0 {
		return ""
	}
	return defs[0].ID
}

// stageInput summarizes an agent input for the span snapshot
func stageInput(in agent.Input) map[string]any {
	summary := map[string]any{}
	if in.Path != "" {
		summary["path"] = in.Path
	}
	if in.Plan != nil {
		summary["modules"] = len(in.Plan.Modules)
	}
	if in.Findings != nil {
		summary["findings"] = len(in.Findings)
	}
	return summary
}

func stageOutput(out agent.Output) map[string]any {
	summary := map[string]any{}
	if out.Plan != nil {
		summary["modules"] = len(out.Plan.Modules)
	}
	if out.Findings != nil {
		summary["findings"] = len(out.Findings)
	}
	if out.Result != nil {
		summary["composed"] = true
	}
	return summary
}
