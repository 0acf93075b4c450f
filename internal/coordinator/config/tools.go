package config

// Agent identities for the fixed audit pipeline
const (
	// AgentPlanner is the planning stage agent id
	AgentPlanner = "planner"
	// AgentStaticAnalyzer is the static analysis agent id
	AgentStaticAnalyzer = "static-analyzer"
	// AgentDependencyAuditor is the dependency audit agent id
	AgentDependencyAuditor = "dependency-auditor"
	// AgentComplianceChecker is the compliance check agent id
	AgentComplianceChecker = "compliance-checker"
	// AgentValidator is the validation stage agent id
	AgentValidator = "validator"
	// AgentPrioritizer is the prioritization stage agent id
	AgentPrioritizer = "prioritizer"
	// AgentExplainer is the explanation stage agent id
	AgentExplainer = "explainer"
	// AgentComposer is the composition stage agent id
	AgentComposer = "composer"
)

// Capability names tools declare and agents discover by
const (
	// CapRepoInventory lists the modules of a repository
	CapRepoInventory = "repo.inventory"
	// CapStaticScan runs static analysis rules against a path
	CapStaticScan = "scan.static"
	// CapDependencyScan checks dependency manifests for known advisories
	CapDependencyScan = "scan.dependencies"
	// CapComplianceScan scores a path against a compliance framework
	CapComplianceScan = "scan.compliance"
	// CapExplain produces a human-readable explanation for a finding
	CapExplain = "findings.explain"
)

// AllAgents returns a slice of all pipeline agent ids
func AllAgents() []string {
	return []string{
		AgentPlanner,
		AgentStaticAnalyzer,
		AgentDependencyAuditor,
		AgentComplianceChecker,
		AgentValidator,
		AgentPrioritizer,
		AgentExplainer,
		AgentComposer,
	}
}
