// Package policy enforces the static caller capability matrix and the
// input/output hygiene rules applied to every tool invocation.
package policy

import "sort"

// AccessPolicy maps caller identities (agent ids) to the set of tool ids
// they may invoke. Loaded once at startup and never mutated by request
// traffic.
type AccessPolicy struct {
	grants map[string]map[string]struct{}
}

// NewAccessPolicy builds a policy from a caller -> allowed tool ids mapping
func NewAccessPolicy(grants map[string][]string) *AccessPolicy {
	p := &AccessPolicy{grants: make(map[string]map[string]struct{}, len(grants))}
	for caller, tools := range grants {
		set := make(map[string]struct{}, len(tools))
		for _, tool := range tools {
			set[tool] = struct{}{}
		}
		p.grants[caller] = set
	}
	return p
}

// Allowed reports whether the caller may invoke the given tool. Callers
// absent from the policy are denied everything.
func (p *AccessPolicy) Allowed(callerID, toolID string) bool {
	set, ok := p.grants[callerID]
	if !ok {
		return false
	}
	_, ok = set[toolID]
	return ok
}

// Callers returns the caller ids present in the policy, sorted
func (p *AccessPolicy) Callers() []string {
	out := make([]string, 0, len(p.grants))
	for caller := range p.grants {
		out = append(out, caller)
	}
	sort.Strings(out)
	return out
}
