// Package policyx implements named scope-based authorization policies.
//
// A Policy is a predicate over a presented scope set: it passes when at
// least one of its required scopes is present. Policies are registered once
// at process start into a Registry and are immutable afterwards, so
// evaluation needs no locking.
package policyx

import (
	"fmt"

	"github.com/tollgate-labs/tollgate/pkg/scopex"
)

// Policy is a named any-of predicate over scopes.
type Policy struct {
	Name string

	// RequiredScopes passes the policy when ANY entry is present in the
	// presented set.
	RequiredScopes []string
}

// Decision is the outcome of evaluating a policy against presented scopes.
type Decision struct {
	Allowed bool

	// Reason is the machine-readable denial code ("insufficient_scope" or
	// "unknown_policy"). Empty when Allowed.
	Reason string

	// MissingScope names a scope that would have satisfied the policy, so
	// the caller knows what to request next. Empty when Allowed.
	MissingScope string
}

const (
	ReasonInsufficientScope = "insufficient_scope"
	ReasonUnknownPolicy     = "unknown_policy"
)

// Registry holds the process-wide policy set. Build it once during startup
// with New and treat it as read-only from then on.
type Registry struct {
	policies map[string]Policy
}

// New builds a Registry from the given policies. Duplicate names are a
// configuration bug and return an error rather than silently overwriting.
func New(policies ...Policy) (*Registry, error) {
	r := &Registry{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		if p.Name == "" {
			return nil, fmt.Errorf("policyx: policy with empty name")
		}
		if len(p.RequiredScopes) == 0 {
			return nil, fmt.Errorf("policyx: policy %q has no required scopes", p.Name)
		}
		if _, exists := r.policies[p.Name]; exists {
			return nil, fmt.Errorf("policyx: duplicate policy %q", p.Name)
		}
		p.RequiredScopes = scopex.Dedupe(p.RequiredScopes)
		r.policies[p.Name] = p
	}
	return r, nil
}

// MustNew is like New but panics on configuration errors. Policy tables are
// static, so a bad one should stop the process at startup.
func MustNew(policies ...Policy) *Registry {
	r, err := New(policies...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the named policy.
func (r *Registry) Get(name string) (Policy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// Evaluate checks the presented scopes against the named policy. The
// presented set is normalized first, so both the space-delimited and the
// discrete claim encodings are accepted.
func (r *Registry) Evaluate(policyName string, presentedScopes []string) Decision {
	p, ok := r.policies[policyName]
	if !ok {
		return Decision{Reason: ReasonUnknownPolicy}
	}

	have := scopex.Normalize(presentedScopes...)
	for _, required := range p.RequiredScopes {
		if scopex.Contains(have, required) {
			return Decision{Allowed: true}
		}
	}

	// Report the first required scope as the remediation hint.
	return Decision{
		Reason:       ReasonInsufficientScope,
		MissingScope: p.RequiredScopes[0],
	}
}
