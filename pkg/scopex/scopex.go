// Package scopex provides helpers for working with OAuth2 scope sets.
//
// Scope claims show up in the wild in two encodings: a single
// space-delimited string ("user.transport.api manager.transport.api") or
// discrete entries per scope. Everything in this package flattens to the
// discrete form so the rest of the codebase only ever deals with clean,
// deduplicated slices.
package scopex

import "strings"

// Normalize flattens any mix of space-delimited and discrete scope entries
// into a deduplicated slice, preserving first-seen order. Empty or missing
// input yields an empty (nil) slice, never an error.
//
// Normalize is idempotent: Normalize(Normalize(x)...) == Normalize(x...).
func Normalize(raw ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, entry := range raw {
		for _, s := range strings.Fields(entry) {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether scope is present in the set.
func Contains(set []string, scope string) bool {
	for _, s := range set {
		if s == scope {
			return true
		}
	}
	return false
}

// ContainsAny reports whether at least one of the wanted scopes is present.
func ContainsAny(set []string, wanted ...string) bool {
	have := make(map[string]struct{}, len(set))
	for _, s := range set {
		have[s] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := have[w]; ok {
			return true
		}
	}
	return false
}

// Intersect returns the scopes present in both a and b, deduplicated,
// in a's order.
func Intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return Dedupe(out)
}

// Dedupe removes duplicate entries while preserving order.
func Dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Join renders a scope set in the space-delimited wire form used by token
// responses (RFC 6749 section 3.3).
func Join(set []string) string {
	return strings.Join(set, " ")
}
