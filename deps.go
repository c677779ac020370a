package dombind

import "regexp"

// stateRefPattern matches "state." followed by an identifier-and-dot chain.
// This is a lexical scan, not a parse: it tolerates arbitrary surrounding
// expression syntax and deliberately over-matches (a reference inside a
// string literal still subscribes). A false positive costs one redundant,
// idempotent re-evaluation; a false negative would cost correctness.
var stateRefPattern = regexp.MustCompile(`\bstate\.([A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z_$][A-Za-z0-9_$]*)*)`)

// Dependencies returns the store paths referenced by an expression, in
// first-occurrence order, deduplicated. An expression with no state
// references yields nil: its declaration evaluates once at scan time and
// never reactively.
func Dependencies(expression string) []string {
	matches := stateRefPattern.FindAllStringSubmatch(expression, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var paths []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			paths = append(paths, m[1])
		}
	}
	return paths
}
