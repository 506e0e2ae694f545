// Package pattern implements the Pattern Matcher component (spec §4.F):
// compiling glob patterns and evaluating them against project-relative
// paths.
package pattern

import "github.com/bmatcuk/doublestar/v4"

// Matcher is a compiled list of glob patterns (spec §4.F: "`*` matches any
// single path segment excluding `/`; `**` matches any number of segments
// including zero; `?` matches a single non-`/` character; character
// classes `[...]`"). doublestar/v4 implements exactly this semantics, so
// Matcher is a thin, validating wrapper rather than a hand-rolled
// automaton.
type Matcher struct {
	patterns []string
}

// Compile validates each pattern and returns a Matcher. An empty pattern
// list compiles successfully and matches nothing (see MatchAny).
func Compile(patterns []string) (*Matcher, error) {
	compiled := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, &InvalidPatternError{Pattern: p}
		}
		compiled = append(compiled, p)
	}
	return &Matcher{patterns: compiled}, nil
}

// InvalidPatternError is returned by Compile for a malformed glob.
type InvalidPatternError struct{ Pattern string }

func (e *InvalidPatternError) Error() string { return "invalid glob pattern: " + e.Pattern }

// Match reports whether relPath matches any compiled pattern. Matching is
// case-sensitive on all platforms (spec §4.F) and anchored to the project
// root, so relPath must already be relative and POSIX-separated.
func (m *Matcher) Match(relPath string) bool {
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

// Empty reports whether the matcher has no patterns at all.
func (m *Matcher) Empty() bool { return len(m.patterns) == 0 }

// Patterns returns the compiled pattern strings, in declaration order.
func (m *Matcher) Patterns() []string { return m.patterns }

// MatchAny reports whether relPath matches any pattern compiled directly
// from patterns, without retaining a Matcher value. Used by one-off
// evaluation sites (e.g. the rule engine's per-rule glob sets).
func MatchAny(patterns []string, relPath string) (bool, error) {
	m, err := Compile(patterns)
	if err != nil {
		return false, err
	}
	return m.Match(relPath), nil
}
