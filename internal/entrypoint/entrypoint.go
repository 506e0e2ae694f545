// Package entrypoint implements the Entry-Point Resolver component
// (spec §4.I): deciding which indexed files are program entry points, so
// Analytics.DeadCode can exclude their unreferenced exports from the
// unreachable set.
package entrypoint

import (
	"strings"

	"github.com/jward/statik/internal/pattern"
	"github.com/jward/statik/internal/store"
)

// builtinPatterns are always checked, independent of user configuration
// (spec §4.I): conventional entry files across the five supported
// languages.
var builtinPatterns = []string{
	"src/main.rs",
	"src/bin/**/*.rs",
	"src/lib.rs",
	"**/main.py",
	"**/Main.java",
	"src/index.ts",
	"src/index.js",
	"index.ts",
	"index.js",
	"**/main.*",
}

// Resolver decides whether a file is a program entry point.
type Resolver struct {
	builtins    *pattern.Matcher
	extra       *pattern.Matcher
	annotations []string
}

// New compiles a Resolver from user-configured extra patterns and
// annotation names (spec §4.I: entry_points.patterns, entry_points.annotations).
func New(extraPatterns, annotations []string) (*Resolver, error) {
	builtins, err := pattern.Compile(builtinPatterns)
	if err != nil {
		return nil, err
	}
	extra, err := pattern.Compile(extraPatterns)
	if err != nil {
		return nil, err
	}
	return &Resolver{builtins: builtins, extra: extra, annotations: annotations}, nil
}

// IsEntryPoint reports whether f should be treated as a program entry
// point, given its symbols and references. It implements every heuristic
// named in spec §4.I:
//
//   - built-in conventional paths (src/main.rs, **/main.py, ...),
//     including any file named main.<ext> at any depth
//   - user-configured extra glob patterns
//   - a Python "if __name__ == \"__main__\":" guard (approximated here by
//     a module-level reference to the dunder name, since the adapter does
//     not model control-flow nodes)
//   - a file containing a function/method named "main"
//   - a reference to one of the configured annotation names (annotations
//     are recorded as Call references by the Java adapter, spec §4.B)
func (r *Resolver) IsEntryPoint(f *store.File, symbols []*store.Symbol, references []*store.Reference) bool {
	if r.builtins.Match(f.Path) || (!r.extra.Empty() && r.extra.Match(f.Path)) {
		return true
	}
	for _, sym := range symbols {
		if sym.Name == "main" && (sym.Kind == store.KindFunction || sym.Kind == store.KindMethod) {
			return true
		}
	}
	if f.Language == store.LangPython {
		for _, ref := range references {
			if ref.SymbolName == "__name__" || ref.SymbolName == "__main__" {
				return true
			}
		}
	}
	if len(r.annotations) > 0 {
		for _, ref := range references {
			if ref.Kind != store.RefCall {
				continue
			}
			for _, ann := range r.annotations {
				if strings.EqualFold(ref.SymbolName, ann) {
					return true
				}
			}
		}
	}
	return false
}
