package statik

import (
	"fmt"
	"sort"

	"github.com/jward/statik/internal/pattern"
	"github.com/jward/statik/internal/store"
)

// Rule Engine (spec §4.G): evaluates every configured rule against the
// index and file graph, producing Diagnostics. No teacher precedent for
// this component — built directly from the spec's five rule kinds, using
// internal/pattern (doublestar) for every glob evaluation, consistent
// with how Discovery and the CLI evaluate globs elsewhere in the repo.

// Diagnostic is one rule violation (spec §4.G, §7 RuleViolation).
type Diagnostic struct {
	RuleID      string
	Severity    Severity
	Message     string
	File        string
	Line        int
	Description string
	Rationale   string
	FixDirection string
}

// EvalResult is the outcome of evaluating a rule set (spec §6: "has_errors
// aggregate").
type EvalResult struct {
	Diagnostics []Diagnostic
	HasErrors   bool
}

// Evaluate runs every configured rule against the current index and
// returns diagnostics at or above minSeverity (spec §4.G:
// "severity-threshold suppression").
func (e *Engine) Evaluate(rules []RuleConfig, minSeverity Severity) (*EvalResult, error) {
	fg, err := e.BuildFileGraph()
	if err != nil {
		return nil, err
	}
	allSymbols, err := e.store.AllSymbols()
	if err != nil {
		return nil, wrapStoreErr("evaluate: all symbols", err)
	}
	allImports, err := e.store.AllImports()
	if err != nil {
		return nil, wrapStoreErr("evaluate: all imports", err)
	}
	files, err := e.store.ListFiles()
	if err != nil {
		return nil, wrapStoreErr("evaluate: list files", err)
	}
	fileByID := map[int64]*store.File{}
	for _, f := range files {
		fileByID[f.ID] = f
	}
	symbolsByFile := map[int64][]*store.Symbol{}
	for _, s := range allSymbols {
		symbolsByFile[s.FileID] = append(symbolsByFile[s.FileID], s)
	}

	var diags []Diagnostic
	for _, r := range rules {
		sev, err := ParseSeverity(r.Severity)
		if err != nil {
			return nil, err
		}
		var found []Diagnostic
		switch {
		case r.Boundary != nil:
			found, err = evalBoundary(r, fileByID, allImports)
		case r.Layer != nil:
			found, err = evalLayer(r, files, fileByID, allImports)
		case r.Containment != nil:
			found, err = evalContainment(r, files, fileByID, allSymbols, allImports)
		case r.ImportRestriction != nil:
			found, err = evalImportRestriction(r, files, allImports)
		case r.FanLimit != nil:
			found, err = evalFanLimit(r, files, fg)
		}
		if err != nil {
			return nil, err
		}
		for i := range found {
			found[i].RuleID = r.ID
			found[i].Severity = sev
			found[i].Description = r.Description
			found[i].Rationale = r.Rationale
			found[i].FixDirection = r.FixDirection
		}
		diags = append(diags, found...)
	}

	var out []Diagnostic
	hasErrors := false
	for _, d := range diags {
		if d.Severity < minSeverity {
			continue
		}
		if d.Severity == SeverityError {
			hasErrors = true
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].RuleID < out[j].RuleID
	})
	return &EvalResult{Diagnostics: out, HasErrors: hasErrors}, nil
}

// evalBoundary forbids any importer matching From from resolving an
// import into a file matching Deny, unless the importer also matches
// Except (spec §4.G Boundary).
func evalBoundary(r RuleConfig, fileByID map[int64]*store.File, imports []*store.Import) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, imp := range imports {
		if imp.ResolvedFileID == nil {
			continue
		}
		from := fileByID[imp.FileID]
		to := fileByID[*imp.ResolvedFileID]
		if from == nil || to == nil {
			continue
		}
		fromMatch, err := pattern.MatchAny(r.Boundary.From, from.Path)
		if err != nil {
			return nil, err
		}
		if !fromMatch {
			continue
		}
		denyMatch, err := pattern.MatchAny(r.Boundary.Deny, to.Path)
		if err != nil {
			return nil, err
		}
		if !denyMatch {
			continue
		}
		exceptMatch, err := pattern.MatchAny(r.Boundary.Except, from.Path)
		if err != nil {
			return nil, err
		}
		if exceptMatch {
			continue
		}
		diags = append(diags, Diagnostic{
			File:    from.Path,
			Message: "forbidden import of " + to.Path,
		})
	}
	return diags, nil
}

// evalLayer assigns each file to the first matching layer (in declaration
// order) and forbids an import from a lower layer into a strictly higher
// one (spec §4.G Layer: "downward-only imports").
func evalLayer(r RuleConfig, files []*store.File, fileByID map[int64]*store.File, imports []*store.Import) ([]Diagnostic, error) {
	layerOf := map[string]int{}
	for _, f := range files {
		for i, l := range r.Layer.Layers {
			match, err := pattern.MatchAny(l.Patterns, f.Path)
			if err != nil {
				return nil, err
			}
			if match {
				layerOf[f.Path] = i
				break
			}
		}
	}

	var diags []Diagnostic
	for _, imp := range imports {
		if imp.ResolvedFileID == nil {
			continue
		}
		from := fileByID[imp.FileID]
		to := fileByID[*imp.ResolvedFileID]
		if from == nil || to == nil {
			continue
		}
		fromLayer, fromOK := layerOf[from.Path]
		toLayer, toOK := layerOf[to.Path]
		if !fromOK || !toOK {
			continue
		}
		if toLayer < fromLayer {
			diags = append(diags, Diagnostic{
				File: from.Path,
				Message: fmtLayerViolation(r.Layer.Layers[fromLayer].Name, r.Layer.Layers[toLayer].Name, to.Path),
			})
		}
	}
	return diags, nil
}

func fmtLayerViolation(fromLayer, toLayer, toPath string) string {
	return "layer " + fromLayer + " must not import layer " + toLayer + " (" + toPath + ")"
}

// evalContainment requires that any symbol inside Module reached from
// outside Module have a qualified name matching PublicAPI (spec §4.G
// Containment).
func evalContainment(r RuleConfig, files []*store.File, fileByID map[int64]*store.File, symbols []*store.Symbol, imports []*store.Import) ([]Diagnostic, error) {
	inModule := map[int64]bool{}
	for _, f := range files {
		match, err := pattern.MatchAny(r.Containment.Module, f.Path)
		if err != nil {
			return nil, err
		}
		if match {
			inModule[f.ID] = true
		}
	}

	var diags []Diagnostic
	for _, imp := range imports {
		if imp.ResolvedFileID == nil || !inModule[*imp.ResolvedFileID] {
			continue
		}
		importer := fileByID[imp.FileID]
		if importer == nil || inModule[importer.ID] {
			continue // internal imports within the module are fine
		}
		for _, name := range imp.Names {
			qualified := findQualifiedName(symbols, *imp.ResolvedFileID, name)
			if qualified == "" {
				continue
			}
			public, err := pattern.MatchAny(r.Containment.PublicAPI, qualified)
			if err != nil {
				return nil, err
			}
			if !public {
				diags = append(diags, Diagnostic{
					File:    importer.Path,
					Message: "import of non-public symbol " + qualified,
				})
			}
		}
	}
	return diags, nil
}

func findQualifiedName(symbols []*store.Symbol, fileID int64, name string) string {
	for _, s := range symbols {
		if s.FileID == fileID && s.Name == name {
			return s.QualifiedName
		}
	}
	return ""
}

// evalImportRestriction constrains how files matching Target may be
// imported (spec §4.G ImportRestriction).
func evalImportRestriction(r RuleConfig, files []*store.File, imports []*store.Import) ([]Diagnostic, error) {
	fileByID := map[int64]*store.File{}
	for _, f := range files {
		fileByID[f.ID] = f
	}

	var diags []Diagnostic
	for _, imp := range imports {
		if imp.ResolvedFileID == nil {
			continue
		}
		target := fileByID[*imp.ResolvedFileID]
		if target == nil {
			continue
		}
		match, err := pattern.MatchAny(r.ImportRestriction.Target, target.Path)
		if err != nil {
			return nil, err
		}
		if !match {
			continue
		}
		importer := fileByID[imp.FileID]
		if r.ImportRestriction.RequireTypeOnly && imp.Modality != store.ModalityTypeOnly {
			diags = append(diags, Diagnostic{
				File:    importer.Path,
				Message: "import of " + target.Path + " must be type-only",
			})
		}
		for _, forbidden := range r.ImportRestriction.ForbiddenNames {
			if containsName(imp.Names, forbidden) {
				diags = append(diags, Diagnostic{
					File:    importer.Path,
					Message: "forbidden import of " + forbidden + " from " + target.Path,
				})
			}
		}
		if len(r.ImportRestriction.AllowedNames) > 0 {
			for _, name := range imp.Names {
				if !containsName(r.ImportRestriction.AllowedNames, name) {
					diags = append(diags, Diagnostic{
						File:    importer.Path,
						Message: "import of " + name + " from " + target.Path + " is not allow-listed",
					})
				}
			}
		}
	}
	return diags, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// evalFanLimit caps fan-in/fan-out for files matching Pattern (spec §4.G
// FanLimit).
func evalFanLimit(r RuleConfig, files []*store.File, fg *FileGraph) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, f := range files {
		match, err := pattern.MatchAny(r.FanLimit.Pattern, f.Path)
		if err != nil {
			return nil, err
		}
		if !match {
			continue
		}
		if r.FanLimit.MaxFanIn != nil {
			if in := fg.FanIn(f.Path); in > *r.FanLimit.MaxFanIn {
				diags = append(diags, Diagnostic{File: f.Path, Message: fanLimitMessage("fan-in", in, *r.FanLimit.MaxFanIn)})
			}
		}
		if r.FanLimit.MaxFanOut != nil {
			if out := fg.FanOut(f.Path); out > *r.FanLimit.MaxFanOut {
				diags = append(diags, Diagnostic{File: f.Path, Message: fanLimitMessage("fan-out", out, *r.FanLimit.MaxFanOut)})
			}
		}
	}
	return diags, nil
}

func fanLimitMessage(kind string, actual, max int) string {
	return fmt.Sprintf("%s %d exceeds limit %d", kind, actual, max)
}
