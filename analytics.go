package statik

import (
	"sort"

	"github.com/jward/statik/internal/store"
)

// Analytics (spec §4.H): exports, dead code, cycles, impact, and a
// per-language summary, all derived from the index and the Graph Engine.
// Built from the store + graph primitives already wired above, following
// the same bulk-load-then-compute shape as the Graph Engine.

// ExportedSymbol is one exported declaration (spec §4.H Exports).
type ExportedSymbol struct {
	File          string
	QualifiedName string
	Kind          string
	StartLine     int
	StartCol      int
}

// Exports returns every exported symbol, sorted by file then by span
// (spec §9 resolved convention: "per-file exports sorted by span not id").
func (e *Engine) Exports() ([]ExportedSymbol, error) {
	files, err := e.store.ListFiles()
	if err != nil {
		return nil, wrapStoreErr("exports: list files", err)
	}
	fileByID := map[int64]*store.File{}
	for _, f := range files {
		fileByID[f.ID] = f
	}
	symbols, err := e.store.AllSymbols()
	if err != nil {
		return nil, wrapStoreErr("exports: all symbols", err)
	}

	var out []ExportedSymbol
	for _, s := range symbols {
		if s.Visibility != store.VisibilityExported {
			continue
		}
		f := fileByID[s.FileID]
		if f == nil {
			continue
		}
		out = append(out, ExportedSymbol{
			File: f.Path, QualifiedName: s.QualifiedName, Kind: s.Kind,
			StartLine: s.StartLine, StartCol: s.StartCol,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].StartLine != out[j].StartLine {
			return out[i].StartLine < out[j].StartLine
		}
		return out[i].StartCol < out[j].StartCol
	})
	return out, nil
}

// DeadSymbol is a symbol unreachable from any entry point.
type DeadSymbol struct {
	File          string
	QualifiedName string
	Kind          string
	StartLine     int
}

// DeadScope filters DeadCode's report by symbol kind (spec §4.G CLI:
// "dead-code [--scope functions|classes|all]").
const (
	DeadScopeFunctions = "functions"
	DeadScopeClasses   = "classes"
	DeadScopeAll       = "all"
)

func scopeMatches(scope, kind string) bool {
	switch scope {
	case DeadScopeFunctions:
		return kind == store.KindFunction || kind == store.KindMethod
	case DeadScopeClasses:
		return kind == store.KindClass || kind == store.KindInterface || kind == store.KindEnum
	default:
		return true
	}
}

// DeadCode computes the set of symbols reachable from the union of
// entry-point symbols via the resolved-reference symbol graph G_sym, and
// reports every defined symbol outside that set (spec §4.H: "compute
// reachable symbols from the union of entry-point symbols via G_sym; any
// exported-or-defined symbol not in the reachable set is reported").
//
// G_sym edges run from the symbol whose span encloses a resolved
// reference (its "caller") to the reference's resolved target; a
// reference with no enclosing symbol (a module-level import or call) is
// attributed to a synthetic per-file root instead. Every symbol declared
// directly in an entry-point file, plus that file's synthetic root, seeds
// the reachable set (spec §8 invariant 9: "every entry point is always
// reachable").
func (e *Engine) DeadCode(scope string) ([]DeadSymbol, error) {
	files, err := e.store.ListFiles()
	if err != nil {
		return nil, wrapStoreErr("dead code: list files", err)
	}
	fileByID := map[int64]*store.File{}
	for _, f := range files {
		fileByID[f.ID] = f
	}
	symbols, err := e.store.AllSymbols()
	if err != nil {
		return nil, wrapStoreErr("dead code: all symbols", err)
	}
	symbolsByFile := map[int64][]*store.Symbol{}
	for _, s := range symbols {
		symbolsByFile[s.FileID] = append(symbolsByFile[s.FileID], s)
	}
	refs, err := e.store.AllReferences()
	if err != nil {
		return nil, wrapStoreErr("dead code: all references", err)
	}

	// edges[node] -> targets reached from node. Symbol nodes use their
	// positive store ID; a file's synthetic module-level root uses
	// -(fileID), which cannot collide since both ranges start at 1.
	edges := map[int64][]int64{}
	for _, r := range refs {
		if r.TargetSymbolID == nil {
			continue
		}
		caller := enclosingSymbol(symbolsByFile[r.FileID], r.StartLine, r.StartCol)
		from := -r.FileID
		if caller != nil {
			from = caller.ID
		}
		edges[from] = append(edges[from], *r.TargetSymbolID)
	}

	resolver, err := e.entryResolver()
	if err != nil {
		return nil, err
	}
	visited := map[int64]bool{}
	var queue []int64
	for _, f := range files {
		if !resolver.IsEntryPoint(f, symbolsByFile[f.ID], refsForFile(refs, f.ID)) {
			continue
		}
		root := -f.ID
		if !visited[root] {
			visited[root] = true
			queue = append(queue, root)
		}
		for _, s := range symbolsByFile[f.ID] {
			if !visited[s.ID] {
				visited[s.ID] = true
				queue = append(queue, s.ID)
			}
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range edges[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var out []DeadSymbol
	for _, s := range symbols {
		if visited[s.ID] || !scopeMatches(scope, s.Kind) {
			continue
		}
		f := fileByID[s.FileID]
		if f == nil {
			continue
		}
		out = append(out, DeadSymbol{File: f.Path, QualifiedName: s.QualifiedName, Kind: s.Kind, StartLine: s.StartLine})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out, nil
}

// enclosingSymbol returns the narrowest symbol in syms whose span
// contains (line, col), or nil if none does.
func enclosingSymbol(syms []*store.Symbol, line, col int) *store.Symbol {
	var best *store.Symbol
	bestSpan := -1
	for _, s := range syms {
		if !spanContains(s, line, col) {
			continue
		}
		span := (s.EndLine-s.StartLine)*100000 + (s.EndCol - s.StartCol)
		if best == nil || span < bestSpan {
			best = s
			bestSpan = span
		}
	}
	return best
}

func spanContains(s *store.Symbol, line, col int) bool {
	afterStart := line > s.StartLine || (line == s.StartLine && col >= s.StartCol)
	beforeEnd := line < s.EndLine || (line == s.EndLine && col <= s.EndCol)
	return afterStart && beforeEnd
}

func refsForFile(refs []*store.Reference, fileID int64) []*store.Reference {
	var out []*store.Reference
	for _, r := range refs {
		if r.FileID == fileID {
			out = append(out, r)
		}
	}
	return out
}

// Cycles is a thin wrapper over the Graph Engine's Cycles (spec §4.H:
// "Cycles: thin wrapper over the Graph Engine's cycle detection").
func (e *Engine) Cycles() ([]Cycle, error) {
	fg, err := e.BuildFileGraph()
	if err != nil {
		return nil, err
	}
	return fg.Cycles(), nil
}

// Impact is a thin wrapper over the Graph Engine's Impact.
func (e *Engine) Impact(changed []string, maxDepth int) ([]string, error) {
	fg, err := e.BuildFileGraph()
	if err != nil {
		return nil, err
	}
	return fg.Impact(changed, maxDepth)
}

// LanguageSummary folds Hotspots (highest fan-in/fan-out files) into a
// per-language breakdown (spec §4.H Summary: "per-language breakdown
// folding in hotspots").
type LanguageSummary struct {
	Language         string
	Files            int
	Symbols          int
	ExportedSymbols  int
	References       int
	Hotspots         []Hotspot
}

// Hotspot is a file with unusually high fan-in or fan-out.
type Hotspot struct {
	File    string
	FanIn   int
	FanOut  int
	Total   int
}

// Summary aggregates per-language counts plus the top hotspot files by
// combined fan-in+fan-out, grounded on canopy's Hotspots query.
func (e *Engine) Summary(topHotspots int) ([]LanguageSummary, error) {
	files, err := e.store.ListFiles()
	if err != nil {
		return nil, wrapStoreErr("summary: list files", err)
	}
	symbols, err := e.store.AllSymbols()
	if err != nil {
		return nil, wrapStoreErr("summary: all symbols", err)
	}
	refs, err := e.store.AllReferences()
	if err != nil {
		return nil, wrapStoreErr("summary: all references", err)
	}
	fg, err := e.BuildFileGraph()
	if err != nil {
		return nil, err
	}

	fileByID := map[int64]*store.File{}
	for _, f := range files {
		fileByID[f.ID] = f
	}

	byLang := map[string]*LanguageSummary{}
	get := func(lang string) *LanguageSummary {
		s, ok := byLang[lang]
		if !ok {
			s = &LanguageSummary{Language: lang}
			byLang[lang] = s
		}
		return s
	}
	for _, f := range files {
		get(f.Language).Files++
	}
	for _, s := range symbols {
		f := fileByID[s.FileID]
		if f == nil {
			continue
		}
		ls := get(f.Language)
		ls.Symbols++
		if s.Visibility == store.VisibilityExported {
			ls.ExportedSymbols++
		}
	}
	for _, r := range refs {
		f := fileByID[r.FileID]
		if f == nil {
			continue
		}
		get(f.Language).References++
	}

	var hotspots []Hotspot
	for _, f := range files {
		in, out := fg.FanIn(f.Path), fg.FanOut(f.Path)
		hotspots = append(hotspots, Hotspot{File: f.Path, FanIn: in, FanOut: out, Total: in + out})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Total != hotspots[j].Total {
			return hotspots[i].Total > hotspots[j].Total
		}
		return hotspots[i].File < hotspots[j].File
	})
	if topHotspots > 0 && len(hotspots) > topHotspots {
		hotspots = hotspots[:topHotspots]
	}
	for _, h := range hotspots {
		f, err := e.store.FileByPath(h.File)
		if err != nil || f == nil {
			continue
		}
		ls := get(f.Language)
		ls.Hotspots = append(ls.Hotspots, h)
	}

	var out []LanguageSummary
	for _, ls := range byLang {
		out = append(out, *ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out, nil
}
