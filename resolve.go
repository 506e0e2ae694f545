package statik

import (
	"context"
	"sort"

	"github.com/jward/statik/internal/store"
)

// resolvableKinds are the reference kinds for which a single defining
// symbol is meaningful to pin down. member-access is deliberately
// excluded: without type inference, resolving "x.foo" to a specific
// declaration across files is too ambiguous to be useful (spec §4.B
// Design Notes).
var resolvableKinds = []string{
	store.RefCall, store.RefNew, store.RefExtends, store.RefImplements, store.RefTypeUse, store.RefImport,
}

// Resolve fills in Reference.TargetSymbolID for every unresolved
// call/new/extends/implements/type-use/import reference, using same-file lookup
// first and then the file's import bindings, falling back to a global
// by-name index ordered by file path for determinism — grounded in
// kraklabs-cie's CallResolver (packageIndex / fileImports / resolveCall).
func (e *Engine) Resolve(ctx context.Context) error {
	files, err := e.store.ListFiles()
	if err != nil {
		return wrapStoreErr("resolve: list files", err)
	}
	allSymbols, err := e.store.AllSymbols()
	if err != nil {
		return wrapStoreErr("resolve: all symbols", err)
	}
	allImports, err := e.store.AllImports()
	if err != nil {
		return wrapStoreErr("resolve: all imports", err)
	}

	symbolsByFile := map[int64][]*store.Symbol{}
	for _, s := range allSymbols {
		symbolsByFile[s.FileID] = append(symbolsByFile[s.FileID], s)
	}

	// globalByName: exported symbols by simple name, candidates ordered by
	// defining file path for deterministic fallback resolution.
	fileByID := map[int64]*store.File{}
	for _, f := range files {
		fileByID[f.ID] = f
	}
	globalByName := map[string][]*store.Symbol{}
	for _, s := range allSymbols {
		if s.Visibility != store.VisibilityExported {
			continue
		}
		globalByName[s.Name] = append(globalByName[s.Name], s)
	}
	for name := range globalByName {
		cands := globalByName[name]
		sort.Slice(cands, func(i, j int) bool {
			fi, fj := fileByID[cands[i].FileID], fileByID[cands[j].FileID]
			if fi == nil || fj == nil {
				return cands[i].ID < cands[j].ID
			}
			return fi.Path < fj.Path
		})
		globalByName[name] = cands
	}

	// importedNameToFile: per-file map of bound name -> resolved file id,
	// built from the Names of each resolved Import.
	importedNameToFile := map[int64]map[string]int64{}
	for _, imp := range allImports {
		if imp.ResolvedFileID == nil {
			continue
		}
		m, ok := importedNameToFile[imp.FileID]
		if !ok {
			m = map[string]int64{}
			importedNameToFile[imp.FileID] = m
		}
		for _, name := range imp.Names {
			m[name] = *imp.ResolvedFileID
		}
	}

	unresolved, err := e.store.UnresolvedReferences(resolvableKinds)
	if err != nil {
		return wrapStoreErr("resolve: unresolved references", err)
	}

	for _, ref := range unresolved {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}
		target := resolveOne(ref, symbolsByFile, importedNameToFile, globalByName)
		if target == nil {
			continue
		}
		if err := e.store.UpdateReferenceTarget(ref.ID, target.ID); err != nil {
			return wrapStoreErr("resolve: update reference target", err)
		}
	}
	return nil
}

func resolveOne(
	ref *store.Reference,
	symbolsByFile map[int64][]*store.Symbol,
	importedNameToFile map[int64]map[string]int64,
	globalByName map[string][]*store.Symbol,
) *store.Symbol {
	// Same-file declarations take priority.
	for _, s := range symbolsByFile[ref.FileID] {
		if s.Name == ref.SymbolName {
			return s
		}
	}

	// Then the importing file's own bindings.
	if byName, ok := importedNameToFile[ref.FileID]; ok {
		if targetFileID, ok := byName[ref.SymbolName]; ok {
			for _, s := range symbolsByFile[targetFileID] {
				if s.Name == ref.SymbolName {
					return s
				}
			}
		}
	}

	// Finally a best-effort global lookup among exported symbols.
	if cands := globalByName[ref.SymbolName]; len(cands) > 0 {
		return cands[0]
	}
	return nil
}
