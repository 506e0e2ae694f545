// Package lang implements the Language Adapter component (spec §4.B): a
// narrow parse+extract contract per language, backed by tree-sitter.
package lang

// AST is an opaque parse result handed back by Adapter.Parse and consumed
// only by the same Adapter's Extract. The core never inspects it.
type AST interface{}

// ExtractedSymbol is a declaration found during extraction. ParentIndex,
// when non-nil, points at another entry in the same ExtractionResult.Symbols
// slice (e.g. a method's enclosing class), resolved to a real symbol id by
// the indexer as the file's symbols are inserted in slice order, so a
// parent entry always precedes its members.
type ExtractedSymbol struct {
	Kind          string
	Name          string
	QualifiedName string
	Visibility    string
	ParentIndex   *int
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
}

// ExtractedReference is a use-site recorded during extraction. TargetHint,
// when set, is a best-effort same-file symbol index the adapter could
// already tell the reference resolves to (e.g. a method body calling a
// sibling method); cross-file resolution happens later.
type ExtractedReference struct {
	SymbolName     string
	Kind           string // one of store.Ref* constants
	ImportModality string // only meaningful when Kind == "import"
	TargetHint     *int
	StartLine      int
	StartCol       int
	EndLine        int
	EndCol         int
}

// ExtractedImport is a module specifier resolved, where possible, against
// the set of already-discovered project files (spec §4.B: "Module
// specifiers are resolved by...", Design Notes: "keep per-language
// resolver pure").
type ExtractedImport struct {
	Source        string
	Modality      string
	ResolvedPath  string // relative path within the project, "" if dangling
	Names         []string
}

// ExtractionResult is the per-file output of Adapter.Extract (spec §4.B).
// Exports are not modeled as a separate list: a symbol's Visibility field
// already distinguishes exported from internal declarations, which is all
// the Analytics "exports" operation (spec §4.H) needs.
type ExtractionResult struct {
	Symbols    []ExtractedSymbol
	References []ExtractedReference
	Imports    []ExtractedImport
}

// ParseError records a per-file parse failure (spec §4.B, §7): indexing
// continues with zero symbols/references for that file.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string { return "parse " + e.Path + ": " + e.Message }

// Adapter is the uniform per-language contract (spec §4.B).
type Adapter interface {
	// Parse turns raw file bytes into an AST, or returns an error, which
	// the indexer records as a ParseError.
	Parse(content []byte) (AST, error)
	// Extract walks ast and returns everything found in it. discovered is
	// the set of relative, POSIX-normalized paths already known to
	// Discovery, used to resolve relative import specifiers.
	Extract(ast AST, relativePath string, discovered map[string]bool) (*ExtractionResult, error)
}
