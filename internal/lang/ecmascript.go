package lang

import (
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/statik/internal/store"
)

// ecmaAdapter implements both the TypeScript and JavaScript adapters
// (spec §4.B): the two grammars share almost all extraction semantics;
// dialect only changes which language tag is used to select the grammar
// and whether "import type"/"export type" modifiers are meaningful.
type ecmaAdapter struct {
	dialect string // store.LangTypeScript or store.LangJavaScript
}

// NewTypeScriptAdapter returns the TypeScript Language Adapter.
func NewTypeScriptAdapter() Adapter { return &ecmaAdapter{dialect: store.LangTypeScript} }

// NewJavaScriptAdapter returns the JavaScript Language Adapter.
func NewJavaScriptAdapter() Adapter { return &ecmaAdapter{dialect: store.LangJavaScript} }

func (a *ecmaAdapter) Parse(content []byte) (AST, error) {
	return parseWithGrammar(a.dialect, content)
}

// ecmaModuleSuffixes is the resolution order for a relative import
// specifier (spec §4.B): try each suffix in turn against the discovered
// file set before giving up and recording a dangling import.
var ecmaModuleSuffixes = []string{".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.js"}

type ecmaWalker struct {
	source     []byte
	path       string
	discovered map[string]bool
	result     *ExtractionResult
	// parentStack holds the Symbols index of the innermost enclosing
	// class/interface declaration, for method ParentIndex assignment.
	parentStack []int
}

func (a *ecmaAdapter) Extract(ast AST, relativePath string, discovered map[string]bool) (*ExtractionResult, error) {
	t := ast.(*tsAST)
	w := &ecmaWalker{
		source:     t.source,
		path:       relativePath,
		discovered: discovered,
		result:     &ExtractionResult{},
	}
	w.walk(t.tree.RootNode(), false)
	return w.result, nil
}

func (w *ecmaWalker) text(n *sitter.Node) string { return n.Content(w.source) }

func (w *ecmaWalker) addSymbol(kind, name string, exported bool, n *sitter.Node) int {
	vis := store.VisibilityInternal
	if exported {
		vis = store.VisibilityExported
	}
	var parent *int
	if len(w.parentStack) > 0 {
		p := w.parentStack[len(w.parentStack)-1]
		parent = &p
	}
	sl, sc := point(n.StartPoint())
	el, ec := point(n.EndPoint())
	w.result.Symbols = append(w.result.Symbols, ExtractedSymbol{
		Kind:          kind,
		Name:          name,
		QualifiedName: w.path + "#" + name,
		Visibility:    vis,
		ParentIndex:   parent,
		StartLine:     sl, StartCol: sc, EndLine: el, EndCol: ec,
	})
	return len(w.result.Symbols) - 1
}

func (w *ecmaWalker) addRef(name, kind, modality string, n *sitter.Node) {
	sl, sc := point(n.StartPoint())
	el, ec := point(n.EndPoint())
	w.result.References = append(w.result.References, ExtractedReference{
		SymbolName: name, Kind: kind, ImportModality: modality,
		StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	})
}

// walk recursively visits n. exported marks that n is (or is inside) an
// `export` statement, so declarations found underneath are exported.
func (w *ecmaWalker) walk(n *sitter.Node, exported bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "export_statement":
		text := w.text(n)
		isDefault := strings.Contains(text, "export default")
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			w.walk(decl, true)
			if isDefault {
				// The declaration itself may be anonymous; record a
				// synthetic export binding under "default" regardless.
				w.addSymbolIfAnonymousDefault(decl)
			}
		} else {
			// export { x, y } from '...'  OR  export * from '...'
			if src := n.ChildByFieldName("source"); src != nil {
				w.extractImportLike(n, src, true)
			}
		}
		return

	case "import_statement":
		if src := n.ChildByFieldName("source"); src != nil {
			w.extractImportLike(n, src, false)
		}
		return

	case "class_declaration", "abstract_class_declaration":
		name := w.symbolName(n)
		idx := w.addSymbol(store.KindClass, name, exported, n)
		w.extractHeritage(n)
		w.parentStack = append(w.parentStack, idx)
		w.walkChildren(n, false)
		w.parentStack = w.parentStack[:len(w.parentStack)-1]
		return

	case "interface_declaration":
		name := w.symbolName(n)
		idx := w.addSymbol(store.KindInterface, name, exported, n)
		w.extractHeritage(n)
		w.parentStack = append(w.parentStack, idx)
		w.walkChildren(n, false)
		w.parentStack = w.parentStack[:len(w.parentStack)-1]
		return

	case "enum_declaration":
		w.addSymbol(store.KindEnum, w.symbolName(n), exported, n)
		return

	case "type_alias_declaration":
		w.addSymbol(store.KindTypeAlias, w.symbolName(n), exported, n)
		return

	case "function_declaration", "generator_function_declaration":
		w.addSymbol(store.KindFunction, w.symbolName(n), exported, n)
		w.walkChildren(n, false)
		return

	case "method_definition", "method_signature":
		w.addSymbol(store.KindMethod, w.symbolName(n), exported, n)
		w.walkChildren(n, false)
		return

	case "lexical_declaration", "variable_declaration":
		kind := store.KindVariable
		if strings.HasPrefix(w.text(n), "const") {
			kind = store.KindConstant
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			decl := n.NamedChild(i)
			if decl.Type() != "variable_declarator" {
				continue
			}
			name := ""
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				name = w.text(nameNode)
			}
			if name != "" {
				w.addSymbol(kind, name, exported, decl)
			}
			w.walkChildren(decl, false)
		}
		return

	case "new_expression":
		if ctor := n.ChildByFieldName("constructor"); ctor != nil {
			w.addRef(lastSegment(w.text(ctor)), store.RefNew, "", n)
		}
		w.walkChildren(n, false)
		return

	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil {
			w.addRef(lastSegment(w.text(fn)), store.RefCall, "", n)
		}
		w.walkChildren(n, false)
		return

	case "member_expression":
		if prop := n.ChildByFieldName("property"); prop != nil {
			w.addRef(w.text(prop), store.RefMemberAccess, "", n)
		}
		w.walkChildren(n, false)
		return
	}

	w.walkChildren(n, exported)
}

func (w *ecmaWalker) walkChildren(n *sitter.Node, exported bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i), exported)
	}
}

// addSymbolIfAnonymousDefault handles `export default <anonymous expr>`,
// e.g. `export default function() {}`, by naming the binding "default".
func (w *ecmaWalker) addSymbolIfAnonymousDefault(decl *sitter.Node) {
	switch decl.Type() {
	case "function_declaration", "class_declaration":
		if decl.ChildByFieldName("name") == nil {
			w.addSymbol(kindForDecl(decl.Type()), "default", true, decl)
		}
	}
}

func kindForDecl(t string) string {
	if t == "class_declaration" {
		return store.KindClass
	}
	return store.KindFunction
}

func (w *ecmaWalker) extractHeritage(n *sitter.Node) {
	// A clause's named children are the types it lists (the "extends" and
	// "implements" keywords are anonymous tokens); type arguments are not
	// references of their own.
	addClause := func(clause *sitter.Node, kind string) {
		for k := 0; k < int(clause.NamedChildCount()); k++ {
			if t := clause.NamedChild(k); t.Type() != "type_arguments" {
				w.addRef(lastSegment(w.text(t)), kind, "", t)
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "class_heritage":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				h := c.NamedChild(j)
				switch h.Type() {
				case "extends_clause":
					addClause(h, store.RefExtends)
				case "implements_clause":
					addClause(h, store.RefImplements)
				}
			}
		case "extends_type_clause", "extends_clause":
			addClause(c, store.RefExtends)
		}
	}
}

// extractImportLike handles both `import ... from '...'` and
// `export ... from '...'` (re-export) statements, which share the same
// source-resolution and named-binding shape.
func (w *ecmaWalker) extractImportLike(stmt, source *sitter.Node, isReexport bool) {
	spec := strings.Trim(w.text(source), `'"`)
	text := w.text(stmt)
	modality := store.ModalityValue
	if strings.Contains(text, "import type") || strings.Contains(text, "export type") {
		modality = store.ModalityTypeOnly
	}

	var names []string
	if clause := stmt.ChildByFieldName("import_clause"); clause != nil {
		names = w.namedBindings(clause)
	} else {
		names = w.namedBindings(stmt)
	}
	for _, name := range names {
		w.addRef(name, store.RefImport, modality, stmt)
	}

	resolved := resolveECMASpecifier(w.path, spec, w.discovered)
	w.result.Imports = append(w.result.Imports, ExtractedImport{
		Source: spec, Modality: modality, ResolvedPath: resolved, Names: names,
	})
}

func (w *ecmaWalker) namedBindings(n *sitter.Node) []string {
	var names []string
	var walk func(c *sitter.Node)
	walk = func(c *sitter.Node) {
		if c == nil {
			return
		}
		switch c.Type() {
		case "identifier":
			names = append(names, w.text(c))
		case "namespace_import":
			names = append(names, "*")
		case "import_specifier", "export_specifier":
			if alias := c.ChildByFieldName("alias"); alias != nil {
				names = append(names, w.text(alias))
			} else if nm := c.ChildByFieldName("name"); nm != nil {
				names = append(names, w.text(nm))
			}
		default:
			for i := 0; i < int(c.NamedChildCount()); i++ {
				walk(c.NamedChild(i))
			}
		}
	}
	walk(n)
	return names
}

func (w *ecmaWalker) symbolName(n *sitter.Node) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return w.text(nameNode)
	}
	return ""
}

func lastSegment(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), "()")
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// resolveECMASpecifier implements spec §4.B's TS/JS module resolution:
// relative specifiers try a fixed suffix order against the discovered
// file set; everything else is external (dangling, returns "").
func resolveECMASpecifier(fromPath, spec string, discovered map[string]bool) string {
	if !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") {
		return ""
	}
	base := path.Join(path.Dir(fromPath), spec)
	for _, suffix := range ecmaModuleSuffixes {
		candidate := base + suffix
		if strings.HasPrefix(suffix, "/") {
			candidate = base + suffix
		}
		if discovered[candidate] {
			return stripKnownExtension(candidate)
		}
	}
	if discovered[base] {
		return stripKnownExtension(base)
	}
	return ""
}

func stripKnownExtension(p string) string {
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
		if strings.HasSuffix(p, ext) {
			return p
		}
	}
	return p
}
