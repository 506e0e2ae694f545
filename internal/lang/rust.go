package lang

import (
	"path"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/statik/internal/store"
)

// rustAdapter implements the Rust Language Adapter (spec §4.B):
// fn/struct/enum/trait/impl items, use paths, mod declarations, and file
// resolution by the mod convention (foo.rs vs foo/mod.rs).
type rustAdapter struct{}

// NewRustAdapter returns the Rust Language Adapter.
func NewRustAdapter() Adapter { return &rustAdapter{} }

func (a *rustAdapter) Parse(content []byte) (AST, error) {
	return parseWithGrammar(store.LangRust, content)
}

type rustWalker struct {
	source      []byte
	path        string
	discovered  map[string]bool
	result      *ExtractionResult
	parentStack []int
	// implTarget, when non-empty, names the type the innermost enclosing
	// impl block is for; fn items under it become methods on that type.
	implTarget string
}

func (a *rustAdapter) Extract(ast AST, relativePath string, discovered map[string]bool) (*ExtractionResult, error) {
	t := ast.(*tsAST)
	w := &rustWalker{source: t.source, path: relativePath, discovered: discovered, result: &ExtractionResult{}}
	w.walk(t.tree.RootNode())
	return w.result, nil
}

func (w *rustWalker) text(n *sitter.Node) string { return n.Content(w.source) }

func visForVisibilityModifier(n *sitter.Node, text func(*sitter.Node) string) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "visibility_modifier" {
			return store.VisibilityExported
		}
	}
	return store.VisibilityInternal
}

func (w *rustWalker) addSymbol(kind, name string, n *sitter.Node) int {
	var parent *int
	if len(w.parentStack) > 0 {
		p := w.parentStack[len(w.parentStack)-1]
		parent = &p
	}
	sl, sc := point(n.StartPoint())
	el, ec := point(n.EndPoint())
	w.result.Symbols = append(w.result.Symbols, ExtractedSymbol{
		Kind: kind, Name: name, QualifiedName: w.path + "::" + name,
		Visibility: visForVisibilityModifier(n, w.text), ParentIndex: parent,
		StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	})
	return len(w.result.Symbols) - 1
}

func (w *rustWalker) addRef(name, kind string, n *sitter.Node) {
	sl, sc := point(n.StartPoint())
	el, ec := point(n.EndPoint())
	w.result.References = append(w.result.References, ExtractedReference{
		SymbolName: name, Kind: kind, StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	})
}

func (w *rustWalker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_item":
		name := w.fieldText(n, "name")
		kind := store.KindFunction
		if w.implTarget != "" {
			kind = store.KindMethod
		}
		w.addSymbol(kind, name, n)
		w.walkChildren(n)
		return

	case "struct_item":
		name := w.fieldText(n, "name")
		idx := w.addSymbol(store.KindClass, name, n)
		w.parentStack = append(w.parentStack, idx)
		w.walkChildren(n)
		w.parentStack = w.parentStack[:len(w.parentStack)-1]
		return

	case "enum_item":
		name := w.fieldText(n, "name")
		w.addSymbol(store.KindEnum, name, n)
		return

	case "trait_item":
		name := w.fieldText(n, "name")
		idx := w.addSymbol(store.KindInterface, name, n)
		w.parentStack = append(w.parentStack, idx)
		w.walkChildren(n)
		w.parentStack = w.parentStack[:len(w.parentStack)-1]
		return

	case "impl_item":
		typeName := ""
		if t := n.ChildByFieldName("type"); t != nil {
			typeName = w.text(t)
		}
		if tr := n.ChildByFieldName("trait"); tr != nil {
			w.addRef(lastSegment(w.text(tr)), store.RefImplements, n)
		}
		prevTarget := w.implTarget
		w.implTarget = typeName
		w.walkChildren(n)
		w.implTarget = prevTarget
		return

	case "mod_item":
		name := w.fieldText(n, "name")
		w.addSymbol(store.KindModule, name, n)
		w.result.Imports = append(w.result.Imports, ExtractedImport{
			Source:       name,
			Modality:     store.ModalityValue,
			ResolvedPath: resolveRustMod(w.path, name, w.discovered),
			Names:        nil,
		})
		w.walkChildren(n)
		return

	case "use_declaration":
		if arg := n.ChildByFieldName("argument"); arg != nil {
			names := w.useTreeNames(arg)
			for _, nm := range names {
				w.addRef(nm, store.RefImport, n)
			}
			w.result.Imports = append(w.result.Imports, ExtractedImport{
				Source:   w.text(arg),
				Modality: store.ModalityValue,
				Names:    names,
			})
		}
		return

	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil {
			w.addRef(lastSegment(w.text(fn)), store.RefCall, n)
		}
		w.walkChildren(n)
		return

	case "field_expression":
		if field := n.ChildByFieldName("field"); field != nil {
			w.addRef(w.text(field), store.RefMemberAccess, n)
		}
		w.walkChildren(n)
		return
	}
	w.walkChildren(n)
}

func (w *rustWalker) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i))
	}
}

func (w *rustWalker) fieldText(n *sitter.Node, field string) string {
	if f := n.ChildByFieldName(field); f != nil {
		return w.text(f)
	}
	return ""
}

// useTreeNames flattens a use_declaration's argument (which may be a
// scoped_identifier, a use_list "{a, b, c}", or a use_as_clause) into the
// set of bound names.
func (w *rustWalker) useTreeNames(n *sitter.Node) []string {
	switch n.Type() {
	case "use_list":
		var names []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			names = append(names, w.useTreeNames(n.NamedChild(i))...)
		}
		return names
	case "use_as_clause":
		if alias := n.ChildByFieldName("alias"); alias != nil {
			return []string{w.text(alias)}
		}
		return nil
	case "scoped_use_list":
		var names []string
		if list := n.ChildByFieldName("list"); list != nil {
			names = append(names, w.useTreeNames(list)...)
		}
		return names
	default:
		return []string{lastSegment(w.text(n))}
	}
}

// resolveRustMod implements the `mod foo;` file-resolution convention
// (spec §4.B): the submodule lives at either foo.rs or foo/mod.rs,
// adjacent to the declaring file.
func resolveRustMod(fromPath, name string, discovered map[string]bool) string {
	dir := path.Dir(fromPath)
	for _, candidate := range []string{
		path.Join(dir, name+".rs"),
		path.Join(dir, name, "mod.rs"),
	} {
		if discovered[candidate] {
			return candidate
		}
	}
	return ""
}
