package lang

import (
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/statik/internal/store"
)

// javaAdapter implements the Java Language Adapter (spec §4.B):
// class/interface/enum declarations, extends/implements, method
// declarations, imports (including static), and annotation uses.
// File-to-fully-qualified-name mapping is by declared package + filename.
type javaAdapter struct{}

// NewJavaAdapter returns the Java Language Adapter.
func NewJavaAdapter() Adapter { return &javaAdapter{} }

func (a *javaAdapter) Parse(content []byte) (AST, error) {
	return parseWithGrammar(store.LangJava, content)
}

type javaWalker struct {
	source      []byte
	path        string
	discovered  map[string]bool
	pkg         string
	result      *ExtractionResult
	parentStack []int
}

func (a *javaAdapter) Extract(ast AST, relativePath string, discovered map[string]bool) (*ExtractionResult, error) {
	t := ast.(*tsAST)
	w := &javaWalker{source: t.source, path: relativePath, discovered: discovered, result: &ExtractionResult{}}
	w.walk(t.tree.RootNode())
	return w.result, nil
}

func (w *javaWalker) text(n *sitter.Node) string { return n.Content(w.source) }

func (w *javaWalker) addSymbol(kind, name string, public bool, n *sitter.Node) int {
	vis := store.VisibilityInternal
	if public {
		vis = store.VisibilityExported
	}
	var parent *int
	if len(w.parentStack) > 0 {
		p := w.parentStack[len(w.parentStack)-1]
		parent = &p
	}
	qualified := name
	if w.pkg != "" {
		qualified = w.pkg + "." + name
	}
	sl, sc := point(n.StartPoint())
	el, ec := point(n.EndPoint())
	w.result.Symbols = append(w.result.Symbols, ExtractedSymbol{
		Kind: kind, Name: name, QualifiedName: qualified, Visibility: vis,
		ParentIndex: parent, StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	})
	return len(w.result.Symbols) - 1
}

func (w *javaWalker) addRef(name, kind string, n *sitter.Node) {
	sl, sc := point(n.StartPoint())
	el, ec := point(n.EndPoint())
	w.result.References = append(w.result.References, ExtractedReference{
		SymbolName: name, Kind: kind, StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	})
}

func (w *javaWalker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "package_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
				w.pkg = w.text(c)
			}
		}
		return

	case "import_declaration":
		text := w.text(n)
		isStatic := strings.Contains(text, "static")
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
				spec := w.text(c)
				name := lastSegment(spec)
				w.addRef(name, store.RefImport, n)
				w.result.Imports = append(w.result.Imports, ExtractedImport{
					Source:       spec,
					Modality:     store.ModalityValue,
					ResolvedPath: resolveJavaSpecifier(spec, isStatic, w.discovered),
					Names:        []string{name},
				})
			}
		}
		return

	case "class_declaration":
		name := w.fieldText(n, "name")
		public := strings.Contains(w.modifiersText(n), "public")
		idx := w.addSymbol(store.KindClass, name, public, n)
		w.extractHeritage(n)
		w.parentStack = append(w.parentStack, idx)
		w.walkChildren(n)
		w.parentStack = w.parentStack[:len(w.parentStack)-1]
		return

	case "interface_declaration":
		name := w.fieldText(n, "name")
		public := strings.Contains(w.modifiersText(n), "public")
		idx := w.addSymbol(store.KindInterface, name, public, n)
		w.extractHeritage(n)
		w.parentStack = append(w.parentStack, idx)
		w.walkChildren(n)
		w.parentStack = w.parentStack[:len(w.parentStack)-1]
		return

	case "enum_declaration":
		name := w.fieldText(n, "name")
		public := strings.Contains(w.modifiersText(n), "public")
		w.addSymbol(store.KindEnum, name, public, n)
		return

	case "method_declaration", "constructor_declaration":
		name := w.fieldText(n, "name")
		public := strings.Contains(w.modifiersText(n), "public")
		w.addSymbol(store.KindMethod, name, public, n)
		w.walkChildren(n)
		return

	case "marker_annotation", "annotation":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			w.addRef(w.text(nameNode), store.RefCall, n)
		}
		return

	case "method_invocation":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			w.addRef(w.text(nameNode), store.RefCall, n)
		}
		w.walkChildren(n)
		return

	case "object_creation_expression":
		if typeNode := n.ChildByFieldName("type"); typeNode != nil {
			w.addRef(lastSegment(w.text(typeNode)), store.RefNew, n)
		}
		w.walkChildren(n)
		return

	case "field_access":
		if field := n.ChildByFieldName("field"); field != nil {
			w.addRef(w.text(field), store.RefMemberAccess, n)
		}
		w.walkChildren(n)
		return
	}
	w.walkChildren(n)
}

func (w *javaWalker) extractHeritage(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "superclass":
			w.addRef(lastSegment(w.text(c)), store.RefExtends, c)
		case "super_interfaces", "extends_interfaces":
			w.addRef(lastSegment(w.text(c)), store.RefImplements, c)
		}
	}
}

func (w *javaWalker) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i))
	}
}

func (w *javaWalker) fieldText(n *sitter.Node, field string) string {
	if f := n.ChildByFieldName(field); f != nil {
		return w.text(f)
	}
	return ""
}

func (w *javaWalker) modifiersText(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "modifiers" {
			return w.text(c)
		}
	}
	return ""
}

// resolveJavaSpecifier maps a fully-qualified import (a.b.C, or a.b.C.member
// for a static import) to a project-relative path by fully-qualified-name
// convention (declared package + filename, spec §4.B).
func resolveJavaSpecifier(spec string, isStatic bool, discovered map[string]bool) string {
	segments := strings.Split(spec, ".")
	if isStatic && len(segments) > 1 {
		segments = segments[:len(segments)-1] // drop the static member name
	}
	className := segments[len(segments)-1]
	dir := strings.Join(segments[:len(segments)-1], "/")
	candidate := path.Join(dir, className+".java")
	if discovered[candidate] {
		return candidate
	}
	return ""
}
