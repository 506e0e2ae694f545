package lang

import (
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/statik/internal/store"
)

// pythonAdapter implements the Python Language Adapter (spec §4.B):
// def/class, from-import/import, decorators as references, and
// attribute (member) accesses.
type pythonAdapter struct{}

// NewPythonAdapter returns the Python Language Adapter.
func NewPythonAdapter() Adapter { return &pythonAdapter{} }

func (a *pythonAdapter) Parse(content []byte) (AST, error) {
	return parseWithGrammar(store.LangPython, content)
}

type pyWalker struct {
	source      []byte
	path        string
	discovered  map[string]bool
	result      *ExtractionResult
	parentStack []int
}

func (a *pythonAdapter) Extract(ast AST, relativePath string, discovered map[string]bool) (*ExtractionResult, error) {
	t := ast.(*tsAST)
	w := &pyWalker{source: t.source, path: relativePath, discovered: discovered, result: &ExtractionResult{}}
	w.walk(t.tree.RootNode())
	return w.result, nil
}

func (w *pyWalker) text(n *sitter.Node) string { return n.Content(w.source) }

// topLevelVisibility follows Python convention: a name starting with "_"
// is internal; everything else at module/class scope is exported.
func topLevelVisibility(name string) string {
	if strings.HasPrefix(name, "_") {
		return store.VisibilityInternal
	}
	return store.VisibilityExported
}

func (w *pyWalker) addSymbol(kind, name string, n *sitter.Node) int {
	var parent *int
	if len(w.parentStack) > 0 {
		p := w.parentStack[len(w.parentStack)-1]
		parent = &p
	}
	sl, sc := point(n.StartPoint())
	el, ec := point(n.EndPoint())
	w.result.Symbols = append(w.result.Symbols, ExtractedSymbol{
		Kind: kind, Name: name, QualifiedName: w.path + "#" + name,
		Visibility: topLevelVisibility(name), ParentIndex: parent,
		StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	})
	return len(w.result.Symbols) - 1
}

func (w *pyWalker) addRef(name, kind string, n *sitter.Node) {
	sl, sc := point(n.StartPoint())
	el, ec := point(n.EndPoint())
	w.result.References = append(w.result.References, ExtractedReference{
		SymbolName: name, Kind: kind,
		StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	})
}

func (w *pyWalker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "decorated_definition":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "decorator" {
				w.addRef(lastSegment(w.text(c)), store.RefCall, c)
			}
		}
		w.walkChildren(n)
		return

	case "function_definition":
		name := w.fieldText(n, "name")
		idx := w.addSymbol(funcKind(len(w.parentStack) > 0), name, n)
		w.parentStack = append(w.parentStack, idx)
		w.walkChildren(n)
		w.parentStack = w.parentStack[:len(w.parentStack)-1]
		return

	case "class_definition":
		name := w.fieldText(n, "name")
		idx := w.addSymbol(store.KindClass, name, n)
		if super := n.ChildByFieldName("superclasses"); super != nil {
			for i := 0; i < int(super.NamedChildCount()); i++ {
				w.addRef(lastSegment(w.text(super.NamedChild(i))), store.RefExtends, super.NamedChild(i))
			}
		}
		w.parentStack = append(w.parentStack, idx)
		w.walkChildren(n)
		w.parentStack = w.parentStack[:len(w.parentStack)-1]
		return

	case "import_statement":
		// import a.b.c [as alias][, ...]
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "dotted_name":
				w.recordImport(w.text(c), nil, 0, n)
			case "aliased_import":
				if mod := c.ChildByFieldName("name"); mod != nil {
					w.recordImport(w.text(mod), nil, 0, n)
				}
			}
		}
		return

	case "import_from_statement":
		moduleNode := n.ChildByFieldName("module_name")
		relDots := 0
		text := w.text(n)
		for _, ch := range text[len("from"):] {
			if ch == ' ' {
				continue
			}
			if ch == '.' {
				relDots++
				continue
			}
			break
		}
		module := ""
		if moduleNode != nil {
			module = w.text(moduleNode)
		}
		var names []string
		wild := false
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "dotted_name":
				if c == moduleNode {
					continue
				}
				names = append(names, w.text(c))
			case "aliased_import":
				if nm := c.ChildByFieldName("alias"); nm != nil {
					names = append(names, w.text(nm))
				}
			case "wildcard_import":
				wild = true
			}
		}
		if wild {
			names = append(names, "*")
		}
		for _, nm := range names {
			w.addRef(nm, store.RefImport, n)
		}
		w.recordImport(module, names, relDots, n)
		return

	case "call":
		if fn := n.ChildByFieldName("function"); fn != nil {
			w.addRef(lastSegment(w.text(fn)), store.RefCall, n)
		}
		w.walkChildren(n)
		return

	case "attribute":
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			w.addRef(w.text(attr), store.RefMemberAccess, n)
		}
		w.walkChildren(n)
		return
	}
	w.walkChildren(n)
}

func funcKind(isMethod bool) string {
	if isMethod {
		return store.KindMethod
	}
	return store.KindFunction
}

func (w *pyWalker) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i))
	}
}

func (w *pyWalker) fieldText(n *sitter.Node, field string) string {
	if f := n.ChildByFieldName(field); f != nil {
		return w.text(f)
	}
	return ""
}

// recordImport resolves a Python import against the discovered set.
// Absolute imports ("import a.b.c") map dotted segments to a path;
// relative imports ("from . import x", "from .. import y") resolve by
// walking up relDots package directories (spec §4.B: "Relative imports
// resolve by package path").
func (w *pyWalker) recordImport(module string, names []string, relDots int, n *sitter.Node) {
	modality := store.ModalityValue
	resolved := ""
	if relDots > 0 {
		dir := path.Dir(w.path)
		for i := 1; i < relDots; i++ {
			dir = path.Dir(dir)
		}
		base := dir
		var candidates []string
		if sub := strings.TrimLeft(module, "."); sub != "" {
			base = path.Join(dir, strings.ReplaceAll(sub, ".", "/"))
		} else {
			// "from . import x": each imported name may be a sibling module.
			for _, nm := range names {
				candidates = append(candidates, path.Join(dir, nm)+".py", path.Join(dir, nm, "__init__.py"))
			}
		}
		candidates = append(candidates, base+".py", path.Join(base, "__init__.py"))
		for _, candidate := range candidates {
			if w.discovered[candidate] {
				resolved = candidate
				break
			}
		}
	} else if module != "" {
		// Try resolving an absolute dotted module path against files
		// discovered anywhere under the project (best-effort: only
		// succeeds for in-project packages, matching the "pure resolver,
		// no I/O beyond checking file existence" design note).
		asPath := strings.ReplaceAll(module, ".", "/")
		for candidate := range w.discovered {
			if candidate == asPath+".py" || candidate == path.Join(asPath, "__init__.py") {
				resolved = candidate
				break
			}
		}
	}

	w.result.Imports = append(w.result.Imports, ExtractedImport{
		Source: module, Modality: modality, ResolvedPath: resolved, Names: names,
	})
}
