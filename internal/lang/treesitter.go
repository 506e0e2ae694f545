package lang

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/jward/statik/internal/store"
)

// grammars maps a language tag (store.Lang*) to its tree-sitter grammar.
// Lazily initialized, mirroring the teacher's langToGrammar/sync.Once.
var (
	grammars     map[string]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		grammars = map[string]*sitter.Language{
			store.LangTypeScript: ts.GetLanguage(),
			store.LangJavaScript: javascript.GetLanguage(),
			store.LangPython:     python.GetLanguage(),
			store.LangRust:       rust.GetLanguage(),
			store.LangJava:       java.GetLanguage(),
		}
	})
}

// grammarFor returns the tree-sitter Language for a canonical language tag.
func grammarFor(lang string) (*sitter.Language, bool) {
	initGrammars()
	g, ok := grammars[lang]
	return g, ok
}

// tsAST is the concrete AST value every tree-sitter-backed Adapter in this
// package produces and consumes.
type tsAST struct {
	tree   *sitter.Tree
	source []byte
}

// parseWithGrammar runs tree-sitter over content using the named grammar.
// Shared by every per-language adapter in this package since the parse
// step is identical across languages; only extraction differs.
func parseWithGrammar(lang string, content []byte) (AST, error) {
	g, ok := grammarFor(lang)
	if !ok {
		return nil, fmt.Errorf("no grammar registered for language %q", lang)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(g)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	return &tsAST{tree: tree, source: content}, nil
}

// point converts a tree-sitter point to the 0-based line/col convention
// the store uses throughout (matching canopy's documented convention).
func point(p sitter.Point) (line, col int) {
	return int(p.Row), int(p.Column)
}
