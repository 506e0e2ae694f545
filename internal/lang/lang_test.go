package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/statik/internal/store"
)

func symbolNames(syms []ExtractedSymbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

func refNames(refs []ExtractedReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.SymbolName
	}
	return out
}

func extract(t *testing.T, a Adapter, content, relPath string, discovered map[string]bool) *ExtractionResult {
	t.Helper()
	ast, err := a.Parse([]byte(content))
	require.NoError(t, err)
	res, err := a.Extract(ast, relPath, discovered)
	require.NoError(t, err)
	return res
}

func TestDispatch_ForReturnsRegisteredAdapters(t *testing.T) {
	t.Parallel()
	for _, l := range SupportedLanguages() {
		a, ok := For(l)
		assert.True(t, ok, "expected an adapter for %s", l)
		assert.NotNil(t, a)
	}
	_, ok := For("cobol")
	assert.False(t, ok)
}

func TestDispatch_LanguageForExtension(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		".ts": store.LangTypeScript, ".tsx": store.LangTypeScript,
		".js": store.LangJavaScript, ".jsx": store.LangJavaScript,
		".py": store.LangPython, ".rs": store.LangRust, ".java": store.LangJava,
	}
	for ext, want := range cases {
		got, ok := LanguageForExtension(ext)
		assert.True(t, ok, ext)
		assert.Equal(t, want, got, ext)
	}
	_, ok := LanguageForExtension(".exe")
	assert.False(t, ok)
}

// --- TypeScript/JavaScript ---

func TestTypeScriptAdapter_FunctionAndClass(t *testing.T) {
	t.Parallel()
	a := NewTypeScriptAdapter()
	src := `
export function greet(name: string): string {
  return "hi " + name;
}

class Widget {
  render() {}
}
`
	res := extract(t, a, src, "src/widget.ts", map[string]bool{})
	names := symbolNames(res.Symbols)
	assert.Contains(t, names, "greet")
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "render")

	for _, s := range res.Symbols {
		if s.Name == "greet" {
			assert.Equal(t, store.KindFunction, s.Kind)
			assert.Equal(t, store.VisibilityExported, s.Visibility)
		}
		if s.Name == "Widget" {
			assert.Equal(t, store.KindClass, s.Kind)
			assert.Equal(t, store.VisibilityInternal, s.Visibility)
		}
	}
}

func TestTypeScriptAdapter_RelativeImportResolvesAgainstDiscovered(t *testing.T) {
	t.Parallel()
	a := NewTypeScriptAdapter()
	src := `import { formatName } from "./utils/format";`
	discovered := map[string]bool{"src/utils/format.ts": true}

	res := extract(t, a, src, "src/index.ts", discovered)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "src/utils/format.ts", res.Imports[0].ResolvedPath)
	assert.Contains(t, res.Imports[0].Names, "formatName")

	assert.Contains(t, refNames(res.References), "formatName")
	for _, r := range res.References {
		if r.SymbolName == "formatName" {
			assert.Equal(t, store.RefImport, r.Kind)
		}
	}
}

func TestTypeScriptAdapter_ExternalImportIsDangling(t *testing.T) {
	t.Parallel()
	a := NewTypeScriptAdapter()
	src := `import { useState } from "react";`
	res := extract(t, a, src, "src/app.ts", map[string]bool{})
	require.Len(t, res.Imports, 1)
	assert.Empty(t, res.Imports[0].ResolvedPath)
}

func TestTypeScriptAdapter_CallAndNewExpressions(t *testing.T) {
	t.Parallel()
	a := NewTypeScriptAdapter()
	src := `
function main() {
  doThing();
  const w = new Widget();
}
`
	res := extract(t, a, src, "src/main.ts", map[string]bool{})
	assert.Contains(t, refNames(res.References), "doThing")
	assert.Contains(t, refNames(res.References), "Widget")

	for _, r := range res.References {
		switch r.SymbolName {
		case "doThing":
			assert.Equal(t, store.RefCall, r.Kind)
		case "Widget":
			assert.Equal(t, store.RefNew, r.Kind)
		}
	}
}

func TestTypeScriptAdapter_ClassExtends(t *testing.T) {
	t.Parallel()
	a := NewTypeScriptAdapter()
	src := `class Sub extends Base {}`
	res := extract(t, a, src, "src/a.ts", map[string]bool{})
	assert.Contains(t, refNames(res.References), "Base")
	for _, r := range res.References {
		if r.SymbolName == "Base" {
			assert.Equal(t, store.RefExtends, r.Kind)
		}
	}
}

func TestJavaScriptAdapter_SharesEcmaExtraction(t *testing.T) {
	t.Parallel()
	a := NewJavaScriptAdapter()
	src := `function helper() { return 1; }`
	res := extract(t, a, src, "src/helper.js", map[string]bool{})
	require.Len(t, res.Symbols, 1)
	assert.Equal(t, "helper", res.Symbols[0].Name)
	assert.Equal(t, store.KindFunction, res.Symbols[0].Kind)
}

// --- Python ---

func TestPythonAdapter_FunctionAndClassVisibilityByUnderscore(t *testing.T) {
	t.Parallel()
	a := NewPythonAdapter()
	src := `
def public_fn():
    pass

def _private_fn():
    pass

class Widget:
    def render(self):
        pass
`
	res := extract(t, a, src, "pkg/widget.py", map[string]bool{})
	byName := map[string]ExtractedSymbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "public_fn")
	require.Contains(t, byName, "_private_fn")
	require.Contains(t, byName, "Widget")
	require.Contains(t, byName, "render")

	assert.Equal(t, store.VisibilityExported, byName["public_fn"].Visibility)
	assert.Equal(t, store.VisibilityInternal, byName["_private_fn"].Visibility)
	assert.Equal(t, store.KindClass, byName["Widget"].Kind)
	assert.Equal(t, store.KindMethod, byName["render"].Kind)
}

func TestPythonAdapter_ImportFromRecordsNamesAndRefs(t *testing.T) {
	t.Parallel()
	a := NewPythonAdapter()
	src := `from pkg.utils import format_name`
	discovered := map[string]bool{"pkg/utils.py": true}

	res := extract(t, a, src, "pkg/main.py", discovered)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "pkg/utils.py", res.Imports[0].ResolvedPath)
	assert.Contains(t, res.Imports[0].Names, "format_name")
	assert.Contains(t, refNames(res.References), "format_name")
}

func TestPythonAdapter_RelativeImportWalksUpPackageDirs(t *testing.T) {
	t.Parallel()
	a := NewPythonAdapter()
	src := `from . import sibling`
	discovered := map[string]bool{"pkg/sibling.py": true}

	res := extract(t, a, src, "pkg/main.py", discovered)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "pkg/sibling.py", res.Imports[0].ResolvedPath)
}

func TestPythonAdapter_CallAndAttributeReferences(t *testing.T) {
	t.Parallel()
	a := NewPythonAdapter()
	src := `
def main():
    helper()
    obj.method_name()
`
	res := extract(t, a, src, "pkg/main.py", map[string]bool{})
	assert.Contains(t, refNames(res.References), "helper")
}

// --- Java ---

func TestJavaAdapter_ClassAndPackageQualifiedName(t *testing.T) {
	t.Parallel()
	a := NewJavaAdapter()
	src := `
package com.example.app;

public class Widget {
    public void render() {}
}
`
	res := extract(t, a, src, "com/example/app/Widget.java", map[string]bool{})
	byName := map[string]ExtractedSymbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "Widget")
	assert.Equal(t, "com.example.app.Widget", byName["Widget"].QualifiedName)
	assert.Equal(t, store.VisibilityExported, byName["Widget"].Visibility)
	require.Contains(t, byName, "render")
	assert.Equal(t, store.KindMethod, byName["render"].Kind)
}

func TestJavaAdapter_ImportResolvesByPackagePath(t *testing.T) {
	t.Parallel()
	a := NewJavaAdapter()
	src := `import com.example.util.Formatter;`
	discovered := map[string]bool{"com/example/util/Formatter.java": true}

	res := extract(t, a, src, "com/example/app/Main.java", discovered)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "com/example/util/Formatter.java", res.Imports[0].ResolvedPath)
}

// --- Rust ---

func TestRustAdapter_FunctionStructAndVisibility(t *testing.T) {
	t.Parallel()
	a := NewRustAdapter()
	src := `
pub fn greet() {}

fn hidden() {}

pub struct Widget {
    field: i32,
}
`
	res := extract(t, a, src, "src/widget.rs", map[string]bool{})
	byName := map[string]ExtractedSymbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "greet")
	require.Contains(t, byName, "hidden")
	require.Contains(t, byName, "Widget")
	assert.Equal(t, store.VisibilityExported, byName["greet"].Visibility)
	assert.Equal(t, store.VisibilityInternal, byName["hidden"].Visibility)
	assert.Equal(t, store.KindClass, byName["Widget"].Kind)
}

func TestRustAdapter_ImplBlockFunctionsBecomeMethods(t *testing.T) {
	t.Parallel()
	a := NewRustAdapter()
	src := `
struct Widget;

impl Widget {
    fn render(&self) {}
}
`
	res := extract(t, a, src, "src/widget.rs", map[string]bool{})
	byName := map[string]ExtractedSymbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "render")
	assert.Equal(t, store.KindMethod, byName["render"].Kind)
}

func TestRustAdapter_ModDeclarationResolvesSiblingFile(t *testing.T) {
	t.Parallel()
	a := NewRustAdapter()
	src := `mod utils;`
	discovered := map[string]bool{"src/utils.rs": true}

	res := extract(t, a, src, "src/lib.rs", discovered)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "src/utils.rs", res.Imports[0].ResolvedPath)
}

func TestRustAdapter_UseDeclarationRecordsNames(t *testing.T) {
	t.Parallel()
	a := NewRustAdapter()
	src := `use std::collections::HashMap;`
	res := extract(t, a, src, "src/lib.rs", map[string]bool{})
	require.Len(t, res.Imports, 1)
	assert.Contains(t, res.Imports[0].Names, "HashMap")
}
