package lang

import "github.com/jward/statik/internal/store"

// adapters is the language-tag → Adapter dispatch map (spec §9:
// "Polymorphic language adapters: an interface with parse + extract; a
// dispatcher maps language tag → adapter instance"), grounded on canopy's
// langToGrammar map and independently on standardbeagle-lci's
// initializeLanguageAnalyzers.
var adapters = map[string]Adapter{
	store.LangTypeScript: NewTypeScriptAdapter(),
	store.LangJavaScript: NewJavaScriptAdapter(),
	store.LangPython:     NewPythonAdapter(),
	store.LangRust:       NewRustAdapter(),
	store.LangJava:       NewJavaAdapter(),
}

// For returns the Adapter registered for a language tag.
func For(language string) (Adapter, bool) {
	a, ok := adapters[language]
	return a, ok
}

// extensionToLanguage maps a file extension to a canonical language tag
// (spec §3's five supported tags).
var extensionToLanguage = map[string]string{
	".ts":  store.LangTypeScript,
	".tsx": store.LangTypeScript,
	".js":  store.LangJavaScript,
	".jsx": store.LangJavaScript,
	".py":  store.LangPython,
	".rs":  store.LangRust,
	".java": store.LangJava,
}

// LanguageForExtension returns the canonical language tag for a file
// extension (including the leading dot), or ("", false) if unrecognized.
func LanguageForExtension(ext string) (string, bool) {
	lang, ok := extensionToLanguage[ext]
	return lang, ok
}

// SupportedLanguages returns every language tag with a registered adapter.
func SupportedLanguages() []string {
	return []string{store.LangTypeScript, store.LangJavaScript, store.LangPython, store.LangRust, store.LangJava}
}
