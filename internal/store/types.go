// Package store implements the durable, on-disk index described by the
// data model: files, symbols, references, and import edges, backed by
// SQLite.
package store

import "time"

// Symbol kinds (spec §3).
const (
	KindFunction    = "function"
	KindMethod      = "method"
	KindClass       = "class"
	KindInterface   = "interface"
	KindEnum        = "enum"
	KindTypeAlias   = "type-alias"
	KindVariable    = "variable"
	KindConstant    = "constant"
	KindModule      = "module"
	KindNamespace   = "namespace"
)

// Symbol visibility.
const (
	VisibilityExported = "exported"
	VisibilityInternal = "internal"
)

// Reference kinds (spec §3).
const (
	RefCall          = "call"
	RefImport        = "import"
	RefNew           = "new"
	RefTypeUse       = "type-use"
	RefExtends       = "extends"
	RefImplements    = "implements"
	RefMemberAccess  = "member-access"
)

// Import modality (spec §3), relevant when a Reference's kind is RefImport.
const (
	ModalityValue    = "value"
	ModalityTypeOnly = "type-only"
	ModalityMixed    = "mixed"
)

// Language tags (spec §3).
const (
	LangTypeScript = "typescript"
	LangJavaScript = "javascript"
	LangPython     = "python"
	LangRust       = "rust"
	LangJava       = "java"
)

// File is a single discovered and indexed source file.
type File struct {
	ID          int64
	Path        string // POSIX-relative, rooted at the project root
	Language    string
	Hash        string // blake3 hex digest of file content
	Size        int64
	LastIndexed time.Time
}

// Symbol is a named declaration extracted from a File.
type Symbol struct {
	ID             int64
	FileID         int64
	Kind           string
	Name           string
	QualifiedName  string
	Visibility     string
	ParentSymbolID *int64 // set for methods/members
	StartLine      int
	StartCol       int
	EndLine        int
	EndCol         int
}

// Reference is a use-site: a call, import, instantiation, type use,
// inheritance edge, or member access recorded at extraction time.
type Reference struct {
	ID              int64
	FileID          int64
	SymbolName      string // the name as written at the use site
	TargetSymbolID  *int64 // filled in by resolution when determinable
	Kind            string
	ImportModality  string // only meaningful when Kind == RefImport
	StartLine       int
	StartCol        int
	EndLine         int
	EndCol          int
}

// Import is a derived, resolved import edge: a module specifier in a file
// and, if resolvable within the project, the file it points to.
type Import struct {
	ID             int64
	FileID         int64
	Source         string // the raw specifier as written, e.g. "./format"
	Modality       string
	ResolvedFileID *int64 // nil when the import is dangling
	Names          []string
}

// ParseError is recorded per file; it does not abort the indexing run.
type ParseError struct {
	ID      int64
	FileID  int64
	Path    string
	Message string
}
