package statik

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jward/statik/internal/store"
)

// newTestEngine opens a fresh on-disk store in a temp directory, grounded
// on canopy's newTestQueryBuilder helper (query_test.go).
func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e, err := Open(dbPath, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func insertFile(t *testing.T, e *Engine, path, lang string) *store.File {
	t.Helper()
	f := &store.File{Path: path, Language: lang, Hash: "h-" + path, LastIndexed: time.Now()}
	id, err := e.store.InsertFile(f)
	require.NoError(t, err)
	f.ID = id
	return f
}

func insertSymbol(t *testing.T, e *Engine, fileID int64, kind, name, qualified, visibility string, startLine, endLine int) *store.Symbol {
	t.Helper()
	s := &store.Symbol{
		FileID: fileID, Kind: kind, Name: name, QualifiedName: qualified, Visibility: visibility,
		StartLine: startLine, StartCol: 0, EndLine: endLine, EndCol: 0,
	}
	id, err := e.store.InsertSymbol(s)
	require.NoError(t, err)
	s.ID = id
	return s
}

func insertImport(t *testing.T, e *Engine, fromFileID int64, resolvedFileID *int64, names ...string) *store.Import {
	t.Helper()
	imp := &store.Import{FileID: fromFileID, Source: "whatever", Modality: store.ModalityValue, ResolvedFileID: resolvedFileID, Names: names}
	id, err := e.store.InsertImport(imp)
	require.NoError(t, err)
	imp.ID = id
	return imp
}

func insertReference(t *testing.T, e *Engine, fileID int64, name, kind string, target *int64, line int) *store.Reference {
	t.Helper()
	ref := &store.Reference{
		FileID: fileID, SymbolName: name, Kind: kind, TargetSymbolID: target,
		StartLine: line, StartCol: 0, EndLine: line, EndCol: len(name),
	}
	id, err := e.store.InsertReference(ref)
	require.NoError(t, err)
	ref.ID = id
	return ref
}
