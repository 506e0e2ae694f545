package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestFile(t *testing.T, s *Store, path, language string) *File {
	t.Helper()
	f := &File{Path: path, Language: language, Hash: "h-" + path, Size: 10, LastIndexed: time.Now()}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	f.ID = id
	return f
}

func TestMigrate_IsIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}

func TestMigrate_RejectsSchemaVersionMismatch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.DB().Exec("UPDATE schema_meta SET value = '999' WHERE key = 'schema_version'")
	require.NoError(t, err)

	err = s.Migrate()
	require.Error(t, err)
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "999", mismatch.OnDisk)
	assert.Equal(t, SchemaVersion, mismatch.Expected)
}

func TestFile_InsertAndRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/a.ts", LangTypeScript)

	got, err := s.FileByPath("src/a.ts")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "h-src/a.ts", got.Hash)

	byID, err := s.FileByID(f.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, f.Path, byID.Path)
}

func TestFile_ByPathReturnsNilWhenAbsent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.FileByPath("nope.ts")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListFiles_OrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "src/z.ts", LangTypeScript)
	insertTestFile(t, s, "src/a.ts", LangTypeScript)

	files, err := s.ListFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "src/a.ts", files[0].Path)
	assert.Equal(t, "src/z.ts", files[1].Path)
}

// Invariant: deleting a File cascades to its Symbols and References.
func TestDeleteFile_CascadesSymbolsAndReferences(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/a.ts", LangTypeScript)
	other := insertTestFile(t, s, "src/b.ts", LangTypeScript)

	sym, err := s.InsertSymbol(&Symbol{FileID: f.ID, Kind: KindFunction, Name: "foo", QualifiedName: "a.foo", Visibility: VisibilityExported})
	require.NoError(t, err)

	_, err = s.InsertReference(&Reference{FileID: f.ID, SymbolName: "bar", Kind: RefCall})
	require.NoError(t, err)
	targetSym := sym
	_, err = s.InsertReference(&Reference{FileID: other.ID, SymbolName: "foo", Kind: RefCall, TargetSymbolID: &targetSym})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile(f.ID))

	byPath, err := s.FileByPath("src/a.ts")
	require.NoError(t, err)
	assert.Nil(t, byPath)

	symsRemaining, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, symsRemaining)

	refsFromOther, err := s.ReferencesByFile(other.ID)
	require.NoError(t, err)
	assert.Empty(t, refsFromOther, "reference targeting the deleted file's symbol must also be removed")
}

// Invariant 3: vacuum correctness — removing a file from disk and
// re-indexing removes its rows, others untouched.
func TestVacuumDeleted_RemovesOnlyUnseenFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestFile(t, s, "src/a.ts", LangTypeScript)
	insertTestFile(t, s, "src/b.ts", LangTypeScript)

	removed, err := s.VacuumDeleted(map[string]bool{"src/b.ts": true})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := s.ListFiles()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "src/b.ts", remaining[0].Path)

	gone, err := s.FileByID(a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestVacuumDeleted_NoOpWhenAllSeen(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "src/a.ts", LangTypeScript)

	removed, err := s.VacuumDeleted(map[string]bool{"src/a.ts": true})
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestSymbol_InsertAndQueryByFileOrderedBySpan(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/a.ts", LangTypeScript)

	_, err := s.InsertSymbol(&Symbol{FileID: f.ID, Kind: KindFunction, Name: "second", QualifiedName: "a.second", Visibility: VisibilityExported, StartLine: 10})
	require.NoError(t, err)
	_, err = s.InsertSymbol(&Symbol{FileID: f.ID, Kind: KindFunction, Name: "first", QualifiedName: "a.first", Visibility: VisibilityExported, StartLine: 1})
	require.NoError(t, err)

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, "first", syms[0].Name)
	assert.Equal(t, "second", syms[1].Name)
}

func TestSymbol_ByIDReturnsNilWhenAbsent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.SymbolByID(99999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSymbol_ByName_CrossFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	fa := insertTestFile(t, s, "src/a.ts", LangTypeScript)
	fb := insertTestFile(t, s, "src/b.ts", LangTypeScript)
	_, err := s.InsertSymbol(&Symbol{FileID: fa.ID, Kind: KindFunction, Name: "shared", QualifiedName: "a.shared", Visibility: VisibilityExported})
	require.NoError(t, err)
	_, err = s.InsertSymbol(&Symbol{FileID: fb.ID, Kind: KindFunction, Name: "shared", QualifiedName: "b.shared", Visibility: VisibilityExported})
	require.NoError(t, err)

	got, err := s.SymbolsByName("shared")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReference_UpdateTargetAndQuery(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/a.ts", LangTypeScript)
	symID, err := s.InsertSymbol(&Symbol{FileID: f.ID, Kind: KindFunction, Name: "foo", QualifiedName: "a.foo", Visibility: VisibilityExported})
	require.NoError(t, err)

	refID, err := s.InsertReference(&Reference{FileID: f.ID, SymbolName: "foo", Kind: RefCall})
	require.NoError(t, err)

	require.NoError(t, s.UpdateReferenceTarget(refID, symID))

	byTarget, err := s.ReferencesByTarget(symID)
	require.NoError(t, err)
	require.Len(t, byTarget, 1)
	assert.Equal(t, refID, byTarget[0].ID)
}

// UnresolvedReferences selects target_symbol_id IS NULL AND kind IN (...).
func TestUnresolvedReferences_FiltersByNullTargetAndKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/a.ts", LangTypeScript)
	sym, err := s.InsertSymbol(&Symbol{FileID: f.ID, Kind: KindFunction, Name: "foo", QualifiedName: "a.foo", Visibility: VisibilityExported})
	require.NoError(t, err)

	_, err = s.InsertReference(&Reference{FileID: f.ID, SymbolName: "unresolvedCall", Kind: RefCall})
	require.NoError(t, err)
	_, err = s.InsertReference(&Reference{FileID: f.ID, SymbolName: "unresolvedMember", Kind: RefMemberAccess})
	require.NoError(t, err)
	resolvedRefID, err := s.InsertReference(&Reference{FileID: f.ID, SymbolName: "foo", Kind: RefCall, TargetSymbolID: &sym})
	require.NoError(t, err)

	unresolved, err := s.UnresolvedReferences([]string{RefCall, RefNew})
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "unresolvedCall", unresolved[0].SymbolName)
	for _, u := range unresolved {
		assert.NotEqual(t, resolvedRefID, u.ID)
	}
}

func TestAllReferences_OrderedByFileThenSpan(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	fa := insertTestFile(t, s, "src/a.ts", LangTypeScript)
	fb := insertTestFile(t, s, "src/b.ts", LangTypeScript)
	_, err := s.InsertReference(&Reference{FileID: fb.ID, SymbolName: "x", Kind: RefCall, StartLine: 1})
	require.NoError(t, err)
	_, err = s.InsertReference(&Reference{FileID: fa.ID, SymbolName: "y", Kind: RefCall, StartLine: 5})
	require.NoError(t, err)
	_, err = s.InsertReference(&Reference{FileID: fa.ID, SymbolName: "z", Kind: RefCall, StartLine: 1})
	require.NoError(t, err)

	all, err := s.AllReferences()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, fa.ID, all[0].FileID)
	assert.Equal(t, "z", all[0].SymbolName)
	assert.Equal(t, fa.ID, all[1].FileID)
	assert.Equal(t, "y", all[1].SymbolName)
	assert.Equal(t, fb.ID, all[2].FileID)
}

func TestImport_NamesRoundTripThroughMarshaling(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/a.ts", LangTypeScript)

	id, err := s.InsertImport(&Import{FileID: f.ID, Source: "./b", Modality: ModalityValue, Names: []string{"foo", "bar"}})
	require.NoError(t, err)

	imports, err := s.ImportsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, id, imports[0].ID)
	assert.Equal(t, []string{"foo", "bar"}, imports[0].Names)
}

func TestImport_NoNamesRoundTripsToNil(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/a.ts", LangTypeScript)

	_, err := s.InsertImport(&Import{FileID: f.ID, Source: "./b", Modality: ModalityValue})
	require.NoError(t, err)

	imports, err := s.ImportsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Nil(t, imports[0].Names)
}

func TestAllImports_OrderedBySourcePathThenImportSource(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	fz := insertTestFile(t, s, "src/z.ts", LangTypeScript)
	fa := insertTestFile(t, s, "src/a.ts", LangTypeScript)

	_, err := s.InsertImport(&Import{FileID: fz.ID, Source: "./x", Modality: ModalityValue})
	require.NoError(t, err)
	_, err = s.InsertImport(&Import{FileID: fa.ID, Source: "./x", Modality: ModalityValue})
	require.NoError(t, err)

	all, err := s.AllImports()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, fa.ID, all[0].FileID)
	assert.Equal(t, fz.ID, all[1].FileID)
}

func TestParseError_InsertAndListOrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/a.ts", LangTypeScript)

	_, err := s.InsertParseError(&ParseError{FileID: f.ID, Path: "src/z.ts", Message: "boom"})
	require.NoError(t, err)
	_, err = s.InsertParseError(&ParseError{FileID: f.ID, Path: "src/a.ts", Message: "bang"})
	require.NoError(t, err)

	errs, err := s.AllParseErrors()
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, "src/a.ts", errs[0].Path)
	assert.Equal(t, "src/z.ts", errs[1].Path)
}
