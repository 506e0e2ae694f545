package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is bumped whenever schemaDDL changes shape in a way that
// is not forward-compatible. Store.Migrate returns a *SchemaMismatchError
// when the on-disk value does not match; it does not rebuild the index.
const SchemaVersion = 1

// Store is the durable, SQLite-backed index (spec §4.C Index Store).
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the index database at path (spec §4.C: "open").
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer model (spec §5)
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying *sql.DB for callers that need a raw escape
// hatch (mirrors canopy's Store.DB()).
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

const schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	path         TEXT NOT NULL UNIQUE,
	language     TEXT NOT NULL,
	hash         TEXT NOT NULL,
	size         INTEGER NOT NULL,
	last_indexed DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id          INTEGER NOT NULL REFERENCES files(id),
	kind             TEXT NOT NULL,
	name             TEXT NOT NULL,
	qualified_name   TEXT NOT NULL,
	visibility       TEXT NOT NULL,
	parent_symbol_id INTEGER REFERENCES symbols(id),
	start_line       INTEGER NOT NULL,
	start_col        INTEGER NOT NULL,
	end_line         INTEGER NOT NULL,
	end_col          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS references_ (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id         INTEGER NOT NULL REFERENCES files(id),
	symbol_name     TEXT NOT NULL,
	target_symbol_id INTEGER REFERENCES symbols(id),
	kind            TEXT NOT NULL,
	import_modality TEXT NOT NULL DEFAULT '',
	start_line      INTEGER NOT NULL,
	start_col       INTEGER NOT NULL,
	end_line        INTEGER NOT NULL,
	end_col         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id          INTEGER NOT NULL REFERENCES files(id),
	source           TEXT NOT NULL,
	modality         TEXT NOT NULL,
	resolved_file_id INTEGER REFERENCES files(id),
	names            TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS parse_errors (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id),
	path    TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_qualified_name ON symbols(qualified_name);
CREATE INDEX IF NOT EXISTS idx_references_file ON references_(file_id);
CREATE INDEX IF NOT EXISTS idx_references_name ON references_(symbol_name);
CREATE INDEX IF NOT EXISTS idx_references_target ON references_(target_symbol_id);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_imports_resolved ON imports(resolved_file_id);
`

// Migrate creates the schema if absent and checks schema_version. A
// mismatched version returns a *SchemaMismatchError so the caller can decide
// to rebuild (spec §4.C, §7 StoreError).
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var raw string
	err := s.db.QueryRow("SELECT value FROM schema_meta WHERE key = 'schema_version'").Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		_, err := s.db.Exec(
			"INSERT INTO schema_meta (key, value) VALUES ('schema_version', ?)",
			fmt.Sprintf("%d", SchemaVersion),
		)
		if err != nil {
			return fmt.Errorf("migrate: write schema_version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("migrate: read schema_version: %w", err)
	}

	if raw != fmt.Sprintf("%d", SchemaVersion) {
		return &SchemaMismatchError{OnDisk: raw, Expected: SchemaVersion}
	}
	return nil
}

// SchemaMismatchError is returned by Migrate when the on-disk
// schema_version does not match the binary's SchemaVersion.
type SchemaMismatchError struct {
	OnDisk   string
	Expected int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema version mismatch: on-disk=%s expected=%d (rebuild the index)", e.OnDisk, e.Expected)
}

// --- File operations ---

// FileByPath returns the File record for a relative path, or nil if absent.
func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	var lastIndexed string
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, size, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.Size, &lastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	f.LastIndexed, err = parseTime(lastIndexed)
	if err != nil {
		return nil, fmt.Errorf("file by path: parse time: %w", err)
	}
	return f, nil
}

// FileByID returns the File record for an id, or nil if absent.
func (s *Store) FileByID(id int64) (*File, error) {
	f := &File{}
	var lastIndexed string
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, size, last_indexed FROM files WHERE id = ?", id,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.Size, &lastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	f.LastIndexed, err = parseTime(lastIndexed)
	if err != nil {
		return nil, fmt.Errorf("file by id: parse time: %w", err)
	}
	return f, nil
}

// InsertFile inserts a new file record (replacing is the caller's job via
// DeleteFile + InsertFile, matching spec §3's "full replacement").
func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, size, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.Size, f.LastIndexed.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert file: last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// ListFiles returns all files, ordered by path for deterministic output.
func (s *Store) ListFiles() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, language, hash, size, last_indexed FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		var lastIndexed string
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.Size, &lastIndexed); err != nil {
			return nil, fmt.Errorf("list files: scan: %w", err)
		}
		f.LastIndexed, err = parseTime(lastIndexed)
		if err != nil {
			return nil, fmt.Errorf("list files: parse time: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile cascades: removes the file and everything extracted from it
// (spec §3 invariant: "deleting a File cascades to its Symbols and
// References emitted from it"), inside a single transaction, mirroring
// canopy's Store.DeleteFileData.
func (s *Store) DeleteFile(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete file: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		"DELETE FROM references_ WHERE file_id = ?",
		"DELETE FROM references_ WHERE target_symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)",
		"DELETE FROM imports WHERE file_id = ?",
		"DELETE FROM imports WHERE resolved_file_id = ?",
		"DELETE FROM parse_errors WHERE file_id = ?",
		"DELETE FROM symbols WHERE file_id = ?",
		"DELETE FROM files WHERE id = ?",
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, fileID); err != nil {
			return fmt.Errorf("delete file: %s: %w", stmt, err)
		}
	}
	return tx.Commit()
}

// VacuumDeleted removes every file whose path is not in seen, cascading
// (spec §4.C "vacuum_deleted(seen)").
func (s *Store) VacuumDeleted(seen map[string]bool) (int, error) {
	files, err := s.ListFiles()
	if err != nil {
		return 0, fmt.Errorf("vacuum deleted: %w", err)
	}
	removed := 0
	for _, f := range files {
		if seen[f.Path] {
			continue
		}
		if err := s.DeleteFile(f.ID); err != nil {
			return removed, fmt.Errorf("vacuum deleted: %w", err)
		}
		removed++
	}
	return removed, nil
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO symbols (file_id, kind, name, qualified_name, visibility, parent_symbol_id, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Kind, sym.Name, sym.QualifiedName, sym.Visibility,
		sym.ParentSymbolID, sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert symbol: last insert id: %w", err)
	}
	sym.ID = id
	return id, nil
}

const symbolCols = `id, file_id, kind, name, qualified_name, visibility, parent_symbol_id, start_line, start_col, end_line, end_col`

func scanSymbol(row interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	if err := row.Scan(&sym.ID, &sym.FileID, &sym.Kind, &sym.Name, &sym.QualifiedName,
		&sym.Visibility, &sym.ParentSymbolID, &sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol); err != nil {
		return nil, err
	}
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var syms []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		syms = append(syms, sym)
	}
	return syms, rows.Err()
}

// SymbolsByFile returns all symbols declared in a file, ordered by span.
func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols WHERE file_id = ? ORDER BY start_line, start_col", fileID,
	)
}

// SymbolsByName returns all symbols with a given simple name, across files.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE name = ?", name)
}

// SymbolByID returns a symbol by its id, or nil if absent.
func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	row := s.db.QueryRow("SELECT "+symbolCols+" FROM symbols WHERE id = ?", id)
	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

// AllSymbols returns every symbol in the store, ordered for determinism.
func (s *Store) AllSymbols() ([]*Symbol, error) {
	return s.querySymbols("SELECT " + symbolCols + " FROM symbols ORDER BY file_id, start_line, start_col")
}

// UpdateReferenceTarget sets a reference's resolved target symbol id.
func (s *Store) UpdateReferenceTarget(referenceID, targetSymbolID int64) error {
	_, err := s.db.Exec("UPDATE references_ SET target_symbol_id = ? WHERE id = ?", targetSymbolID, referenceID)
	if err != nil {
		return fmt.Errorf("update reference target: %w", err)
	}
	return nil
}

// --- Reference operations ---

func (s *Store) InsertReference(ref *Reference) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO references_ (file_id, symbol_name, target_symbol_id, kind, import_modality, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.FileID, ref.SymbolName, ref.TargetSymbolID, ref.Kind, ref.ImportModality,
		ref.StartLine, ref.StartCol, ref.EndLine, ref.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reference: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert reference: last insert id: %w", err)
	}
	ref.ID = id
	return id, nil
}

const referenceCols = `id, file_id, symbol_name, target_symbol_id, kind, import_modality, start_line, start_col, end_line, end_col`

func scanReference(row interface{ Scan(...any) error }) (*Reference, error) {
	ref := &Reference{}
	if err := row.Scan(&ref.ID, &ref.FileID, &ref.SymbolName, &ref.TargetSymbolID, &ref.Kind,
		&ref.ImportModality, &ref.StartLine, &ref.StartCol, &ref.EndLine, &ref.EndCol); err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *Store) queryReferences(query string, args ...any) ([]*Reference, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ReferencesByFile returns all references recorded from a file.
func (s *Store) ReferencesByFile(fileID int64) ([]*Reference, error) {
	return s.queryReferences("SELECT "+referenceCols+" FROM references_ WHERE file_id = ?", fileID)
}

// ReferencesByTarget returns all references resolved to a given symbol.
func (s *Store) ReferencesByTarget(targetSymbolID int64) ([]*Reference, error) {
	return s.queryReferences("SELECT "+referenceCols+" FROM references_ WHERE target_symbol_id = ?", targetSymbolID)
}

// ReferencesByName returns all references (resolved or not) matching a
// written symbol name, used by the resolver for cross-file lookups.
func (s *Store) ReferencesByName(name string) ([]*Reference, error) {
	return s.queryReferences("SELECT "+referenceCols+" FROM references_ WHERE symbol_name = ?", name)
}

// UnresolvedReferences returns references of the given kinds with no
// resolved target, for the resolution pass to attempt.
func (s *Store) UnresolvedReferences(kinds []string) ([]*Reference, error) {
	placeholders := make([]string, len(kinds))
	args := make([]any, len(kinds))
	for i, k := range kinds {
		placeholders[i] = "?"
		args[i] = k
	}
	q := "SELECT " + referenceCols + " FROM references_ WHERE target_symbol_id IS NULL AND kind IN (" +
		strings.Join(placeholders, ",") + ")"
	return s.queryReferences(q, args...)
}

// AllReferences returns every reference, ordered for deterministic graph
// construction.
func (s *Store) AllReferences() ([]*Reference, error) {
	return s.queryReferences("SELECT " + referenceCols + " FROM references_ ORDER BY file_id, start_line, start_col")
}

// --- Import operations ---

func (s *Store) InsertImport(imp *Import) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO imports (file_id, source, modality, resolved_file_id, names) VALUES (?, ?, ?, ?, ?)",
		imp.FileID, imp.Source, imp.Modality, imp.ResolvedFileID, marshalNames(imp.Names),
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert import: last insert id: %w", err)
	}
	imp.ID = id
	return id, nil
}

func scanImport(row interface{ Scan(...any) error }) (*Import, error) {
	imp := &Import{}
	var names string
	if err := row.Scan(&imp.ID, &imp.FileID, &imp.Source, &imp.Modality, &imp.ResolvedFileID, &names); err != nil {
		return nil, err
	}
	imp.Names = unmarshalNames(names)
	return imp, nil
}

const importCols = `id, file_id, source, modality, resolved_file_id, names`

func (s *Store) queryImports(query string, args ...any) ([]*Import, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// ImportsByFile returns all imports recorded from a file.
func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	return s.queryImports("SELECT "+importCols+" FROM imports WHERE file_id = ?", fileID)
}

// AllImports returns every resolved-or-dangling import edge, ordered by
// importing file path then import specifier for deterministic graph
// construction (spec §4.E: "traversals order successors by relative path").
func (s *Store) AllImports() ([]*Import, error) {
	rows, err := s.db.Query(`
		SELECT i.id, i.file_id, i.source, i.modality, i.resolved_file_id, i.names
		FROM imports i
		JOIN files f ON f.id = i.file_id
		ORDER BY f.path, i.source`)
	if err != nil {
		return nil, fmt.Errorf("all imports: %w", err)
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("all imports: scan: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// --- Parse error operations ---

func (s *Store) InsertParseError(pe *ParseError) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO parse_errors (file_id, path, message) VALUES (?, ?, ?)",
		pe.FileID, pe.Path, pe.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("insert parse error: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert parse error: last insert id: %w", err)
	}
	pe.ID = id
	return id, nil
}

// AllParseErrors returns every recorded parse error.
func (s *Store) AllParseErrors() ([]*ParseError, error) {
	rows, err := s.db.Query("SELECT id, file_id, path, message FROM parse_errors ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("all parse errors: %w", err)
	}
	defer rows.Close()
	var errs []*ParseError
	for rows.Next() {
		pe := &ParseError{}
		if err := rows.Scan(&pe.ID, &pe.FileID, &pe.Path, &pe.Message); err != nil {
			return nil, fmt.Errorf("scan parse error: %w", err)
		}
		errs = append(errs, pe)
	}
	return errs, rows.Err()
}

// --- helpers ---

func marshalNames(names []string) string { return strings.Join(names, "\x1f") }

func unmarshalNames(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\x1f")
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}
