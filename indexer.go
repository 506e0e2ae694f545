package statik

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/jward/statik/internal/discovery"
	"github.com/jward/statik/internal/lang"
	"github.com/jward/statik/internal/store"
)

// IndexStats summarizes one Index run (spec §4.D: "reports counts:
// files_indexed, files_unchanged, symbols_extracted, references_found,
// parse_errors").
type IndexStats struct {
	FilesIndexed     int
	FilesUnchanged   int
	FilesRemoved     int
	SymbolsExtracted int
	ReferencesFound  int
	ParseErrors      []lang.ParseError
	Duration         time.Duration
}

// candidateFile is a discovered file whose content hash differs from the
// store's record (or which is new), queued for parsing.
type candidateFile struct {
	disc    discovery.File
	content []byte
	hash    string
}

// parsedFile is the output of the parallel parse+extract phase for one
// changed file, ready for the serial commit phase.
type parsedFile struct {
	disc      discovery.File
	content   []byte
	hash      string
	extracted *lang.ExtractionResult
	parseErr  *lang.ParseError
}

// Index walks root (spec §4.A Discovery), parses and extracts every file
// whose content hash changed since the last run (spec §4.D), commits the
// results with full per-file replacement semantics, vacuums files that
// disappeared, and finally resolves cross-file references (spec §4.B
// Design Notes: "keep per-language resolver pure" — resolution itself
// lives in resolve.go and runs once per Index call). Mirrors canopy's
// Engine.IndexDirectory / engine_parallel.go three-phase shape, simplified
// because extraction here never touches the store mid-flight.
func (e *Engine) Index(ctx context.Context, root string) (*IndexStats, error) {
	start := time.Now()
	stats := &IndexStats{}

	files, err := discovery.Discover(root, e.discoveryConfig())
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	seen := make(map[string]bool, len(files))
	discoveredSet := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f.RelativePath] = true
		discoveredSet[f.RelativePath] = true
	}

	var candidates []candidateFile
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		content, err := os.ReadFile(f.AbsolutePath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.RelativePath, err)
		}
		hash := store.ComputeFileHash(content)
		existing, err := e.store.FileByPath(f.RelativePath)
		if err != nil {
			return nil, wrapStoreErr("file by path", err)
		}
		if existing != nil && existing.Hash == hash {
			stats.FilesUnchanged++
			continue
		}
		candidates = append(candidates, candidateFile{disc: f, content: content, hash: hash})
	}

	parsed := make([]*parsedFile, len(candidates))
	if err := parallelExtract(ctx, candidates, discoveredSet, func(i int, pf *parsedFile) {
		parsed[i] = pf
	}); err != nil {
		return nil, err
	}

	// File rows are committed in one pass, ahead of any symbol/reference/
	// import inserts, so that every file in this batch is already present
	// in the store's path index by the time imports are resolved against
	// it below — otherwise a file committed earlier in discovery order
	// (alphabetically first) could never resolve an import pointing at a
	// file that sorts later (e.g. "index.ts" importing "utils/format.ts"),
	// since the target row would not exist yet at lookup time.
	fileIDs := make([]int64, len(parsed))
	for i, pf := range parsed {
		if err := ctx.Err(); err != nil {
			// None of the rows written so far has its contents yet.
			for _, id := range fileIDs[:i] {
				e.store.DeleteFile(id)
			}
			return nil, ErrCancelled
		}
		id, err := e.commitFileRecord(pf)
		if err != nil {
			return nil, wrapStoreErr("commit file record", err)
		}
		fileIDs[i] = id
	}

	for i, pf := range parsed {
		if err := ctx.Err(); err != nil {
			// Drop the rows of files whose contents are not committed yet.
			for _, id := range fileIDs[i:] {
				e.store.DeleteFile(id)
			}
			return nil, ErrCancelled
		}
		if err := e.commitFileContents(fileIDs[i], pf); err != nil {
			return nil, wrapStoreErr("commit file contents", err)
		}
		stats.FilesIndexed++
		if pf.parseErr != nil {
			stats.ParseErrors = append(stats.ParseErrors, *pf.parseErr)
			continue
		}
		stats.SymbolsExtracted += len(pf.extracted.Symbols)
		stats.ReferencesFound += len(pf.extracted.References)
	}

	removed, err := e.store.VacuumDeleted(seen)
	if err != nil {
		return nil, wrapStoreErr("vacuum deleted", err)
	}
	stats.FilesRemoved = removed

	if err := e.Resolve(ctx); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// parallelExtract runs Parse+Extract for every candidate on a bounded
// worker pool of min(runtime.NumCPU(), 8) workers (spec §5), writing
// results into emit by index so output order is deterministic regardless
// of completion order — grounded in canopy's engine_parallel.go extractFile phase.
func parallelExtract(ctx context.Context, candidates []candidateFile, discovered map[string]bool, emit func(i int, pf *parsedFile)) error {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}

	type job struct {
		i int
		c candidateFile
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = ErrCancelled
					}
					mu.Unlock()
					continue
				}
				pf := extractOne(j.c.disc, j.c.content, j.c.hash, discovered)
				emitGuarded(&mu, emit, j.i, pf)
			}
		}()
	}

	for i, c := range candidates {
		jobs <- job{i: i, c: c}
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

func emitGuarded(mu *sync.Mutex, emit func(i int, pf *parsedFile), i int, pf *parsedFile) {
	mu.Lock()
	defer mu.Unlock()
	emit(i, pf)
}

func extractOne(disc discovery.File, content []byte, hash string, discovered map[string]bool) *parsedFile {
	pf := &parsedFile{disc: disc, content: content, hash: hash}
	adapter, ok := lang.For(disc.Language)
	if !ok {
		pf.parseErr = &lang.ParseError{Path: disc.RelativePath, Message: "no adapter for language " + disc.Language}
		pf.extracted = &lang.ExtractionResult{}
		return pf
	}
	ast, err := adapter.Parse(content)
	if err != nil {
		pf.parseErr = &lang.ParseError{Path: disc.RelativePath, Message: err.Error()}
		pf.extracted = &lang.ExtractionResult{}
		return pf
	}
	result, err := adapter.Extract(ast, disc.RelativePath, discovered)
	if err != nil {
		pf.parseErr = &lang.ParseError{Path: disc.RelativePath, Message: err.Error()}
		pf.extracted = &lang.ExtractionResult{}
		return pf
	}
	pf.extracted = result
	return pf
}

// commitFileRecord replaces any prior record of the file (spec §3: full
// replacement on hash change) with a fresh File row and returns its ID.
// Split out from commitFileContents so that the whole batch's File rows
// land in the store before any Import is resolved against them (see
// Index's two-pass commit loop).
func (e *Engine) commitFileRecord(pf *parsedFile) (int64, error) {
	if existing, err := e.store.FileByPath(pf.disc.RelativePath); err != nil {
		return 0, err
	} else if existing != nil {
		if err := e.store.DeleteFile(existing.ID); err != nil {
			return 0, err
		}
	}

	f := &store.File{
		Path:        pf.disc.RelativePath,
		Language:    pf.disc.Language,
		Hash:        pf.hash,
		Size:        int64(len(pf.content)),
		LastIndexed: time.Now(),
	}
	return e.store.InsertFile(f)
}

// commitFileContents inserts a committed file's parse error, symbols,
// references, and imports, matching canopy's CommitBatch granularity.
func (e *Engine) commitFileContents(fileID int64, pf *parsedFile) error {
	if pf.parseErr != nil {
		_, err := e.store.InsertParseError(&store.ParseError{
			FileID: fileID, Path: pf.parseErr.Path, Message: pf.parseErr.Message,
		})
		return err
	}

	symIDs := make([]int64, len(pf.extracted.Symbols))
	for i, es := range pf.extracted.Symbols {
		var parentID *int64
		if es.ParentIndex != nil {
			parentID = &symIDs[*es.ParentIndex]
		}
		sym := &store.Symbol{
			FileID: fileID, Kind: es.Kind, Name: es.Name, QualifiedName: es.QualifiedName,
			Visibility: es.Visibility, ParentSymbolID: parentID,
			StartLine: es.StartLine, StartCol: es.StartCol, EndLine: es.EndLine, EndCol: es.EndCol,
		}
		id, err := e.store.InsertSymbol(sym)
		if err != nil {
			return err
		}
		symIDs[i] = id
	}

	for _, er := range pf.extracted.References {
		var target *int64
		if er.TargetHint != nil && *er.TargetHint < len(symIDs) {
			target = &symIDs[*er.TargetHint]
		}
		ref := &store.Reference{
			FileID: fileID, SymbolName: er.SymbolName, TargetSymbolID: target,
			Kind: er.Kind, ImportModality: er.ImportModality,
			StartLine: er.StartLine, StartCol: er.StartCol, EndLine: er.EndLine, EndCol: er.EndCol,
		}
		if _, err := e.store.InsertReference(ref); err != nil {
			return err
		}
	}

	for _, ei := range pf.extracted.Imports {
		var resolvedFileID *int64
		if ei.ResolvedPath != "" {
			target, err := e.store.FileByPath(ei.ResolvedPath)
			if err != nil {
				return err
			}
			if target != nil {
				resolvedFileID = &target.ID
			}
		}
		imp := &store.Import{
			FileID: fileID, Source: ei.Source, Modality: ei.Modality,
			ResolvedFileID: resolvedFileID, Names: ei.Names,
		}
		if _, err := e.store.InsertImport(imp); err != nil {
			return err
		}
	}

	return nil
}

// sortedKeys is a small helper shared by graph.go/analytics.go for
// deterministic output ordering.
func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
