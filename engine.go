// Package statik implements a polyglot, repository-level static
// architecture analyzer: it indexes a project's files, symbols, and
// cross-references into a durable store, then answers dependency,
// dead-code, cycle, and architecture-rule questions against that index.
//
// The pipeline is two-phase, mirroring the canopy engine this package is
// descended from: Extract walks each changed file's AST into symbols,
// references, and imports; Resolve then fills in cross-file reference
// targets once every file in the run has been committed.
package statik

import (
	"github.com/jward/statik/internal/discovery"
	"github.com/jward/statik/internal/entrypoint"
	"github.com/jward/statik/internal/store"
)

// Engine owns the index store and coordinates discovery, extraction,
// resolution, graph construction, and rule evaluation (spec §2).
type Engine struct {
	store  *store.Store
	config Config
}

// Open opens or creates the index database at dbPath and returns an
// Engine configured with cfg. Callers must call Close when done.
func Open(dbPath string, cfg Config) (*Engine, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, &StoreError{Op: "migrate", Err: err}
	}
	return &Engine{store: st, config: cfg}, nil
}

// Close releases the underlying store handle.
func (e *Engine) Close() error { return e.store.Close() }

// Store exposes the underlying index store for query components built on
// top of Engine (graph, rule, analytics, entrypoint).
func (e *Engine) Store() *store.Store { return e.store }

func (e *Engine) discoveryConfig() discovery.Config {
	langs := map[string]bool{}
	for _, l := range e.config.Discovery.Languages {
		langs[l] = true
	}
	return discovery.Config{
		Include:   e.config.Discovery.Include,
		Exclude:   e.config.Discovery.Exclude,
		Languages: langs,
	}
}

// entryResolver builds the Entry-Point Resolver for the current config,
// used by Analytics.DeadCode.
func (e *Engine) entryResolver() (*entrypoint.Resolver, error) {
	return entrypoint.New(e.config.EntryPoints.Patterns, e.config.EntryPoints.Annotations)
}

func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
