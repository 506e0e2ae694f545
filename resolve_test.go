package statik

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/statik/internal/store"
)

func TestResolve_SameFileTakesPriority(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	f := insertFile(t, e, "src/a.ts", "typescript")
	local := insertSymbol(t, e, f.ID, "function", "helper", "a.helper", "internal", 1, 3)
	other := insertFile(t, e, "src/b.ts", "typescript")
	insertSymbol(t, e, other.ID, "function", "helper", "b.helper", "exported", 1, 3)

	ref := insertReference(t, e, f.ID, "helper", store.RefCall, nil, 10)

	require.NoError(t, e.Resolve(context.Background()))

	got, err := e.store.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].TargetSymbolID)
	assert.Equal(t, local.ID, *got[0].TargetSymbolID)
	_ = ref
}

func TestResolve_FollowsImportBindingOverGlobalFallback(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	target := insertFile(t, e, "src/utils/format.ts", "typescript")
	wanted := insertSymbol(t, e, target.ID, "function", "formatName", "utils.formatName", "exported", 1, 3)

	decoy := insertFile(t, e, "src/decoy.ts", "typescript")
	insertSymbol(t, e, decoy.ID, "function", "formatName", "decoy.formatName", "exported", 1, 3)

	importer := insertFile(t, e, "src/index.ts", "typescript")
	insertImport(t, e, importer.ID, &target.ID, "formatName")
	insertReference(t, e, importer.ID, "formatName", store.RefCall, nil, 5)

	require.NoError(t, e.Resolve(context.Background()))

	refs, err := e.store.ReferencesByFile(importer.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0].TargetSymbolID)
	assert.Equal(t, wanted.ID, *refs[0].TargetSymbolID)
}

func TestResolve_GlobalFallbackOrderedByPath(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	fz := insertFile(t, e, "src/z.ts", "typescript")
	symZ := insertSymbol(t, e, fz.ID, "function", "shared", "z.shared", "exported", 1, 3)
	fa := insertFile(t, e, "src/a.ts", "typescript")
	symA := insertSymbol(t, e, fa.ID, "function", "shared", "a.shared", "exported", 1, 3)

	importer := insertFile(t, e, "src/main.ts", "typescript")
	insertReference(t, e, importer.ID, "shared", store.RefCall, nil, 1)

	require.NoError(t, e.Resolve(context.Background()))

	refs, err := e.store.ReferencesByFile(importer.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0].TargetSymbolID)
	// "src/a.ts" sorts before "src/z.ts", so the fallback must prefer symA.
	assert.Equal(t, symA.ID, *refs[0].TargetSymbolID)
	assert.NotEqual(t, symZ.ID, *refs[0].TargetSymbolID)
}

func TestResolve_UnresolvableReferenceStaysNil(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	f := insertFile(t, e, "src/a.ts", "typescript")
	insertReference(t, e, f.ID, "neverDeclared", store.RefCall, nil, 1)

	require.NoError(t, e.Resolve(context.Background()))

	refs, err := e.store.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Nil(t, refs[0].TargetSymbolID)
}

func TestResolve_MemberAccessNeverResolved(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	f := insertFile(t, e, "src/a.ts", "typescript")
	insertSymbol(t, e, f.ID, "function", "foo", "a.foo", "exported", 1, 3)
	insertReference(t, e, f.ID, "foo", store.RefMemberAccess, nil, 5)

	require.NoError(t, e.Resolve(context.Background()))

	refs, err := e.store.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Nil(t, refs[0].TargetSymbolID, "member-access references are deliberately never resolved")
}
