package statik

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Cycles
// =============================================================================

func TestCycles_AcyclicReturnsEmpty(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	a := insertFile(t, e, "src/a.ts", "typescript")
	b := insertFile(t, e, "src/b.ts", "typescript")
	c := insertFile(t, e, "src/c.ts", "typescript")
	insertImport(t, e, a.ID, &b.ID)
	insertImport(t, e, b.ID, &c.ID)

	fg, err := e.BuildFileGraph()
	require.NoError(t, err)
	assert.Empty(t, fg.Cycles())
}

// S2 – Cycle: src/a.ts -> src/b.ts -> src/c.ts -> src/a.ts; cycles returns
// one SCC {a,b,c} with nodes sorted by path.
func TestCycles_ThreeNodeRing(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	a := insertFile(t, e, "src/a.ts", "typescript")
	b := insertFile(t, e, "src/b.ts", "typescript")
	c := insertFile(t, e, "src/c.ts", "typescript")
	insertImport(t, e, a.ID, &b.ID)
	insertImport(t, e, b.ID, &c.ID)
	insertImport(t, e, c.ID, &a.ID)

	fg, err := e.BuildFileGraph()
	require.NoError(t, err)
	cycles := fg.Cycles()
	require.Len(t, cycles, 1)

	cycle := cycles[0]
	assert.Len(t, cycle, 4, "3 nodes + repeated first")
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.Contains(t, cycle, "src/a.ts")
	assert.Contains(t, cycle, "src/b.ts")
	assert.Contains(t, cycle, "src/c.ts")
}

func TestCycles_SelfLoop(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	a := insertFile(t, e, "src/a.ts", "typescript")
	insertImport(t, e, a.ID, &a.ID)

	fg, err := e.BuildFileGraph()
	require.NoError(t, err)
	cycles := fg.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, Cycle{"src/a.ts", "src/a.ts"}, cycles[0])
}

func TestCycles_DeterministicAcrossRuns(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	a := insertFile(t, e, "src/a.ts", "typescript")
	b := insertFile(t, e, "src/b.ts", "typescript")
	insertImport(t, e, a.ID, &b.ID)
	insertImport(t, e, b.ID, &a.ID)

	fg, err := e.BuildFileGraph()
	require.NoError(t, err)

	first := fg.Cycles()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, fg.Cycles())
	}
}

// =============================================================================
// Fan-in / fan-out
// =============================================================================

func TestFanInFanOut(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	hub := insertFile(t, e, "src/hub.ts", "typescript")
	a := insertFile(t, e, "src/a.ts", "typescript")
	b := insertFile(t, e, "src/b.ts", "typescript")
	c := insertFile(t, e, "src/c.ts", "typescript")

	insertImport(t, e, hub.ID, &a.ID)
	insertImport(t, e, hub.ID, &b.ID)
	insertImport(t, e, c.ID, &hub.ID)

	fg, err := e.BuildFileGraph()
	require.NoError(t, err)

	assert.Equal(t, 2, fg.FanOut("src/hub.ts"))
	assert.Equal(t, 1, fg.FanIn("src/hub.ts"))
	assert.Equal(t, 0, fg.FanIn("src/a.ts"))
}

// =============================================================================
// Descendants / Ancestors / Impact
// =============================================================================

func TestDescendants_RespectsMaxDepth(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	a := insertFile(t, e, "src/a.ts", "typescript")
	b := insertFile(t, e, "src/b.ts", "typescript")
	c := insertFile(t, e, "src/c.ts", "typescript")
	insertImport(t, e, a.ID, &b.ID)
	insertImport(t, e, b.ID, &c.ID)

	fg, err := e.BuildFileGraph()
	require.NoError(t, err)

	oneHop, err := fg.Descendants("src/a.ts", 1)
	require.NoError(t, err)
	require.Len(t, oneHop, 1)
	assert.Equal(t, "src/b.ts", oneHop[0].Path)

	full, err := fg.Descendants("src/a.ts", 0)
	require.NoError(t, err)
	require.Len(t, full, 2)
	assert.Equal(t, "src/b.ts", full[0].Path)
	assert.Equal(t, "src/c.ts", full[1].Path)
}

func TestImpact_UnionsAncestorsAcrossChangedFiles(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	a := insertFile(t, e, "src/a.ts", "typescript")
	b := insertFile(t, e, "src/b.ts", "typescript")
	c := insertFile(t, e, "src/c.ts", "typescript")
	d := insertFile(t, e, "src/d.ts", "typescript")
	insertImport(t, e, a.ID, &b.ID)
	insertImport(t, e, c.ID, &d.ID)

	files, err := e.Impact([]string{"src/b.ts", "src/d.ts"}, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts", "src/c.ts"}, files)
}
