package statik

import (
	"fmt"
	"sort"

	"github.com/jward/statik/internal/store"
)

// Graph Engine (spec §4.E): builds the file graph G over the index (edges
// from Import.ResolvedFileID, at most one per importer/imported pair) and
// answers reachability, cycle, and fan-in/fan-out questions over it. The
// symbol-level graph used for dead-code analysis is built separately, by
// DeadCode in analytics.go. Bulk-loads everything up front, grounded on
// canopy's buildCallGraph / query_graph.go bulk-load-then-BFS shape.

// FileGraph is the bulk-loaded file-level dependency graph.
type FileGraph struct {
	files     map[int64]*store.File
	forward   map[int64][]int64 // importer -> imported
	reverse   map[int64][]int64 // imported -> importers
}

// BuildFileGraph loads every file and resolved import edge into memory.
func (e *Engine) BuildFileGraph() (*FileGraph, error) {
	files, err := e.store.ListFiles()
	if err != nil {
		return nil, wrapStoreErr("build file graph: list files", err)
	}
	imports, err := e.store.AllImports()
	if err != nil {
		return nil, wrapStoreErr("build file graph: all imports", err)
	}

	g := &FileGraph{
		files:   make(map[int64]*store.File, len(files)),
		forward: make(map[int64][]int64),
		reverse: make(map[int64][]int64),
	}
	for _, f := range files {
		g.files[f.ID] = f
	}
	type edge struct{ from, to int64 }
	seenEdge := map[edge]bool{}
	for _, imp := range imports {
		if imp.ResolvedFileID == nil {
			continue
		}
		// Several imports of the same target (e.g. a value import and a
		// type-only import) still form a single edge.
		ed := edge{imp.FileID, *imp.ResolvedFileID}
		if seenEdge[ed] {
			continue
		}
		seenEdge[ed] = true
		g.forward[imp.FileID] = append(g.forward[imp.FileID], *imp.ResolvedFileID)
		g.reverse[*imp.ResolvedFileID] = append(g.reverse[*imp.ResolvedFileID], imp.FileID)
	}
	for id := range g.forward {
		sortByPath(g.forward[id], g.files)
	}
	for id := range g.reverse {
		sortByPath(g.reverse[id], g.files)
	}
	return g, nil
}

func sortByPath(ids []int64, files map[int64]*store.File) {
	sort.Slice(ids, func(i, j int) bool {
		fi, fj := files[ids[i]], files[ids[j]]
		if fi == nil || fj == nil {
			return ids[i] < ids[j]
		}
		return fi.Path < fj.Path
	})
}

// GraphNode is one visited node in a BFS traversal, with its distance
// from the root.
type GraphNode struct {
	FileID int64
	Path   string
	Depth  int
}

// maxTraversalDepth mirrors canopy's TransitiveCallers/Callees cap.
const maxTraversalDepth = 100

// Descendants returns every file transitively imported by rootPath, up to
// maxDepth hops (spec §4.E: "reachability with a depth cap"). maxDepth<=0
// means uncapped (clamped to maxTraversalDepth).
func (g *FileGraph) Descendants(rootPath string, maxDepth int) ([]GraphNode, error) {
	return g.bfs(rootPath, maxDepth, g.forward)
}

// Ancestors returns every file that transitively imports rootPath.
func (g *FileGraph) Ancestors(rootPath string, maxDepth int) ([]GraphNode, error) {
	return g.bfs(rootPath, maxDepth, g.reverse)
}

func (g *FileGraph) bfs(rootPath string, maxDepth int, adj map[int64][]int64) ([]GraphNode, error) {
	rootID, ok := g.idForPath(rootPath)
	if !ok {
		return nil, fmt.Errorf("graph: no such file %q", rootPath)
	}
	if maxDepth <= 0 || maxDepth > maxTraversalDepth {
		maxDepth = maxTraversalDepth
	}

	visited := map[int64]int{rootID: 0}
	type entry struct {
		id, depth int64
	}
	queue := []entry{{id: rootID, depth: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if int(cur.depth) >= maxDepth {
			continue
		}
		for _, next := range adj[cur.id] {
			if _, seen := visited[next]; !seen {
				visited[next] = int(cur.depth) + 1
				queue = append(queue, entry{id: next, depth: cur.depth + 1})
			}
		}
	}

	var out []GraphNode
	for id, depth := range visited {
		if id == rootID {
			continue
		}
		out = append(out, GraphNode{FileID: id, Path: g.files[id].Path, Depth: depth})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func (g *FileGraph) idForPath(p string) (int64, bool) {
	for id, f := range g.files {
		if f.Path == p {
			return id, true
		}
	}
	return 0, false
}

// FanIn returns the number of distinct files that import path.
func (g *FileGraph) FanIn(path string) int {
	id, ok := g.idForPath(path)
	if !ok {
		return 0
	}
	return len(g.reverse[id])
}

// FanOut returns the number of distinct files path imports.
func (g *FileGraph) FanOut(path string) int {
	id, ok := g.idForPath(path)
	if !ok {
		return 0
	}
	return len(g.forward[id])
}

// Cycle is one strongly-connected component of size > 1 (or a self-loop),
// reported as a path list with the first entry repeated at the end.
type Cycle []string

// Cycles detects import cycles via Tarjan's SCC algorithm, directly
// grounded on canopy's CircularDependencies. Tie-break order for both SCC
// discovery (outer loop) and cross-cycle output ordering is the file's
// relative path (spec §9's resolved Open Question), making the result
// deterministic independent of map iteration order.
func (g *FileGraph) Cycles() []Cycle {
	var ids []int64
	for id := range g.files {
		ids = append(ids, id)
	}
	sortByPath(ids, g.files)

	adj := g.forward
	selfLoop := map[int64]bool{}
	for from, tos := range adj {
		for _, to := range tos {
			if from == to {
				selfLoop[from] = true
			}
		}
	}

	type nodeInfo struct {
		index, lowlink int
		onStack        bool
	}
	info := map[int64]*nodeInfo{}
	index := 0
	var stack []int64
	var result []Cycle

	var strongconnect func(v int64)
	strongconnect = func(v int64) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, w := range adj[v] {
			wInfo, visited := info[w]
			if !visited {
				strongconnect(w)
				wInfo = info[w]
				if wInfo.lowlink < ni.lowlink {
					ni.lowlink = wInfo.lowlink
				}
			} else if wInfo.onStack && wInfo.index < ni.lowlink {
				ni.lowlink = wInfo.index
			}
		}

		if ni.lowlink == ni.index {
			var scc []int64
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				info[w].onStack = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if len(scc) > 1 || selfLoop[scc[0]] {
				for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
					scc[i], scc[j] = scc[j], scc[i]
				}
				scc = append(scc, scc[0])
				cyc := make(Cycle, len(scc))
				for i, id := range scc {
					cyc[i] = g.files[id].Path
				}
				result = append(result, cyc)
			}
		}
	}

	for _, id := range ids {
		if _, visited := info[id]; !visited {
			strongconnect(id)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i][0] < result[j][0] })
	return result
}

// Impact returns the deduplicated union of ancestors of every path in
// changed, capped at maxDepth hops each (spec §4.H Impact: "given a set
// of changed files, the set of files that transitively depend on them").
func (g *FileGraph) Impact(changed []string, maxDepth int) ([]string, error) {
	seen := map[string]bool{}
	for _, c := range changed {
		nodes, err := g.Ancestors(c, maxDepth)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			seen[n.Path] = true
		}
	}
	out := sortedKeys(seen)
	return out, nil
}
