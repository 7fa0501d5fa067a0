package graph

import (
	"slices"

	"github.com/graingraph/graingraph/pkg/errors"
)

// EdgeIndex is the coordinate-list form of a graph: arc e runs from Row[e] to
// Col[e]. An undirected edge appears as two arcs.
type EdgeIndex struct {
	Row []int64 `json:"row"`
	Col []int64 `json:"col"`
}

// Len returns the number of arcs.
func (e EdgeIndex) Len() int { return len(e.Row) }

// Validate checks that Row and Col have equal length and hold no negative
// grain ids.
func (e EdgeIndex) Validate() error {
	if len(e.Row) != len(e.Col) {
		return errors.New(errors.ErrCodeInvalidFormat,
			"edge index row/col length mismatch: %d != %d", len(e.Row), len(e.Col))
	}
	for i := range e.Row {
		if e.Row[i] < 0 || e.Col[i] < 0 {
			return errors.New(errors.ErrCodeInvalidFormat,
				"edge index arc %d has negative grain id (%d -> %d)", i, e.Row[i], e.Col[i])
		}
	}
	return nil
}

// MaxID returns the largest grain id named by any arc, or -1 when empty.
func (e EdgeIndex) MaxID() int64 {
	n := int64(-1)
	for _, id := range e.Row {
		n = max(n, id)
	}
	for _, id := range e.Col {
		n = max(n, id)
	}
	return n
}

// Stack returns the 2 × E layout expected by graph-learning consumers.
func (e EdgeIndex) Stack() [2][]int64 {
	return [2][]int64{e.Row, e.Col}
}

// Adjacency groups arcs by source, keeping the order in which they appear.
// Sources that only appear as targets are not added.
func (e EdgeIndex) Adjacency() AdjacencyList {
	adj := make(AdjacencyList)
	for i := range e.Row {
		adj[e.Row[i]] = append(adj[e.Row[i]], e.Col[i])
	}
	return adj
}

// AdjacencyList maps a grain id to its ordered neighbor ids.
type AdjacencyList map[int64][]int64

// IDs returns the grain ids in ascending order.
func (a AdjacencyList) IDs() []int64 {
	ids := make([]int64, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Arcs returns the total number of neighbor entries.
func (a AdjacencyList) Arcs() int {
	n := 0
	for _, ns := range a {
		n += len(ns)
	}
	return n
}

// Degree returns the number of neighbors of id.
func (a AdjacencyList) Degree(id int64) int {
	return len(a[id])
}

// EdgeIndex flattens the list into arcs, grains in ascending id order and
// neighbors in stored order.
func (a AdjacencyList) EdgeIndex() EdgeIndex {
	n := a.Arcs()
	out := EdgeIndex{Row: make([]int64, 0, n), Col: make([]int64, 0, n)}
	for _, id := range a.IDs() {
		for _, nb := range a[id] {
			out.Row = append(out.Row, id)
			out.Col = append(out.Col, nb)
		}
	}
	return out
}

// Options configures graph construction.
type Options struct {
	// SelfLoops adds one (id, id) arc per grain after its face neighbors.
	SelfLoops bool
}

// Graph is a directed arc list over grain ids [0, Nodes). Arcs are kept in the
// order they were emitted.
type Graph struct {
	Nodes int
	Row   []int64
	Col   []int64
}

// Arcs returns the number of directed arcs, self-loops included.
func (g *Graph) Arcs() int { return len(g.Row) }

// EdgeIndex returns the coordinate-list view of g. The slices are shared.
func (g *Graph) EdgeIndex() EdgeIndex {
	return EdgeIndex{Row: g.Row, Col: g.Col}
}

// Adjacency groups arcs by source. Every grain in [0, Nodes) is present, with
// an empty list when it has no arcs.
func (g *Graph) Adjacency() AdjacencyList {
	adj := make(AdjacencyList, g.Nodes)
	for id := 0; id < g.Nodes; id++ {
		adj[int64(id)] = []int64{}
	}
	for i := range g.Row {
		adj[g.Row[i]] = append(adj[g.Row[i]], g.Col[i])
	}
	return adj
}

// Degrees returns the number of distinct-grain neighbors per grain, ignoring
// self-loops.
func (g *Graph) Degrees() []int64 {
	deg := make([]int64, g.Nodes)
	for i := range g.Row {
		if g.Row[i] != g.Col[i] {
			deg[g.Row[i]]++
		}
	}
	return deg
}

// SelfLoops counts (id, id) arcs.
func (g *Graph) SelfLoops() int {
	n := 0
	for i := range g.Row {
		if g.Row[i] == g.Col[i] {
			n++
		}
	}
	return n
}

// addArc appends u -> v.
func (g *Graph) addArc(u, v int) {
	g.Row = append(g.Row, int64(u))
	g.Col = append(g.Col, int64(v))
}
