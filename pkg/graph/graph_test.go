package graph_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/graph"
	"github.com/graingraph/graingraph/pkg/lattice"
)

//----------------------------------------------------------------------------//
// Build
//----------------------------------------------------------------------------//

// TestBuild_ArcCounts checks the face-adjacency formula across many shapes.
func TestBuild_ArcCounts(t *testing.T) {
	for gx := 1; gx <= 4; gx++ {
		for gy := 1; gy <= 3; gy++ {
			for gz := 1; gz <= 3; gz++ {
				d := lattice.Dims{X: gx, Y: gy, Z: gz}
				faces := gx*gy*(gz-1) + gx*(gy-1)*gz + (gx-1)*gy*gz
				require.Equal(t, faces, graph.FaceAdjacencies(d))

				g, err := graph.Build(d, graph.Options{})
				require.NoError(t, err)
				require.Equal(t, 2*faces, g.Arcs(), "lattice %s", d)
				require.Equal(t, 0, g.SelfLoops())

				gl, err := graph.Build(d, graph.Options{SelfLoops: true})
				require.NoError(t, err)
				require.Equal(t, 2*faces+d.Count(), gl.Arcs(), "lattice %s with loops", d)
				require.Equal(t, graph.ExpectedArcs(d, graph.Options{SelfLoops: true}), gl.Arcs())
			}
		}
	}
}

// TestBuild_Symmetric verifies every non-loop arc has its reverse.
func TestBuild_Symmetric(t *testing.T) {
	g, err := graph.Build(lattice.Dims{X: 3, Y: 4, Z: 2}, graph.Options{SelfLoops: true})
	require.NoError(t, err)

	arcs := make(map[[2]int64]int)
	for i := range g.Row {
		arcs[[2]int64{g.Row[i], g.Col[i]}]++
	}
	for a, n := range arcs {
		require.Equal(t, 1, n, "arc %v emitted more than once", a)
		if a[0] == a[1] {
			continue
		}
		_, ok := arcs[[2]int64{a[1], a[0]}]
		require.True(t, ok, "arc %v has no reverse", a)
	}
}

// TestBuild_OneSelfLoopPerGrain checks loops are uniform and unique.
func TestBuild_OneSelfLoopPerGrain(t *testing.T) {
	d := lattice.Dims{X: 2, Y: 3, Z: 2}
	g, err := graph.Build(d, graph.Options{SelfLoops: true})
	require.NoError(t, err)

	loops := make([]int, d.Count())
	for i := range g.Row {
		if g.Row[i] == g.Col[i] {
			loops[g.Row[i]]++
		}
	}
	for id, n := range loops {
		require.Equal(t, 1, n, "grain %d", id)
	}
}

// TestBuild_UnitLattice covers the 1×1×1 boundary.
func TestBuild_UnitLattice(t *testing.T) {
	unit := lattice.Dims{X: 1, Y: 1, Z: 1}

	g, err := graph.Build(unit, graph.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, g.Arcs())
	require.Equal(t, graph.AdjacencyList{0: {}}, g.Adjacency())

	gl, err := graph.Build(unit, graph.Options{SelfLoops: true})
	require.NoError(t, err)
	require.Equal(t, []int64{0}, gl.Row)
	require.Equal(t, []int64{0}, gl.Col)
}

// TestBuild_TwoByOne is the smallest non-trivial scenario.
func TestBuild_TwoByOne(t *testing.T) {
	g, err := graph.Build(lattice.Dims{X: 2, Y: 1, Z: 1}, graph.Options{})
	require.NoError(t, err)
	require.Equal(t, 2, g.Nodes)
	require.Equal(t, []int64{0, 1}, g.Row)
	require.Equal(t, []int64{1, 0}, g.Col)
	require.Equal(t, graph.AdjacencyList{0: {1}, 1: {0}}, g.Adjacency())
	require.Equal(t, []int64{1, 1}, g.Degrees())
}

// TestBuild_NeighborOrder pins the x-1, x+1, y-1, y+1, z-1, z+1, self order.
func TestBuild_NeighborOrder(t *testing.T) {
	d := lattice.Dims{X: 3, Y: 3, Z: 3}
	g, err := graph.Build(d, graph.Options{SelfLoops: true})
	require.NoError(t, err)

	center := int64(d.Index(1, 1, 1))
	want := []int64{
		int64(d.Index(0, 1, 1)), int64(d.Index(2, 1, 1)),
		int64(d.Index(1, 0, 1)), int64(d.Index(1, 2, 1)),
		int64(d.Index(1, 1, 0)), int64(d.Index(1, 1, 2)),
		center,
	}
	require.Equal(t, want, g.Adjacency()[center])

	// Sources never decrease: arcs are emitted in id order.
	require.True(t, slices.IsSorted(g.Row))
}

// TestBuild_TwoCubeWithLoops is the 2×2×2 scenario: 12 faces, 24 arcs, 8 loops.
func TestBuild_TwoCubeWithLoops(t *testing.T) {
	d := lattice.Dims{X: 2, Y: 2, Z: 2}
	require.Equal(t, 12, graph.FaceAdjacencies(d))

	g, err := graph.Build(d, graph.Options{SelfLoops: true})
	require.NoError(t, err)
	require.Equal(t, 8, g.Nodes)
	require.Equal(t, 32, g.Arcs())
	require.Equal(t, 8, g.SelfLoops())
	for id, deg := range g.Degrees() {
		require.EqualValues(t, 3, deg, "corner grain %d", id)
	}
}

// TestBuild_Rejects non-positive lattices.
func TestBuild_Rejects(t *testing.T) {
	_, err := graph.Build(lattice.Dims{X: 0, Y: 1, Z: 1}, graph.Options{})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

//----------------------------------------------------------------------------//
// Representations
//----------------------------------------------------------------------------//

// TestAdjacencyList_EdgeIndex flattens in ascending id order.
func TestAdjacencyList_EdgeIndex(t *testing.T) {
	adj := graph.AdjacencyList{2: {1}, 0: {1}, 1: {2, 0}}
	require.Equal(t, []int64{0, 1, 2}, adj.IDs())
	require.Equal(t, 4, adj.Arcs())
	require.Equal(t, 2, adj.Degree(1))
	require.Equal(t, 0, adj.Degree(7))

	ei := adj.EdgeIndex()
	require.Equal(t, []int64{0, 1, 1, 2}, ei.Row)
	require.Equal(t, []int64{1, 2, 0, 1}, ei.Col)
	require.NoError(t, ei.Validate())
	require.Equal(t, adj, ei.Adjacency())
}

// TestEdgeIndex_Validate catches ragged arrays.
func TestEdgeIndex_Validate(t *testing.T) {
	ei := graph.EdgeIndex{Row: []int64{0, 1}, Col: []int64{1}}
	err := ei.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))

	neg := graph.EdgeIndex{Row: []int64{0, -1}, Col: []int64{1, 0}}
	err = neg.Validate()
	require.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
	require.Contains(t, err.Error(), "arc 1")

	ok := graph.EdgeIndex{Row: []int64{0, 1}, Col: []int64{1, 0}}
	require.EqualValues(t, 1, ok.MaxID())
	require.EqualValues(t, -1, graph.EdgeIndex{}.MaxID())
	stacked := ok.Stack()
	require.Equal(t, []int64{0, 1}, stacked[0])
	require.Equal(t, []int64{1, 0}, stacked[1])
	require.Equal(t, 2, ok.Len())
}

//----------------------------------------------------------------------------//
// FromCellMap
//----------------------------------------------------------------------------//

// TestFromCellMap_AgreesWithBuild checks both constructions give the same
// neighbor sets for a lattice partition.
func TestFromCellMap_AgreesWithBuild(t *testing.T) {
	cfg := lattice.Config{
		Volume: lattice.Dims{X: 6, Y: 4, Z: 6},
		Grains: lattice.Dims{X: 3, Y: 2, Z: 3},
	}
	cm, err := lattice.Partition(cfg)
	require.NoError(t, err)

	for _, loops := range []bool{false, true} {
		opts := graph.Options{SelfLoops: loops}
		built, err := graph.Build(cfg.Grains, opts)
		require.NoError(t, err)
		derived, stats := graph.FromCellMap(cm, opts)

		require.Equal(t, built.Nodes, derived.Nodes)
		require.Equal(t, built.Arcs(), derived.Arcs())

		a, b := built.Adjacency(), derived.Adjacency()
		for _, id := range a.IDs() {
			x := slices.Clone(a[id])
			y := slices.Clone(b[id])
			slices.Sort(x)
			slices.Sort(y)
			require.Equal(t, x, y, "grain %d", id)
		}
		require.Equal(t, built.Degrees(), stats.Neighbors)
		for _, v := range stats.Volumes {
			require.Equal(t, 8.0, v)
		}
	}
}

// TestFromCellMap_Irregular handles non-block grains.
func TestFromCellMap_Irregular(t *testing.T) {
	// 3×1×1 strip: grain 0 | grain 1 | grain 0 is impossible for a lattice
	// but legal for a simulation snapshot.
	cm, err := lattice.NewCellMap(lattice.Dims{X: 3, Y: 1, Z: 1}, []int32{0, 1, 0})
	require.NoError(t, err)

	g, stats := graph.FromCellMap(cm, graph.Options{})
	require.Equal(t, []int64{0, 1}, g.Row)
	require.Equal(t, []int64{1, 0}, g.Col)
	require.Equal(t, []float64{2, 1}, stats.Volumes)
	require.Equal(t, []int64{1, 1}, stats.Neighbors)
}
