// Package verify cross-checks the two encodings of one time step.
//
// [Verify] compares, for every grain present in either encoding, the sorted
// neighbor list taken from the adjacency list with the sorted col entries of
// the arcs whose row is that grain. The result is a [Report]; a mismatch is a
// finding, not a failure, so Verify never returns an error. Callers that want
// a hard failure use [Report.Err].
package verify

import (
	"fmt"
	"slices"
	"strings"

	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/graph"
)

// Mismatch is one grain whose neighbors differ between the encodings.
type Mismatch struct {
	Grain    int64   `json:"grain"`
	Expected []int64 `json:"expected"` // from the adjacency list, sorted
	Actual   []int64 `json:"actual"`   // from the coordinate list, sorted
}

// Report is the outcome of a verification.
type Report struct {
	Consistent bool       `json:"consistent"`
	Grains     int        `json:"grains"` // grains compared
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Verify compares adj and ei. It is pure and never panics; a ragged edge
// index is compared up to the shorter of its two arrays.
func Verify(adj graph.AdjacencyList, ei graph.EdgeIndex) Report {
	fromEdges := make(map[int64][]int64)
	n := min(len(ei.Row), len(ei.Col))
	for i := 0; i < n; i++ {
		fromEdges[ei.Row[i]] = append(fromEdges[ei.Row[i]], ei.Col[i])
	}

	ids := make(map[int64]struct{}, len(adj)+len(fromEdges))
	for id := range adj {
		ids[id] = struct{}{}
	}
	for id := range fromEdges {
		ids[id] = struct{}{}
	}
	order := make([]int64, 0, len(ids))
	for id := range ids {
		order = append(order, id)
	}
	slices.Sort(order)

	r := Report{Grains: len(order)}
	for _, id := range order {
		expected := sorted(adj[id])
		actual := sorted(fromEdges[id])
		if !slices.Equal(expected, actual) {
			r.Mismatches = append(r.Mismatches, Mismatch{Grain: id, Expected: expected, Actual: actual})
		}
	}
	r.Consistent = len(r.Mismatches) == 0 && len(ei.Row) == len(ei.Col)
	return r
}

// Err returns nil for a consistent report and an INCONSISTENT error
// describing the first mismatches otherwise.
func (r Report) Err() error {
	if r.Consistent {
		return nil
	}
	if len(r.Mismatches) == 0 {
		return errors.New(errors.ErrCodeInconsistent, "edge index row and col differ in length")
	}
	const shown = 3
	parts := make([]string, 0, shown)
	for i, m := range r.Mismatches {
		if i == shown {
			break
		}
		parts = append(parts, fmt.Sprintf("grain %d: adjacency %v, edge index %v", m.Grain, m.Expected, m.Actual))
	}
	msg := strings.Join(parts, "; ")
	if extra := len(r.Mismatches) - shown; extra > 0 {
		msg += fmt.Sprintf("; and %d more", extra)
	}
	return errors.New(errors.ErrCodeInconsistent, "%d of %d grains disagree: %s", len(r.Mismatches), r.Grains, msg)
}

// Arc is a directed edge.
type Arc struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// CheckSymmetry returns the arcs (u, v), u != v, whose reverse (v, u) is
// absent, in edge index order. Self-loops are ignored.
func CheckSymmetry(ei graph.EdgeIndex) []Arc {
	n := min(len(ei.Row), len(ei.Col))
	present := make(map[Arc]struct{}, n)
	for i := 0; i < n; i++ {
		present[Arc{ei.Row[i], ei.Col[i]}] = struct{}{}
	}
	var missing []Arc
	for i := 0; i < n; i++ {
		u, v := ei.Row[i], ei.Col[i]
		if u == v {
			continue
		}
		if _, ok := present[Arc{v, u}]; !ok {
			missing = append(missing, Arc{u, v})
		}
	}
	return missing
}

func sorted(ns []int64) []int64 {
	out := slices.Clone(ns)
	if out == nil {
		out = []int64{}
	}
	slices.Sort(out)
	return out
}
