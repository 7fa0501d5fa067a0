package codec

import (
	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/graph"
)

// FlattenConnections encodes adj as consecutive [id, count, neighbors...]
// records in ascending id order. Neighbor order within a record is kept.
func FlattenConnections(adj graph.AdjacencyList) []int64 {
	out := make([]int64, 0, 2*len(adj)+adj.Arcs())
	for _, id := range adj.IDs() {
		ns := adj[id]
		out = append(out, id, int64(len(ns)))
		out = append(out, ns...)
	}
	return out
}

// ParseConnections decodes a flattened adjacency stream.
//
// The cursor reads an id and a count, then exactly count neighbor ids, and
// advances by 2+count. Any of the following is an INVALID_FORMAT error that
// names the record offset:
//   - a record holding only an id (count missing)
//   - a negative id or count
//   - a count larger than the values left in the stream
//   - the same id appearing in two records
//
// An empty stream decodes to an empty list.
func ParseConnections(flat []int64) (graph.AdjacencyList, error) {
	adj := make(graph.AdjacencyList)
	for pos := 0; pos < len(flat); {
		if pos+1 >= len(flat) {
			return nil, formatError(pos, "record has an id but no neighbor count")
		}
		id, count := flat[pos], flat[pos+1]
		if id < 0 {
			return nil, formatError(pos, "negative grain id %d", id)
		}
		if count < 0 {
			return nil, formatError(pos, "negative neighbor count %d for grain %d", count, id)
		}
		remaining := int64(len(flat) - pos - 2)
		if count > remaining {
			return nil, formatError(pos, "grain %d declares %d neighbors but only %d values remain", id, count, remaining)
		}
		if _, dup := adj[id]; dup {
			return nil, formatError(pos, "grain %d appears twice", id)
		}
		start := pos + 2
		end := start + int(count)
		ns := make([]int64, count)
		copy(ns, flat[start:end])
		adj[id] = ns
		pos = end
	}
	return adj, nil
}

func formatError(offset int, format string, args ...any) error {
	args = append([]any{offset}, args...)
	return errors.New(errors.ErrCodeInvalidFormat, "grain connections at offset %d: "+format, args...)
}
