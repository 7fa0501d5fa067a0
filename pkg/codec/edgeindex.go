package codec

import (
	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/graph"
)

// EncodeEdgeIndex serializes the row and col arrays of ei separately. Arc
// order is preserved. Arrays of different length are rejected with
// INVALID_FORMAT before anything is encoded.
func EncodeEdgeIndex(ei graph.EdgeIndex) (row, col []byte, err error) {
	if err := ei.Validate(); err != nil {
		return nil, nil, err
	}
	if row, err = EncodeInts(ei.Row); err != nil {
		return nil, nil, err
	}
	if col, err = EncodeInts(ei.Col); err != nil {
		return nil, nil, err
	}
	return row, col, nil
}

// DecodeEdgeIndex reverses [EncodeEdgeIndex] and validates the result.
func DecodeEdgeIndex(row, col []byte) (graph.EdgeIndex, error) {
	r, err := DecodeInts(row)
	if err != nil {
		return graph.EdgeIndex{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge index row")
	}
	c, err := DecodeInts(col)
	if err != nil {
		return graph.EdgeIndex{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge index col")
	}
	ei := graph.EdgeIndex{Row: r, Col: c}
	if err := ei.Validate(); err != nil {
		return graph.EdgeIndex{}, err
	}
	return ei, nil
}
