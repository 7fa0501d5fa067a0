// Package codec defines the wire forms of the two graph encodings.
//
// # Coordinate list
//
// An [graph.EdgeIndex] is stored as two parallel integer arrays, row and
// col, one entry per directed arc. [EncodeEdgeIndex] refuses arrays of
// different length and keeps arc order untouched.
//
// # Flattened adjacency list
//
// The adjacency list is stored as a single integer stream of records
//
//	[id, count, n0, n1, ..., n(count-1)]
//
// written back to back in ascending grain id order. A grain with no
// neighbors still gets a record with count 0. [ParseConnections] walks the
// stream with an explicit cursor and bounds-checks every record; a truncated
// stream is an INVALID_FORMAT error that names the offending offset.
//
// # Arrays
//
// Integer and float arrays are serialized with msgpack ([EncodeInts],
// [EncodeFloats]) before they reach a store backend.
package codec
