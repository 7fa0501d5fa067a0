// Package graph builds the grain adjacency graph of a lattice and defines the
// two in-memory edge representations shared by the codec, the archive and the
// verifier.
//
// # Construction
//
// [Build] walks lattice coordinates in id order (x outer, z inner) and emits a
// directed arc from each grain to every existing face neighbor, in the fixed
// order x-1, x+1, y-1, y+1, z-1, z+1. With [Options.SelfLoops] an (id, id)
// arc follows each grain's neighbors. Boundaries have fewer neighbors; there
// is no periodic wraparound. Because face adjacency is reciprocal, the arc
// list is symmetric by construction.
//
// For a gx × gy × gz lattice the number of undirected face adjacencies is
//
//	gx·gy·(gz-1) + gx·(gy-1)·gz + (gx-1)·gy·gz
//
// (see [FaceAdjacencies]) and the arc count is twice that, plus gx·gy·gz when
// self-loops are enabled.
//
// [FromCellMap] derives the same relation from a per-cell grain assignment by
// looking for face-adjacent cells that belong to different grains. This is how
// a running simulation discovers grain pairs, and it also yields per-grain
// volumes and neighbor counts.
//
// # Representations
//
//   - [EdgeIndex]: coordinate list, parallel Row/Col arrays, one entry per arc
//   - [AdjacencyList]: grain id to ordered neighbor ids
//
// Both describe the same directed arcs. [Graph.EdgeIndex] preserves emission
// order; [Graph.Adjacency] groups arcs by source without reordering them.
package graph
