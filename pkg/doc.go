// Package pkg holds the graingraph libraries.
//
// # Overview
//
// Graingraph turns a 3D grain lattice into a graph and stores it per time
// step in two encodings that must agree:
//
//   - EdgeIndex: parallel row/col arrays, one entry per directed arc
//   - GrainConnections: one flat integer stream of
//     (grain id, neighbor count, neighbors...) records
//
// # Data flow
//
//	[lattice] partition cells into grains
//	     ↓
//	[graph] face adjacency, optional self-loops
//	     ↓
//	[codec] + [checkpoint] write both encodings under /CheckPoints
//	     ↓                         ↑
//	[verify] decode both independently and compare per grain
//	     ↓
//	[bridge] tensor, nodelink, csv, dat, dot, svg exports
//
// [pipeline] runs build → write → verify → export; [store] selects the
// checkpoint backend (msgpack file, badger, redis, mongo, memory);
// [httpapi] serves an archive read-only.
//
// # Quick Start
//
//	archive, _ := checkpoint.Open(ctx, "graph.ckpt", nil)
//	defer archive.Close()
//
//	g, _ := graph.Build(lattice.Dims{X: 15, Y: 15, Z: 15}, graph.Options{SelfLoops: true})
//	_ = archive.WriteSnapshot(ctx, checkpoint.Snapshot{
//	    Step:        0,
//	    EdgeIndex:   g.EdgeIndex(),
//	    Connections: g.Adjacency(),
//	})
//
//	ei, _ := archive.ReadEdgeIndex(ctx, 0)
//	adj, _ := archive.ReadConnections(ctx, 0)
//	report := verify.Verify(adj, ei)
package pkg
