// Package nodelink renders grain graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(g, &stats, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT output is an undirected graph: the two arcs of a face adjacency
// collapse into one edge. It can be saved and processed with external
// Graphviz tools, or rendered in-process with [RenderSVG].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is required.
package nodelink
