package bridge

import (
	"context"
	"encoding/json"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// NodeLinkPayload follows the node-link layout graph-analysis libraries
// read, with summary statistics attached.
type NodeLinkPayload struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Graph      NodeLinkGraph  `json:"graph"`
	Nodes      []NodeLinkNode `json:"nodes"`
	Links      []NodeLinkLink `json:"links"`
}

// NodeLinkGraph carries graph-level attributes.
type NodeLinkGraph struct {
	Step  int     `json:"step"`
	Stats Summary `json:"stats"`
}

// NodeLinkNode is one grain.
type NodeLinkNode struct {
	ID        int64    `json:"id"`
	Volume    *float64 `json:"volume,omitempty"`
	Neighbors int64    `json:"neighbors"`
}

// NodeLinkLink is one undirected edge.
type NodeLinkLink struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// Summary describes the undirected simple graph behind a snapshot.
type Summary struct {
	Nodes      int     `json:"nodes"`
	Edges      int     `json:"edges"` // undirected, self-loops excluded
	SelfLoops  int     `json:"self_loops"`
	AvgDegree  float64 `json:"avg_degree"`
	MinDegree  float64 `json:"min_degree"`
	MaxDegree  float64 `json:"max_degree"`
	Density    float64 `json:"density"`
	Components int     `json:"components"`
	Connected  bool    `json:"connected"`
}

// Summarize computes graph statistics for in.
func Summarize(in Input) Summary {
	g := in.graph()
	s := Summary{Nodes: g.Nodes, SelfLoops: g.SelfLoops()}

	ug := simple.NewUndirectedGraph()
	for id := 0; id < g.Nodes; id++ {
		ug.AddNode(simple.Node(id))
	}
	for i := range g.Row {
		u, v := g.Row[i], g.Col[i]
		if u == v {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(u), simple.Node(v)))
	}
	s.Edges = ug.Edges().Len()

	if g.Nodes == 0 {
		return s
	}
	deg := make([]float64, g.Nodes)
	for id := range deg {
		deg[id] = float64(ug.From(int64(id)).Len())
	}
	s.AvgDegree = floats.Sum(deg) / float64(g.Nodes)
	s.MinDegree = floats.Min(deg)
	s.MaxDegree = floats.Max(deg)
	if g.Nodes > 1 {
		s.Density = 2 * float64(s.Edges) / float64(g.Nodes*(g.Nodes-1))
	}
	s.Components = len(topo.ConnectedComponents(ug))
	s.Connected = s.Components == 1
	return s
}

// BuildNodeLink assembles the node-link payload.
func BuildNodeLink(in Input) NodeLinkPayload {
	g := in.graph()
	deg := g.Degrees()
	p := NodeLinkPayload{
		Graph: NodeLinkGraph{Step: in.Step, Stats: Summarize(in)},
		Nodes: make([]NodeLinkNode, g.Nodes),
		Links: make([]NodeLinkLink, 0, g.Arcs()/2),
	}
	for id := range p.Nodes {
		node := NodeLinkNode{ID: int64(id), Neighbors: deg[id]}
		if in.Stats != nil && id < len(in.Stats.Volumes) {
			v := in.Stats.Volumes[id]
			node.Volume = &v
		}
		p.Nodes[id] = node
	}
	for i := range g.Row {
		u, v := g.Row[i], g.Col[i]
		if u < v {
			p.Links = append(p.Links, NodeLinkLink{Source: u, Target: v})
		}
	}
	return p
}

// NodeLink exports nodelink.json.
func NodeLink(ctx context.Context, in Input) ([]Artifact, error) {
	data, err := json.MarshalIndent(BuildNodeLink(in), "", "  ")
	if err != nil {
		return nil, err
	}
	return []Artifact{{Name: "nodelink.json", ContentType: "application/json", Data: data}}, nil
}
