package bridge

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSV exports edges.csv (header source,target, one row per arc) and, when
// stats are present, nodes.csv (header volume,neighbors, one row per grain).
func CSV(ctx context.Context, in Input) ([]Artifact, error) {
	var edges bytes.Buffer
	w := csv.NewWriter(&edges)
	_ = w.Write([]string{"source", "target"})
	for i := range in.EdgeIndex.Row {
		_ = w.Write([]string{
			strconv.FormatInt(in.EdgeIndex.Row[i], 10),
			strconv.FormatInt(in.EdgeIndex.Col[i], 10),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	arts := []Artifact{{Name: "edges.csv", ContentType: "text/csv", Data: edges.Bytes()}}

	if in.Stats == nil {
		return arts, nil
	}
	var nodes bytes.Buffer
	w = csv.NewWriter(&nodes)
	_ = w.Write([]string{"volume", "neighbors"})
	for i, v := range in.Stats.Volumes {
		var nb int64
		if i < len(in.Stats.Neighbors) {
			nb = in.Stats.Neighbors[i]
		}
		_ = w.Write([]string{fmt.Sprintf("%.6e", v), strconv.FormatInt(nb, 10)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return append(arts, Artifact{Name: "nodes.csv", ContentType: "text/csv", Data: nodes.Bytes()}), nil
}

// Dat exports connections.dat in the simulation's text form:
//
//	# TimeStep: 10
//	0: 1 4
//	1: 0 2
//
// Grains without neighbors are omitted and self-loops are dropped.
func Dat(ctx context.Context, in Input) ([]Artifact, error) {
	adj := in.adjacency()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# TimeStep: %d\n", in.Step)
	for _, id := range adj.IDs() {
		var line bytes.Buffer
		for _, nb := range adj[id] {
			if nb != id {
				fmt.Fprintf(&line, "%d ", nb)
			}
		}
		if line.Len() == 0 {
			continue
		}
		fmt.Fprintf(&buf, "%d: %s\n", id, line.String())
	}
	return []Artifact{{Name: "connections.dat", ContentType: "text/plain", Data: buf.Bytes()}}, nil
}
