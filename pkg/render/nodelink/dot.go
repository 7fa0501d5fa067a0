package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/graingraph/graingraph/pkg/graph"
)

// Options configures grain graph rendering.
type Options struct {
	// Detailed adds volume and neighbor count to node labels when stats are
	// available. When false, only the grain id is shown.
	Detailed bool

	// SelfLoops draws (id, id) arcs. They are hidden by default because every
	// grain carries one when they are enabled.
	SelfLoops bool

	// Engine selects the Graphviz layout engine ("neato" when empty). Lattice
	// graphs have no hierarchy, so "dot" rarely looks good.
	Engine string
}

// ToDOT converts a grain graph to an undirected Graphviz DOT document. Each
// undirected edge is written once, smaller id first. stats may be nil.
func ToDOT(g *graph.Graph, stats *graph.Stats, opts Options) string {
	engine := opts.Engine
	if engine == "" {
		engine = "neato"
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  layout=%q;\n", engine)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for id := 0; id < g.Nodes; id++ {
		label := fmtLabel(id, stats, opts.Detailed)
		fmt.Fprintf(&buf, "  %d [label=%q];\n", id, label)
	}

	buf.WriteString("\n")
	seen := make(map[[2]int64]struct{}, g.Arcs()/2)
	for i := range g.Row {
		u, v := g.Row[i], g.Col[i]
		if u == v && !opts.SelfLoops {
			continue
		}
		if u > v {
			u, v = v, u
		}
		key := [2]int64{u, v}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fmt.Fprintf(&buf, "  %d -- %d;\n", u, v)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(id int, stats *graph.Stats, detailed bool) string {
	label := strconv.Itoa(id)
	if !detailed || stats == nil || id >= len(stats.Volumes) || id >= len(stats.Neighbors) {
		return label
	}
	parts := []string{
		label,
		fmt.Sprintf("vol: %g", stats.Volumes[id]),
		fmt.Sprintf("nb: %d", stats.Neighbors[id]),
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the SVG scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
