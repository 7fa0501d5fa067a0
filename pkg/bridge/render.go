package bridge

import (
	"context"

	"github.com/graingraph/graingraph/pkg/render/nodelink"
)

// DOT exports graph.dot with detailed labels when stats are present.
func DOT(ctx context.Context, in Input) ([]Artifact, error) {
	dot := nodelink.ToDOT(in.graph(), in.Stats, nodelink.Options{Detailed: in.Stats != nil})
	return []Artifact{{Name: "graph.dot", ContentType: "text/vnd.graphviz", Data: []byte(dot)}}, nil
}

// SVG exports graph.svg rendered in-process.
func SVG(ctx context.Context, in Input) ([]Artifact, error) {
	dot := nodelink.ToDOT(in.graph(), in.Stats, nodelink.Options{Detailed: in.Stats != nil})
	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return []Artifact{{Name: "graph.svg", ContentType: "image/svg+xml", Data: svg}}, nil
}
