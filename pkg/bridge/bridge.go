// Package bridge exports time-step snapshots to the formats of downstream
// tools.
//
// Bridges are named entries in an explicit [Registry]; nothing is discovered
// at runtime. [Default] registers the built-in bridges:
//
//	tensor    graph-learning payload: node features N×F and edge index 2×E (JSON)
//	nodelink  graph-analysis payload: node-link JSON with summary statistics
//	csv       tabular: <prefix>_t<step>_edges.csv and <prefix>_t<step>_nodes.csv
//	dat       the simulation's plain-text grain connection listing
//	dot       Graphviz source
//	svg       Graphviz rendering
//
// Asking a registry for a name it does not hold is an UNSUPPORTED error.
package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/graph"
)

// Input is one time step handed to a bridge.
type Input struct {
	Step        int
	EdgeIndex   graph.EdgeIndex
	Connections graph.AdjacencyList // derived from EdgeIndex when nil
	Stats       *graph.Stats        // optional per-grain companions
}

// adjacency returns the connections, deriving them if needed.
func (in Input) adjacency() graph.AdjacencyList {
	if in.Connections != nil {
		return in.Connections
	}
	return in.EdgeIndex.Adjacency()
}

// Nodes returns the grain count: one more than the largest id seen in either
// encoding, widened to the stats length when stats hold more grains.
func (in Input) Nodes() int {
	n := in.EdgeIndex.MaxID()
	for id, ns := range in.Connections {
		n = max(n, id)
		for _, nb := range ns {
			n = max(n, nb)
		}
	}
	if in.Stats != nil {
		return max(len(in.Stats.Volumes), int(n+1))
	}
	return int(n + 1)
}

// Validate rejects inputs whose ids cannot index a grain: ragged or negative
// edge index entries and negative ids in the connections.
func (in Input) Validate() error {
	if err := in.EdgeIndex.Validate(); err != nil {
		return err
	}
	for id, ns := range in.Connections {
		if id < 0 || slices.ContainsFunc(ns, func(nb int64) bool { return nb < 0 }) {
			return errors.New(errors.ErrCodeInvalidFormat, "grain %d has a negative id in its connections", id)
		}
	}
	return nil
}

// AttachStats sets in.Stats when the stats describe every grain the
// encodings name. Stats left over from another lattice are not attached and
// AttachStats reports false.
func (in *Input) AttachStats(stats graph.Stats) bool {
	in.Stats = nil
	n := in.Nodes()
	if len(stats.Volumes) < n || len(stats.Neighbors) < n {
		return false
	}
	in.Stats = &stats
	return true
}

// graph returns the arc list as a Graph.
func (in Input) graph() *graph.Graph {
	return &graph.Graph{Nodes: in.Nodes(), Row: in.EdgeIndex.Row, Col: in.EdgeIndex.Col}
}

// Artifact is one exported file.
type Artifact struct {
	Name        string // suffix appended to <prefix>_t<step>_
	ContentType string
	Data        []byte
}

// Exporter converts a snapshot into artifacts.
type Exporter interface {
	Export(ctx context.Context, in Input) ([]Artifact, error)
}

// ExporterFunc adapts a function to [Exporter].
type ExporterFunc func(ctx context.Context, in Input) ([]Artifact, error)

// Export calls f.
func (f ExporterFunc) Export(ctx context.Context, in Input) ([]Artifact, error) {
	return f(ctx, in)
}

// Registry maps bridge names to exporters.
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{exporters: make(map[string]Exporter)}
}

// Default returns a registry holding every built-in bridge.
func Default() *Registry {
	r := NewRegistry()
	r.Register("tensor", ExporterFunc(Tensor))
	r.Register("nodelink", ExporterFunc(NodeLink))
	r.Register("csv", ExporterFunc(CSV))
	r.Register("dat", ExporterFunc(Dat))
	r.Register("dot", ExporterFunc(DOT))
	r.Register("svg", ExporterFunc(SVG))
	return r
}

// Register adds or replaces a bridge.
func (r *Registry) Register(name string, e Exporter) {
	r.exporters[name] = e
}

// Get returns the bridge registered under name.
func (r *Registry) Get(name string) (Exporter, error) {
	e, ok := r.exporters[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "no %q bridge (available: %v)", name, r.Names())
	}
	return e, nil
}

// Names lists registered bridges in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.exporters))
	for n := range r.exporters {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Export validates in and runs the named bridge. Invalid ids are
// INVALID_FORMAT errors.
func (r *Registry) Export(ctx context.Context, name string, in Input) ([]Artifact, error) {
	e, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return e.Export(ctx, in)
}

// ArtifactPath returns <prefix>_t<step>_<name>.
func ArtifactPath(prefix string, step int, name string) string {
	return fmt.Sprintf("%s_t%d_%s", prefix, step, name)
}

// WriteArtifacts writes each artifact next to prefix and returns the paths.
func WriteArtifacts(prefix string, step int, arts []Artifact) ([]string, error) {
	if err := errors.ValidateOutputPrefix(prefix); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "create %s", dir)
		}
	}
	paths := make([]string, 0, len(arts))
	for _, a := range arts {
		p := ArtifactPath(prefix, step, a.Name)
		if err := os.WriteFile(p, a.Data, 0644); err != nil {
			return paths, errors.Wrap(errors.ErrCodeStorage, err, "write %s", p)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
