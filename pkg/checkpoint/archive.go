package checkpoint

import (
	"context"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/graingraph/graingraph/pkg/codec"
	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/graph"
	"github.com/graingraph/graingraph/pkg/store"
)

// Root is the key prefix of every archive entry.
const Root = "/CheckPoints"

// Dataset namespaces.
const (
	DatasetEdgeIndex   = "EdgeIndex"
	DatasetConnections = "GrainConnections"
	DatasetVolumes     = "GrainVolumes"
	DatasetNeighbors   = "GrainNeighbors"
)

// Datasets lists the namespaces in the order they are written.
var Datasets = []string{DatasetEdgeIndex, DatasetConnections, DatasetVolumes, DatasetNeighbors}

// Archive reads and writes time-step snapshots through a store backend.
type Archive struct {
	backend store.Backend
	logger  *log.Logger
}

// New roots an archive at [Root] inside b. A nil logger uses log.Default().
// Closing the archive closes b.
func New(b store.Backend, logger *log.Logger) *Archive {
	if logger == nil {
		logger = log.Default()
	}
	return &Archive{backend: store.NewScoped(b, Root), logger: logger}
}

// Open opens the backend at location (see [store.Open]) and roots an archive
// in it.
func Open(ctx context.Context, location string, logger *log.Logger) (*Archive, error) {
	b, err := store.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	return New(b, logger), nil
}

// Close releases the underlying backend.
func (a *Archive) Close() error {
	return a.backend.Close()
}

// WriteEdgeIndex stores the coordinate list of step. Row and col must have
// equal length.
func (a *Archive) WriteEdgeIndex(ctx context.Context, step int, ei graph.EdgeIndex) error {
	entries := make(map[string][]byte, 2)
	if err := addEdgeIndex(entries, step, ei); err != nil {
		return err
	}
	if err := a.backend.SetMany(ctx, entries); err != nil {
		return err
	}
	a.logger.Debug("wrote edge index", "step", step, "arcs", ei.Len())
	return nil
}

// ReadEdgeIndex loads the coordinate list of step.
func (a *Archive) ReadEdgeIndex(ctx context.Context, step int) (graph.EdgeIndex, error) {
	seg, err := a.resolve(ctx, DatasetEdgeIndex, step)
	if err != nil {
		return graph.EdgeIndex{}, err
	}
	base := "/" + DatasetEdgeIndex + "/" + seg
	row, err := a.get(ctx, base+"/row")
	if err != nil {
		return graph.EdgeIndex{}, err
	}
	col, err := a.get(ctx, base+"/col")
	if err != nil {
		return graph.EdgeIndex{}, err
	}
	ei, err := codec.DecodeEdgeIndex(row, col)
	if err != nil {
		return graph.EdgeIndex{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s/%d", DatasetEdgeIndex, step)
	}
	return ei, nil
}

// WriteConnections stores the flattened adjacency list of step.
func (a *Archive) WriteConnections(ctx context.Context, step int, adj graph.AdjacencyList) error {
	entries := make(map[string][]byte, 1)
	if err := addConnections(entries, step, adj); err != nil {
		return err
	}
	if err := a.backend.SetMany(ctx, entries); err != nil {
		return err
	}
	a.logger.Debug("wrote grain connections", "step", step, "grains", len(adj))
	return nil
}

// ReadConnections loads and parses the flattened adjacency list of step.
func (a *Archive) ReadConnections(ctx context.Context, step int) (graph.AdjacencyList, error) {
	flat, err := a.ReadConnectionsRaw(ctx, step)
	if err != nil {
		return nil, err
	}
	return codec.ParseConnections(flat)
}

// ReadConnectionsRaw returns the flattened stream of step without parsing it.
func (a *Archive) ReadConnectionsRaw(ctx context.Context, step int) ([]int64, error) {
	seg, err := a.resolve(ctx, DatasetConnections, step)
	if err != nil {
		return nil, err
	}
	data, err := a.get(ctx, "/"+DatasetConnections+"/"+seg)
	if err != nil {
		return nil, err
	}
	return codec.DecodeInts(data)
}

// WriteStats stores per-grain volumes and neighbor counts of step.
func (a *Archive) WriteStats(ctx context.Context, step int, stats graph.Stats) error {
	entries := make(map[string][]byte, 2)
	if err := addStats(entries, step, stats); err != nil {
		return err
	}
	return a.backend.SetMany(ctx, entries)
}

// ReadStats loads per-grain volumes and neighbor counts of step.
func (a *Archive) ReadStats(ctx context.Context, step int) (graph.Stats, error) {
	vseg, err := a.resolve(ctx, DatasetVolumes, step)
	if err != nil {
		return graph.Stats{}, err
	}
	nseg, err := a.resolve(ctx, DatasetNeighbors, step)
	if err != nil {
		return graph.Stats{}, err
	}
	vdata, err := a.get(ctx, "/"+DatasetVolumes+"/"+vseg)
	if err != nil {
		return graph.Stats{}, err
	}
	ndata, err := a.get(ctx, "/"+DatasetNeighbors+"/"+nseg)
	if err != nil {
		return graph.Stats{}, err
	}
	volumes, err := codec.DecodeFloats(vdata)
	if err != nil {
		return graph.Stats{}, err
	}
	neighbors, err := codec.DecodeInts(ndata)
	if err != nil {
		return graph.Stats{}, err
	}
	if len(volumes) != len(neighbors) {
		return graph.Stats{}, errors.New(errors.ErrCodeInvalidFormat,
			"step %d: %d volumes but %d neighbor counts", step, len(volumes), len(neighbors))
	}
	return graph.Stats{Volumes: volumes, Neighbors: neighbors}, nil
}

// Snapshot is everything stored for one time step.
type Snapshot struct {
	Step        int
	EdgeIndex   graph.EdgeIndex
	Connections graph.AdjacencyList
	Stats       *graph.Stats // optional
}

// WriteSnapshot stores all encodings of s in a single batch.
func (a *Archive) WriteSnapshot(ctx context.Context, s Snapshot) error {
	entries := make(map[string][]byte, 5)
	if err := addEdgeIndex(entries, s.Step, s.EdgeIndex); err != nil {
		return err
	}
	if err := addConnections(entries, s.Step, s.Connections); err != nil {
		return err
	}
	if s.Stats != nil {
		if err := addStats(entries, s.Step, *s.Stats); err != nil {
			return err
		}
	}
	if err := a.backend.SetMany(ctx, entries); err != nil {
		return err
	}
	a.logger.Debug("wrote snapshot", "step", s.Step, "arcs", s.EdgeIndex.Len(), "keys", len(entries))
	return nil
}

// get reads a key that must exist once its step has been resolved.
func (a *Archive) get(ctx context.Context, key string) ([]byte, error) {
	data, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s%s is missing", Root, key)
	}
	return data, nil
}

func addEdgeIndex(entries map[string][]byte, step int, ei graph.EdgeIndex) error {
	row, col, err := codec.EncodeEdgeIndex(ei)
	if err != nil {
		return err
	}
	base := "/" + DatasetEdgeIndex + "/" + stepKey(step)
	entries[base+"/row"] = row
	entries[base+"/col"] = col
	return nil
}

func addConnections(entries map[string][]byte, step int, adj graph.AdjacencyList) error {
	data, err := codec.EncodeInts(codec.FlattenConnections(adj))
	if err != nil {
		return err
	}
	entries["/"+DatasetConnections+"/"+stepKey(step)] = data
	return nil
}

func addStats(entries map[string][]byte, step int, stats graph.Stats) error {
	if len(stats.Volumes) != len(stats.Neighbors) {
		return errors.New(errors.ErrCodeInvalidInput,
			"step %d: %d volumes but %d neighbor counts", step, len(stats.Volumes), len(stats.Neighbors))
	}
	vdata, err := codec.EncodeFloats(stats.Volumes)
	if err != nil {
		return err
	}
	ndata, err := codec.EncodeInts(stats.Neighbors)
	if err != nil {
		return err
	}
	entries["/"+DatasetVolumes+"/"+stepKey(step)] = vdata
	entries["/"+DatasetNeighbors+"/"+stepKey(step)] = ndata
	return nil
}

// stepKey is the spelling used for new keys.
func stepKey(step int) string {
	return strconv.Itoa(step)
}
