package bridge

import (
	"context"
	"encoding/json"
)

// TensorPayload is the graph-learning view of a snapshot: a node feature
// matrix and a 2×E edge index, ready to be loaded as tensors.
type TensorPayload struct {
	Step      int         `json:"step"`
	NumNodes  int         `json:"num_nodes"`
	Features  []string    `json:"features"`
	X         [][]float64 `json:"x"`
	EdgeIndex [2][]int64  `json:"edge_index"`
}

// BuildTensor assembles the payload. Features are (volume, neighbors) when
// stats are present and (neighbors) otherwise, with neighbors counted from
// the edge index.
func BuildTensor(in Input) TensorPayload {
	n := in.Nodes()
	p := TensorPayload{
		Step:      in.Step,
		NumNodes:  n,
		X:         make([][]float64, n),
		EdgeIndex: in.EdgeIndex.Stack(),
	}
	if p.EdgeIndex[0] == nil {
		p.EdgeIndex = [2][]int64{{}, {}}
	}
	if in.Stats != nil && len(in.Stats.Volumes) == n && len(in.Stats.Neighbors) == n {
		p.Features = []string{"volume", "neighbors"}
		for i := range p.X {
			p.X[i] = []float64{in.Stats.Volumes[i], float64(in.Stats.Neighbors[i])}
		}
		return p
	}
	p.Features = []string{"neighbors"}
	deg := in.graph().Degrees()
	for i := range p.X {
		p.X[i] = []float64{float64(deg[i])}
	}
	return p
}

// Tensor exports tensor.json.
func Tensor(ctx context.Context, in Input) ([]Artifact, error) {
	data, err := json.MarshalIndent(BuildTensor(in), "", "  ")
	if err != nil {
		return nil, err
	}
	return []Artifact{{Name: "tensor.json", ContentType: "application/json", Data: data}}, nil
}
