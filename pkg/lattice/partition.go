package lattice

import "github.com/graingraph/graingraph/pkg/errors"

// CellMap assigns a grain id to every cell of the volume. It is immutable once
// built and is not persisted; only the lattice dimensions feed the adjacency
// builder.
type CellMap struct {
	volume Dims
	grains Dims
	ids    []int32 // linear cell index -> grain id
}

// Partition subdivides cfg.Volume into cfg.Grains blocks and returns the
// per-cell grain assignment. Block origins are enumerated x outer, y middle,
// z inner, so a grain's id equals its linear lattice index.
//
// Returns an INVALID_CONFIG error if the dimensions are non-positive or do not
// divide evenly. Complexity: O(nx·ny·nz) time and memory.
func Partition(cfg Config) (*CellMap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	block := cfg.BlockSize()
	cm := &CellMap{
		volume: cfg.Volume,
		grains: cfg.Grains,
		ids:    make([]int32, cfg.Volume.Count()),
	}

	id := int32(0)
	for i := 0; i < cfg.Volume.X; i += block.X {
		for j := 0; j < cfg.Volume.Y; j += block.Y {
			for k := 0; k < cfg.Volume.Z; k += block.Z {
				cm.fill(i, j, k, block, id)
				id++
			}
		}
	}
	return cm, nil
}

// fill writes id into the block whose origin is (i,j,k).
func (cm *CellMap) fill(i, j, k int, block Dims, id int32) {
	for x := i; x < i+block.X; x++ {
		for y := j; y < j+block.Y; y++ {
			base := cm.volume.Index(x, y, k)
			for z := 0; z < block.Z; z++ {
				cm.ids[base+z] = id
			}
		}
	}
}

// NewCellMap wraps an existing per-cell grain assignment, such as one read
// from a simulation snapshot. ids is indexed like [Dims.Index] over volume and
// is copied. The lattice extent is unknown for such maps and reported as zero.
func NewCellMap(volume Dims, ids []int32) (*CellMap, error) {
	if err := volume.validate("volume"); err != nil {
		return nil, err
	}
	if len(ids) != volume.Count() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"cell map has %d entries, volume %s needs %d", len(ids), volume, volume.Count())
	}
	cp := make([]int32, len(ids))
	for i, id := range ids {
		if id < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "cell %d has negative grain id %d", i, id)
		}
		cp[i] = id
	}
	return &CellMap{volume: volume, ids: cp}, nil
}

// At returns the grain id of cell (x,y,z). The cell must be inside the volume.
func (cm *CellMap) At(x, y, z int) int {
	return int(cm.ids[cm.volume.Index(x, y, z)])
}

// Volume returns the cell extent.
func (cm *CellMap) Volume() Dims { return cm.volume }

// Lattice returns the grain extent, or the zero Dims for maps built with
// [NewCellMap].
func (cm *CellMap) Lattice() Dims { return cm.grains }

// Grains returns the number of distinct grain ids, assuming ids are dense
// from zero (max id + 1).
func (cm *CellMap) Grains() int {
	if cm.grains.Count() > 0 {
		return cm.grains.Count()
	}
	maxID := int32(-1)
	for _, id := range cm.ids {
		if id > maxID {
			maxID = id
		}
	}
	return int(maxID) + 1
}

// Volumes returns the number of cells owned by each grain, indexed by id.
func (cm *CellMap) Volumes() []int {
	out := make([]int, cm.Grains())
	for _, id := range cm.ids {
		out[id]++
	}
	return out
}
