// Package lattice partitions a regular 3D simulation volume into a lattice of
// grains.
//
// A representative volume element (RVE) of nx × ny × nz cells is split into
// gx × gy × gz axis-aligned blocks. Each block is one grain. Grain ids are the
// linear index of the block in x-outer, y-middle, z-inner order:
//
//	id = x·gy·gz + y·gz + z
//
// so ids span [0, gx·gy·gz). The same ordering is used for cells in a
// [CellMap].
//
// # Divisibility
//
// Every volume axis must be an exact multiple of the matching grain count.
// A trailing partial block is never truncated; [Config.Validate] and
// [Partition] reject such configurations with an INVALID_CONFIG error from
// [github.com/graingraph/graingraph/pkg/errors].
//
// # Example
//
//	cfg := lattice.Config{
//	    Volume: lattice.Dims{X: 30, Y: 30, Z: 30},
//	    Grains: lattice.Dims{X: 15, Y: 15, Z: 15},
//	}
//	cm, err := lattice.Partition(cfg)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cm.Grains()) // 3375
package lattice
