package lattice

import (
	"fmt"

	"github.com/graingraph/graingraph/pkg/errors"
)

// Dims is an extent along the three axes. It is used both for volumes
// measured in cells and for lattices measured in grains.
type Dims struct {
	X, Y, Z int
}

// Count returns X·Y·Z.
func (d Dims) Count() int {
	return d.X * d.Y * d.Z
}

// Contains reports whether (x,y,z) lies inside d. No wraparound.
func (d Dims) Contains(x, y, z int) bool {
	return x >= 0 && x < d.X && y >= 0 && y < d.Y && z >= 0 && z < d.Z
}

// Index maps (x,y,z) to its linear id: x·Y·Z + y·Z + z.
func (d Dims) Index(x, y, z int) int {
	return x*d.Y*d.Z + y*d.Z + z
}

// Coord converts a linear id back to (x,y,z).
func (d Dims) Coord(id int) (x, y, z int) {
	z = id % d.Z
	y = (id / d.Z) % d.Y
	x = id / (d.Y * d.Z)
	return x, y, z
}

// String formats d as "XxYxZ".
func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// validate rejects non-positive extents.
func (d Dims) validate(what string) error {
	if d.X <= 0 || d.Y <= 0 || d.Z <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s dimensions must be positive, got %s", what, d)
	}
	return nil
}

// Config describes one partitioning run. It is an explicit value; nothing in
// this package reads process-wide state.
type Config struct {
	Volume Dims // cells per axis (nx, ny, nz)
	Grains Dims // grains per axis (gx, gy, gz)
}

// Validate checks that both extents are positive and that every volume axis
// divides evenly by its grain count.
func (c Config) Validate() error {
	if err := c.Volume.validate("volume"); err != nil {
		return err
	}
	if err := c.Grains.validate("lattice"); err != nil {
		return err
	}
	axes := []struct {
		name string
		n, g int
	}{
		{"x", c.Volume.X, c.Grains.X},
		{"y", c.Volume.Y, c.Grains.Y},
		{"z", c.Volume.Z, c.Grains.Z},
	}
	for _, a := range axes {
		if a.n%a.g != 0 {
			return errors.New(errors.ErrCodeInvalidConfig,
				"volume %s=%d is not divisible by grain count %d along %s", "n"+a.name, a.n, a.g, a.name)
		}
	}
	return nil
}

// BlockSize returns the number of cells each grain spans along each axis.
// The config must be valid.
func (c Config) BlockSize() Dims {
	return Dims{
		X: c.Volume.X / c.Grains.X,
		Y: c.Volume.Y / c.Grains.Y,
		Z: c.Volume.Z / c.Grains.Z,
	}
}
