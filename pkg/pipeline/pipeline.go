// Package pipeline generates grain graph checkpoints.
//
// This package implements the build → write → verify → export sequence used
// by the CLI and any other entry point. Centralizing it keeps the defaults
// and the ordering of side effects identical everywhere.
//
// # Stages
//
//  1. Build: partition the volume and derive the grain graph with stats
//  2. Write: store one snapshot per requested time step
//  3. Verify: read both encodings of each step back and cross-check them
//  4. Export: run the requested bridges on every written step
//
// # Usage
//
//	archive, err := checkpoint.Open(ctx, "graph.ckpt", logger)
//	runner := pipeline.NewRunner(archive, nil, logger)
//	opts := pipeline.Options{
//	    Volume: lattice.Dims{X: 30, Y: 30, Z: 30},
//	    Grains: lattice.Dims{X: 15, Y: 15, Z: 15},
//	    Steps:  []int{0, 10, 20},
//	}
//	result, err := runner.Execute(ctx, opts)
//
// Options can also be read from a TOML run file with [LoadConfig].
package pipeline

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/lattice"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultVolume is the default cell volume along each axis.
var DefaultVolume = lattice.Dims{X: 30, Y: 30, Z: 30}

// DefaultGrains is the default grain lattice along each axis.
var DefaultGrains = lattice.Dims{X: 15, Y: 15, Z: 15}

const (
	// DefaultOutput is the default checkpoint location.
	DefaultOutput = "graph.ckpt"

	// DefaultMode builds the lattice graph directly.
	DefaultMode = ModeLattice
)

// Construction modes.
const (
	// ModeLattice builds the graph from the lattice shape alone, emitting each
	// grain's neighbors in the order x-1, x+1, y-1, y+1, z-1, z+1.
	ModeLattice = "lattice"

	// ModeCells partitions the volume into cells and derives adjacency from
	// face-adjacent cells of different grains, the way a running simulation
	// does. Neighbors come out in ascending id order.
	ModeCells = "cells"
)

// ValidModes is the set of supported construction modes.
var ValidModes = map[string]bool{
	ModeLattice: true,
	ModeCells:   true,
}

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for a generation run. Field names
// double as TOML keys.
type Options struct {
	Volume    lattice.Dims `toml:"volume" json:"volume"`
	Grains    lattice.Dims `toml:"grains" json:"grains"`
	SelfLoops bool         `toml:"self_loops" json:"self_loops,omitempty"`
	Mode      string       `toml:"mode" json:"mode,omitempty"`
	Steps     []int        `toml:"steps" json:"steps,omitempty"`

	// Output is the checkpoint location, see store.Open.
	Output string `toml:"output" json:"output,omitempty"`

	// Verify reads every written step back and cross-checks the encodings.
	Verify bool `toml:"verify" json:"verify,omitempty"`

	// Exports names bridges run on every step; ExportPrefix is their output
	// path prefix.
	Exports      []string `toml:"exports" json:"exports,omitempty"`
	ExportPrefix string   `toml:"export_prefix" json:"export_prefix,omitempty"`

	// Runtime options (not serialized)

	// Logger receives the run's stage logs. Runner.Execute fills it from the
	// runner when nil.
	Logger *log.Logger `toml:"-" json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// LatticeConfig returns the partitioning configuration.
func (o *Options) LatticeConfig() lattice.Config {
	return lattice.Config{Volume: o.Volume, Grains: o.Grains}
}

// ValidateAndSetDefaults applies defaults and checks every field.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.LatticeConfig().Validate(); err != nil {
		return err
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if err := ValidateSteps(o.Steps); err != nil {
		return err
	}
	if len(o.Exports) > 0 {
		if err := errors.ValidateOutputPrefix(o.ExportPrefix); err != nil {
			return err
		}
	}
	o.validated = true
	return nil
}

// SetDefaults fills zero fields. Steps are sorted and deduplicated.
func (o *Options) SetDefaults() {
	if o.Volume == (lattice.Dims{}) {
		o.Volume = DefaultVolume
	}
	if o.Grains == (lattice.Dims{}) {
		o.Grains = DefaultGrains
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if len(o.Steps) == 0 {
		o.Steps = []int{0}
	}
	o.Steps = slices.Compact(slices.Sorted(slices.Values(o.Steps)))
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.ExportPrefix == "" {
		o.ExportPrefix = "grains"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateMode checks that a construction mode is valid.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid mode: %q (must be one of: lattice, cells)", mode)
	}
	return nil
}

// ValidateSteps rejects negative time steps.
func ValidateSteps(steps []int) error {
	for _, s := range steps {
		if s < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "time step must not be negative, got %d", s)
		}
	}
	return nil
}

// String summarizes the options for log lines.
func (o *Options) String() string {
	return fmt.Sprintf("volume=%s grains=%s mode=%s self_loops=%v steps=%v",
		o.Volume, o.Grains, o.Mode, o.SelfLoops, o.Steps)
}
