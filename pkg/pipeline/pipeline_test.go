package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/graph"
	"github.com/graingraph/graingraph/pkg/lattice"
	"github.com/graingraph/graingraph/pkg/observability"
	"github.com/graingraph/graingraph/pkg/store"
)

func TestValidateMode(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"lattice", false},
		{"cells", false},
		{"Lattice", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateMode(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateMode(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if opts.Volume != DefaultVolume || opts.Grains != DefaultGrains {
		t.Errorf("dims = %s/%s, want defaults", opts.Volume, opts.Grains)
	}
	if !reflect.DeepEqual(opts.Steps, []int{0}) {
		t.Errorf("Steps = %v, want [0]", opts.Steps)
	}
	if opts.Mode != ModeLattice || opts.Output != DefaultOutput || opts.Logger == nil {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestValidateAndSetDefaults_Steps(t *testing.T) {
	opts := Options{Steps: []int{20, 0, 10, 10}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.Steps, []int{0, 10, 20}) {
		t.Errorf("Steps = %v, want sorted unique", opts.Steps)
	}
}

func TestValidateAndSetDefaults_Rejects(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
		msg  string
	}{
		{
			name: "not divisible",
			opts: Options{Volume: lattice.Dims{X: 30, Y: 30, Z: 30}, Grains: lattice.Dims{X: 7, Y: 15, Z: 15}},
			code: errors.ErrCodeInvalidConfig,
			msg:  "along x",
		},
		{
			name: "negative grains",
			opts: Options{Grains: lattice.Dims{X: -1, Y: 1, Z: 1}},
			code: errors.ErrCodeInvalidConfig,
			msg:  "positive",
		},
		{
			name: "negative step",
			opts: Options{Steps: []int{-5}},
			code: errors.ErrCodeInvalidConfig,
			msg:  "-5",
		},
		{
			name: "bad mode",
			opts: Options{Mode: "periodic"},
			code: errors.ErrCodeInvalidConfig,
			msg:  "periodic",
		},
		{
			name: "bad export prefix",
			opts: Options{Exports: []string{"csv"}, ExportPrefix: "../out"},
			code: errors.ErrCodeInvalidPath,
			msg:  "..",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("err = %v, want mention of %q", err, tt.msg)
			}
		})
	}
}

func TestParseConfig(t *testing.T) {
	opts, err := ParseConfig(`
volume = { x = 4, y = 4, z = 2 }
grains = { x = 2, y = 2, z = 1 }
self_loops = true
steps = [0, 5]
mode = "cells"
verify = true
`)
	if err != nil {
		t.Fatalf("ParseConfig error: %v", err)
	}
	want := lattice.Dims{X: 2, Y: 2, Z: 1}
	if opts.Grains != want || !opts.SelfLoops || !opts.Verify || opts.Mode != ModeCells {
		t.Errorf("decoded %+v", opts)
	}
	if !reflect.DeepEqual(opts.Steps, []int{0, 5}) {
		t.Errorf("Steps = %v", opts.Steps)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	if _, err := ParseConfig(`self_lops = true`); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("unknown key: err = %v, want INVALID_CONFIG", err)
	}
	if _, err := ParseConfig(`steps = [`); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("syntax error: err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	if err := os.WriteFile(path, []byte("steps = [3]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	opts, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if !reflect.DeepEqual(opts.Steps, []int{3}) {
		t.Errorf("Steps = %v", opts.Steps)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("missing file: err = %v, want INVALID_PATH", err)
	}
}

func TestLoadConfig_Example(t *testing.T) {
	opts, err := LoadConfig(filepath.Join("..", "..", "examples", "run.toml"))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("example config is invalid: %v", err)
	}
	if opts.Grains != (lattice.Dims{X: 15, Y: 15, Z: 15}) || !opts.SelfLoops || !opts.Verify {
		t.Errorf("opts = %s", opts.String())
	}
	if !reflect.DeepEqual(opts.Exports, []string{"csv", "tensor"}) {
		t.Errorf("Exports = %v", opts.Exports)
	}
}

func TestBuild_ModesAgree(t *testing.T) {
	base := Options{
		Volume:    lattice.Dims{X: 6, Y: 4, Z: 2},
		Grains:    lattice.Dims{X: 3, Y: 2, Z: 1},
		SelfLoops: true,
	}
	latticeOpts, cellOpts := base, base
	cellOpts.Mode = ModeCells

	lg, lstats, err := Build(latticeOpts)
	if err != nil {
		t.Fatal(err)
	}
	cg, cstats, err := Build(cellOpts)
	if err != nil {
		t.Fatal(err)
	}
	if lg.Arcs() != cg.Arcs() || lg.Nodes != cg.Nodes {
		t.Errorf("lattice %d/%d vs cells %d/%d", lg.Nodes, lg.Arcs(), cg.Nodes, cg.Arcs())
	}
	if !reflect.DeepEqual(lstats, cstats) {
		t.Errorf("stats differ:\nlattice %+v\ncells   %+v", lstats, cstats)
	}
}

func TestRunner_Execute(t *testing.T) {
	ctx := context.Background()
	archive := checkpoint.New(store.NewMemoryBackend(), nil)
	runner := NewRunner(archive, nil, nil)
	defer runner.Close()

	prefix := filepath.Join(t.TempDir(), "grains")
	result, err := runner.Execute(ctx, Options{
		Volume:       lattice.Dims{X: 4, Y: 4, Z: 4},
		Grains:       lattice.Dims{X: 2, Y: 2, Z: 2},
		SelfLoops:    true,
		Steps:        []int{10, 0},
		Verify:       true,
		Exports:      []string{"csv", "dat"},
		ExportPrefix: prefix,
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Stats.Nodes != 8 || result.Stats.Arcs != 32 {
		t.Errorf("nodes/arcs = %d/%d, want 8/32", result.Stats.Nodes, result.Stats.Arcs)
	}
	for _, step := range []int{0, 10} {
		r, ok := result.Reports[step]
		if !ok || !r.Consistent || len(r.Mismatches) != 0 {
			t.Errorf("step %d report = %+v", step, r)
		}
		if len(result.Exports[step]) != 3 {
			t.Errorf("step %d exports = %v, want edges, nodes, dat", step, result.Exports[step])
		}
	}

	steps, err := archive.TimeSteps(ctx, checkpoint.DatasetEdgeIndex)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(steps, []int{0, 10}) {
		t.Errorf("TimeSteps = %v", steps)
	}
	run, err := archive.ReadRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if run.ID != result.Run.ID || !run.SelfLoops {
		t.Errorf("run = %+v", run)
	}

	if _, err := os.Stat(prefix + "_t10_edges.csv"); err != nil {
		t.Errorf("edges.csv not written: %v", err)
	}
}

func TestRunner_LoadInput(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(checkpoint.New(store.NewMemoryBackend(), nil), nil, nil)
	if _, err := runner.Execute(ctx, Options{
		Volume: lattice.Dims{X: 2, Y: 1, Z: 1},
		Grains: lattice.Dims{X: 2, Y: 1, Z: 1},
	}); err != nil {
		t.Fatal(err)
	}
	in, err := runner.LoadInput(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if in.Stats == nil || !reflect.DeepEqual(in.Stats.Volumes, []float64{1, 1}) {
		t.Errorf("stats = %+v", in.Stats)
	}
	if _, err := runner.LoadInput(ctx, 99); !errors.IsNotFound(err) {
		t.Errorf("missing step: err = %v, want NOT_FOUND", err)
	}
}

func TestRunner_LoadInputStaleStats(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(checkpoint.New(store.NewMemoryBackend(), nil), nil, nil)
	if err := runner.Archive.WriteSnapshot(ctx, checkpoint.Snapshot{
		Step:        3,
		EdgeIndex:   graph.EdgeIndex{Row: []int64{0, 1}, Col: []int64{1, 0}},
		Connections: graph.AdjacencyList{0: {1}, 1: {0}},
		Stats:       &graph.Stats{Volumes: []float64{8, 8}, Neighbors: []int64{1, 1}},
	}); err != nil {
		t.Fatal(err)
	}
	// Rewriting the step without stats keeps the old GrainVolumes in place.
	if err := runner.Archive.WriteSnapshot(ctx, checkpoint.Snapshot{
		Step:        3,
		EdgeIndex:   graph.EdgeIndex{Row: []int64{0, 2}, Col: []int64{2, 0}},
		Connections: graph.AdjacencyList{0: {2}, 1: {}, 2: {0}},
	}); err != nil {
		t.Fatal(err)
	}

	in, err := runner.LoadInput(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if in.Stats != nil {
		t.Errorf("stale stats attached: %+v", in.Stats)
	}
	if got := in.Nodes(); got != 3 {
		t.Errorf("Nodes() = %d, want 3", got)
	}
	paths, err := runner.Export(ctx, in, []string{"nodelink", "tensor"}, filepath.Join(t.TempDir(), "g"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v", paths)
	}
}

func TestRunner_OptionsLogger(t *testing.T) {
	ctx := context.Background()
	opts := func() Options {
		return Options{Volume: lattice.Dims{X: 2, Y: 1, Z: 1}, Grains: lattice.Dims{X: 2, Y: 1, Z: 1}}
	}

	var runnerLog, runLog bytes.Buffer
	runner := NewRunner(checkpoint.New(store.NewMemoryBackend(), nil), nil, log.New(&runnerLog))

	// Without a run logger the runner's logger is used.
	if _, err := runner.Execute(ctx, opts()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(runnerLog.String(), "built grain graph") {
		t.Errorf("runner log = %q", runnerLog.String())
	}

	// A run logger takes over the stage logs.
	runnerLog.Reset()
	o := opts()
	o.Logger = log.New(&runLog)
	if _, err := runner.Execute(ctx, o); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(runLog.String(), "wrote checkpoints") {
		t.Errorf("run log = %q", runLog.String())
	}
	if strings.Contains(runnerLog.String(), "built grain graph") {
		t.Errorf("runner logger received stage logs: %q", runnerLog.String())
	}
}

func TestRunner_ExportUnsupported(t *testing.T) {
	runner := NewRunner(checkpoint.New(store.NewMemoryBackend(), nil), nil, nil)
	_, err := runner.Execute(context.Background(), Options{
		Volume:       lattice.Dims{X: 1, Y: 1, Z: 1},
		Grains:       lattice.Dims{X: 1, Y: 1, Z: 1},
		Exports:      []string{"hdf5"},
		ExportPrefix: filepath.Join(t.TempDir(), "x"),
	})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(checkpoint.New(store.NewMemoryBackend(), nil), nil, nil)
	_, err := runner.Execute(ctx, Options{
		Volume: lattice.Dims{X: 1, Y: 1, Z: 1},
		Grains: lattice.Dims{X: 1, Y: 1, Z: 1},
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type stageCounter struct {
	observability.NoopPipelineHooks
	writes  []int
	verify  map[int]int
	exports map[string]int
}

func (h *stageCounter) OnWrite(_ context.Context, step int, _ time.Duration, err error) {
	if err == nil {
		h.writes = append(h.writes, step)
	}
}

func (h *stageCounter) OnVerify(_ context.Context, step int, _, mismatches int, _ error) {
	h.verify[step] = mismatches
}

func (h *stageCounter) OnExport(_ context.Context, _ int, format string, files int, _ error) {
	h.exports[format] += files
}

func TestRunner_Hooks(t *testing.T) {
	hooks := &stageCounter{verify: map[int]int{}, exports: map[string]int{}}
	runner := NewRunner(checkpoint.New(store.NewMemoryBackend(), nil), nil, nil)
	runner.Hooks = hooks

	_, err := runner.Execute(context.Background(), Options{
		Volume:       lattice.Dims{X: 2, Y: 2, Z: 2},
		Grains:       lattice.Dims{X: 2, Y: 2, Z: 2},
		Steps:        []int{0, 5},
		Verify:       true,
		Exports:      []string{"csv"},
		ExportPrefix: filepath.Join(t.TempDir(), "g"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(hooks.writes, []int{0, 5}) {
		t.Errorf("writes = %v", hooks.writes)
	}
	if !reflect.DeepEqual(hooks.verify, map[int]int{0: 0, 5: 0}) {
		t.Errorf("verify = %v", hooks.verify)
	}
	// edges.csv and nodes.csv for each of two steps.
	if hooks.exports["csv"] != 4 {
		t.Errorf("csv files = %d, want 4", hooks.exports["csv"])
	}
}
