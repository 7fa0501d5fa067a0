package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/graingraph/graingraph/pkg/bridge"
	"github.com/graingraph/graingraph/pkg/buildinfo"
	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/graph"
	"github.com/graingraph/graingraph/pkg/lattice"
	"github.com/graingraph/graingraph/pkg/observability"
	"github.com/graingraph/graingraph/pkg/verify"
)

// Result contains the outputs of a pipeline run.
type Result struct {
	// Run is the metadata stored alongside the snapshots.
	Run checkpoint.Run

	// Graph is the constructed grain graph, shared by every step.
	Graph *graph.Graph

	// GrainStats holds per-grain volumes and neighbor counts.
	GrainStats graph.Stats

	// Reports holds one verification report per step when Verify is set.
	Reports map[int]verify.Report

	// Exports lists written artifact paths per step.
	Exports map[int][]string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes      int
	Arcs       int
	BuildTime  time.Duration
	WriteTime  time.Duration
	VerifyTime time.Duration
	ExportTime time.Duration
}

// Runner executes the pipeline against an archive.
//
// The Runner holds no per-run state, so one Runner can execute several runs
// against the same archive in sequence.
type Runner struct {
	Archive *checkpoint.Archive
	Bridges *bridge.Registry
	Logger  *log.Logger

	// Hooks receives one event per stage and step.
	Hooks observability.PipelineHooks
}

// NewRunner creates a runner writing to archive.
// If bridges is nil, the default bridge registry is used.
func NewRunner(archive *checkpoint.Archive, bridges *bridge.Registry, logger *log.Logger) *Runner {
	if bridges == nil {
		bridges = bridge.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Archive: archive,
		Bridges: bridges,
		Logger:  logger,
		Hooks:   observability.NoopPipelineHooks{},
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// hooks returns r.Hooks, or no-op hooks for a zero Runner.
func (r *Runner) hooks() observability.PipelineHooks {
	if r.Hooks == nil {
		return observability.NoopPipelineHooks{}
	}
	return r.Hooks
}

// Build constructs the grain graph and per-grain stats for opts without
// touching storage.
func Build(opts Options) (*graph.Graph, graph.Stats, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, graph.Stats{}, err
	}
	gopts := graph.Options{SelfLoops: opts.SelfLoops}
	cfg := opts.LatticeConfig()
	opts.Logger.Debug("building grain graph", "mode", opts.Mode, "grains", cfg.Grains, "volume", cfg.Volume)

	if opts.Mode == ModeCells {
		cm, err := lattice.Partition(cfg)
		if err != nil {
			return nil, graph.Stats{}, err
		}
		g, stats := graph.FromCellMap(cm, gopts)
		return g, stats, nil
	}

	g, err := graph.Build(cfg.Grains, gopts)
	if err != nil {
		return nil, graph.Stats{}, err
	}
	stats := graph.Stats{
		Volumes:   make([]float64, g.Nodes),
		Neighbors: g.Degrees(),
	}
	cells := float64(cfg.BlockSize().Count())
	for i := range stats.Volumes {
		stats.Volumes[i] = cells
	}
	return g, stats, nil
}

// Execute runs build → write → verify → export.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger
	result := &Result{
		Reports: make(map[int]verify.Report),
		Exports: make(map[int][]string),
	}

	// Stage 1: Build
	buildStart := time.Now()
	g, stats, err := Build(opts)
	if err != nil {
		r.hooks().OnBuild(ctx, opts.Mode, 0, 0, time.Since(buildStart), err)
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.GrainStats = stats
	result.Stats.Nodes = g.Nodes
	result.Stats.Arcs = g.Arcs()
	result.Stats.BuildTime = time.Since(buildStart)
	r.hooks().OnBuild(ctx, opts.Mode, g.Nodes, g.Arcs(), result.Stats.BuildTime, nil)

	logger.Info("built grain graph",
		"grains", g.Nodes,
		"arcs", g.Arcs(),
		"mode", opts.Mode,
		"duration", result.Stats.BuildTime)

	// Stage 2: Write
	writeStart := time.Now()
	ei, adj := g.EdgeIndex(), g.Adjacency()
	for _, step := range opts.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepStart := time.Now()
		snap := checkpoint.Snapshot{Step: step, EdgeIndex: ei, Connections: adj, Stats: &stats}
		err := r.Archive.WriteSnapshot(ctx, snap)
		r.hooks().OnWrite(ctx, step, time.Since(stepStart), err)
		if err != nil {
			return nil, fmt.Errorf("write step %d: %w", step, err)
		}
	}
	result.Run = checkpoint.NewRun(opts.LatticeConfig(), opts.SelfLoops, opts.Steps)
	result.Run.Version = buildinfo.Version
	if err := r.Archive.WriteRun(ctx, result.Run); err != nil {
		return nil, fmt.Errorf("write run: %w", err)
	}
	result.Stats.WriteTime = time.Since(writeStart)

	logger.Info("wrote checkpoints",
		"steps", len(opts.Steps),
		"run", result.Run.ID,
		"duration", result.Stats.WriteTime)

	// Stage 3: Verify
	if opts.Verify {
		verifyStart := time.Now()
		for _, step := range opts.Steps {
			report, err := r.VerifyStep(ctx, step)
			if err != nil {
				r.hooks().OnVerify(ctx, step, 0, 0, err)
				return nil, fmt.Errorf("verify step %d: %w", step, err)
			}
			result.Reports[step] = report
			r.hooks().OnVerify(ctx, step, report.Grains, len(report.Mismatches), report.Err())
			if err := report.Err(); err != nil {
				return result, fmt.Errorf("step %d: %w", step, err)
			}
		}
		result.Stats.VerifyTime = time.Since(verifyStart)
		logger.Info("verified checkpoints", "steps", len(opts.Steps), "duration", result.Stats.VerifyTime)
	}

	// Stage 4: Export
	if len(opts.Exports) > 0 {
		exportStart := time.Now()
		for _, step := range opts.Steps {
			in := bridge.Input{Step: step, EdgeIndex: ei, Connections: adj, Stats: &stats}
			paths, err := r.Export(ctx, in, opts.Exports, opts.ExportPrefix)
			if err != nil {
				return nil, fmt.Errorf("export step %d: %w", step, err)
			}
			result.Exports[step] = paths
		}
		result.Stats.ExportTime = time.Since(exportStart)
		logger.Info("exported", "formats", opts.Exports, "duration", result.Stats.ExportTime)
	}

	return result, nil
}

// VerifyStep decodes both encodings of step independently and compares them.
func (r *Runner) VerifyStep(ctx context.Context, step int) (verify.Report, error) {
	ei, err := r.Archive.ReadEdgeIndex(ctx, step)
	if err != nil {
		return verify.Report{}, err
	}
	adj, err := r.Archive.ReadConnections(ctx, step)
	if err != nil {
		return verify.Report{}, err
	}
	report := verify.Verify(adj, ei)
	r.Logger.Debug("verified step",
		"step", step,
		"grains", report.Grains,
		"consistent", report.Consistent)
	return report, nil
}

// LoadInput reads everything stored for step into a bridge input. Stats are
// optional; archives without them export without node features.
func (r *Runner) LoadInput(ctx context.Context, step int) (bridge.Input, error) {
	ei, err := r.Archive.ReadEdgeIndex(ctx, step)
	if err != nil {
		return bridge.Input{}, err
	}
	adj, err := r.Archive.ReadConnections(ctx, step)
	if err != nil {
		return bridge.Input{}, err
	}
	in := bridge.Input{Step: step, EdgeIndex: ei, Connections: adj}
	if err := in.Validate(); err != nil {
		return bridge.Input{}, err
	}
	if stats, err := r.Archive.ReadStats(ctx, step); err != nil {
		r.Logger.Debug("no grain stats", "step", step, "error", err)
	} else if !in.AttachStats(stats) {
		r.Logger.Warn("grain stats do not cover the edge index, ignoring them",
			"step", step, "stats", len(stats.Volumes), "grains", in.Nodes())
	}
	return in, nil
}

// Export runs each named bridge on in and writes the artifacts under prefix.
func (r *Runner) Export(ctx context.Context, in bridge.Input, formats []string, prefix string) ([]string, error) {
	var paths []string
	for _, name := range formats {
		arts, err := r.Bridges.Export(ctx, name, in)
		if err != nil {
			r.hooks().OnExport(ctx, in.Step, name, 0, err)
			return paths, err
		}
		written, err := bridge.WriteArtifacts(prefix, in.Step, arts)
		paths = append(paths, written...)
		r.hooks().OnExport(ctx, in.Step, name, len(written), err)
		if err != nil {
			return paths, err
		}
		r.Logger.Debug("exported", "format", name, "step", in.Step, "files", len(written))
	}
	return paths, nil
}

// Close releases the archive.
func (r *Runner) Close() error {
	if r.Archive != nil {
		return r.Archive.Close()
	}
	return nil
}
