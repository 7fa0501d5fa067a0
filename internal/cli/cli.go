// Package cli implements the graingraph command-line interface.
package cli

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/graingraph/graingraph/pkg/buildinfo"
	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/lattice"
	"github.com/graingraph/graingraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "graingraph"

	// latestStep marks "no step requested"; commands resolve it to the
	// newest stored step.
	latestStep = -1
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// pick opens the interactive step picker instead of defaulting to the
	// latest step.
	pick bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Graingraph converts grain lattices into graph checkpoints",
		Long:         `Graingraph builds the face-adjacency graph of a 3D grain lattice, stores it per time step in two independent encodings (coordinate list and flattened adjacency list), and verifies that both agree.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVar(&c.pick, "pick", false, "choose the time step interactively")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.edgesCommand())
	root.AddCommand(c.connectionsCommand())
	root.AddCommand(c.stepsCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Archive Helpers
// =============================================================================

// openArchive opens the checkpoint at location, defaulting to the pipeline
// output path.
func (c *CLI) openArchive(ctx context.Context, location string) (*checkpoint.Archive, error) {
	if location == "" {
		location = pipeline.DefaultOutput
	}
	c.Logger.Debug("opening checkpoint", "location", location)
	return checkpoint.Open(ctx, location, c.Logger)
}

// resolveStep turns the -t flag into a stored step of dataset: an explicit
// step is returned unchanged, otherwise the picker or the latest step.
func (c *CLI) resolveStep(ctx context.Context, archive *checkpoint.Archive, dataset string, step int) (int, error) {
	if step != latestStep {
		return step, nil
	}
	if c.pick {
		return pickStep(ctx, archive)
	}
	latest, err := archive.Latest(ctx, dataset)
	if err != nil {
		return 0, err
	}
	c.Logger.Debug("defaulting to latest step", "dataset", dataset, "step", latest)
	return latest, nil
}

// addFileFlag registers the shared -f flag.
func addFileFlag(cmd *cobra.Command, file *string) {
	cmd.Flags().StringVarP(file, "file", "f", pipeline.DefaultOutput, "checkpoint location (path, file://, badger://, redis://, mongodb://)")
}

// addStepFlag registers the shared -t flag.
func addStepFlag(cmd *cobra.Command, step *int) {
	cmd.Flags().IntVarP(step, "timestep", "t", latestStep, "time step to read (default: latest)")
}

// =============================================================================
// Flag Parsing
// =============================================================================

// parseDims parses "x,y,z" into lattice dimensions.
func parseDims(s string) (lattice.Dims, error) {
	parts := splitList(s)
	if len(parts) != 3 {
		return lattice.Dims{}, errors.New(errors.ErrCodeInvalidInput, "expected three comma-separated extents, got %q", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return lattice.Dims{}, errors.New(errors.ErrCodeInvalidInput, "invalid extent %q in %q", p, s)
		}
		v[i] = n
	}
	return lattice.Dims{X: v[0], Y: v[1], Z: v[2]}, nil
}

// parseSteps parses a comma-separated list of time steps.
func parseSteps(s string) ([]int, error) {
	parts := splitList(s)
	steps := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid time step %q", p)
		}
		steps = append(steps, n)
	}
	return steps, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// formatIDs renders a neighbor list compactly.
func formatIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}
