package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graingraph/graingraph/pkg/bridge"
	"github.com/graingraph/graingraph/pkg/pipeline"
)

// generateFlags holds the raw command-line values of the generate command.
// Only flags the user set override the run file.
type generateFlags struct {
	config    string
	volume    string
	grains    string
	selfLoops bool
	steps     string
	output    string
	mode      string
	verify    bool
	exports   string
	prefix    string
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the grain graph and write a snapshot per time step",
		Long: `Generate partitions the volume into a grain lattice, connects face-adjacent
grains, and stores the edge index and grain connections for every requested
time step.

Settings come from an optional TOML run file (--config); flags override it.`,
		Example: `  graingraph generate --rve 30,30,30 --grains 15,15,15 --self-loops --steps 0,10,20
  graingraph generate --config run.toml -f badger://./run.db --verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "", "TOML run file")
	cmd.Flags().StringVar(&flags.volume, "rve", "", "cells per axis as x,y,z (default 30,30,30)")
	cmd.Flags().StringVar(&flags.grains, "grains", "", "grains per axis as x,y,z (default 15,15,15)")
	cmd.Flags().BoolVar(&flags.selfLoops, "self-loops", false, "add one self-loop per grain")
	cmd.Flags().StringVar(&flags.steps, "steps", "", "comma-separated time steps (default 0)")
	cmd.Flags().StringVarP(&flags.output, "file", "f", "", "checkpoint location (default "+pipeline.DefaultOutput+")")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "construction mode: lattice (default), cells")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "read every step back and cross-check both encodings")
	cmd.Flags().StringVar(&flags.exports, "export", "", "bridges to run per step: "+strings.Join(bridge.Default().Names(), ", "))
	cmd.Flags().StringVarP(&flags.prefix, "output", "o", "", "export path prefix (default grains)")

	return cmd
}

// options merges the run file with the flags the user changed.
func (f *generateFlags) options(cmd *cobra.Command) (pipeline.Options, error) {
	var opts pipeline.Options
	if f.config != "" {
		loaded, err := pipeline.LoadConfig(f.config)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	changed := cmd.Flags().Changed
	var err error
	if changed("rve") {
		if opts.Volume, err = parseDims(f.volume); err != nil {
			return opts, fmt.Errorf("--rve: %w", err)
		}
	}
	if changed("grains") {
		if opts.Grains, err = parseDims(f.grains); err != nil {
			return opts, fmt.Errorf("--grains: %w", err)
		}
	}
	if changed("steps") {
		if opts.Steps, err = parseSteps(f.steps); err != nil {
			return opts, fmt.Errorf("--steps: %w", err)
		}
	}
	if changed("self-loops") {
		opts.SelfLoops = f.selfLoops
	}
	if changed("file") {
		opts.Output = f.output
	}
	if changed("mode") {
		opts.Mode = f.mode
	}
	if changed("verify") {
		opts.Verify = f.verify
	}
	if changed("export") {
		opts.Exports = splitList(f.exports)
	}
	if changed("output") {
		opts.ExportPrefix = f.prefix
	}
	return opts, nil
}

func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options) error {
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	c.Logger.Debug("generate", "options", opts.String())
	registry := bridge.Default()
	for _, name := range opts.Exports {
		if _, err := registry.Get(name); err != nil {
			return err
		}
	}

	archive, err := c.openArchive(ctx, opts.Output)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(archive, registry, c.Logger)
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Writing %d step(s) to %s...", len(opts.Steps), opts.Output))
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		if result != nil {
			// Verification failed after the snapshots were written.
			for _, step := range opts.Steps {
				if r, ok := result.Reports[step]; ok && !r.Consistent {
					printInfo("Step %s", StyleNumber.Render(fmt.Sprint(step)))
					printVerdict(r)
				}
			}
		}
		return err
	}
	prog.done("generated checkpoints", "steps", len(opts.Steps))

	printSuccess("Wrote %s", StyleValue.Render(opts.Output))
	printKeyValue("Lattice", fmt.Sprintf("%s grains in %s cells", opts.Grains, opts.Volume))
	printKeyValue("Steps", strings.Trim(fmt.Sprint(opts.Steps), "[]"))
	printKeyValue("Run", result.Run.ID)
	printStats(result.Graph.Nodes, result.Graph.Arcs(), result.Graph.SelfLoops())

	for _, step := range slices.Sorted(maps.Keys(result.Reports)) {
		printInfo("Step %s", StyleNumber.Render(fmt.Sprint(step)))
		printVerdict(result.Reports[step])
	}
	for _, step := range opts.Steps {
		for _, path := range result.Exports[step] {
			printFile(path)
		}
	}

	printNewline()
	printNextStep("Inspect the edges", fmt.Sprintf("%s edges -f %s --verify", appName, opts.Output))
	return nil
}
