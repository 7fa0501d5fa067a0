package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graingraph/graingraph/pkg/bridge"
	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/pipeline"
)

// exportOpts holds the flags of the export command.
type exportOpts struct {
	file    string
	step    int
	formats string
	prefix  string
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{formats: "csv", prefix: "grains"}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert a stored time step for downstream tools",
		Long: `Export runs one or more bridges on a stored time step and writes the
artifacts as <prefix>_t<step>_<name>.

Bridges: ` + strings.Join(bridge.Default().Names(), ", ") + `.`,
		Example: `  graingraph export -f graph.ckpt -t 10 --format csv,tensor -o out/grains`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), opts)
		},
	}

	addFileFlag(cmd, &opts.file)
	addStepFlag(cmd, &opts.step)
	cmd.Flags().StringVar(&opts.formats, "format", opts.formats, "comma-separated bridges")
	cmd.Flags().StringVarP(&opts.prefix, "output", "o", opts.prefix, "output path prefix")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, opts exportOpts) error {
	formats := splitList(opts.formats)
	registry := bridge.Default()
	for _, f := range formats {
		if _, err := registry.Get(f); err != nil {
			return err
		}
	}

	archive, err := c.openArchive(ctx, opts.file)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(archive, registry, c.Logger)
	defer runner.Close()

	step, err := c.resolveStep(ctx, archive, checkpoint.DatasetEdgeIndex, opts.step)
	if err != nil {
		return err
	}
	in, err := runner.LoadInput(ctx, step)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	paths, err := runner.Export(ctx, in, formats, opts.prefix)
	for _, p := range paths {
		printFile(p)
	}
	if err != nil {
		return err
	}
	prog.done("exported", "step", step, "files", len(paths))
	printSuccess("Exported step %s as %s", StyleNumber.Render(fmt.Sprint(step)), strings.Join(formats, ", "))
	return nil
}
