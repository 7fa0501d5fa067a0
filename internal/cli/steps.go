package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graingraph/graingraph/pkg/errors"
)

// stepsCommand creates the steps command.
func (c *CLI) stepsCommand() *cobra.Command {
	var (
		file    string
		dataset string
	)

	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the time steps stored in a checkpoint",
		Long: `Steps lists the stored time steps. Without --dataset it shows which datasets
hold each step, along with the run metadata when present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSteps(cmd.Context(), file, dataset)
		},
	}

	addFileFlag(cmd, &file)
	cmd.Flags().StringVar(&dataset, "dataset", "", "list a single dataset, e.g. EdgeIndex or GrainConnections")

	return cmd
}

func (c *CLI) runSteps(ctx context.Context, file, dataset string) error {
	archive, err := c.openArchive(ctx, file)
	if err != nil {
		return err
	}
	defer archive.Close()

	if dataset != "" {
		steps, err := archive.TimeSteps(ctx, dataset)
		if err != nil {
			return err
		}
		printSuccess("%s: %d step(s)", dataset, len(steps))
		printDetail("%s", strings.Trim(fmt.Sprint(steps), "[]"))
		return nil
	}

	if run, err := archive.ReadRun(ctx); err == nil {
		printKeyValue("Run", run.ID)
		printKeyValue("Created", run.Created.Format("2006-01-02 15:04:05"))
		printKeyValue("Lattice", fmt.Sprintf("%s grains in %s cells", run.Grains, run.Volume))
		if run.Version != "" {
			printKeyValue("Version", run.Version)
		}
	} else if !errors.IsNotFound(err) {
		return err
	}

	rows, err := collectSteps(ctx, archive)
	if err != nil {
		return err
	}
	table := make([][]string, len(rows))
	for i, r := range rows {
		table[i] = stepTableRow("", r)[1:]
	}
	printTable(stepTableHeaders()[1:], table)

	incomplete := 0
	for _, r := range rows {
		if !r.Complete() {
			incomplete++
		}
	}
	if incomplete > 0 {
		printWarning("%d step(s) lack one of the two encodings", incomplete)
	}
	return nil
}
