package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/verify"
)

// readOpts holds the flags shared by the commands that read one step.
type readOpts struct {
	file   string
	step   int
	verify bool
	all    bool
}

// edgesCommand creates the edges command.
func (c *CLI) edgesCommand() *cobra.Command {
	var opts readOpts

	cmd := &cobra.Command{
		Use:   "edges",
		Short: "Show the edge index of a time step",
		Long: `Edges lists the time steps found in the checkpoint, then prints the edge
index summary and the first edges of the selected step (the latest by default).

With --verify the grain connections of the same step are decoded independently
and compared grain by grain against the edge index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdges(cmd.Context(), opts)
		},
	}

	addFileFlag(cmd, &opts.file)
	addStepFlag(cmd, &opts.step)
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "cross-check against the grain connections")

	return cmd
}

func (c *CLI) runEdges(ctx context.Context, opts readOpts) error {
	archive, err := c.openArchive(ctx, opts.file)
	if err != nil {
		return err
	}
	defer archive.Close()

	steps, err := archive.TimeSteps(ctx, checkpoint.DatasetEdgeIndex)
	if err != nil {
		return err
	}
	printInfo("Discovered time steps: %s", StyleValue.Render(strings.Trim(fmt.Sprint(steps), "[]")))

	step, err := c.resolveStep(ctx, archive, checkpoint.DatasetEdgeIndex, opts.step)
	if err != nil {
		return err
	}
	ei, err := archive.ReadEdgeIndex(ctx, step)
	if err != nil {
		return err
	}

	adj := ei.Adjacency()
	loops := 0
	for i := range ei.Row {
		if ei.Row[i] == ei.Col[i] {
			loops++
		}
	}
	printSuccess("Edge index at step %s", StyleNumber.Render(fmt.Sprint(step)))
	printKeyValue("Shape", fmt.Sprintf("2 × %d", ei.Len()))
	printStats(len(adj), ei.Len(), loops)

	n := min(ei.Len(), maxListed)
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = []string{fmt.Sprint(i), fmt.Sprint(ei.Row[i]), fmt.Sprint(ei.Col[i])}
	}
	printTable([]string{"#", "Source", "Target"}, rows)
	if ei.Len() > n {
		printDetail("%d more arcs not shown", ei.Len()-n)
	}

	if !opts.verify {
		return nil
	}
	conns, err := archive.ReadConnections(ctx, step)
	if err != nil {
		return err
	}
	report := verify.Verify(conns, ei)
	printVerdict(report)
	if asym := verify.CheckSymmetry(ei); len(asym) > 0 {
		printWarning("%d arcs have no reverse, e.g. %d -> %d", len(asym), asym[0].From, asym[0].To)
	}
	return report.Err()
}

// connectionsCommand creates the connections command.
func (c *CLI) connectionsCommand() *cobra.Command {
	var opts readOpts

	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Show the grain connections of a time step",
		Long: `Connections decodes the flattened grain connections of a time step (the
latest by default) and prints each grain's neighbor list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConnections(cmd.Context(), opts)
		},
	}

	addFileFlag(cmd, &opts.file)
	addStepFlag(cmd, &opts.step)
	cmd.Flags().BoolVar(&opts.all, "all", false, "list every grain instead of the first ten")

	return cmd
}

func (c *CLI) runConnections(ctx context.Context, opts readOpts) error {
	archive, err := c.openArchive(ctx, opts.file)
	if err != nil {
		return err
	}
	defer archive.Close()

	step, err := c.resolveStep(ctx, archive, checkpoint.DatasetConnections, opts.step)
	if err != nil {
		return err
	}
	adj, err := archive.ReadConnections(ctx, step)
	if err != nil {
		return err
	}

	printSuccess("Grain connections at step %s", StyleNumber.Render(fmt.Sprint(step)))
	printStats(len(adj), adj.Arcs(), 0)

	ids := adj.IDs()
	if !opts.all && len(ids) > maxListed {
		ids = ids[:maxListed]
	}
	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = []string{fmt.Sprint(id), fmt.Sprint(adj.Degree(id)), formatIDs(adj[id])}
	}
	printTable([]string{"Grain", "Degree", "Neighbors"}, rows)
	if len(adj) > len(ids) {
		printDetail("%d more grains not shown (use --all)", len(adj)-len(ids))
	}
	return nil
}
