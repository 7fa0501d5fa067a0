package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/graingraph/graingraph/pkg/httpapi"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var file, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a checkpoint over HTTP",
		Long: `Serve exposes a checkpoint read-only over HTTP until interrupted:

  GET /healthz
  GET /timesteps/{dataset}
  GET /steps/{step}/edge-index
  GET /steps/{step}/connections
  GET /steps/{step}/verify
  GET /steps/{step}/graph
  GET /steps/{step}/export/{format}

{step} is a number or "latest".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), file, addr)
		},
	}

	addFileFlag(cmd, &file)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, file, addr string) error {
	archive, err := c.openArchive(ctx, file)
	if err != nil {
		return err
	}
	defer archive.Close()

	printInfo("Serving %s on %s", StyleValue.Render(file), StyleLink.Render("http://"+displayAddr(addr)))
	printDetail("press ctrl+c to stop")
	return httpapi.New(archive, nil, c.Logger).ListenAndServe(ctx, addr)
}

// displayAddr fills in localhost for a bare port.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
