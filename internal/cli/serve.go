package cli

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/morph-tools-mcp/internal/server"
)

// useConfigAddr is the value of a bare --http flag.
const useConfigAddr = "config"

func newServeCmd(g *globals) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server on stdin/stdout (JSON-RPC 2.0, one message per line).

With --http the tools are served over HTTP instead: a bare --http listens on
the [http] addr from the config file, --http=host:port overrides it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			srv := server.New(g.cfg, logger)
			srv.SetVersion(version)

			if httpAddr == "" {
				return srv.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			addr := httpAddr
			if addr == useConfigAddr {
				addr = g.cfg.HTTP.Addr
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "serve HTTP instead of stdio, optionally on `addr`")
	cmd.Flags().Lookup("http").NoOptDefVal = useConfigAddr
	return cmd
}
