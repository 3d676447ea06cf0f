package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/morph-tools-mcp/internal/config"
	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

var (
	version = "dev"     // semantic version (e.g., "v1.2.3")
	commit  = "unknown" // git commit SHA
	date    = "unknown" // build timestamp
)

// SetVersion sets the version information displayed by --version and
// reported by the server. Empty values keep the defaults.
func SetVersion(v, c, d string) {
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
	if d != "" {
		date = d
	}
}

// globals holds the persistent flags and the configuration they resolve to.
type globals struct {
	configPath   string
	verbose      bool
	workers      int
	connectivity string

	cfg *config.Config
}

// Execute runs the morph-mcp CLI under ctx.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stderr).ExecuteContext(ctx)
}

// newRootCmd builds the command tree. Logs are written to logOut.
func newRootCmd(logOut io.Writer) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "morph-mcp",
		Short:         "Geodesic reconstruction tools for images",
		Long:          `morph-mcp runs grayscale geodesic erosion and reconstruction by erosion on images, either as an MCP server for AI assistants or directly from the command line.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := g.resolve(cmd); err != nil {
				return err
			}
			level := g.cfg.Level()
			if g.verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(logOut, level)
			logger.Debug("configuration loaded",
				"config", g.configPath,
				"workers", g.cfg.Workers,
				"connectivity", g.cfg.Connectivity,
				"max_iterations", g.cfg.MaxIterations)
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("morph-mcp %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "path to a TOML config file")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	flags.IntVar(&g.workers, "workers", 0, "goroutines per erosion pass (default from config, 0 = GOMAXPROCS)")
	flags.StringVar(&g.connectivity, "connectivity", "", "neighborhood: face or full (default from config)")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newErodeCmd(g))
	root.AddCommand(newReconstructCmd(g))
	root.AddCommand(newFillHolesCmd(g))

	return root
}

// resolve loads the config file and environment, then applies flags that
// were set explicitly.
func (g *globals) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		if g.workers < 0 {
			return fmt.Errorf("%w: --workers must be >= 0, got %d", config.ErrInvalid, g.workers)
		}
		cfg.Workers = g.workers
	}
	if flags.Changed("connectivity") {
		if _, err := morph.ParseConnectivity(g.connectivity); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		cfg.Connectivity = g.connectivity
	}

	g.cfg = cfg
	return nil
}
