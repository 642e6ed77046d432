package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/omr-tools-mcp/internal/config"
	"github.com/ironsheep/omr-tools-mcp/internal/engine"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/server"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "omr-mcp",
		Short: "MCP server for ledger and flag recognition on music sheets",
		Long: `omr-mcp retrieves ledgers and attaches flags to stems on scanned music pages.

Without a subcommand it serves MCP over stdin/stdout.

Environment variables:
  OMR_MCP_LOG_LEVEL=debug        Log level (debug, info, warn, error)
  OMR_WORKERS=4                  Systems processed in parallel
  OMR_THRESHOLD=128              Binarization threshold
  OMR_LEDGER_MIN_THRESHOLD=0.5   Minimum ledger grade
  OMR_VIP_GLYPHS=12,57           Glyphs traced through the ledger scan`,
		SilenceUsage: true,
		RunE:         runServe,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML or TOML tuning file")

	scanCmd.Flags().String("staff-free", "", "Page with staff lines removed (defaults to the page)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(constantsCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the tuning and installs the stderr logger, since stdout is
// for the MCP protocol.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdin/stdout",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.Debug("OMR MCP server", slog.String("version", Version),
		slog.String("built", BuildTime), slog.String("commit", GitCommit))

	server.Version = Version
	srv := server.New(cfg, logger)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

var scanCmd = &cobra.Command{
	Use:   "scan <page> <grid>",
	Short: "Process one page and print the per-system report as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		staffFree, _ := cmd.Flags().GetString("staff-free")

		pic, err := imaging.NewImageCache().LoadPicture(args[0], staffFree, cfg.Imaging.Threshold)
		if err != nil {
			return err
		}
		grid, err := sheet.LoadGrid(args[1])
		if err != nil {
			return err
		}
		sh, err := grid.Build(pic)
		if err != nil {
			return err
		}

		report := engine.New(cfg, logger).Run(sh)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d systems failed", len(failed), len(report.Systems))
		}
		return nil
	},
}

var constantsCmd = &cobra.Command{
	Use:   "constants",
	Short: "List the tunable constants",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), cfg.Dump())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "omr-mcp %s\n", Version)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
	},
}
