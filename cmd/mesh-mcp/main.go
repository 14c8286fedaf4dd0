package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/ironsheep/mesh-tools-mcp/internal/config"
	"github.com/ironsheep/mesh-tools-mcp/internal/server"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/ironsheep/mesh-tools-mcp", "main")

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configFile string
	outputDir  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "mesh-tools-mcp",
	Short: "MCP server for mesh generation, booleans and plotting",
	Long: `mesh-tools-mcp serves mesh tools over the MCP protocol on stdin/stdout.
Configure it in your MCP client (e.g., Claude Desktop).

Environment variables:
  MESH_MCP_CONFIG       YAML configuration file
  MESH_MCP_OUTPUT_DIR   Directory for generated files
  MESH_MCP_LOG_LEVEL    debug, info, warning or error`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg.LogLevel)
		logger.KV(xlog.INFO, "version", Version, "built", BuildTime, "commit", GitCommit)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = server.New(cfg, Version).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mesh-tools-mcp %s\n", Version)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool catalog as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(server.New(cfg, Version).Tools())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for generated files")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level: debug, info, warning or error")

	rootCmd.AddCommand(versionCmd, toolsCmd)
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging sends logs to stderr; stdout is for MCP protocol.
func setupLogging(level string) {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))

	switch level {
	case "debug":
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	case "warning":
		xlog.SetGlobalLogLevel(xlog.WARNING)
	case "error":
		xlog.SetGlobalLogLevel(xlog.ERROR)
	default:
		xlog.SetGlobalLogLevel(xlog.INFO)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
