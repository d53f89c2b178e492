package cmd

import (
	"fmt"
	"os"

	"github.com/ingpoc/ui-test-generation-mcp/internal/config"
	"github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// v collects defaults, the config file, UITEST_* variables and flags.
	v = viper.New()
	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ui-test-mcp",
	Short: "Drive a browser for AI agents and record UI test sessions",
	Long: `An MCP server that lets AI agents drive a Chromium browser through
accessibility snapshots, and records what they do as Playwright code.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./ui-test-mcp.yaml or ~/.config/ui-test-mcp/ui-test-mcp.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path, _ := rootCmd.PersistentFlags().GetString("config")
		loaded, err := config.Load(v, path)
		if err != nil {
			return err
		}
		level, err := logging.ParseLevel(loaded.Log.Level)
		if err != nil {
			return err
		}
		lc := logging.DefaultConfig()
		lc.Level = level
		logging.Init(lc)
		cfg = loaded
		return nil
	}
}
