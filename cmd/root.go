package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mj1618/locator-cli/internal/config"
	"github.com/mj1618/locator-cli/internal/logging"
	"github.com/mj1618/locator-cli/internal/output"
	"github.com/mj1618/locator-cli/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "locator-cli",
	Short: "Capture, store and self-heal UI element locators",
	Long: `locator-cli records UI elements as ranked locator chains, stores them in an
object repository, and resolves them later against web pages, desktop
accessibility trees or snapshots. When the primary locator breaks it falls
back and heals, logs what happened, and suggests locator updates.`,
	SilenceUsage: true,
}

// cfg is the configuration loaded by the root command before any subcommand runs.
var cfg *config.Config

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./locator.yaml, then ~/.config/locator-cli/locator.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides log.level)")
	rootCmd.PersistentFlags().String("db", "", "Storage DSN (overrides storage.dsn)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Use the root persistent flag directly to avoid conflicts with
		// subcommand local flags (e.g. healing export --format jsonl).
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

		path, _ := rootCmd.PersistentFlags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
			loaded.Log.Level = level
		}
		if dsn, _ := rootCmd.PersistentFlags().GetString("db"); dsn != "" {
			loaded.Storage.DSN = dsn
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		if err := logging.Setup(loaded.Log.Level, loaded.Log.Pretty); err != nil {
			return err
		}
		cfg = loaded
		return nil
	}
}
