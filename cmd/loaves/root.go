package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/loaves/internal/cli"
	"github.com/aretw0/loaves/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loaves",
	Short: "Loaves is the session cart of a small bakery storefront",
	Long: `Loaves serves the storefront cart API, shops it from the terminal and
manages the sessions it keeps.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file (default loaves.yaml if present)")
	rootCmd.PersistentFlags().String("env-file", "", "dotenv file (default .env if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the configuration named by the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout stays clean for MCP stdio and shop output.
func newLogger(cfg *config.Config) *slog.Logger {
	logger := cli.NewLogger(cfg)
	slog.SetDefault(logger)
	return logger
}
