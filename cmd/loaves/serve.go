package main

import (
	"context"
	"fmt"

	"github.com/aretw0/loaves/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cart HTTP server",
	Long: `Starts the Cart API: the cart pages, the JSON cart endpoints, the menu,
health, OpenAPI document and metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		logger := newLogger(cfg)

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		app, err := cli.Bootstrap(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("error initializing loaves: %w", err)
		}
		defer app.Close()

		if err := app.Serve(ctx, cfg.ListenAddr()); err != nil {
			return err
		}
		if sig := ctx.Signal(); sig != nil {
			logger.Info("Server stopped", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides port)")
}
