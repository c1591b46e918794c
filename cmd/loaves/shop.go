package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/loaves/internal/cli"
	"github.com/aretw0/loaves/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Shop the storefront from the terminal",
	Long: `Opens an interactive storefront against a running loaves server.
Controls update immediately; the cart is pushed to the server in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		url, _ := cmd.Flags().GetString("url")
		if url == "" {
			url = fmt.Sprintf("http://localhost:%d", cfg.Port)
		}

		opts := cli.ShopOptions{
			URL:    url,
			In:     os.Stdin,
			Out:    os.Stdout,
			Logger: newLogger(cfg),
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout)
			opts.Render = tui.NewRenderer()
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.RunShop(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(shopCmd)
	shopCmd.Flags().String("url", "", "Base URL of the loaves server (default http://localhost:<port>)")
}
