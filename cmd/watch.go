package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/deepserish-bk/db-security-scanner/internal/report"
	"github.com/deepserish-bk/db-security-scanner/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path ...]",
	Short: "Rescan automatically whenever Go files change",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// The cache is what makes rescans cheap, so watch always uses it.
		c, cacheClose := maybeOpenCache(true)
		if cacheClose != nil {
			defer cacheClose()
		}
		engine := buildEngine(c)

		renderer, err := report.For("text", isatty.IsTerminal(os.Stdout.Fd()))
		if err != nil {
			return err
		}

		w := watch.New(args, func(ctx context.Context) {
			res, err := engine.Scan(ctx, args)
			if err != nil {
				slog.Error("scan failed", "error", err)
				return
			}
			fmt.Println()
			if err := renderer.Render(os.Stdout, res); err != nil {
				slog.Error("render failed", "error", err)
			}
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("watching for changes", "paths", args)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
