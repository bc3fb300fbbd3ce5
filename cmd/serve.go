package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/deepserish-bk/db-security-scanner/internal/database"
	"github.com/deepserish-bk/db-security-scanner/internal/metrics"
	"github.com/deepserish-bk/db-security-scanner/internal/publish"
	"github.com/deepserish-bk/db-security-scanner/internal/scanner"
	"github.com/deepserish-bk/db-security-scanner/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scan API, dashboard and metrics server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		c, cacheClose := maybeOpenCache(true)
		if cacheClose != nil {
			defer cacheClose()
		}

		var pub scanner.Publisher
		if cfg.Publish.Enabled {
			p, err := publish.New(cfg.Publish.URL, cfg.Publish.Subject)
			if err != nil {
				slog.Warn("nats publisher unavailable", "error", err)
			} else {
				pub = p
				defer p.Close()
			}
		}

		srv, err := server.New(cfg, db, c, buildEngine(c), metrics.NewMetrics(), pub)
		if err != nil {
			return err
		}
		return srv.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
