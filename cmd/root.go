// Package cmd wires the dbsec command line interface.
package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepserish-bk/db-security-scanner/internal/cache"
	"github.com/deepserish-bk/db-security-scanner/internal/config"
	"github.com/deepserish-bk/db-security-scanner/internal/rules"
	"github.com/deepserish-bk/db-security-scanner/internal/scanner"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dbsec",
	Short: "Static analysis for database security defects in Go code",
	Long: `dbsec scans Go source for database security defects: SQL built by
string concatenation, hardcoded credentials, insecure connection strings,
unsafe dynamic execution, engine specific misconfigurations and raw ORM
queries. Results are cached by content hash so unchanged files are never
re-analyzed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		setupLogging(cfg.Log)
		return nil
	},
}

// Execute runs the CLI. Operational failures exit with code 2; the scan
// command exits 1 itself when findings cross the fail-on threshold.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default ~/.dbsec/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func setupLogging(lc config.LogConfig) {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openCache() (*cache.Cache, error) {
	return cache.New(cache.Options{
		Path:          cfg.CachePath(),
		TTL:           time.Duration(cfg.Cache.TTLHours) * time.Hour,
		Retention:     time.Duration(cfg.Cache.RetentionDays) * 24 * time.Hour,
		MemoryEntries: cfg.Cache.MemoryEntries,
	})
}

// maybeOpenCache opens the configured cache when wanted and enabled. A
// cache that cannot be opened degrades to scanning without one rather
// than failing the run.
func maybeOpenCache(want bool) (*cache.Cache, func()) {
	if !want || !cfg.Cache.Enabled {
		return nil, nil
	}
	c, err := openCache()
	if err != nil {
		slog.Warn("cache unavailable, scanning without it", "error", err)
		return nil, nil
	}
	return c, func() { c.Close() }
}

func buildEngine(c *cache.Cache) *scanner.Engine {
	return &scanner.Engine{
		Registry:     rules.Default(cfg.EnabledRules()...),
		Cache:        c,
		Workers:      cfg.Scan.Workers,
		Ignore:       cfg.IgnorePatterns(),
		MaxFileBytes: cfg.Scan.MaxFileSizeKB * 1024,
	}
}
