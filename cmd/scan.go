package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/deepserish-bk/db-security-scanner/internal/database"
	"github.com/deepserish-bk/db-security-scanner/internal/model"
	"github.com/deepserish-bk/db-security-scanner/internal/publish"
	"github.com/deepserish-bk/db-security-scanner/internal/report"
	"github.com/deepserish-bk/db-security-scanner/internal/scanner"
)

var (
	scanWorkers int
	scanFormat  string
	scanOutput  string
	scanFailOn  string
	scanRules   []string
	scanNoCache bool
	scanSave    bool
	scanQuiet   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path ...]",
	Short: "Scan files or directories for database security defects",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "parallel workers (0 uses all CPUs)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "report format: text, json, markdown, html, pdf")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to a file instead of stdout")
	scanCmd.Flags().StringVar(&scanFailOn, "fail-on", "", "severity at or above which the scan exits 1")
	scanCmd.Flags().StringSliceVar(&scanRules, "rules", nil, "rule categories to enable (default all)")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "bypass the result cache")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "record the scan in the history database")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "suppress progress output")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanWorkers > 0 {
		cfg.Scan.Workers = scanWorkers
	}
	if scanFailOn != "" {
		cfg.Scan.FailOn = scanFailOn
	}
	if len(scanRules) > 0 {
		cfg.Rules.Enabled = scanRules
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c, cacheClose := maybeOpenCache(!scanNoCache)
	if cacheClose != nil {
		defer cacheClose()
	}

	engine := buildEngine(c)

	progress := isatty.IsTerminal(os.Stderr.Fd()) && !scanQuiet
	if progress {
		engine.Progress = &scanner.PlainSink{W: os.Stderr}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := engine.Scan(ctx, args)
	if err != nil {
		return err
	}
	if progress {
		fmt.Fprintln(os.Stderr)
	}

	if min := cfg.Rules.MinConfidence; min > 0 {
		kept := res.Findings[:0]
		for _, f := range res.Findings {
			if f.Confidence >= min {
				kept = append(kept, f)
			}
		}
		res.Findings = kept
		res.Summary = model.Summarize(res.Findings)
	}

	if scanSave {
		saveScan(args, res)
	}

	colored := scanFormat == "text" && scanOutput == "" && isatty.IsTerminal(os.Stdout.Fd())
	renderer, err := report.For(scanFormat, colored)
	if err != nil {
		return err
	}

	out := os.Stdout
	if scanOutput != "" {
		f, err := os.Create(scanOutput)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := renderer.Render(out, res); err != nil {
		return err
	}

	if cfg.Publish.Enabled {
		publishResult(ctx, res)
	}

	for sev, n := range cfg.SeverityThresholds() {
		if res.Summary.CountAtLeast(sev) >= n {
			os.Exit(1)
		}
	}
	return nil
}

func saveScan(targets []string, res *model.ScanResult) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		slog.Warn("history database unavailable", "error", err)
		return
	}
	defer db.Close()

	scan := &database.Scan{
		RunID:   res.RunID,
		Targets: scanner.EncodeTargets(targets),
		Workers: res.Workers,
	}
	if err := db.CreateScan(scan); err != nil {
		slog.Warn("record scan failed", "error", err)
		return
	}
	db.UpdateScanStatus(scan.ID, "running")
	if err := db.SaveResult(scan.ID, res); err != nil {
		slog.Warn("record scan result failed", "error", err)
	}
	db.UpdateScanStatus(scan.ID, "completed")
}

func publishResult(ctx context.Context, res *model.ScanResult) {
	pub, err := publish.New(cfg.Publish.URL, cfg.Publish.Subject)
	if err != nil {
		slog.Warn("nats publisher unavailable", "error", err)
		return
	}
	defer pub.Close()

	if err := pub.PublishResult(ctx, res); err != nil {
		slog.Warn("publish findings failed", "error", err)
	}
}
