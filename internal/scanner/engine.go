package scanner

import (
	"context"
	"log/slog"
	"sort"

	"github.com/deepserish-bk/db-security-scanner/internal/cache"
	"github.com/deepserish-bk/db-security-scanner/internal/loader"
	"github.com/deepserish-bk/db-security-scanner/internal/model"
	"github.com/deepserish-bk/db-security-scanner/internal/rules"
)

// Engine ties the loader, registry, cache and scheduler together behind
// the one call the CLI and server use.
type Engine struct {
	Registry     *rules.Registry
	Cache        *cache.Cache // nil disables caching
	Workers      int
	Progress     Sink
	Ignore       []string
	MaxFileBytes int64
}

// Scan expands paths into source units and runs them as one batch.
// Unreadable files become per-file errors; finding no scannable file at
// all is the only fatal condition.
func (e *Engine) Scan(ctx context.Context, paths []string) (*model.ScanResult, error) {
	targets, err := loader.CollectTargets(paths, e.Ignore, e.MaxFileBytes)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, model.ErrNoTargets
	}

	units := make([]*model.SourceUnit, 0, len(targets))
	var loadErrs []model.FileError
	for _, t := range targets {
		unit, err := loader.Load(t)
		if err != nil {
			slog.Warn("skipping unreadable file", "path", t, "error", err)
			loadErrs = append(loadErrs, model.FileError{Path: t, Stage: "read", Err: err.Error()})
			continue
		}
		units = append(units, unit)
	}
	if len(units) == 0 && len(loadErrs) > 0 {
		return nil, model.ErrNoTargets
	}

	batch := &Batch{
		Cache:    e.Cache,
		Registry: e.Registry,
		Workers:  e.Workers,
		Progress: e.Progress,
	}
	result := batch.Run(ctx, units)
	if len(loadErrs) > 0 {
		result.Errors = append(result.Errors, loadErrs...)
		sort.Slice(result.Errors, func(i, j int) bool {
			return result.Errors[i].Path < result.Errors[j].Path
		})
	}

	if e.Cache != nil {
		e.Cache.PurgeExpired(0)
	}
	return result, nil
}
