package scanner

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/deepserish-bk/db-security-scanner/internal/cache"
	"github.com/deepserish-bk/db-security-scanner/internal/model"
	"github.com/deepserish-bk/db-security-scanner/internal/rules"
)

// Batch distributes source units over a fixed worker pool, consulting
// the cache before dispatching to the analyzer. Units are independent,
// so completion order is unconstrained; the final result is sorted into
// canonical order, making output identical for any worker count.
type Batch struct {
	Cache    *cache.Cache // nil disables caching
	Registry *rules.Registry
	Workers  int
	Progress Sink
}

type unitOutcome struct {
	findings []model.Finding
	fileErr  *model.FileError
	cached   bool
}

// Run scans every unit and aggregates findings, per-file errors and
// summary counts into one immutable result. Cancelling ctx stops
// further dispatch; units already being analyzed run to completion.
func (b *Batch) Run(ctx context.Context, units []*model.SourceUnit) *model.ScanResult {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	progress := b.Progress
	if progress == nil {
		progress = NoopSink{}
	}

	started := time.Now()
	total := len(units)
	signature := b.Registry.ActiveSignature()

	unitCh := make(chan *model.SourceUnit)
	outCh := make(chan unitOutcome, total)
	var done atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range unitCh {
				out := b.analyzeOne(ctx, unit, signature)
				outCh <- out
				progress.Emit(Event{
					Path:    unit.Path,
					Done:    int(done.Add(1)),
					Total:   total,
					Cached:  out.cached,
					Elapsed: time.Since(started),
				})
			}
		}()
	}

dispatch:
	for _, unit := range units {
		select {
		case <-ctx.Done():
			break dispatch
		case unitCh <- unit:
		}
	}
	close(unitCh)
	wg.Wait()
	close(outCh)

	// Count outcomes rather than inputs: a cancelled batch reflects only
	// the units that actually completed.
	result := &model.ScanResult{
		RunID:     uuid.NewString(),
		Workers:   workers,
		StartedAt: started,
	}
	for out := range outCh {
		result.FilesScanned++
		if out.fileErr != nil {
			result.Errors = append(result.Errors, *out.fileErr)
			continue
		}
		result.Findings = append(result.Findings, out.findings...)
		if out.cached {
			result.CacheHits++
		} else {
			result.CacheMisses++
		}
	}

	model.SortFindings(result.Findings)
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})
	result.Summary = model.Summarize(result.Findings)
	result.Duration = time.Since(started)
	return result
}

// analyzeOne runs one unit through the cache-then-dispatch path. Parse
// failures surface as compute errors so they are never cached and
// reappear on every scan until the file is fixed.
func (b *Batch) analyzeOne(ctx context.Context, unit *model.SourceUnit, signature string) unitOutcome {
	compute := func() ([]model.Finding, error) {
		findings, ferr := rules.Analyze(unit, b.Registry)
		if ferr != nil {
			return nil, ferr
		}
		return findings, nil
	}

	if b.Cache == nil {
		findings, err := compute()
		return outcomeFromCompute(unit, findings, false, err)
	}
	findings, hit, err := b.Cache.GetOrCompute(ctx, unit, signature, compute)
	return outcomeFromCompute(unit, findings, hit, err)
}

func outcomeFromCompute(unit *model.SourceUnit, findings []model.Finding, cached bool, err error) unitOutcome {
	if err != nil {
		if fe, ok := err.(*model.FileError); ok {
			return unitOutcome{fileErr: fe}
		}
		return unitOutcome{fileErr: &model.FileError{Path: unit.Path, Stage: "analyze", Err: err.Error()}}
	}
	return unitOutcome{findings: findings, cached: cached}
}
