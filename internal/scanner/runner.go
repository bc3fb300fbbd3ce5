package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/deepserish-bk/db-security-scanner/internal/database"
	"github.com/deepserish-bk/db-security-scanner/internal/metrics"
	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// ProgressMessage is a single update streamed to subscribers while a scan runs.
type ProgressMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Stage     string    `json:"stage"` // scanning | completed | failed | cancelled
	Path      string    `json:"path,omitempty"`
	Done      int       `json:"done,omitempty"`
	Total     int       `json:"total,omitempty"`
	Cached    bool      `json:"cached,omitempty"`
	Findings  int       `json:"findings,omitempty"`
	Message   string    `json:"message,omitempty"`
	Finished  bool      `json:"finished,omitempty"`
}

// Broadcaster sends progress updates to connected WebSocket clients.
type Broadcaster interface {
	Broadcast(scanID int64, msg ProgressMessage)
}

// Publisher forwards completed scan results to an external sink.
type Publisher interface {
	PublishResult(ctx context.Context, res *model.ScanResult) error
}

// Runner orchestrates scan lifecycle for scans launched over the API.
type Runner struct {
	db          *database.DB
	broadcaster Broadcaster
	engine      *Engine
	metrics     *metrics.Metrics
	publisher   Publisher
	mu          sync.Mutex
	cancels     map[int64]context.CancelFunc
}

// NewRunner builds a Runner. The metrics and publisher arguments may be nil.
func NewRunner(db *database.DB, broadcaster Broadcaster, engine *Engine, m *metrics.Metrics, pub Publisher) *Runner {
	return &Runner{
		db:          db,
		broadcaster: broadcaster,
		engine:      engine,
		metrics:     m,
		publisher:   pub,
		cancels:     make(map[int64]context.CancelFunc),
	}
}

// StartScan creates a scan record and begins execution in a goroutine.
func (r *Runner) StartScan(scan *database.Scan) error {
	scan.Status = "pending"
	if scan.Targets == "" {
		scan.Targets = "[]"
	}
	if err := r.db.CreateScan(scan); err != nil {
		return fmt.Errorf("create scan: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancels[scan.ID] = cancel
	r.mu.Unlock()

	go r.runScan(ctx, scan)
	return nil
}

// CancelScan cancels a running scan.
func (r *Runner) CancelScan(scanID int64) {
	r.mu.Lock()
	cancel, ok := r.cancels[scanID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

func (r *Runner) runScan(ctx context.Context, scan *database.Scan) {
	defer func() {
		r.mu.Lock()
		delete(r.cancels, scan.ID)
		r.mu.Unlock()
	}()

	targets, err := decodeTargets(scan.Targets)
	if err == nil && len(targets) == 0 {
		err = model.ErrNoTargets
	}
	if err != nil {
		slog.Error("resolve scan targets failed", "scan_id", scan.ID, "error", err)
		r.db.UpdateScanStatus(scan.ID, "failed")
		r.broadcast(scan.ID, ProgressMessage{
			Timestamp: time.Now(), Stage: "failed", Message: err.Error(), Finished: true,
		})
		return
	}

	r.db.UpdateScanStatus(scan.ID, "running")
	if r.metrics != nil {
		r.metrics.ScanStarted()
	}

	// Each run gets its own engine copy so the progress sink and worker
	// override never leak across concurrent scans.
	eng := *r.engine
	if scan.Workers > 0 {
		eng.Workers = scan.Workers
	}
	eng.Progress = SinkFunc(func(ev Event) {
		r.broadcast(scan.ID, ProgressMessage{
			Timestamp: time.Now(),
			Stage:     "scanning",
			Path:      ev.Path,
			Done:      ev.Done,
			Total:     ev.Total,
			Cached:    ev.Cached,
		})
	})

	res, err := eng.Scan(ctx, targets)
	if r.metrics != nil {
		r.metrics.ScanFinished(res, err)
	}

	switch {
	case ctx.Err() != nil:
		r.db.UpdateScanStatus(scan.ID, "failed")
		r.broadcast(scan.ID, ProgressMessage{
			Timestamp: time.Now(), Stage: "cancelled", Message: "scan cancelled", Finished: true,
		})
	case err != nil:
		slog.Error("scan failed", "scan_id", scan.ID, "error", err)
		r.db.UpdateScanStatus(scan.ID, "failed")
		r.broadcast(scan.ID, ProgressMessage{
			Timestamp: time.Now(), Stage: "failed", Message: err.Error(), Finished: true,
		})
	default:
		if err := r.db.SaveResult(scan.ID, res); err != nil {
			slog.Error("store scan result failed", "scan_id", scan.ID, "error", err)
		}
		r.db.UpdateScanStatus(scan.ID, "completed")
		if r.publisher != nil {
			if err := r.publisher.PublishResult(context.Background(), res); err != nil {
				slog.Warn("publish findings failed", "scan_id", scan.ID, "error", err)
			}
		}
		r.broadcast(scan.ID, ProgressMessage{
			Timestamp: time.Now(), Stage: "completed", Findings: res.Summary.Total, Finished: true,
		})
	}
}

func (r *Runner) broadcast(scanID int64, msg ProgressMessage) {
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(scanID, msg)
	}
}

// EncodeTargets serializes target paths for storage on a scan record.
func EncodeTargets(targets []string) string {
	b, _ := json.Marshal(targets)
	return string(b)
}

func decodeTargets(raw string) ([]string, error) {
	var targets []string
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, fmt.Errorf("decode targets: %w", err)
	}
	return targets, nil
}
