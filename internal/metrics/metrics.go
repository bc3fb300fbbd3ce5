package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// Metrics holds all the Prometheus metrics for the scan service
type Metrics struct {
	ScansTotal      prometheus.Counter
	ScansFailed     prometheus.Counter
	FilesScanned    prometheus.Counter
	FindingsTotal   *prometheus.CounterVec
	CacheHitsTotal  prometheus.Counter
	CacheMissTotal  prometheus.Counter
	ScanDuration    prometheus.Histogram
	ScansInProgress prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all collectors registered
// on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dbsec_scans_total",
			Help: "Total number of scans started",
		}),
		ScansFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dbsec_scans_failed_total",
			Help: "Total number of scans that ended in failure",
		}),
		FilesScanned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dbsec_files_scanned_total",
			Help: "Total number of source files analyzed",
		}),
		FindingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dbsec_findings_total",
			Help: "Total number of findings reported, by severity",
		}, []string{"severity"}),
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dbsec_cache_hits_total",
			Help: "Total number of result cache hits",
		}),
		CacheMissTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dbsec_cache_misses_total",
			Help: "Total number of result cache misses",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dbsec_scan_duration_seconds",
			Help:    "Wall clock duration of completed scans",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ScansInProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dbsec_scans_in_progress",
			Help: "Number of scans currently running",
		}),
	}
}

// ScanStarted increments the scan counters for a newly launched scan.
func (m *Metrics) ScanStarted() {
	m.ScansTotal.Inc()
	m.ScansInProgress.Inc()
}

// ScanFinished records the outcome of a completed scan.
func (m *Metrics) ScanFinished(res *model.ScanResult, err error) {
	m.ScansInProgress.Dec()
	if err != nil {
		m.ScansFailed.Inc()
		return
	}
	if res == nil {
		return
	}
	m.FilesScanned.Add(float64(res.FilesScanned))
	m.CacheHitsTotal.Add(float64(res.CacheHits))
	m.CacheMissTotal.Add(float64(res.CacheMisses))
	m.ScanDuration.Observe(res.Duration.Seconds())
	for _, f := range res.Findings {
		m.FindingsTotal.WithLabelValues(string(f.Severity)).Inc()
	}
}
