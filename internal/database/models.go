package database

import "time"

type Scan struct {
	ID           int64      `json:"id"`
	RunID        string     `json:"run_id"`
	Targets      string     `json:"targets"`
	Status       string     `json:"status"`
	FilesScanned int        `json:"files_scanned"`
	CacheHits    int64      `json:"cache_hits"`
	CacheMisses  int64      `json:"cache_misses"`
	Workers      int        `json:"workers"`
	High         int        `json:"high"`
	Medium       int        `json:"medium"`
	Low          int        `json:"low"`
	Info         int        `json:"info"`
	ErrorCount   int        `json:"error_count"`
	DurationMS   int64      `json:"duration_ms"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type FindingRow struct {
	ID         int64     `json:"id"`
	ScanID     int64     `json:"scan_id"`
	RuleID     string    `json:"rule_id"`
	Category   string    `json:"category"`
	Severity   string    `json:"severity"`
	FilePath   string    `json:"file_path"`
	Line       int       `json:"line"`
	Column     int       `json:"column"`
	Snippet    string    `json:"snippet,omitempty"`
	Message    string    `json:"message"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}
