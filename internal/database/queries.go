package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// --- Scans ---

func (db *DB) CreateScan(s *Scan) error {
	res, err := db.Exec(
		`INSERT INTO scans (run_id, targets, status, workers) VALUES (?, ?, ?, ?)`,
		s.RunID, s.Targets, s.Status, s.Workers,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	s.ID, _ = res.LastInsertId()
	return nil
}

func (db *DB) GetScan(id int64) (*Scan, error) {
	s := &Scan{}
	err := db.QueryRow(
		`SELECT id, run_id, targets, status, files_scanned, cache_hits, cache_misses, workers,
		        high, medium, low, info, error_count, duration_ms, started_at, completed_at, created_at
		 FROM scans WHERE id = ?`, id,
	).Scan(&s.ID, &s.RunID, &s.Targets, &s.Status, &s.FilesScanned, &s.CacheHits, &s.CacheMisses,
		&s.Workers, &s.High, &s.Medium, &s.Low, &s.Info, &s.ErrorCount, &s.DurationMS,
		&s.StartedAt, &s.CompletedAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return s, nil
}

func (db *DB) ListRecentScans(limit int) ([]Scan, error) {
	rows, err := db.Query(
		`SELECT id, run_id, targets, status, files_scanned, cache_hits, cache_misses, workers,
		        high, medium, low, info, error_count, duration_ms, started_at, completed_at, created_at
		 FROM scans ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		var s Scan
		if err := rows.Scan(&s.ID, &s.RunID, &s.Targets, &s.Status, &s.FilesScanned, &s.CacheHits,
			&s.CacheMisses, &s.Workers, &s.High, &s.Medium, &s.Low, &s.Info, &s.ErrorCount,
			&s.DurationMS, &s.StartedAt, &s.CompletedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

func (db *DB) UpdateScanStatus(id int64, status string) error {
	now := time.Now()
	switch status {
	case "running":
		_, err := db.Exec(`UPDATE scans SET status = ?, started_at = ? WHERE id = ?`, status, now, id)
		return err
	case "completed", "failed":
		_, err := db.Exec(`UPDATE scans SET status = ?, completed_at = ? WHERE id = ?`, status, now, id)
		return err
	default:
		_, err := db.Exec(`UPDATE scans SET status = ? WHERE id = ?`, status, id)
		return err
	}
}

// SaveResult records a finished batch under an existing scan row:
// summary counters on the scan plus one findings row per finding.
func (db *DB) SaveResult(scanID int64, res *model.ScanResult) error {
	_, err := db.Exec(
		`UPDATE scans SET run_id = ?, files_scanned = ?, cache_hits = ?, cache_misses = ?, workers = ?,
		        high = ?, medium = ?, low = ?, info = ?, error_count = ?, duration_ms = ?
		 WHERE id = ?`,
		res.RunID, res.FilesScanned, int64(res.CacheHits), int64(res.CacheMisses), res.Workers,
		res.Summary.High, res.Summary.Medium, res.Summary.Low, res.Summary.Info,
		len(res.Errors), res.Duration.Milliseconds(), scanID,
	)
	if err != nil {
		return fmt.Errorf("update scan summary: %w", err)
	}
	rows := make([]FindingRow, 0, len(res.Findings))
	for _, f := range res.Findings {
		rows = append(rows, FindingRow{
			ScanID:     scanID,
			RuleID:     f.RuleID,
			Category:   string(f.Category),
			Severity:   string(f.Severity),
			FilePath:   f.FilePath,
			Line:       f.Line,
			Column:     f.Column,
			Snippet:    f.Snippet,
			Message:    f.Message,
			Confidence: f.Confidence,
		})
	}
	return db.CreateFindings(rows)
}

// --- Findings ---

func (db *DB) CreateFindings(findings []FindingRow) error {
	if len(findings) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO findings (scan_id, rule_id, category, severity, file_path, line, col, snippet, message, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		if _, err := stmt.Exec(f.ScanID, f.RuleID, f.Category, f.Severity, f.FilePath,
			f.Line, f.Column, f.Snippet, f.Message, f.Confidence); err != nil {
			return fmt.Errorf("exec: %w", err)
		}
	}
	return tx.Commit()
}

func (db *DB) GetFindingsByScan(scanID int64) ([]FindingRow, error) {
	rows, err := db.Query(
		`SELECT id, scan_id, rule_id, category, severity, file_path, line, col, snippet, message, confidence, created_at
		 FROM findings WHERE scan_id = ? ORDER BY file_path, line, col`, scanID,
	)
	if err != nil {
		return nil, fmt.Errorf("list findings by scan: %w", err)
	}
	defer rows.Close()

	var findings []FindingRow
	for rows.Next() {
		var f FindingRow
		if err := rows.Scan(&f.ID, &f.ScanID, &f.RuleID, &f.Category, &f.Severity, &f.FilePath,
			&f.Line, &f.Column, &f.Snippet, &f.Message, &f.Confidence, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// --- Stats ---

type DashboardStats struct {
	ScanCount    int `json:"scan_count"`
	FindingCount int `json:"finding_count"`
	HighCount    int `json:"high_count"`
	MediumCount  int `json:"medium_count"`
}

func (db *DB) GetStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	db.QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&stats.ScanCount)
	db.QueryRow(`SELECT COUNT(*) FROM findings`).Scan(&stats.FindingCount)
	db.QueryRow(`SELECT COUNT(*) FROM findings WHERE severity = 'HIGH'`).Scan(&stats.HighCount)
	db.QueryRow(`SELECT COUNT(*) FROM findings WHERE severity = 'MEDIUM'`).Scan(&stats.MediumCount)
	return stats, nil
}
