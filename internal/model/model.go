package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Severity classifies a finding. The order is HIGH > MEDIUM > LOW > INFO
// and drives threshold and exit-code policy.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
	SeverityInfo   Severity = "INFO"
)

var severityRank = map[Severity]int{
	SeverityHigh:   3,
	SeverityMedium: 2,
	SeverityLow:    1,
	SeverityInfo:   0,
}

// Rank returns the ordinal weight of s; higher means more severe.
// Unknown severities rank below INFO.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Severities lists all severities from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// Category groups rules by the class of defect they detect.
type Category string

const (
	CategorySQL        Category = "sql"
	CategorySecrets    Category = "secrets"
	CategoryConnection Category = "connection"
	CategoryInput      Category = "input"
	CategoryDBSpecific Category = "db_specific"
	CategoryORM        Category = "orm"
)

// Categories lists every rule category in stable order.
func Categories() []Category {
	return []Category{
		CategorySQL,
		CategorySecrets,
		CategoryConnection,
		CategoryInput,
		CategoryDBSpecific,
		CategoryORM,
	}
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown rule category %q", s)
}

// Finding is one reported defect instance with location, severity and
// rule provenance. Severity is assigned by the rule at creation.
type Finding struct {
	RuleID     string   `json:"rule_id"`
	Category   Category `json:"category"`
	Severity   Severity `json:"severity"`
	FilePath   string   `json:"file_path"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Snippet    string   `json:"snippet,omitempty"`
	Message    string   `json:"message"`
	Confidence float64  `json:"confidence"`
}

// FileError records a per-file failure that did not abort the batch.
type FileError struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Err   string `json:"error"`
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Stage, e.Err)
}

// Summary holds per-severity finding counts for one batch.
type Summary struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Info   int `json:"info"`
	Total  int `json:"total"`
}

// Count returns the number of findings at severity s.
func (s Summary) Count(sev Severity) int {
	switch sev {
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	case SeverityInfo:
		return s.Info
	}
	return 0
}

// CountAtLeast returns the number of findings at or above severity min.
func (s Summary) CountAtLeast(min Severity) int {
	n := 0
	for _, sev := range Severities() {
		if sev.AtLeast(min) {
			n += s.Count(sev)
		}
	}
	return n
}

// ScanResult is the immutable outcome of one batch scan. Findings are
// sorted by (file, line, column) regardless of the order workers finished.
type ScanResult struct {
	RunID        string        `json:"run_id"`
	Findings     []Finding     `json:"findings"`
	Errors       []FileError   `json:"errors,omitempty"`
	Summary      Summary       `json:"summary"`
	FilesScanned int           `json:"files_scanned"`
	CacheHits    uint64        `json:"cache_hits"`
	CacheMisses  uint64        `json:"cache_misses"`
	Workers      int           `json:"workers"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// SortFindings orders findings canonically by (file, line, column),
// breaking remaining ties by rule id for stability.
func SortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleID < b.RuleID
	})
}

// Summarize computes per-severity counts over findings.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		case SeverityInfo:
			s.Info++
		}
		s.Total++
	}
	return s
}

// ErrNoTargets indicates no scannable file was found under the given
// paths. The CLI maps it to exit code 2.
var ErrNoTargets = errors.New("no scannable files found")

// ErrBadConfig marks configuration validation failures, also mapped to
// exit code 2.
var ErrBadConfig = errors.New("invalid configuration")
