package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrdering(t *testing.T) {
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), SeverityInfo.Rank())
	assert.Equal(t, -1, Severity("BANANA").Rank())

	assert.True(t, SeverityHigh.AtLeast(SeverityMedium))
	assert.True(t, SeverityMedium.AtLeast(SeverityMedium))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		raw  string
		want Severity
	}{
		{"high", SeverityHigh},
		{" HIGH ", SeverityHigh},
		{"Medium", SeverityMedium},
		{"low", SeverityLow},
		{"info", SeverityInfo},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := ParseSeverity("banana")
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("SQL")
	require.NoError(t, err)
	assert.Equal(t, CategorySQL, got)

	got, err = ParseCategory(" db_specific ")
	require.NoError(t, err)
	assert.Equal(t, CategoryDBSpecific, got)

	_, err = ParseCategory("nope")
	assert.Error(t, err)
}

func TestSortFindingsCanonicalOrder(t *testing.T) {
	findings := []Finding{
		{RuleID: "z.rule", FilePath: "b.go", Line: 1, Column: 1},
		{RuleID: "a.rule", FilePath: "b.go", Line: 1, Column: 1},
		{RuleID: "m.rule", FilePath: "a.go", Line: 9, Column: 2},
		{RuleID: "m.rule", FilePath: "a.go", Line: 2, Column: 8},
		{RuleID: "m.rule", FilePath: "a.go", Line: 2, Column: 3},
	}
	SortFindings(findings)

	want := []Finding{
		{RuleID: "m.rule", FilePath: "a.go", Line: 2, Column: 3},
		{RuleID: "m.rule", FilePath: "a.go", Line: 2, Column: 8},
		{RuleID: "m.rule", FilePath: "a.go", Line: 9, Column: 2},
		{RuleID: "a.rule", FilePath: "b.go", Line: 1, Column: 1},
		{RuleID: "z.rule", FilePath: "b.go", Line: 1, Column: 1},
	}
	assert.Equal(t, want, findings)
}

func TestSummarizeAndCounts(t *testing.T) {
	findings := []Finding{
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
		{Severity: SeverityMedium},
		{Severity: SeverityLow},
		{Severity: SeverityInfo},
	}
	s := Summarize(findings)

	assert.Equal(t, Summary{High: 1, Medium: 2, Low: 1, Info: 1, Total: 5}, s)
	assert.Equal(t, 2, s.Count(SeverityMedium))
	assert.Equal(t, 1, s.CountAtLeast(SeverityHigh))
	assert.Equal(t, 3, s.CountAtLeast(SeverityMedium))
	assert.Equal(t, 5, s.CountAtLeast(SeverityInfo))
}

func TestFileErrorString(t *testing.T) {
	e := FileError{Path: "a.go", Stage: "parse", Err: "unexpected {"}
	assert.Equal(t, "a.go: parse: unexpected {", e.Error())
}

func TestSourceUnitParsed(t *testing.T) {
	var nilUnit *SourceUnit
	assert.False(t, nilUnit.Parsed())
	assert.False(t, (&SourceUnit{}).Parsed())
}
