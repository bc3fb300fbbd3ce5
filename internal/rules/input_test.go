package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

func TestDynamicExec(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		want     int
		severity model.Severity
		substr   string
	}{
		{
			name: "dynamic argument without validation",
			src: `package main

import "os/exec"

func run(userCmd string) {
	exec.Command("sh", "-c", userCmd)
}
`,
			want:     1,
			severity: model.SeverityHigh,
			substr:   "without prior input validation",
		},
		{
			name: "static arguments reported at info",
			src: `package main

import "os/exec"

func dump() {
	exec.Command("pg_dump", "--schema-only")
}
`,
			want:     1,
			severity: model.SeverityInfo,
			substr:   "static arguments",
		},
		{
			name: "validated before execution",
			src: `package main

import "os/exec"

func run(userCmd string) {
	cleaned := sanitizeShellArg(userCmd)
	exec.Command("sh", "-c", cleaned)
}
`,
			want: 0,
		},
		{
			name: "validation after execution does not count",
			src: `package main

import "os/exec"

func run(userCmd string) {
	exec.Command("sh", "-c", userCmd)
	sanitizeShellArg(userCmd)
}
`,
			want:     1,
			severity: model.SeverityHigh,
			substr:   "without prior input validation",
		},
		{
			name: "syscall exec",
			src: `package main

import "syscall"

func replace(bin string, argv, env []string) {
	syscall.Exec(bin, argv, env)
}
`,
			want:     1,
			severity: model.SeverityHigh,
			substr:   "syscall.Exec",
		},
		{
			name: "unrelated call ignored",
			src: `package main

func run(userCmd string) {
	launch(userCmd)
}
`,
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := byRule(analyzeSrc(t, Default(), tt.src), "input.dynamic-exec")
			require.Len(t, findings, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.severity, findings[0].Severity)
				assert.Contains(t, findings[0].Message, tt.substr)
			}
		})
	}
}
