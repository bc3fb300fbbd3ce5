package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
	"github.com/deepserish-bk/db-security-scanner/internal/rules"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngineScanTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.go", "package a\n")
	inj := writeFile(t, dir, "svc/inj.go", injectionSrc("userID"))
	broken := writeFile(t, dir, "svc/broken.go", "package svc\n\nfunc {\n")
	writeFile(t, dir, "vendor/dep.go", injectionSrc("userID"))
	writeFile(t, dir, "notes.txt", "not go\n")

	eng := &Engine{Registry: rules.Default(), Workers: 2}
	res, err := eng.Scan(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 3, res.FilesScanned)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, inj, res.Findings[0].FilePath)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, broken, res.Errors[0].Path)
	assert.Equal(t, "parse", res.Errors[0].Stage)
}

func TestEngineScanExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.go", injectionSrc("userID"))

	eng := &Engine{Registry: rules.Default(), Workers: 1}
	res, err := eng.Scan(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, 1, res.FilesScanned)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, path, res.Findings[0].FilePath)
}

func TestEngineScanIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	inj := writeFile(t, dir, "svc/inj.go", injectionSrc("userID"))
	writeFile(t, dir, "testdata/fixture.go", injectionSrc("userID"))
	writeFile(t, dir, "svc/types_gen.go", injectionSrc("userID"))

	eng := &Engine{
		Registry: rules.Default(),
		Workers:  1,
		Ignore:   []string{"testdata", "*_gen.go"},
	}
	res, err := eng.Scan(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 1, res.FilesScanned)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, inj, res.Findings[0].FilePath)
}

func TestEngineScanMaxFileBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.go", injectionSrc("userID")+strings.Repeat("// padding\n", 50))

	eng := &Engine{Registry: rules.Default(), MaxFileBytes: 64}
	_, err := eng.Scan(context.Background(), []string{dir})
	assert.ErrorIs(t, err, model.ErrNoTargets)
}

func TestEngineScanNoTargets(t *testing.T) {
	eng := &Engine{Registry: rules.Default()}
	res, err := eng.Scan(context.Background(), []string{t.TempDir()})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, model.ErrNoTargets)
}

func TestEngineScanMissingPath(t *testing.T) {
	eng := &Engine{Registry: rules.Default()}
	_, err := eng.Scan(context.Background(), []string{filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat")
}
