package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/parser"
	"go/token"
	"os"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// Load reads path, hashes its bytes and parses it as Go source. A read
// failure returns an error; a parse failure returns a unit with ParseErr
// set so the batch can record it without losing the content hash.
func Load(path string) (*model.SourceUnit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(path, content), nil
}

// FromBytes builds a unit from in-memory content. Used by Load and by
// tests that construct units without touching the filesystem.
func FromBytes(path string, content []byte) *model.SourceUnit {
	sum := sha256.Sum256(content)
	unit := &model.SourceUnit{
		Path:        path,
		Content:     content,
		ContentHash: hex.EncodeToString(sum[:]),
		FileSet:     token.NewFileSet(),
	}
	file, err := parser.ParseFile(unit.FileSet, path, content, parser.SkipObjectResolution)
	if err != nil {
		unit.ParseErr = err
		return unit
	}
	unit.File = file
	return unit
}
