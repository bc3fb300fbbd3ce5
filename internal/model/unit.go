package model

import (
	"go/ast"
	"go/token"
)

// SourceUnit is one file's loaded content plus its parsed syntax tree,
// the unit of parallel work. Cache identity is ContentHash, never Path,
// so two files with identical bytes share one cache entry.
type SourceUnit struct {
	Path        string
	Content     []byte
	ContentHash string
	FileSet     *token.FileSet
	File        *ast.File
	ParseErr    error
}

// Parsed reports whether the unit carries a usable syntax tree.
func (u *SourceUnit) Parsed() bool {
	return u != nil && u.File != nil && u.ParseErr == nil
}
