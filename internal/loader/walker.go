package loader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Directories never worth descending into.
var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
}

// CollectTargets expands paths into the sorted list of Go files to scan.
// Explicit file arguments are accepted as-is; directories are walked
// recursively. Files matching an ignore pattern or larger than maxBytes
// are skipped. A path that does not exist is an error.
func CollectTargets(paths []string, ignore []string, maxBytes int64) ([]string, error) {
	seen := make(map[string]bool)
	var targets []string

	add := func(p string, size int64) {
		if seen[p] {
			return
		}
		if maxBytes > 0 && size > maxBytes {
			slog.Debug("skipping oversized file", "path", p, "bytes", size)
			return
		}
		if ignored(p, ignore) {
			return
		}
		seen[p] = true
		targets = append(targets, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if strings.HasSuffix(p, ".go") {
				add(filepath.Clean(p), info.Size())
			}
			continue
		}
		err = filepath.WalkDir(p, func(fp string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if skipDirs[name] || (strings.HasPrefix(name, "_") && fp != p) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(fp, ".go") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			add(fp, info.Size())
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}

	sort.Strings(targets)
	return targets, nil
}

// ignored matches p against the configured ignore globs. Patterns are
// tried against the full slash path and the base name; a pattern without
// glob metacharacters also matches as a path segment, so "testdata"
// ignores any file under a testdata directory.
func ignored(p string, patterns []string) bool {
	sp := filepath.ToSlash(p)
	base := path.Base(sp)
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		if ok, _ := path.Match(pat, sp); ok {
			return true
		}
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
		if !strings.ContainsAny(pat, "*?[") {
			for _, seg := range strings.Split(sp, "/") {
				if seg == pat {
					return true
				}
			}
		}
	}
	return false
}
