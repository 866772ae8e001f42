// Package manifest builds the package list that drives archiving.
//
// A manifest is the byte-wise sorted set of fragment paths under a
// fragment root, relative to that root and always '/'-separated, so the
// same tree yields the same manifest on every host. It is written one
// path per line, LF-terminated, with no header.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/justapithecus/icupack/iox"
)

// Build walks fragmentRoot and returns the sorted relative paths of every
// regular file outside the excluded subtrees.
//
// Exclusions are matched against the relative directory of each file on
// path-component boundaries: "build" excludes build/ and build/x/ but not
// buildx/. A nonexistent fragmentRoot yields an empty manifest.
func Build(fragmentRoot string, exclude []string) ([]string, error) {
	excluded := normalizeExcludes(exclude)

	entries := []string{}
	err := filepath.WalkDir(fragmentRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == fragmentRoot && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}

		rel, err := filepath.Rel(fragmentRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if isExcluded(rel, excluded) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if dir := pathDir(rel); dir != "" && isExcluded(dir, excluded) {
			return nil
		}
		entries = append(entries, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", fragmentRoot, err)
	}

	sort.Strings(entries)
	return entries, nil
}

// Write writes entries to path, one per line, replacing any existing file.
func Write(path string, entries []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close manifest: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := w.WriteString(e); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// BuildFile builds the manifest for fragmentRoot and writes it to path.
func BuildFile(fragmentRoot string, exclude []string, path string) ([]string, error) {
	entries, err := Build(fragmentRoot, exclude)
	if err != nil {
		return nil, err
	}
	if err := Write(path, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Read parses a manifest file. Blank lines are ignored.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(f)

	entries := []string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			entries = append(entries, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}

func normalizeExcludes(exclude []string) []string {
	out := make([]string, 0, len(exclude))
	for _, e := range exclude {
		e = strings.Trim(filepath.ToSlash(filepath.Clean(e)), "/")
		if e != "" && e != "." {
			out = append(out, e)
		}
	}
	return out
}

func isExcluded(relDir string, excluded []string) bool {
	for _, ex := range excluded {
		if relDir == ex || strings.HasPrefix(relDir, ex+"/") {
			return true
		}
	}
	return false
}

// pathDir returns the slash-separated directory of rel, or "" at the root.
func pathDir(rel string) string {
	i := strings.LastIndexByte(rel, '/')
	if i < 0 {
		return ""
	}
	return rel[:i]
}
