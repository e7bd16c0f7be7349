package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanPaths resolves import arguments into files. A file argument is taken
// as is; a directory is walked for *.jsonl files. Results are sorted by path
// and deduplicated.
func ScanPaths(paths []string) ([]DiscoveredFile, error) {
	seen := make(map[string]struct{})
	var files []DiscoveredFile

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, DiscoveredFile{Path: path, Name: filepath.Base(path)})
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("import path %s: %w", p, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}

		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // intentionally skip unreadable entries
			}
			if d.IsDir() {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".jsonl") {
				return nil
			}
			add(filepath.Clean(path))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// CountRecords returns the total number of records across parse results.
func CountRecords(results []ParseResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Records)
	}
	return n
}
