package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// defaultPattern matches every PDF below the corpus root.
const defaultPattern = "**/*.pdf"

// discoverDocuments returns the files under root matching the glob pattern, sorted.
func discoverDocuments(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = defaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: bad document pattern %q", domain.ErrInvalidInput, pattern)
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("corpus directory %s: %w", root, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("corpus directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: corpus path %s is not a directory", domain.ErrInvalidInput, root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly(), doublestar.WithCaseInsensitive())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(paths)
	return paths, nil
}

// matchesPattern reports whether a path below root matches the corpus pattern.
func matchesPattern(root, pattern, path string) bool {
	if pattern == "" {
		pattern = defaultPattern
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.PathMatch(filepath.FromSlash(pattern), rel)
	return err == nil && ok
}
