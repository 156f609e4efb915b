// Package csv loads the per-document metadata side-table from a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.MetadataSource = (*Source)(nil)

// DefaultIDColumn holds the numeric document identifier.
const DefaultIDColumn = "arquivo_id"

// Source reads a CSV whose rows are keyed by an integer column.
type Source struct {
	path     string
	idColumn string
}

// NewSource creates a source for the file at path.
func NewSource(path, idColumn string) *Source {
	if idColumn == "" {
		idColumn = DefaultIDColumn
	}
	return &Source{path: path, idColumn: idColumn}
}

// Load returns the rows keyed by identifier. Each row holds every other
// column with its value typed as int, float, bool or string; empty cells are
// omitted. A missing file is domain.ErrNotFound.
func (s *Source) Load(_ context.Context) (map[int]map[string]any, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("metadata table %s: %w", s.path, domain.ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()
	return parse(f, s.idColumn)
}

func parse(r io.Reader, idColumn string) (map[int]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return map[int]map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	// Spreadsheet exports often start with a byte order mark.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	idIdx := -1
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
		if header[i] == idColumn {
			idIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("%w: column %q not in header", domain.ErrInvalidInput, idColumn)
	}

	table := make(map[int]map[string]any)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		if idIdx >= len(record) {
			logger.Warn("Metadata line %d has no %s, skipping", line, idColumn)
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(record[idIdx]))
		if err != nil {
			logger.Warn("Metadata line %d: %s %q is not an integer, skipping", line, idColumn, record[idIdx])
			continue
		}

		row := make(map[string]any, len(header)-1)
		for i, col := range header {
			if i == idIdx || i >= len(record) || col == "" {
				continue
			}
			if v, ok := typed(record[i]); ok {
				row[col] = v
			}
		}
		table[id] = row
	}
	return table, nil
}

// typed converts a cell to int, float64, bool or string.
func typed(cell string) (any, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, false
	}
	if n, err := strconv.Atoi(cell); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f, true
	}
	switch strings.ToLower(cell) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return cell, true
}
