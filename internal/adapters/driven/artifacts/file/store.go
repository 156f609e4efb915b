// Package file persists pipeline artifacts as files, one tree per stage.
//
// Layout, for a document "fluidos_12":
//
//	{extracted}/fluidos_12.json                         page records
//	{cleaned}/fluidos_12.json                           page records
//	{images}/fluidos_12/fluidos_12_pag3.jpg             page raster
//	{vision}/fluidos_12/fluidos_12_pag3_description.txt vision description
//	{unified}/fluidos_12/fluidos_12_pag3_resultado.json fused page
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

const (
	imageSuffix       = ".jpg"
	descriptionSuffix = "_description.txt"
	unifiedSuffix     = "_resultado.json"
)

// pageNumber captures N from "{id}_pagN" at the end of a file stem.
var pageNumber = regexp.MustCompile(`_pag(\d+)$`)

// Store is the filesystem ArtifactStore.
type Store struct {
	dirs domain.PathSettings
}

// NewStore creates a store over the resolved artifact directories.
func NewStore(dirs domain.PathSettings) *Store {
	return &Store{dirs: dirs}
}

// pageRecord is the on-disk form of one page of the extracted and cleaned trees.
type pageRecord struct {
	Page    int    `json:"page"`
	Text    string `json:"text"`
	RawText string `json:"raw_text,omitempty"`
	Method  string `json:"method,omitempty"`
	Error   string `json:"error,omitempty"`
}

// unifiedRecord is the on-disk form of a fused page.
type unifiedRecord struct {
	Page            int    `json:"page"`
	UnifiedAnalysis string `json:"unified_analysis"`
}

func (s *Store) pagesDir(stage driven.Stage) (string, error) {
	switch stage {
	case driven.StageExtracted:
		return s.dirs.Extracted, nil
	case driven.StageCleaned:
		return s.dirs.Cleaned, nil
	default:
		return "", fmt.Errorf("%w: stage %q holds no page records", domain.ErrInvalidInput, stage)
	}
}

// SavePages writes the page records of a document as one JSON array.
func (s *Store) SavePages(_ context.Context, stage driven.Stage, doc *domain.Document) error {
	dir, err := s.pagesDir(stage)
	if err != nil {
		return err
	}
	records := make([]pageRecord, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		rec := pageRecord{Page: p.Number, Text: p.RawText, Method: string(p.Method), Error: p.Error}
		if stage == driven.StageCleaned {
			rec.Text = p.SanitizedText
			rec.RawText = p.RawText
		}
		records = append(records, rec)
	}
	return writeJSON(filepath.Join(dir, doc.ID+".json"), records)
}

// LoadPages reads the page records of a document.
func (s *Store) LoadPages(_ context.Context, stage driven.Stage, documentID string) (*domain.Document, error) {
	dir, err := s.pagesDir(stage)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, documentID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s %s: %w", stage, documentID, domain.ErrNotFound)
		}
		return nil, err
	}
	var records []pageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	doc := &domain.Document{ID: documentID, Pages: make([]domain.Page, 0, len(records))}
	for _, rec := range records {
		page := domain.Page{
			DocumentID: documentID,
			Number:     rec.Page,
			RawText:    rec.Text,
			Method:     domain.ExtractionMethod(rec.Method),
			Error:      rec.Error,
		}
		if stage == driven.StageCleaned {
			page.SanitizedText = rec.Text
			page.RawText = rec.RawText
			page.Cleaned = true
		}
		doc.Pages = append(doc.Pages, page)
	}
	sort.SliceStable(doc.Pages, func(i, j int) bool { return doc.Pages[i].Number < doc.Pages[j].Number })
	return doc, nil
}

// Documents lists the document identifiers present in a stage's tree.
func (s *Store) Documents(_ context.Context, stage driven.Stage) ([]string, error) {
	var (
		root    string
		pageDir bool
	)
	switch stage {
	case driven.StageExtracted:
		root = s.dirs.Extracted
	case driven.StageCleaned:
		root = s.dirs.Cleaned
	case driven.StageImages:
		root, pageDir = s.dirs.Images, true
	case driven.StageVision:
		root, pageDir = s.dirs.Vision, true
	case driven.StageUnified:
		root, pageDir = s.dirs.Unified, true
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, stage)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		switch {
		case pageDir && e.IsDir():
			ids = append(ids, e.Name())
		case !pageDir && !e.IsDir() && strings.HasSuffix(e.Name(), ".json"):
			ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func pageFile(dir string, key domain.PageKey, suffix string) string {
	return filepath.Join(dir, key.DocumentID, fmt.Sprintf("%s_pag%d%s", key.DocumentID, key.Page, suffix))
}

// ImagePath returns the raster location of a page, creating its directory.
func (s *Store) ImagePath(key domain.PageKey) (string, error) {
	path := pageFile(s.dirs.Images, key, imageSuffix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}
	return path, nil
}

// Images lists the rasters of a document in page order.
func (s *Store) Images(_ context.Context, documentID string) ([]domain.PageImage, error) {
	keys, err := listPages(filepath.Join(s.dirs.Images, documentID), documentID, imageSuffix)
	if err != nil {
		return nil, err
	}
	images := make([]domain.PageImage, 0, len(keys))
	for _, k := range keys {
		images = append(images, domain.PageImage{Key: k, Path: pageFile(s.dirs.Images, k, imageSuffix)})
	}
	return images, nil
}

// SaveDescription writes the vision description of a page.
func (s *Store) SaveDescription(_ context.Context, key domain.PageKey, text string) error {
	return writeFile(pageFile(s.dirs.Vision, key, descriptionSuffix), []byte(text))
}

// LoadDescription reads the vision description of a page.
func (s *Store) LoadDescription(_ context.Context, key domain.PageKey) (string, error) {
	data, err := os.ReadFile(pageFile(s.dirs.Vision, key, descriptionSuffix))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("description %s: %w", key, domain.ErrNotFound)
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveUnified writes the fused document of a page.
func (s *Store) SaveUnified(_ context.Context, key domain.PageKey, text string) error {
	return writeJSON(pageFile(s.dirs.Unified, key, unifiedSuffix), unifiedRecord{Page: key.Page, UnifiedAnalysis: text})
}

// LoadUnits reads every fused page of a document. Unreadable files are
// skipped with a warning so one bad page does not block indexing.
func (s *Store) LoadUnits(_ context.Context, documentID string) ([]domain.Unit, error) {
	keys, err := listPages(filepath.Join(s.dirs.Unified, documentID), documentID, unifiedSuffix)
	if err != nil {
		return nil, err
	}
	units := make([]domain.Unit, 0, len(keys))
	for _, k := range keys {
		path := pageFile(s.dirs.Unified, k, unifiedSuffix)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		var rec unifiedRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		page := rec.Page
		if page == 0 {
			page = k.Page
		}
		units = append(units, domain.Unit{
			DocumentID: documentID,
			Page:       page,
			Text:       rec.UnifiedAnalysis,
			Source:     filepath.Base(path),
		})
	}
	return units, nil
}

// listPages returns the page keys of the files in dir named {id}_pagN{suffix}.
// A missing directory yields no keys.
func listPages(dir, documentID, suffix string) ([]domain.PageKey, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var keys []domain.PageKey
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) || !strings.HasPrefix(name, documentID+"_pag") {
			continue
		}
		m := pageNumber.FindStringSubmatch(strings.TrimSuffix(name, suffix))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		keys = append(keys, domain.PageKey{DocumentID: documentID, Page: n})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Page < keys[j].Page })
	return keys, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFile(path, data)
}

// writeFile replaces path atomically so readers never see partial output.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
