package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore keeps page records and texts in memory.
// Page images are real files under imageDir so adapters can read them.
type ArtifactStore struct {
	mu           sync.RWMutex
	imageDir     string
	pages        map[driven.Stage]map[string]domain.Document
	images       map[domain.PageKey]string
	descriptions map[domain.PageKey]string
	unified      map[domain.PageKey]string
}

// NewArtifactStore creates an artifact store writing images under imageDir.
func NewArtifactStore(imageDir string) *ArtifactStore {
	return &ArtifactStore{
		imageDir:     imageDir,
		pages:        make(map[driven.Stage]map[string]domain.Document),
		images:       make(map[domain.PageKey]string),
		descriptions: make(map[domain.PageKey]string),
		unified:      make(map[domain.PageKey]string),
	}
}

// SavePages stores a copy of the document's pages.
func (s *ArtifactStore) SavePages(_ context.Context, stage driven.Stage, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages[stage] == nil {
		s.pages[stage] = make(map[string]domain.Document)
	}
	cp := *doc
	cp.Pages = append([]domain.Page(nil), doc.Pages...)
	s.pages[stage][doc.ID] = cp
	return nil
}

// LoadPages returns a copy of the stored document.
func (s *ArtifactStore) LoadPages(_ context.Context, stage driven.Stage, documentID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.pages[stage][documentID]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", stage, documentID, domain.ErrNotFound)
	}
	doc.Pages = append([]domain.Page(nil), doc.Pages...)
	return &doc, nil
}

// Documents lists document identifiers present in a stage.
func (s *ArtifactStore) Documents(_ context.Context, stage driven.Stage) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]bool)
	switch stage {
	case driven.StageExtracted, driven.StageCleaned:
		for id := range s.pages[stage] {
			set[id] = true
		}
	case driven.StageImages:
		for k := range s.images {
			set[k.DocumentID] = true
		}
	case driven.StageVision:
		for k := range s.descriptions {
			set[k.DocumentID] = true
		}
	case driven.StageUnified:
		for k := range s.unified {
			set[k.DocumentID] = true
		}
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, stage)
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ImagePath returns the image location for a page and remembers it.
func (s *ArtifactStore) ImagePath(key domain.PageKey) (string, error) {
	dir := filepath.Join(s.imageDir, key.DocumentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_pag%d.jpg", key.DocumentID, key.Page))
	s.mu.Lock()
	s.images[key] = path
	s.mu.Unlock()
	return path, nil
}

// Images returns the page images of a document that exist on disk.
func (s *ArtifactStore) Images(_ context.Context, documentID string) ([]domain.PageImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PageImage
	for k, path := range s.images {
		if k.DocumentID != documentID {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		out = append(out, domain.PageImage{Key: k, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Page < out[j].Key.Page })
	return out, nil
}

// SaveDescription stores a page description.
func (s *ArtifactStore) SaveDescription(_ context.Context, key domain.PageKey, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptions[key] = text
	return nil
}

// LoadDescription returns a page description.
func (s *ArtifactStore) LoadDescription(_ context.Context, key domain.PageKey) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.descriptions[key]
	if !ok {
		return "", fmt.Errorf("description %s: %w", key, domain.ErrNotFound)
	}
	return text, nil
}

// SaveUnified stores a fused page.
func (s *ArtifactStore) SaveUnified(_ context.Context, key domain.PageKey, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unified[key] = text
	return nil
}

// LoadUnits returns the fused pages of a document in page order.
func (s *ArtifactStore) LoadUnits(_ context.Context, documentID string) ([]domain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var units []domain.Unit
	for k, text := range s.unified {
		if k.DocumentID != documentID {
			continue
		}
		units = append(units, domain.Unit{
			DocumentID: documentID,
			Page:       k.Page,
			Text:       text,
			Source:     fmt.Sprintf("%s_pag%d_resultado.json", documentID, k.Page),
		})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Page < units[j].Page })
	return units, nil
}
