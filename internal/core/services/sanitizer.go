package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Sanitizer implements the interface.
var _ driving.CleaningService = (*Sanitizer)(nil)

// DefaultBoilerplatePatterns are the licence and copyright notices printed
// on every page of the manual corpus.
var DefaultBoilerplatePatterns = []string{
	`e o contrato de licença de uso.*?Doutor-IE Online`,
	`Esta página é parte integrante da Enciclopédia Automotiva.*?Doutor-IE Online`,
	`Reprodução, distribuição, compartilhamento e comercialização são proibidas.*?Lei dos Direitos Autorais.*?`,
	`Denuncie a cópia fraudulenta pelo fone.*?direitos reservados\.`,
	`\(lei 9610/1998\)`,
	`\ne o contrato de licença de uso.`,
	`\nEsta página é parte integrante da Plataforma Doutor-IE.`,
}

// Sanitizer strips boilerplate from extracted text.
type Sanitizer struct {
	patterns  []*regexp.Regexp
	artifacts driven.ArtifactStore
}

// NewSanitizer compiles the patterns case-insensitive, multi-line and
// dot-matches-newline. Empty patterns select the defaults.
func NewSanitizer(patterns []string, artifacts driven.ArtifactStore) (*Sanitizer, error) {
	if len(patterns) == 0 {
		patterns = DefaultBoilerplatePatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?ims)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w: boilerplate pattern %q: %w", domain.ErrInvalidInput, p, err)
		}
		compiled = append(compiled, re)
	}
	return &Sanitizer{patterns: compiled, artifacts: artifacts}, nil
}

// Clean applies every pattern in order to the progressively cleaned text
// and trims the result. On a panic the input is returned unchanged.
func (s *Sanitizer) Clean(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Cleaning text: %v", r)
			out = text
		}
	}()
	cleaned := text
	for _, re := range s.patterns {
		cleaned = re.ReplaceAllLiteralString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}

// CleanDocument cleans the extracted pages of a document and persists them.
func (s *Sanitizer) CleanDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.artifacts.LoadPages(ctx, driven.StageExtracted, documentID)
	if err != nil {
		return nil, fmt.Errorf("load extracted %s: %w", documentID, err)
	}
	for i := range doc.Pages {
		doc.Pages[i].SanitizedText = s.Clean(doc.Pages[i].RawText)
		doc.Pages[i].Cleaned = true
	}
	if err := s.artifacts.SavePages(ctx, driven.StageCleaned, doc); err != nil {
		return nil, fmt.Errorf("save cleaned %s: %w", documentID, err)
	}
	logger.Info("Cleaned %s: %d pages", documentID, doc.PageCount())
	return doc, nil
}

// CleanAll cleans every extracted document.
func (s *Sanitizer) CleanAll(ctx context.Context) (*domain.StageReport, error) {
	ids, err := s.artifacts.Documents(ctx, driven.StageExtracted)
	if err != nil {
		return nil, fmt.Errorf("list extracted documents: %w", err)
	}
	report := domain.NewStageReport(domain.StageClean)
	if len(ids) == 0 {
		logger.Warn("No extracted documents to clean")
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doc, err := s.CleanDocument(ctx, id)
		if err != nil {
			logger.Error("Clean %s: %v", id, err)
			report.Fail(id, err)
			continue
		}
		report.Documents++
		report.Pages += doc.PageCount()
	}
	return report, nil
}
