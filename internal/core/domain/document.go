package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ExtractionMethod records how a page's raw text was obtained.
type ExtractionMethod string

// Available extraction methods.
const (
	// ExtractionStructural reads text objects embedded in the PDF.
	ExtractionStructural ExtractionMethod = "structural"

	// ExtractionOptical renders the page and runs character recognition.
	ExtractionOptical ExtractionMethod = "optical"
)

// IsValid returns true if the method is recognised.
func (m ExtractionMethod) IsValid() bool {
	return m == ExtractionStructural || m == ExtractionOptical
}

// Document is a source PDF and its pages.
// It is immutable once ingested.
type Document struct {
	// ID is derived from the source filename without extension (e.g. "fluidos_12").
	ID string

	// Path is the location of the source file.
	Path string

	// Pages are ordered by Number, starting at 1.
	Pages []Page
}

// PageCount returns the number of page slots.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Failed returns the pages that carry an error marker.
func (d *Document) Failed() []Page {
	var failed []Page
	for i := range d.Pages {
		if d.Pages[i].Error != "" {
			failed = append(failed, d.Pages[i])
		}
	}
	return failed
}

// Page is one page of a document as it moves through the pipeline.
// A page whose extraction failed keeps its slot with empty text and Error set.
type Page struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Number is 1-based and unique within the document.
	Number int

	// RawText is the output of structural or optical extraction.
	RawText string

	// Method records which extraction path produced RawText.
	Method ExtractionMethod

	// SanitizedText is RawText with boilerplate removed.
	SanitizedText string

	// Cleaned is set once the sanitizer has run; SanitizedText may then be
	// empty because the whole page was boilerplate.
	Cleaned bool

	// VisionDescription is the image-understanding output, when available.
	VisionDescription string

	// UnifiedText is the fused document, when available.
	UnifiedText string

	// Error describes a per-page failure.
	Error string
}

// Key returns the join key for this page.
func (p Page) Key() PageKey {
	return PageKey{DocumentID: p.DocumentID, Page: p.Number}
}

// Text returns the sanitized text of a cleaned page and the raw text otherwise.
func (p Page) Text() string {
	if p.Cleaned || p.SanitizedText != "" {
		return p.SanitizedText
	}
	return p.RawText
}

// PageKey identifies a page across independently produced artifact trees.
type PageKey struct {
	DocumentID string
	Page       int
}

// String returns "docID#page" for logging.
func (k PageKey) String() string {
	return fmt.Sprintf("%s#%d", k.DocumentID, k.Page)
}

// PageImage is a rendered page on disk.
type PageImage struct {
	Key  PageKey
	Path string
}

// DocumentIDFromPath derives a document identifier from a source filename.
func DocumentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileID parses the numeric document identifier from the second
// underscore-separated segment of an identifier or artifact filename.
// "fluidos_12" and "fluidos_12_pag3_resultado.json" both yield 12.
func FileID(name string) (int, error) {
	parts := strings.Split(filepath.Base(name), "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: no numeric identifier in %q", ErrInvalidInput, name)
	}
	segment := strings.TrimSuffix(parts[1], filepath.Ext(parts[1]))
	id, err := strconv.Atoi(segment)
	if err != nil {
		return 0, fmt.Errorf("%w: identifier %q in %q is not an integer", ErrInvalidInput, segment, name)
	}
	return id, nil
}

// Unit is a fused page loaded back for indexing.
type Unit struct {
	DocumentID string
	Page       int
	Text       string

	// Source is the artifact filename the unit was read from.
	Source string

	Metadata Metadata
}
