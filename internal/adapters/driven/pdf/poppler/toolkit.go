// Package poppler reads and renders PDFs with the poppler command-line tools:
// pdfinfo for the page count, pdftotext for the text layer and pdftoppm for rasters.
package poppler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/process"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Toolkit implements the interface.
var _ driven.PDFToolkit = (*Toolkit)(nil)

// ErrPDFToolNotFound indicates the poppler utilities are not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler")

// Tool binaries.
const (
	pdfinfo   = "pdfinfo"
	pdftotext = "pdftotext"
	pdftoppm  = "pdftoppm"
)

// DefaultDPI is the raster resolution when none is configured.
const DefaultDPI = 150

// Toolkit implements PDFToolkit over the poppler binaries.
type Toolkit struct {
	runner driven.CommandRunner
	dpi    int
}

// New creates a toolkit that executes the real binaries.
func New(dpi int) *Toolkit {
	return NewWithRunner(process.NewExecRunner(), dpi)
}

// NewWithRunner creates a toolkit with a custom command runner.
func NewWithRunner(runner driven.CommandRunner, dpi int) *Toolkit {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Toolkit{runner: runner, dpi: dpi}
}

// PageCount returns the "Pages:" field reported by pdfinfo.
func (t *Toolkit) PageCount(ctx context.Context, path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	out, err := t.runner.Run(ctx, pdfinfo, path)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w", err)
	}
	return parsePageCount(out)
}

func parsePageCount(out []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		value, ok := strings.CutPrefix(line, "Pages:")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: bad page count %q", strings.TrimSpace(value))
		}
		return n, nil
	}
	return 0, errors.New("pdfinfo: no page count in output")
}

// ExtractText returns the text layer of one page, written to stdout by pdftotext.
func (t *Toolkit) ExtractText(ctx context.Context, path string, page int) (string, error) {
	p := strconv.Itoa(page)
	out, err := t.runner.Run(ctx, pdftotext, "-f", p, "-l", p, "-enc", "UTF-8", "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed on page %d: %w", page, err)
	}
	// pdftotext ends every page with a form feed.
	return strings.TrimRight(string(out), "\f"), nil
}

// RenderPage writes one page as a JPEG to outPath.
func (t *Toolkit) RenderPage(ctx context.Context, path string, page int, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	// With -singlefile pdftoppm appends the extension to the prefix itself.
	prefix := strings.TrimSuffix(outPath, filepath.Ext(outPath))
	p := strconv.Itoa(page)
	_, err := t.runner.Run(ctx, pdftoppm,
		"-jpeg", "-r", strconv.Itoa(t.dpi), "-f", p, "-l", p, "-singlefile", path, prefix)
	if err != nil {
		return fmt.Errorf("pdftoppm failed on page %d: %w", page, err)
	}
	if ext := filepath.Ext(outPath); ext != ".jpg" {
		return os.Rename(prefix+".jpg", outPath)
	}
	return nil
}

// CheckAvailable returns ErrPDFToolNotFound unless every poppler binary is on PATH.
func CheckAvailable() error {
	for _, bin := range []string{pdfinfo, pdftotext, pdftoppm} {
		if !process.Available(bin) {
			return fmt.Errorf("%w (%s missing)", ErrPDFToolNotFound, bin)
		}
	}
	return nil
}

// InstallInstructions returns platform hints for installing poppler.
func InstallInstructions() string {
	return `pdfinfo, pdftotext and pdftoppm are required for PDF support.

Install poppler:
  macOS:   brew install poppler
  Ubuntu:  apt install poppler-utils
  Fedora:  dnf install poppler-utils
  Windows: choco install poppler`
}
