// Package tesseract recognises page text with the tesseract CLI.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/process"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

const binary = "tesseract"

// DefaultLanguage is the language pack used when none is configured.
const DefaultLanguage = "por"

// ErrTesseractNotFound indicates tesseract is not installed.
var ErrTesseractNotFound = errors.New("tesseract not found")

// Engine implements OCREngine.
type Engine struct {
	runner   driven.CommandRunner
	language string
}

// New creates an engine that executes the real binary.
func New(language string) *Engine {
	return NewWithRunner(process.NewExecRunner(), language)
}

// NewWithRunner creates an engine with a custom command runner.
func NewWithRunner(runner driven.CommandRunner, language string) *Engine {
	if language == "" {
		language = DefaultLanguage
	}
	return &Engine{runner: runner, language: language}
}

// Language returns the configured language pack.
func (e *Engine) Language() string {
	return e.language
}

// Recognise runs tesseract on the image and returns its stdout.
func (e *Engine) Recognise(ctx context.Context, imagePath string) (string, error) {
	out, err := e.runner.Run(ctx, binary, imagePath, "stdout", "-l", e.language)
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return strings.TrimSpace(strings.ReplaceAll(string(out), "\f", "")), nil
}

// CheckAvailable returns ErrTesseractNotFound unless tesseract is on PATH.
func CheckAvailable() error {
	if !process.Available(binary) {
		return ErrTesseractNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing tesseract.
func InstallInstructions() string {
	return `tesseract is required for scanned pages.

Install tesseract with the Portuguese language pack:
  macOS:   brew install tesseract tesseract-lang
  Ubuntu:  apt install tesseract-ocr tesseract-ocr-por
  Fedora:  dnf install tesseract tesseract-langpack-por`
}
