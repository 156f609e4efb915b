// Package tui provides an interactive terminal user interface for manualqa.
// It is a driving adapter over the answer and document ports.
package tui

import (
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI talks to.
type Ports struct {
	// Answer answers questions against a collection.
	Answer driving.AnswerService

	// Documents browses unified pages. Optional; the documents view
	// reports an error when it is missing.
	Documents driving.DocumentService
}

// NewPorts creates a new Ports aggregate.
func NewPorts(answer driving.AnswerService, documents driving.DocumentService) *Ports {
	return &Ports{
		Answer:    answer,
		Documents: documents,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
