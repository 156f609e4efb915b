package mcp

import (
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Answer runs retrieval-augmented question answering.
	Answer driving.AnswerService

	// Collections lists the vector collections. Optional.
	Collections driving.CollectionService

	// Documents exposes fused pages. Optional.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
