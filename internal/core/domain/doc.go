// Package domain defines the core entities of the manual ingestion pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document and Page: a source PDF and its per-page extraction state
//   - Unit: a fused page loaded back for indexing
//   - Chunk: an embeddable unit written to a vector collection
//   - CollectionConfig and CollectionPlan: the collection fan-out
//   - RetrievalResult and EvaluationScores: the question answering output
//   - AppSettings: the explicit configuration object passed to constructors
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
