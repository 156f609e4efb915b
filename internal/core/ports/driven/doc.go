// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - PDFToolkit: Page count, structural text and page rendering
//   - OCREngine: Character recognition on a rendered page
//   - ArtifactStore: Persistence of the intermediate page trees
//   - VectorStore: Named collections of embedded chunks
//   - EmbeddingProvider: Embedding services per model
//   - LLMService: Text generation
//   - ConfigStore and PromptStore: Configuration and prompt templates
//
// # Optional Interfaces
//
// These can be nil - the affected stage is skipped or degrades:
//
//   - VisionService: Page descriptions. Without it fusion has no input.
//   - MetadataSource: Side-table metadata. Without it chunks carry page fields only.
//   - EvaluationHarness: Answer scoring. Without it metrics are unavailable.
//   - Throttle: Vision scheduling policy. Without it calls are not spaced.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
