package domain

// Chunk is a unit of text submitted for embedding and indexing.
// It always traces back to exactly one document and at least one page.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Pages lists the page numbers the chunk was cut from.
	Pages []int

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within its unit.
	Position int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata holds document-level fields merged with page/source fields.
	Metadata Metadata
}

// FirstPage returns the first page the chunk belongs to, or 0.
func (c *Chunk) FirstPage() int {
	if len(c.Pages) == 0 {
		return 0
	}
	return c.Pages[0]
}
