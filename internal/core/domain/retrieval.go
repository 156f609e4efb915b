package domain

import "math"

// RetrievedChunk is a chunk returned by a similarity query.
type RetrievedChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalResult is the output of a retrieval-augmented answer.
// Documents are ordered by descending relevance.
type RetrievalResult struct {
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	Documents []RetrievedChunk `json:"retrieved_documents"`
}

// Contexts returns the texts of the retrieved chunks in rank order.
func (r *RetrievalResult) Contexts() []string {
	out := make([]string, 0, len(r.Documents))
	for i := range r.Documents {
		out = append(out, r.Documents[i].Chunk.Content)
	}
	return out
}

// VectorFilter restricts a similarity query.
type VectorFilter struct {
	// FileID matches the numeric document identifier when set.
	FileID *int
}

// IsEmpty reports whether the filter matches everything.
func (f VectorFilter) IsEmpty() bool {
	return f.FileID == nil
}

// EvaluationRecord is the input to the evaluation harness.
type EvaluationRecord struct {
	Question  string
	Answer    string
	Contexts  []string
	Reference string
}

// EvaluationScores holds the four answer-quality metrics, each in [0, 1].
type EvaluationScores struct {
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevancy  float64 `json:"answer_relevancy"`
	ContextPrecision float64 `json:"context_precision"`
	ContextRecall    float64 `json:"context_recall"`
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Matches reports whether chunk metadata satisfies the filter.
func (f VectorFilter) Matches(md Metadata) bool {
	if f.FileID == nil {
		return true
	}
	id, ok := md.Int(MetaFileID)
	return ok && id == *f.FileID
}
