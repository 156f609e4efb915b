package ask

import "errors"

// Error definitions for the ask view.
var (
	// ErrNoAnswerService indicates that no answer service was provided.
	ErrNoAnswerService = errors.New("answer service is required")

	// ErrInvalidDocumentID indicates a non-numeric document filter.
	ErrInvalidDocumentID = errors.New("document id must be a number")
)
