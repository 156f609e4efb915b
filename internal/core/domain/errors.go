package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Input errors are rejected before any work starts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDocumentUnreadable indicates a source document could not be opened at all.
	// This is fatal for that document only.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrLLMUnavailable indicates the generative service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the vector store could not be reached.
	// A collection build aborts when this happens at creation time.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrMetricsUnavailable indicates evaluation could not produce scores.
	ErrMetricsUnavailable = errors.New("metrics unavailable")

	// External service errors.

	// ErrServiceTransient marks a retryable failure: rate limit, timeout, network.
	ErrServiceTransient = errors.New("transient service error")

	// ErrServicePermanent marks a non-retryable failure: bad credentials, malformed request.
	ErrServicePermanent = errors.New("permanent service error")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServicePermanent) {
		return false
	}
	if errors.Is(err, ErrServiceTransient) || errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

var rateLimitMarkers = []string{"429", "rate limit", "too many requests"}

// transientMarkers are substrings that identify retryable provider errors
// when the client library only exposes a formatted message.
var transientMarkers = []string{
	"429", "rate limit", "too many requests",
	"500", "502", "503", "504", "bad gateway", "service unavailable",
	"timeout", "deadline exceeded", "connection reset", "connection refused", "eof",
}

// ClassifyServiceError wraps err with ErrServiceTransient or ErrServicePermanent.
// Errors that are already classified are returned unchanged.
func ClassifyServiceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrServiceTransient) || errors.Is(err, ErrServicePermanent) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if IsTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrServiceTransient, err)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%s: %w: %w: %w", op, ErrServiceTransient, ErrRateLimited, err)
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%s: %w: %w", op, ErrServiceTransient, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrServicePermanent, err)
}
