package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrDocumentUnreadable", ErrDocumentUnreadable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrStoreUnavailable", ErrStoreUnavailable},
		{"ErrMetricsUnavailable", ErrMetricsUnavailable},
		{"ErrServiceTransient", ErrServiceTransient},
		{"ErrServicePermanent", ErrServicePermanent},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"transient sentinel", fmt.Errorf("call: %w", ErrServiceTransient), true},
		{"rate limited", ErrRateLimited, true},
		{"deadline", context.DeadlineExceeded, true},
		{"net timeout", timeoutErr{}, true},
		{"permanent wins", fmt.Errorf("%w: %w", ErrServicePermanent, context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestClassifyServiceError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, ClassifyServiceError("op", nil))
	})

	t.Run("status 429 is transient", func(t *testing.T) {
		err := ClassifyServiceError("generate", errors.New("error, status code: 429, message: slow down"))
		assert.ErrorIs(t, err, ErrServiceTransient)
		assert.ErrorIs(t, err, ErrRateLimited)
		assert.Contains(t, err.Error(), "generate")
	})

	t.Run("status 503 is transient", func(t *testing.T) {
		err := ClassifyServiceError("embed", errors.New("503 Service Unavailable"))
		assert.ErrorIs(t, err, ErrServiceTransient)
	})

	t.Run("auth failure is permanent", func(t *testing.T) {
		err := ClassifyServiceError("generate", errors.New("401 invalid api key"))
		assert.ErrorIs(t, err, ErrServicePermanent)
		assert.False(t, IsTransient(err))
	})

	t.Run("already classified is unchanged", func(t *testing.T) {
		in := fmt.Errorf("x: %w", ErrServicePermanent)
		assert.Equal(t, in, ClassifyServiceError("op", in))
	})

	t.Run("cancellation is not retried", func(t *testing.T) {
		err := ClassifyServiceError("op", context.Canceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, IsTransient(err))
	})
}
