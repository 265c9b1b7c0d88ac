package sync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"transport error", NewTransportError("http://feed/x.json", 503, nil), true},
		{"transport error wrapped", fmt.Errorf("fetch: %w", NewTransportError("http://feed/x.json", 0, errors.New("timeout"))), true},
		{"repository conflict", NewRepositoryConflict("variant", "A113-1-2-3", errors.New("duplicate key")), true},
		{"parse error", NewParseError("manifest", errors.New("bad line")), false},
		{"parse error wrapped", fmt.Errorf("document: %w", NewParseError("doc", errors.New("bad json"))), false},
		{"validation gap", NewValidationGap("variant sku", "no derivable SKU"), false},
		{"plain error", errors.New("something else"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	withStatus := NewTransportError("http://feed/m.txt", 502, nil)
	assert.Contains(t, withStatus.Error(), "502")
	assert.Contains(t, withStatus.Error(), "http://feed/m.txt")

	cause := errors.New("connection refused")
	withCause := NewTransportError("http://feed/m.txt", 0, cause)
	assert.Contains(t, withCause.Error(), "connection refused")
	assert.ErrorIs(t, withCause, cause)
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("root cause")

	var transport *TransportError
	err := fmt.Errorf("outer: %w", NewTransportError("u", 0, cause))
	assert.True(t, errors.As(err, &transport))
	assert.ErrorIs(t, err, cause)

	var conflict *RepositoryConflict
	err = fmt.Errorf("outer: %w", NewRepositoryConflict("category", "CAT-1", cause))
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, "category", conflict.EntityKind)
	assert.Equal(t, "CAT-1", conflict.Key)
}
