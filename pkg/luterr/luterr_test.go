package luterr

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Class
	}{
		{"validation", Validation("bad input", nil), ClassValidation},
		{"not found", NotFound("missing", nil), ClassNotFound},
		{"transient", Transient("timeout", nil), ClassTransient},
		{"conflict", Conflict("claim held", nil), ClassConflict},
		{"fatal", Fatal("corrupt", nil), ClassFatal},
		{"unclassified defaults to fatal", errors.New("boom"), ClassFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassOf(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Transient("x", nil)))
	assert.True(t, Retryable(Conflict("x", nil)))
	assert.False(t, Retryable(Validation("x", nil)))
	assert.False(t, Retryable(NotFound("x", nil)))
	assert.False(t, Retryable(Fatal("x", nil)))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Transient("redis unavailable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "transient")
	assert.Contains(t, err.Error(), "redis unavailable")
}

func TestBackoffDuration(t *testing.T) {
	b := Backoff{Initial: time.Second, Max: 10 * time.Second, Factor: 2}
	assert.Equal(t, time.Second, b.Duration(0))
	assert.Equal(t, 2*time.Second, b.Duration(1))
	assert.Equal(t, 4*time.Second, b.Duration(2))
	assert.Equal(t, 8*time.Second, b.Duration(3))
	assert.Equal(t, 10*time.Second, b.Duration(4))
	assert.Equal(t, 10*time.Second, b.Duration(10))
}

func TestDefaultBackoffCeiling(t *testing.T) {
	b := DefaultBackoff()
	assert.Equal(t, 30*time.Second, b.Max)
}
