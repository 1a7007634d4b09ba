package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("like post: %w", Duplicate("Already liked"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, Conflict, KindOf(err))
	assert.Equal(t, "like post: Already liked", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, "internal", KindOf(nil).String())
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Unreachable("rate limit exceeded")))
	assert.False(t, Retryable(Unauthorized("invalid")))
}
