package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := NotFound("post", "missing")
	wrapped := fmt.Errorf("loading: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
	assert.Equal(t, CodeNotFound, Code(wrapped))
	assert.Equal(t, `post "missing" not found`, err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeStorageUnavailable, "write posts", cause)

	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "write posts: disk full", err.Error())
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, Code(errors.New("boom")))
	assert.Equal(t, "internal error", CodeInternal.String())
}
