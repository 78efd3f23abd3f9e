package fire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := notFoundError("alert", 7)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "alert #7 not found", err.Error())

	wrapped := fmt.Errorf("decide: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestStorageErrorWrapsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := storageError("insert alert", cause)

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "insert alert: disk I/O error", err.Error())
	assert.Nil(t, storageError("noop", nil))
}

func TestStorageErrorKeepsExistingKind(t *testing.T) {
	err := storageError("decide", invalidTransitionError("alert #%d is closed", 3))
	assert.Equal(t, KindInvalidTransition, KindOf(err))
	assert.False(t, errors.Is(err, ErrStorage))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindStorage, KindOf(errors.New("boom")))
}
