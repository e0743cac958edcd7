package apperr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsWrapSentinels(t *testing.T) {
	assert.ErrorIs(t, NoReviewFound(42), ErrNoReviewFound)
	assert.ErrorIs(t, NoReviewCommentFound(7), ErrNoReviewCommentFound)
	assert.ErrorIs(t, InvalidArgument("page=%d", -1), ErrInvalidArgument)
	assert.Contains(t, InvalidArgument("page=%d", -1).Error(), "page=-1")
}

func TestStorageFaultKeepsCause(t *testing.T) {
	err := StorageFault("find comment", context.DeadlineExceeded)

	assert.True(t, errors.Is(err, ErrStorageFault))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrNoReviewFound))
}
