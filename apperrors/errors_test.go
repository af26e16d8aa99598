package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := NewNotFound("customer", 7)

	assert.EqualError(t, err, "customer with ID 7 not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("loading: %w", err)))
	assert.False(t, IsNotFound(ErrDuplicateEmail))

	var nf *NotFoundError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &nf))
	assert.Equal(t, uint(7), nf.ID)
}
