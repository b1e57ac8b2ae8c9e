package shared

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorClassification(t *testing.T) {
	err := NewValidationError("order", "paymentMethod", "unsupported payment method: cash")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "unsupported payment method: cash", err.Error())

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "order", de.Entity())
	assert.Equal(t, "paymentMethod", de.Field())

	assert.Equal(t, "product not found: p1", NewNotFoundError("product", "p1").Error())
	assert.Equal(t, "product not found", NewNotFoundError("product", "").Error())
}

func TestDomainErrorStackStartsAtCaller(t *testing.T) {
	err := NewConflictError("user", "email already registered")

	var stacker Stacker
	require.True(t, errors.As(err, &stacker))
	stack := stacker.Stack()
	require.NotEmpty(t, stack)
	assert.True(t, strings.HasSuffix(stack[0], "TestDomainErrorStackStartsAtCaller"), stack[0])
	assert.LessOrEqual(t, len(stack), 10)
}
