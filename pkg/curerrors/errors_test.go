package curerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeValidation, "value does not match field kind")

	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "value does not match field kind", err.Message)
	assert.NotEmpty(t, err.Stack)
	assert.Equal(t, "validation: value does not match field kind", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("file not found")
	err := Wrap(cause, ErrorTypeFile, "failed to read detections")

	assert.Equal(t, ErrorTypeFile, err.Type)
	assert.Equal(t, cause, err.Cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "file not found")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "should be nil"))
}

func TestWrapKeepsStructuredStack(t *testing.T) {
	inner := New(ErrorTypeUnknownField, "no such field")
	outer := Wrap(inner, ErrorTypeData, "ingest failed")

	require.NotEmpty(t, outer.Stack)
	assert.Equal(t, inner.Stack[0], outer.Stack[0])
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeDuplicateField, "field 'ground_truth' already exists")

	assert.True(t, IsType(err, ErrorTypeDuplicateField))
	assert.False(t, IsType(err, ErrorTypeUnknownField))

	// wrapped in a plain error chain
	wrapped := fmt.Errorf("adding field: %w", err)
	assert.True(t, IsType(wrapped, ErrorTypeDuplicateField))

	assert.False(t, IsType(errors.New("plain"), ErrorTypeDuplicateField))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeNotAPath, TypeOf(New(ErrorTypeNotAPath, "in-memory image")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeReservedName, "field name cannot start with '_'").
		WithDetail("field", "_private").
		WithDetail("sample", "abc123")

	assert.Equal(t, "_private", err.Details["field"])
	assert.Equal(t, "abc123", err.Details["sample"])
}
