package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("age", "value outside plausible range [18, 120]", 150.0)
	assert.Contains(t, err.Error(), "age")
	assert.True(t, IsValidationError(err))
	assert.False(t, IsComputationError(err))

	wrapped := fmt.Errorf("assessing patient: %w", err)
	assert.True(t, IsValidationError(wrapped), "detection must survive wrapping")

	var ve *ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "age", ve.Field)
}

func TestComputationError(t *testing.T) {
	err := NewComputationError("normalize", "non-finite raw value", 0)
	assert.Contains(t, err.Error(), "normalize")
	assert.True(t, IsComputationError(err))
	assert.False(t, IsValidationError(err))

	wrapped := fmt.Errorf("model cvd-na: %w", err)
	assert.True(t, IsComputationError(wrapped))
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("cvd-eu", "missing coefficient for feature \"age\"")
	assert.Contains(t, err.Error(), "cvd-eu")
	assert.False(t, IsValidationError(err))
	assert.False(t, IsComputationError(err))
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(ErrValidation, "invalid patient record", "age out of range", "req-123")
	assert.Equal(t, "VALIDATION_ERROR: invalid patient record", err.Error())
	assert.Equal(t, "req-123", err.RequestID)
	assert.False(t, err.Timestamp.IsZero())
}
