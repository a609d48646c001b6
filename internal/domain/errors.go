package domain

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a standardized error response from the host surface.
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrConfiguration  = "CONFIGURATION_ERROR"
	ErrComputation    = "COMPUTATION_ERROR"
	ErrDatabaseError  = "DATABASE_ERROR"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
	ErrValidation     = "VALIDATION_ERROR"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError identifies a patient record field that failed the
// boundary policy. Recoverable at the call site; the offending field is
// always named so intake collaborators can surface it.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ConfigurationError signals that model parameters or cohort thresholds
// failed to load or are internally inconsistent. Fatal at startup: the
// engine must not begin serving with a broken configuration.
type ConfigurationError struct {
	Component string `json:"component"`
	Message   string `json:"message"`
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(component, message string) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: message}
}

// ComputationError signals an internal numeric fault (NaN/Infinity) that
// should never occur once inputs are validated. Treated as an engine
// defect: logged and escalated, never silently masked, and distinguishable
// from bad-input failures by callers.
type ComputationError struct {
	Stage   string  `json:"stage"`
	Message string  `json:"message"`
	Value   float64 `json:"value"`
}

// Error implements the error interface
func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation error in %s: %s (value=%v)", e.Stage, e.Message, e.Value)
}

// NewComputationError creates a new ComputationError
func NewComputationError(stage, message string, value float64) *ComputationError {
	return &ComputationError{Stage: stage, Message: message, Value: value}
}

// IsValidationError reports whether err is a field-level rejection.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsComputationError reports whether err is an internal numeric defect.
func IsComputationError(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}
