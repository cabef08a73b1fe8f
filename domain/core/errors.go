package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound              = errors.New("resource not found")
	ErrStudyNotFound         = fmt.Errorf("%w: study", ErrNotFound)
	ErrEntityNotFound        = fmt.Errorf("%w: entity", ErrNotFound)
	ErrVariableNotFound      = fmt.Errorf("%w: variable", ErrNotFound)
	ErrAnalysisNotFound      = fmt.Errorf("%w: analysis", ErrNotFound)
	ErrVisualizationNotFound = fmt.Errorf("%w: visualization", ErrNotFound)

	// Validation errors
	ErrInvalidFilter           = errors.New("invalid filter")
	ErrInvalidConfig           = errors.New("invalid visualization config")
	ErrUnsupportedVariable     = errors.New("variable type not supported here")
	ErrUnknownVisualization    = errors.New("unknown visualization type")
	ErrMissingRequiredVariable = errors.New("required variable not selected")

	// Remote service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrSchemaMismatch     = errors.New("response does not match expected schema")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewVariableNotFoundError(entityID, variableID string) error {
	return fmt.Errorf("%w: %s/%s", ErrVariableNotFound, entityID, variableID)
}

func NewFilterError(entityID, variableID, reason string) error {
	return fmt.Errorf("%w for %s/%s: %s", ErrInvalidFilter, entityID, variableID, reason)
}

func NewSchemaError(path string) error {
	return fmt.Errorf("%w: missing %q", ErrSchemaMismatch, path)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrUnsupportedVariable) ||
		errors.Is(err, ErrUnknownVisualization) ||
		errors.Is(err, ErrMissingRequiredVariable)
}

func IsRemoteError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrSchemaMismatch)
}
