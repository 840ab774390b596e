package domain

import (
	"errors"
	"fmt"
)

// Error families. Every typed error below matches exactly one of them with
// errors.Is.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// ValidationError reports a broken domain rule. Never retried.
type ValidationError struct {
	Op      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Field: field, Message: message}
}

// NotFoundError reports a missing entity
type NotFoundError struct {
	Op     string
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %s not found", e.Op, e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError builds a NotFoundError
func NewNotFoundError(op, entity, id string) *NotFoundError {
	return &NotFoundError{Op: op, Entity: entity, ID: id}
}

// DependencyUnavailableError wraps a failure of the store or of an external
// provider. The whole operation fails when one is returned.
type DependencyUnavailableError struct {
	Op         string
	Dependency string
	Err        error
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s unavailable: %v", e.Op, e.Dependency, e.Err)
}

func (e *DependencyUnavailableError) Unwrap() error {
	return e.Err
}

func (e *DependencyUnavailableError) Is(target error) bool {
	return target == ErrDependencyUnavailable
}

// NewDependencyError wraps err, leaving domain errors untouched so a
// ValidationError raised inside a transaction keeps its family
func NewDependencyError(op, dependency string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidationError(err) || IsNotFoundError(err) || IsDependencyError(err) {
		return err
	}
	return &DependencyUnavailableError{Op: op, Dependency: dependency, Err: err}
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDependencyError checks if the error comes from an unavailable dependency
func IsDependencyError(err error) bool {
	return errors.Is(err, ErrDependencyUnavailable)
}
