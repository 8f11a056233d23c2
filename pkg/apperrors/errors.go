package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrSessionIntegrity = errors.New("session payload corrupted or expired")
	ErrInvalidRole      = errors.New("invalid role")
)

// FieldError is one field-specific validation failure, suitable for direct
// display next to the offending input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level input failures. It is terminal at
// the boundary where it is detected; nothing is written before validation
// passes.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends a field failure and returns the receiver for chaining during
// request validation.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// HasErrors returns true when at least one field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// ErrOrNil returns the error when any field failed, nil otherwise. Lets
// validators accumulate failures and return in one statement.
func (e *ValidationError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StorageError wraps a persistence failure that survived the store layer's
// retries. Op/Collection/Key give the log line enough context to trace the
// failed write without re-running the request.
type StorageError struct {
	Op         string
	Collection string
	Key        string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s on %s failed: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("storage %s on %s/%s failed: %v", e.Op, e.Collection, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err with operation context. Sentinel errors pass
// through untouched so errors.Is checks at the handler layer keep working.
func NewStorageError(op, collection, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	return &StorageError{Op: op, Collection: collection, Key: key, Err: err}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is a post-retry persistence failure.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
