package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrStoreUnavailable = errors.New("catalog store unavailable")
	ErrNotFound         = errors.New("product not found")
	ErrValidation       = errors.New("validation failed")
	ErrDuplicateBarcode = errors.New("barcode already registered")
)

// ValidationError lists the offending fields of a rejected input
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a validation error for the given field messages
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Unavailable wraps a store failure so callers can match ErrStoreUnavailable
func Unavailable(op string, err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
