package series

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCategory is returned when a category is outside the variant vocabulary.
	ErrInvalidCategory = errors.New("series: invalid category")
	// ErrInvalidValue is returned when a value kind is outside the variant vocabulary.
	ErrInvalidValue = errors.New("series: invalid value")
	// ErrUnknownVariant is returned when a dataset maps to no variant.
	ErrUnknownVariant = errors.New("series: unknown variant")
	// ErrEmptyResult is returned when no day in the range yields rows.
	ErrEmptyResult = errors.New("series: empty result")
)

// SelectionError carries the rejected selection value.
type SelectionError struct {
	Field   string
	Value   string
	Allowed []string
	Err     error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%v: %q (allowed: %s)", e.Err, e.Value, strings.Join(e.Allowed, ", "))
}

func (e *SelectionError) Unwrap() error { return e.Err }
