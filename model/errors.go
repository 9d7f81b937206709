package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when a vector or query length disagrees
	// with the configured dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInsufficientData is returned when a training set is smaller than the
	// requested number of clusters.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrIndexOutOfRange is returned when a vector identifier is not in [0, count).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidParameter is returned for non-positive k/top_k/n_lists,
	// negative probe ratios and refine factors below one.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// DimensionMismatchError carries the expected and actual lengths.
//
// errors.Is(err, ErrDimensionMismatch) reports true for it.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// NewDimensionMismatch returns a *DimensionMismatchError.
func NewDimensionMismatch(expected, actual int) error {
	return &DimensionMismatchError{Expected: expected, Actual: actual}
}

// InvalidParameterError names the offending parameter.
//
// errors.Is(err, ErrInvalidParameter) reports true for it.
type InvalidParameterError struct {
	Name  string
	Value any
	cause error
}

func (e *InvalidParameterError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid parameter %s=%v: %v", e.Name, e.Value, e.cause)
	}
	return fmt.Sprintf("invalid parameter %s=%v", e.Name, e.Value)
}

// Is reports whether target is ErrInvalidParameter.
func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// Unwrap returns the underlying cause, if any.
func (e *InvalidParameterError) Unwrap() error { return e.cause }

// NewInvalidParameter returns an *InvalidParameterError.
func NewInvalidParameter(name string, value any) error {
	return &InvalidParameterError{Name: name, Value: value}
}

// IndexOutOfRangeError carries the requested id and the store count.
type IndexOutOfRangeError struct {
	ID    ID
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index out of range: id %d, count %d", e.ID, e.Count)
}

// Is reports whether target is ErrIndexOutOfRange.
func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }

// InsufficientDataError carries the available and required vector counts.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d vectors, need at least %d", e.Have, e.Need)
}

// Is reports whether target is ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// ErrNotBuilt is returned when an index is searched before its first build.
var ErrNotBuilt = errors.New("index not built")
