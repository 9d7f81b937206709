package ivfgo

import (
	"errors"

	"github.com/hupe1980/ivfgo/model"
	"github.com/hupe1980/ivfgo/resource"
)

var (
	// ErrDimensionMismatch is returned when a vector or query length disagrees
	// with the database dimension.
	ErrDimensionMismatch = model.ErrDimensionMismatch

	// ErrInsufficientData is returned by Build when fewer vectors than lists
	// are stored.
	ErrInsufficientData = model.ErrInsufficientData

	// ErrIndexOutOfRange is returned by Get for unknown ids.
	ErrIndexOutOfRange = model.ErrIndexOutOfRange

	// ErrInvalidParameter is returned for out-of-range options and search
	// parameters.
	ErrInvalidParameter = model.ErrInvalidParameter

	// ErrNotBuilt is returned by Search before the first Build.
	ErrNotBuilt = model.ErrNotBuilt

	// ErrMemoryLimitExceeded is returned by Insert when the resource
	// controller's memory budget is exhausted.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("ivfgo: database closed")

	// ErrSnapshotsDisabled is returned by Checkpoint when no blob store is
	// configured.
	ErrSnapshotsDisabled = errors.New("ivfgo: snapshots not configured")
)

type (
	// DimensionMismatchError carries the expected and actual lengths.
	DimensionMismatchError = model.DimensionMismatchError
	// InvalidParameterError names the offending parameter.
	InvalidParameterError = model.InvalidParameterError
	// IndexOutOfRangeError carries the requested id and the vector count.
	IndexOutOfRangeError = model.IndexOutOfRangeError
	// InsufficientDataError carries the available and required vector counts.
	InsufficientDataError = model.InsufficientDataError
)
