package engine

import "errors"

// Sentinel errors for engine package.
var (
	// ErrEmptyArray is returned when Run is given no values.
	ErrEmptyArray = errors.New("array is empty")

	// ErrChannel is returned when a result channel cannot be opened.
	ErrChannel = errors.New("open result channel")

	// ErrSpawn is returned when a worker cannot be started. Every worker
	// already started has been killed and reaped by then.
	ErrSpawn = errors.New("spawn worker")

	// ErrCanceled is returned when the run's context ends before every
	// worker was reaped.
	ErrCanceled = errors.New("run canceled")
)
