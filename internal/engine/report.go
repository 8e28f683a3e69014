package engine

import (
	"time"

	"github.com/dshills/parminmax/internal/partition"
	"github.com/dshills/parminmax/internal/transport"
)

// Report is the outcome of one run.
type Report struct {
	RunID     string
	Transport transport.Kind
	ArraySize int
	Workers   int

	Min int32
	Max int32

	// Elapsed runs from just before the first spawn to the end of reaping.
	Elapsed time.Duration

	// TimedOut is set when the deadline fired and killed workers.
	TimedOut bool

	Contributed int
	Missing     []int
	Children    []Child
}

// Child describes one worker of a run.
type Child struct {
	Index int
	PID   int
	Range partition.Range

	// State is the final process state, or "not started" when dispatch
	// stopped before this worker.
	State    string
	ExitCode int
	// Signal names the signal that killed the worker, if any.
	Signal  string
	Runtime time.Duration

	Contributed bool
}

// StateNotStarted is the Child state of a worker that was never spawned.
const StateNotStarted = "not started"

// Complete reports whether every worker contributed a result.
func (r *Report) Complete() bool {
	return len(r.Missing) == 0
}
