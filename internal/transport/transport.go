// Package transport moves one MinMax record from a worker process to the
// coordinator.
//
// Two interchangeable implementations share the same contract: a pipe per
// worker, or a temporary file per worker. The coordinator opens one Endpoint
// per worker before spawning it, attaches it to the worker's command, and
// later calls Receive exactly once. The worker side opens a sink with
// OpenSink and writes its record with Deliver.
package transport

import (
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/dshills/parminmax/internal/minmax"
)

// Kind names a transport implementation.
type Kind string

const (
	// KindPipe moves results over anonymous pipes.
	KindPipe Kind = "pipe"
	// KindFile moves results through per-worker temporary files.
	KindFile Kind = "file"
)

// ParseKind validates a transport name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPipe, KindFile:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Sentinel errors.
var (
	// ErrUnknownKind is returned for an unsupported transport name.
	ErrUnknownKind = errors.New("unknown transport")

	// ErrNoResult is returned when a worker left nothing to read.
	ErrNoResult = errors.New("worker produced no result")

	// ErrShortRead is returned when fewer than minmax.Size bytes were available.
	ErrShortRead = errors.New("short result read")

	// ErrAlreadyReceived is returned when Receive is called twice.
	ErrAlreadyReceived = errors.New("result already received")
)

// Transport opens per-worker endpoints on the coordinator side.
type Transport interface {
	// Kind returns the transport name.
	Kind() Kind

	// Open prepares the channel for the worker with the given index.
	Open(index int) (Endpoint, error)
}

// Endpoint is the coordinator's side of one worker's channel.
type Endpoint interface {
	// Index returns the worker index this endpoint belongs to.
	Index() int

	// Attach configures cmd so the worker can reach its side of the channel.
	// It must be called before the command is started.
	Attach(cmd *exec.Cmd)

	// Spawned releases the parent's copy of anything only the worker uses.
	// It must be called after the command has been started.
	Spawned() error

	// Receive reads the worker's record. It reads at most minmax.Size bytes
	// and may be called once.
	Receive() (minmax.MinMax, error)

	// Close releases the coordinator's resources. It is safe to call more
	// than once.
	Close() error
}

// New returns the transport for kind. dir is only used by KindFile.
func New(kind Kind, dir string) (Transport, error) {
	switch kind {
	case KindPipe:
		return NewPipeTransport(), nil
	case KindFile:
		return NewFileTransport(dir), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Deliver writes m to sink and closes it.
// Any partial write is returned as an error; there is no retry.
func Deliver(sink io.WriteCloser, m minmax.MinMax) error {
	if _, err := m.WriteTo(sink); err != nil {
		_ = sink.Close()
		return fmt.Errorf("deliver result: %w", err)
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("close result sink: %w", err)
	}
	return nil
}

// receive reads one record from r, mapping short reads to package errors.
func receive(r io.Reader) (minmax.MinMax, error) {
	m, err := minmax.ReadRecord(r)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, io.EOF):
		return minmax.MinMax{}, ErrNoResult
	case errors.Is(err, io.ErrUnexpectedEOF):
		return minmax.MinMax{}, ErrShortRead
	default:
		return minmax.MinMax{}, fmt.Errorf("read result: %w", err)
	}
}
