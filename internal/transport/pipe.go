package transport

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/dshills/parminmax/internal/minmax"
)

// PipeTransport gives every worker its own anonymous pipe.
//
// The worker inherits only the write end, as an extra file descriptor. The
// read end is close-on-exec, so the worker never holds it.
type PipeTransport struct{}

// NewPipeTransport creates a pipe transport.
func NewPipeTransport() *PipeTransport {
	return &PipeTransport{}
}

// Kind implements Transport.
func (*PipeTransport) Kind() Kind { return KindPipe }

// Open creates the pipe for worker index.
func (*PipeTransport) Open(index int) (Endpoint, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe for worker %d: %w", index, err)
	}
	return &pipeEndpoint{index: index, r: r, w: w}, nil
}

type pipeEndpoint struct {
	index int

	mu       sync.Mutex
	r        *os.File
	w        *os.File
	received bool
}

func (e *pipeEndpoint) Index() int { return e.index }

// Attach passes the write end as the first extra file of cmd and tells the
// worker which descriptor number it lands on.
func (e *pipeEndpoint) Attach(cmd *exec.Cmd) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fd := 3 + len(cmd.ExtraFiles)
	cmd.ExtraFiles = append(cmd.ExtraFiles, e.w)
	cmd.Args = append(cmd.Args,
		"--transport", string(KindPipe),
		"--result_fd", strconv.Itoa(fd),
	)
}

// Spawned closes the parent's copy of the write end so that a worker exit
// without a write shows up as EOF.
func (e *pipeEndpoint) Spawned() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.w == nil {
		return nil
	}
	err := e.w.Close()
	e.w = nil
	if err != nil {
		return fmt.Errorf("close pipe write end for worker %d: %w", e.index, err)
	}
	return nil
}

func (e *pipeEndpoint) Receive() (minmax.MinMax, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.received {
		return minmax.MinMax{}, ErrAlreadyReceived
	}
	e.received = true

	if e.r == nil {
		return minmax.MinMax{}, ErrNoResult
	}
	m, err := receive(e.r)
	_ = e.r.Close()
	e.r = nil
	return m, err
}

func (e *pipeEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	if e.w != nil {
		errs = append(errs, e.w.Close())
		e.w = nil
	}
	if e.r != nil {
		errs = append(errs, e.r.Close())
		e.r = nil
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close pipe for worker %d: %w", e.index, err)
	}
	return nil
}
