package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"
)

// State is where a child is in its life: created -> running ->
// exited | killed.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateExited
	// StateKilled means the child was terminated by a signal.
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Exit is the recorded end of a child.
type Exit struct {
	// Code is the exit status, or -1 when the child was signalled or could
	// not be waited for.
	Code int

	// Signal is the terminating signal, zero for a normal exit.
	Signal syscall.Signal

	// At is when the exit was observed.
	At time.Time

	// Err is the error returned by Wait, nil for a clean exit.
	Err error
}

// Killed reports whether the child ended on a signal.
func (e *Exit) Killed() bool {
	return e.Signal != 0
}

// Process is one supervised child. It is safe for concurrent use.
type Process struct {
	// ID is a unique identifier assigned by the supervisor.
	ID string

	// Slot is the fixed position of this process in its supervisor.
	Slot int

	Name string
	Cmd  *exec.Cmd

	// Started is set once the command has started.
	Started time.Time

	running atomic.Bool
	exit    atomic.Pointer[Exit]
	done    chan struct{}
}

// NewProcess wraps cmd, which must not have been started. Use
// Supervisor.Start to run it.
func NewProcess(id string, slot int, name string, cmd *exec.Cmd) *Process {
	return &Process{
		ID:   id,
		Slot: slot,
		Name: name,
		Cmd:  cmd,
		done: make(chan struct{}),
	}
}

// State returns the current state.
func (p *Process) State() State {
	if e := p.exit.Load(); e != nil {
		if e.Killed() {
			return StateKilled
		}
		return StateExited
	}
	if p.running.Load() {
		return StateRunning
	}
	return StateCreated
}

// Exit returns the recorded exit, or nil while the child has not ended.
func (p *Process) Exit() *Exit {
	return p.exit.Load()
}

// ExitCode returns the exit status, or -1 if the child has not exited
// normally.
func (p *Process) ExitCode() int {
	if e := p.exit.Load(); e != nil {
		return e.Code
	}
	return -1
}

// Done is closed when the child has exited and been waited for.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// IsRunning reports whether the child has started and not yet exited.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// PID returns the OS process ID, or -1 before start.
func (p *Process) PID() int {
	if p.Cmd.Process == nil {
		return -1
	}
	return p.Cmd.Process.Pid
}

// Signal sends sig to a running child. A child that exited in the meantime
// is not an error.
func (p *Process) Signal(sig os.Signal) error {
	if !p.IsRunning() {
		return ErrProcessNotRunning
	}
	err := p.Cmd.Process.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Kill sends SIGKILL, which the child cannot catch or ignore.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// Terminate sends SIGTERM.
func (p *Process) Terminate() error {
	return p.Signal(syscall.SIGTERM)
}

// Runtime returns how long the child ran, or has been running so far.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	if e := p.exit.Load(); e != nil {
		return e.At.Sub(p.Started)
	}
	return time.Since(p.Started)
}

func (p *Process) start() error {
	if p.State() != StateCreated || p.Cmd.Process != nil {
		return ErrProcessAlreadyStarted
	}

	setPlatformAttrs(p.Cmd)

	if err := p.Cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Name, err)
	}
	p.Started = time.Now()
	p.running.Store(true)

	go p.wait()
	return nil
}

func (p *Process) wait() {
	err := p.Cmd.Wait()
	p.exit.Store(exitOf(err))
	p.running.Store(false)
	close(p.done)
}

// exitOf classifies the error returned by exec.Cmd.Wait.
func exitOf(err error) *Exit {
	e := &Exit{At: time.Now(), Err: err}
	if err == nil {
		return e
	}

	e.Code = -1
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return e
	}
	e.Code = exitErr.ExitCode()
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		e.Signal = status.Signal()
	}
	return e
}

var (
	// ErrProcessNotRunning is returned when signalling a child that is not
	// running.
	ErrProcessNotRunning = errors.New("process not running")

	// ErrProcessAlreadyStarted is returned when starting a child twice.
	ErrProcessAlreadyStarted = errors.New("process already started")
)
