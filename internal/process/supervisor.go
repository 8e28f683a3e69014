package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPollInterval is how long Reap sleeps between completion checks.
const DefaultPollInterval = 50 * time.Millisecond

// Supervisor spawns a fixed number of child processes, reaps them, and can
// kill them all at once.
//
// Every child occupies one slot of a fixed-capacity table that is written
// once at start and only read afterwards. KillAll walks that table without
// taking any lock, so it can run from a timer callback while the
// coordinator is in the middle of spawning or reaping.
type Supervisor struct {
	// mu serializes Start and guards started.
	mu      sync.Mutex
	started []*Process

	slots []atomic.Pointer[Process]

	// live counts children whose exit has not been handled yet.
	live atomic.Int32

	// killed is set once KillAll has run; later starts are killed at once.
	killed atomic.Bool
	closed atomic.Bool

	monitors sync.WaitGroup

	pollInterval  time.Duration
	onProcessExit func(p *Process)
	logger        *zap.Logger
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithPollInterval sets the sleep between Reap completion checks.
func WithPollInterval(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithProcessExitCallback sets a function run once per child exit, before
// Reap can return.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// WithLogger sets the supervisor's logger.
func WithLogger(logger *zap.Logger) SupervisorOption {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSupervisor creates a supervisor with room for capacity children.
func NewSupervisor(capacity int, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		slots:        make([]atomic.Pointer[Process], max(capacity, 0)),
		pollInterval: DefaultPollInterval,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the number of slots.
func (s *Supervisor) Capacity() int {
	return len(s.slots)
}

// Start starts cmd in the given slot. The command's I/O must already be
// configured.
func (s *Supervisor) Start(slot int, name string, cmd *exec.Cmd) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}
	if slot < 0 || slot >= len(s.slots) {
		return nil, fmt.Errorf("%w: %d (capacity %d)", ErrSlotOutOfRange, slot, len(s.slots))
	}
	if s.slots[slot].Load() != nil {
		return nil, fmt.Errorf("%w: %d", ErrSlotInUse, slot)
	}

	proc := NewProcess(uuid.New().String(), slot, name, cmd)
	if err := proc.start(); err != nil {
		return nil, err
	}

	s.started = append(s.started, proc)
	s.live.Add(1)
	s.slots[slot].Store(proc)

	// A KillAll that ran before the slot was visible would have missed us.
	if s.killed.Load() {
		_ = proc.Kill()
	}

	s.logger.Debug("process started",
		zap.String("name", name),
		zap.Int("slot", slot),
		zap.Int("pid", proc.PID()),
	)

	s.monitors.Add(1)
	go s.monitor(proc)

	return proc, nil
}

func (s *Supervisor) monitor(proc *Process) {
	defer s.monitors.Done()
	defer s.live.Add(-1)
	<-proc.Done()

	fields := []zap.Field{
		zap.String("name", proc.Name),
		zap.Int("slot", proc.Slot),
		zap.Stringer("state", proc.State()),
		zap.Int("exit_code", proc.ExitCode()),
		zap.Duration("runtime", proc.Runtime()),
	}
	if exit := proc.Exit(); exit.Killed() {
		fields = append(fields, zap.Stringer("signal", exit.Signal))
	}
	s.logger.Debug("process exited", fields...)

	if s.onProcessExit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("process exit callback panicked", zap.Any("panic", r))
		}
	}()
	s.onProcessExit(proc)
}

// Slot returns the process started in slot, or nil.
func (s *Supervisor) Slot(slot int) *Process {
	if slot < 0 || slot >= len(s.slots) {
		return nil
	}
	return s.slots[slot].Load()
}

// Started returns every process started so far, in start order.
func (s *Supervisor) Started() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Process(nil), s.started...)
}

// Live returns the number of children whose exit has not been handled.
func (s *Supervisor) Live() int {
	return int(s.live.Load())
}

// Reap waits until every started process has exited and its exit callback
// has run.
//
// It never blocks on a single child: each round checks all children without
// waiting and, if any is still running, sleeps for the poll interval before
// checking again. It returns ctx.Err() if the context ends first.
func (s *Supervisor) Reap(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if s.pending() == 0 {
			s.monitors.Wait()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) pending() int {
	n := 0
	for _, p := range s.Started() {
		select {
		case <-p.Done():
		default:
			n++
		}
	}
	return n
}

// KillAll sends SIGKILL to every live child and returns how many were
// signalled. Children started afterwards are killed as soon as they are
// registered.
func (s *Supervisor) KillAll() int {
	s.killed.Store(true)

	n := 0
	for i := range s.slots {
		p := s.slots[i].Load()
		if p == nil || !p.IsRunning() {
			continue
		}
		if err := p.Kill(); err == nil {
			n++
		}
	}
	return n
}

// Killed reports whether KillAll has been called.
func (s *Supervisor) Killed() bool {
	return s.killed.Load()
}

// Shutdown refuses new children, sends SIGTERM to the live ones and waits up
// to timeout before falling back to KillAll. It returns once every child
// has been reaped.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	s.mu.Lock()
	if s.closed.Swap(true) {
		s.mu.Unlock()
		return
	}
	procs := append([]*Process(nil), s.started...)
	s.mu.Unlock()

	for _, p := range procs {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}

	done := make(chan struct{})
	go func() {
		s.monitors.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("children ignored SIGTERM, killing", zap.Int("live", s.Live()))
		s.KillAll()
		<-done
	}
}

// Closed reports whether Shutdown has been called.
func (s *Supervisor) Closed() bool {
	return s.closed.Load()
}

var (
	// ErrSupervisorShutdown is returned by Start after Shutdown.
	ErrSupervisorShutdown = errors.New("supervisor is shutting down")

	// ErrSlotOutOfRange is returned for a slot outside the supervisor's capacity.
	ErrSlotOutOfRange = errors.New("slot out of range")

	// ErrSlotInUse is returned when a slot already holds a process.
	ErrSlotInUse = errors.New("slot already in use")
)
