// Package engine runs one fan-out/fan-in round: it splits an array across
// worker processes, races them against an optional deadline and folds
// whatever results come back.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/parminmax/internal/aggregate"
	"github.com/dshills/parminmax/internal/config"
	"github.com/dshills/parminmax/internal/deadline"
	"github.com/dshills/parminmax/internal/metrics"
	"github.com/dshills/parminmax/internal/minmax"
	"github.com/dshills/parminmax/internal/partition"
	"github.com/dshills/parminmax/internal/process"
	"github.com/dshills/parminmax/internal/transport"
)

// WorkerCommand is the subcommand that turns the binary into a worker.
const WorkerCommand = "worker"

// CommandFunc builds the command that runs worker index. The engine appends
// the worker flags and wires stdin, stderr and the result channel.
type CommandFunc func(index int) (*exec.Cmd, error)

// SelfCommand re-executes the running binary as a worker.
func SelfCommand(int) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return exec.Command(exe, WorkerCommand), nil
}

// Engine coordinates runs for one configuration.
type Engine struct {
	cfg          config.Config
	command      CommandFunc
	logger       *zap.Logger
	metrics      *metrics.Metrics
	workerStderr io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithCommand sets how worker commands are built. The default is
// SelfCommand.
func WithCommand(fn CommandFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.command = fn
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithWorkerStderr sets where worker stderr goes. The default is os.Stderr.
func WithWorkerStderr(w io.Writer) Option {
	return func(e *Engine) {
		e.workerStderr = w
	}
}

// New creates an engine for cfg, which must already be validated.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:          cfg,
		command:      SelfCommand,
		logger:       zap.NewNop(),
		workerStderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run computes the min and max of array with worker processes.
//
// A worker that is killed, crashes or writes a short record is left out of
// the result and listed in Report.Missing. Run fails only when a channel or
// a worker cannot be created, or when ctx ends first; in both cases every
// started worker has been killed and reaped before Run returns.
func (e *Engine) Run(ctx context.Context, array []int32) (*Report, error) {
	if len(array) == 0 {
		return nil, ErrEmptyArray
	}

	workers := min(e.cfg.Workers, len(array))
	if workers < 1 {
		workers = 1
	}

	runID := uuid.New().String()
	logger := e.logger.With(zap.String("run_id", runID))

	tr, err := transport.New(e.cfg.Transport, e.cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChannel, err)
	}

	endpoints := make([]transport.Endpoint, 0, workers)
	defer func() {
		for _, ep := range endpoints {
			_ = ep.Close()
		}
	}()
	for i := 0; i < workers; i++ {
		ep, err := tr.Open(i)
		if err != nil {
			return nil, fmt.Errorf("%w: worker %d: %w", ErrChannel, i, err)
		}
		endpoints = append(endpoints, ep)
	}

	sup := process.NewSupervisor(workers,
		process.WithPollInterval(e.cfg.PollInterval),
		process.WithLogger(logger),
		process.WithProcessExitCallback(func(p *process.Process) {
			if e.metrics != nil {
				e.metrics.ObserveWorkerExit(p.State().String())
			}
		}),
	)
	defer sup.Shutdown(time.Second)

	dl := deadline.Arm(e.cfg.Timeout, sup,
		deadline.WithLogger(logger),
		deadline.WithFireCallback(func(int) {
			if e.metrics != nil {
				e.metrics.DeadlineFired.Inc()
			}
		}),
	)
	defer dl.Disarm()

	ranges := partition.Ranges(uint(len(array)), uint(workers))
	start := time.Now()

	started := 0
	for i, r := range ranges {
		if dl.Fired() {
			logger.Warn("deadline fired during dispatch, remaining workers not started",
				zap.Int("started", i),
				zap.Int("workers", workers),
			)
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, e.abort(sup, fmt.Errorf("%w: %w", ErrCanceled, err))
		}
		if err := e.spawn(sup, endpoints[i], r, array); err != nil {
			return nil, e.abort(sup, fmt.Errorf("%w: worker %d: %w", ErrSpawn, i, err))
		}
		started++
		if e.metrics != nil {
			e.metrics.WorkersSpawned.Inc()
		}
	}

	// Nobody will ever write to the channels of workers that were never
	// started; release the parent's side so they read as empty.
	for _, ep := range endpoints[started:] {
		_ = ep.Spawned()
	}

	if err := sup.Reap(ctx); err != nil {
		return nil, e.abort(sup, fmt.Errorf("%w: %w", ErrCanceled, err))
	}
	dl.Disarm()
	elapsed := time.Since(start)

	result := aggregate.Collect(endpoints, logger)

	report := &Report{
		RunID:       runID,
		Transport:   tr.Kind(),
		ArraySize:   len(array),
		Workers:     workers,
		Min:         result.MinMax.Min,
		Max:         result.MinMax.Max,
		Elapsed:     elapsed,
		TimedOut:    dl.Fired(),
		Contributed: result.Contributed,
		Missing:     result.Missing,
		Children:    children(sup, ranges, result.Missing),
	}

	if e.metrics != nil {
		e.metrics.ObserveResults(result.Contributed, len(result.Missing))
		e.metrics.ObserveRun(elapsed)
	}

	logger.Info("run complete",
		zap.Int("workers", workers),
		zap.Int("contributed", result.Contributed),
		zap.Ints("missing", result.Missing),
		zap.Bool("timed_out", report.TimedOut),
		zap.Duration("elapsed", elapsed),
	)

	return report, nil
}

// spawn starts one worker on its slice of array.
func (e *Engine) spawn(sup *process.Supervisor, ep transport.Endpoint, r partition.Range, array []int32) error {
	cmd, err := e.command(ep.Index())
	if err != nil {
		return err
	}

	cmd.Args = append(cmd.Args,
		"--index", strconv.Itoa(ep.Index()),
		"--begin", strconv.FormatUint(uint64(r.Begin), 10),
		"--end", strconv.FormatUint(uint64(r.End), 10),
		"--log_level", e.cfg.Logging.Level,
	)
	if e.cfg.WorkerDelay > 0 {
		cmd.Args = append(cmd.Args, "--delay", e.cfg.WorkerDelay.String())
	}
	ep.Attach(cmd)

	cmd.Stdin = bytes.NewReader(minmax.EncodeValues(array[r.Begin:r.End]))
	cmd.Stderr = e.workerStderr

	if _, err := sup.Start(ep.Index(), fmt.Sprintf("worker-%d", ep.Index()), cmd); err != nil {
		return err
	}
	return ep.Spawned()
}

// abort kills and reaps every started worker, then returns err.
func (e *Engine) abort(sup *process.Supervisor, err error) error {
	n := sup.KillAll()
	_ = sup.Reap(context.Background())
	e.logger.Error("run aborted", zap.Int("killed", n), zap.Error(err))
	return err
}

func children(sup *process.Supervisor, ranges []partition.Range, missing []int) []Child {
	isMissing := make(map[int]bool, len(missing))
	for _, i := range missing {
		isMissing[i] = true
	}

	out := make([]Child, len(ranges))
	for i, r := range ranges {
		c := Child{
			Index:       i,
			Range:       r,
			State:       StateNotStarted,
			Contributed: !isMissing[i],
		}
		if p := sup.Slot(i); p != nil {
			c.PID = p.PID()
			c.State = p.State().String()
			c.ExitCode = p.ExitCode()
			c.Runtime = p.Runtime()
			if exit := p.Exit(); exit != nil && exit.Killed() {
				c.Signal = exit.Signal.String()
			}
		}
		out[i] = c
	}
	return out
}
