// Package worker is the child side of a fan-out round.
//
// A worker is the parminmax binary re-executed with the hidden "worker"
// subcommand. It reads the snapshot of its sub-array from stdin, computes
// the MinMax of it, writes the record to its transport sink and exits. It
// never talks to the coordinator in any other way.
package worker

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/parminmax/internal/logging"
	"github.com/dshills/parminmax/internal/minmax"
	"github.com/dshills/parminmax/internal/transport"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Args are the parsed worker flags.
type Args struct {
	Index      int
	Begin      uint
	End        uint
	Transport  transport.Kind
	ResultFD   int
	ResultFile string
	Delay      time.Duration
	LogLevel   string
}

// ErrRangeMismatch is returned when the snapshot size does not match the
// assigned range.
var ErrRangeMismatch = errors.New("snapshot does not match assigned range")

// ParseArgs parses worker flags.
func ParseArgs(args []string, output io.Writer) (Args, error) {
	var a Args
	var kind string

	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&a.Index, "index", -1, "Worker index")
	fs.UintVar(&a.Begin, "begin", 0, "First index of the assigned range")
	fs.UintVar(&a.End, "end", 0, "End of the assigned range (exclusive)")
	fs.StringVar(&kind, "transport", string(transport.KindPipe), "Result transport (pipe or file)")
	fs.IntVar(&a.ResultFD, "result_fd", -1, "Inherited descriptor of the result pipe")
	fs.StringVar(&a.ResultFile, "result_file", "", "Result file path")
	fs.DurationVar(&a.Delay, "delay", 0, "Stall before scanning (debug)")
	fs.StringVar(&a.LogLevel, "log_level", logging.DefaultConfig().Level, "Log level")

	if err := fs.Parse(args); err != nil {
		return Args{}, err
	}

	k, err := transport.ParseKind(kind)
	if err != nil {
		return Args{}, err
	}
	a.Transport = k

	if a.Index < 0 {
		return Args{}, fmt.Errorf("--index is required")
	}
	if a.End < a.Begin {
		return Args{}, fmt.Errorf("invalid range [%d, %d)", a.Begin, a.End)
	}
	return a, nil
}

// Main runs a worker and returns its exit code.
func Main(args []string, stdin io.Reader, stderr io.Writer) int {
	a, err := ParseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "worker: %v\n", err)
		return ExitFailure
	}

	logger := logging.NewOrNop(logging.Config{Level: a.LogLevel}).
		Named("worker").
		With(zap.Int("worker", a.Index))
	defer func() { _ = logger.Sync() }()

	if err := Run(a, stdin, logger); err != nil {
		logger.Error("worker failed", zap.Error(err))
		return ExitFailure
	}
	return ExitOK
}

// Run reads the snapshot, computes its MinMax and delivers it.
func Run(a Args, stdin io.Reader, logger *zap.Logger) error {
	values, err := minmax.ReadValues(stdin)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if uint(len(values)) != a.End-a.Begin {
		return fmt.Errorf("%w: got %d values for [%d, %d)", ErrRangeMismatch, len(values), a.Begin, a.End)
	}

	if a.Delay > 0 {
		logger.Debug("stalling", zap.Duration("delay", a.Delay))
		time.Sleep(a.Delay)
	}

	m := minmax.Of(values)

	sink, err := transport.OpenSink(a.Transport, a.ResultFD, a.ResultFile)
	if err != nil {
		return err
	}
	if err := transport.Deliver(sink, m); err != nil {
		return err
	}

	logger.Debug("result delivered",
		zap.Uint("begin", a.Begin),
		zap.Uint("end", a.End),
		zap.Int32("min", m.Min),
		zap.Int32("max", m.Max),
	)
	return nil
}
