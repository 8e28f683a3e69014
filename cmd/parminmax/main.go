// Package main is the entry point for parminmax.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/parminmax/internal/config"
	"github.com/dshills/parminmax/internal/engine"
	"github.com/dshills/parminmax/internal/generator"
	"github.com/dshills/parminmax/internal/logging"
	"github.com/dshills/parminmax/internal/metrics"
	"github.com/dshills/parminmax/internal/report"
	"github.com/dshills/parminmax/internal/worker"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errExit stops the program with status 0 after --help or --version.
var errExit = errors.New("exit")

type options struct {
	configPath string
	flags      config.Overrides
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == engine.WorkerCommand {
		return worker.Main(args[1:], stdin, stderr)
	}

	opts, err := parseFlags(args, stdout, stderr)
	if errors.Is(err, errExit) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Resolve(config.Sources{
		ConfigFile: opts.configPath,
		Flags:      opts.flags,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// Handle signals by killing every worker
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		m = metrics.New()
		engineOpts = append(engineOpts, engine.WithMetrics(m))
	}

	array := generator.Generate(uint32(cfg.Seed), cfg.ArraySize)
	logger.Debug("array generated",
		zap.Int("seed", cfg.Seed),
		zap.Int("array_size", len(array)),
	)

	rep, err := engine.New(cfg, engineOpts...).Run(ctx, array)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := report.Render(stdout, rep, cfg.Format); err != nil {
		fmt.Fprintf(stderr, "Error: failed to write report: %v\n", err)
		return 1
	}

	if m != nil {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			fmt.Fprintf(stderr, "Error: failed to write metrics: %v\n", err)
			return 1
		}
	}

	return 0
}

func parseFlags(args []string, stdout, stderr io.Writer) (options, error) {
	var opts options
	var (
		seed, arraySize, pnum, timeout int
		byFiles, logDevelopment        bool
		workDir, format, metricsFile   string
		logLevel                       string
		workerDelay                    time.Duration
		showVersion, showHelp          bool
	)

	fs := flag.NewFlagSet("parminmax", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.IntVar(&seed, "seed", 0, "Seed of the random array (required)")
	fs.IntVar(&arraySize, "array_size", 0, "Number of elements (required)")
	fs.IntVar(&pnum, "pnum", 0, "Number of worker processes (required, clamped to array_size)")
	fs.BoolVar(&byFiles, "by_files", false, "Return results through files instead of pipes")
	fs.IntVar(&timeout, "timeout", 0, "Kill unfinished workers after this many seconds")
	fs.StringVar(&opts.configPath, "config", "", "Path to a TOML or YAML configuration file")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&workDir, "work_dir", ".", "Directory for result files")
	fs.StringVar(&format, "format", config.FormatText, "Report format (text, yaml, json)")
	fs.StringVar(&metricsFile, "metrics_file", "", "Write Prometheus metrics to this file")
	fs.StringVar(&logLevel, "log_level", logging.DefaultConfig().Level, "Log level (debug, info, warn, error)")
	fs.BoolVar(&logDevelopment, "log_development", false, "Human-readable logs")
	fs.DurationVar(&workerDelay, "worker_delay", 0, "")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&showHelp, "help", false, "Show help message")
	fs.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "parminmax - parallel min/max over worker processes\n\n")
		fmt.Fprintf(out, "Usage: parminmax --seed N --array_size N --pnum N [--by_files] [--timeout N]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.VisitAll(func(f *flag.Flag) {
			if f.Usage == "" {
				return
			}
			fmt.Fprintf(out, "  --%s\n    \t%s\n", f.Name, f.Usage)
		})
		fmt.Fprintf(out, "\nEnvironment variables %s_<OPTION> set any option below the flags.\n", config.EnvPrefix)
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  parminmax --seed 42 --array_size 1000000 --pnum 8\n")
		fmt.Fprintf(out, "  parminmax --seed 42 --array_size 1000 --pnum 4 --by_files --timeout 2\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, errExit
		}
		return opts, err
	}

	if showHelp {
		fs.SetOutput(stdout)
		fs.Usage()
		return opts, errExit
	}

	if showVersion {
		fmt.Fprintf(stdout, "parminmax %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, errExit
	}

	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	// Only explicitly set flags override the file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			opts.flags.Seed = &seed
		case "array_size":
			opts.flags.ArraySize = &arraySize
		case "pnum":
			opts.flags.Pnum = &pnum
		case "by_files":
			opts.flags.ByFiles = &byFiles
		case "timeout":
			opts.flags.Timeout = &timeout
		case "work_dir":
			opts.flags.WorkDir = &workDir
		case "format":
			opts.flags.Format = &format
		case "metrics_file":
			opts.flags.MetricsFile = &metricsFile
		case "log_level":
			opts.flags.LogLevel = &logLevel
		case "log_development":
			opts.flags.LogDevelopment = &logDevelopment
		case "worker_delay":
			opts.flags.WorkerDelay = &workerDelay
		}
	})

	return opts, nil
}
