package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dshills/parminmax/internal/config/loader"
	"github.com/dshills/parminmax/internal/logging"
	"github.com/dshills/parminmax/internal/process"
	"github.com/dshills/parminmax/internal/transport"
)

// EnvPrefix is the prefix of every environment variable read by Resolve.
const EnvPrefix = "PARMINMAX"

// MaxSeed and MaxArraySize bound the values a run accepts. Seeds feed a
// 32-bit generator and array indices must fit an int32.
const (
	MaxSeed      = math.MaxInt32
	MaxArraySize = math.MaxInt32
)

// Report formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Config is the resolved, validated configuration of one run. It is not
// modified once the run starts.
type Config struct {
	Seed      int
	ArraySize int
	Workers   int
	Transport transport.Kind

	// Timeout is the run deadline; zero means none.
	Timeout time.Duration

	// timeoutSet is true once a layer has set Timeout.
	timeoutSet bool

	// WorkDir holds the result files of the file transport.
	WorkDir string

	// PollInterval is the sleep between reaping checks.
	PollInterval time.Duration

	// WorkerDelay makes every worker stall before scanning. Debug only.
	WorkerDelay time.Duration

	Format      string
	MetricsFile string
	Logging     logging.Config
}

// Default returns the built-in defaults. Seed, ArraySize and Workers have no
// default and must come from a higher layer.
func Default() Config {
	return Config{
		Transport:    transport.KindPipe,
		WorkDir:      ".",
		PollInterval: process.DefaultPollInterval,
		Format:       FormatText,
		Logging:      logging.DefaultConfig(),
	}
}

// Overrides is one configuration layer. Nil fields are not set by the layer.
type Overrides struct {
	Seed           *int    `toml:"seed" yaml:"seed" split_words:"true"`
	ArraySize      *int    `toml:"array_size" yaml:"array_size" split_words:"true"`
	Pnum           *int    `toml:"pnum" yaml:"pnum" split_words:"true"`
	ByFiles        *bool   `toml:"by_files" yaml:"by_files" split_words:"true"`
	Timeout        *int    `toml:"timeout" yaml:"timeout" split_words:"true"` // seconds
	WorkDir        *string `toml:"work_dir" yaml:"work_dir" split_words:"true"`
	PollIntervalMs *int    `toml:"poll_interval_ms" yaml:"poll_interval_ms" split_words:"true"`
	Format         *string `toml:"format" yaml:"format" split_words:"true"`
	MetricsFile    *string `toml:"metrics_file" yaml:"metrics_file" split_words:"true"`
	LogLevel       *string `toml:"log_level" yaml:"log_level" split_words:"true"`
	LogDevelopment *bool   `toml:"log_development" yaml:"log_development" split_words:"true"`

	// WorkerDelay has no file or environment form.
	WorkerDelay *time.Duration `toml:"-" yaml:"-" ignored:"true"`
}

// Apply copies every set field of o onto c.
func (c *Config) Apply(o Overrides) {
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.ArraySize != nil {
		c.ArraySize = *o.ArraySize
	}
	if o.Pnum != nil {
		c.Workers = *o.Pnum
	}
	if o.ByFiles != nil {
		if *o.ByFiles {
			c.Transport = transport.KindFile
		} else {
			c.Transport = transport.KindPipe
		}
	}
	if o.Timeout != nil {
		c.Timeout = time.Duration(*o.Timeout) * time.Second
		c.timeoutSet = true
	}
	if o.WorkDir != nil {
		c.WorkDir = *o.WorkDir
	}
	if o.PollIntervalMs != nil {
		c.PollInterval = time.Duration(*o.PollIntervalMs) * time.Millisecond
	}
	if o.Format != nil {
		c.Format = *o.Format
	}
	if o.MetricsFile != nil {
		c.MetricsFile = *o.MetricsFile
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
	if o.LogDevelopment != nil {
		c.Logging.Development = *o.LogDevelopment
	}
	if o.WorkerDelay != nil {
		c.WorkerDelay = *o.WorkerDelay
	}
}

// Validate checks c and clamps Workers to ArraySize.
func (c *Config) Validate() error {
	var errs []error
	positive := func(field string, v int, set bool) {
		if !set {
			errs = append(errs, &ValidationError{Field: field, Message: "is required"})
		} else if v <= 0 {
			errs = append(errs, &ValidationError{Field: field, Message: "must be positive", Value: v})
		}
	}

	atMost := func(field string, v, limit int) {
		if v > limit {
			errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d", limit), Value: v})
		}
	}

	positive("seed", c.Seed, c.Seed != 0)
	atMost("seed", c.Seed, MaxSeed)
	positive("array_size", c.ArraySize, c.ArraySize != 0)
	atMost("array_size", c.ArraySize, MaxArraySize)
	positive("pnum", c.Workers, c.Workers != 0)

	if c.Timeout < 0 || (c.timeoutSet && c.Timeout == 0) {
		errs = append(errs, &ValidationError{Field: "timeout", Message: "must be positive seconds", Value: c.Timeout})
	}
	if _, err := transport.ParseKind(string(c.Transport)); err != nil {
		errs = append(errs, &ValidationError{Field: "transport", Message: "must be pipe or file", Value: c.Transport})
	}
	if c.PollInterval <= 0 {
		errs = append(errs, &ValidationError{Field: "poll_interval_ms", Message: "must be positive", Value: c.PollInterval})
	}
	if c.WorkerDelay < 0 {
		errs = append(errs, &ValidationError{Field: "worker_delay", Message: "must not be negative", Value: c.WorkerDelay})
	}
	switch c.Format {
	case FormatText, FormatYAML, FormatJSON:
	default:
		errs = append(errs, &ValidationError{Field: "format", Message: "must be text, yaml or json", Value: c.Format})
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, &ValidationError{Field: "log_level", Message: "must be debug, info, warn or error", Value: c.Logging.Level})
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	if c.Workers > c.ArraySize {
		c.Workers = c.ArraySize
	}
	return nil
}

// Sources describes where Resolve reads layers from.
type Sources struct {
	// ConfigFile is an optional TOML or YAML file.
	ConfigFile string

	// FS reads ConfigFile; nil means the OS file system.
	FS loader.FileSystem

	// SkipEnv disables the environment layer.
	SkipEnv bool

	// Flags holds the values of explicitly set command-line flags.
	Flags Overrides
}

// Resolve builds a validated Config from defaults, file, environment and
// flags, in that order.
func Resolve(src Sources) (Config, error) {
	cfg := Default()

	if src.ConfigFile != "" {
		l, err := loader.ForPath(src.FS, src.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		var file Overrides
		if err := l.LoadInto(src.ConfigFile, &file); err != nil {
			return Config{}, err
		}
		cfg.Apply(file)
	}

	if !src.SkipEnv {
		var env Overrides
		if err := loader.NewEnvLoader(EnvPrefix).LoadInto(&env); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		cfg.Apply(env)
	}

	cfg.Apply(src.Flags)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
