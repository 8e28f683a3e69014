package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/dshills/parminmax/internal/report"
)

const helperEnv = "PARMINMAX_TEST_MAIN"

// TestMain lets workers spawned from the test binary run the real entry
// point.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
	}
	os.Exit(m.Run())
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(helperEnv, "1")

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Text(t *testing.T) {
	for _, extra := range [][]string{nil, {"--by_files", "--work_dir", t.TempDir()}} {
		args := append([]string{"--seed", "42", "--array_size", "10", "--pnum", "4"}, extra...)

		code, stdout, stderr := runCLI(t, args...)
		if code != 0 {
			t.Fatalf("%v: expected exit 0, got %d: %s", args, code, stderr)
		}

		lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("%v: expected 3 lines, got %q", args, stdout)
		}
		if lines[0] != "Min: 53523743" || lines[1] != "Max: 1854614940" {
			t.Errorf("%v: unexpected result lines %q", args, lines[:2])
		}
		if !strings.HasPrefix(lines[2], "Elapsed time: ") || !strings.HasSuffix(lines[2], " ms") {
			t.Errorf("%v: unexpected elapsed line %q", args, lines[2])
		}
	}
}

func TestRun_JSONAndMetrics(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "parminmax.prom")

	code, stdout, stderr := runCLI(t,
		"--seed", "7", "--array_size", "100", "--pnum", "200",
		"--format", "json", "--metrics_file", metricsFile,
	)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}

	var doc report.Document
	if err := sonic.UnmarshalString(stdout, &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if doc.Workers != 100 {
		t.Errorf("expected pnum clamped to 100, got %d", doc.Workers)
	}
	if doc.Contributed != 100 || len(doc.Children) != 100 {
		t.Errorf("expected 100 contributions, got %d of %d", doc.Contributed, len(doc.Children))
	}

	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file missing: %v", err)
	}
	if !strings.Contains(string(data), "parminmax_workers_spawned_total 100") {
		t.Errorf("expected spawned counter in metrics file, got:\n%s", data)
	}
}

func TestRun_TimeoutNote(t *testing.T) {
	code, stdout, stderr := runCLI(t,
		"--seed", "1", "--array_size", "8", "--pnum", "2",
		"--timeout", "1", "--worker_delay", "30s",
	)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.HasSuffix(stdout, report.TimeoutNote+"\n") {
		t.Errorf("expected timeout note, got %q", stdout)
	}
}

func TestRun_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing pnum", []string{"--seed", "1", "--array_size", "10"}, "--pnum is required"},
		{"negative size", []string{"--seed", "1", "--array_size", "-3", "--pnum", "2"}, "--array_size must be positive"},
		{"zero timeout", []string{"--seed", "1", "--array_size", "10", "--pnum", "2", "--timeout", "0"}, "--timeout must be positive seconds"},
		{"huge array", []string{"--seed", "1", "--array_size", "4611686018427387904", "--pnum", "4"}, "--array_size must be at most 2147483647"},
		{"huge seed", []string{"--seed", "4294967338", "--array_size", "10", "--pnum", "4"}, "--seed must be at most 2147483647"},
		{"bad format", []string{"--seed", "1", "--array_size", "10", "--pnum", "2", "--format", "xml"}, "--format"},
		{"unknown flag", []string{"--threads", "2"}, "flag provided but not defined"},
		{"stray argument", []string{"--seed", "1", "extra"}, "unexpected argument"},
		{"missing config", []string{"--config", "/nonexistent/parminmax.toml"}, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != 1 {
				t.Errorf("expected exit 1, got %d", code)
			}
			if stdout != "" {
				t.Errorf("expected nothing on stdout, got %q", stdout)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("expected %q in stderr, got %q", tt.want, stderr)
			}
		})
	}
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parminmax.toml")
	content := "seed = 42\narray_size = 10\npnum = 4\nformat = \"yaml\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	code, stdout, stderr := runCLI(t, "--config", path, "--format", "text")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "Min: 53523743\n") {
		t.Errorf("expected flag to override file format, got %q", stdout)
	}
}

func TestRun_VersionAndHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	if code != 0 || !strings.HasPrefix(stdout, "parminmax "+version) {
		t.Errorf("unexpected version output (%d): %q", code, stdout)
	}

	code, stdout, _ = runCLI(t, "-h")
	if code != 0 || !strings.Contains(stdout, "Usage: parminmax") {
		t.Errorf("unexpected help output (%d): %q", code, stdout)
	}
	if strings.Contains(stdout, "worker_delay") {
		t.Error("expected worker_delay to stay out of the help text")
	}
}

func TestRun_WorkerSubcommand(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"worker", "--begin", "0"}, strings.NewReader(""), &bytes.Buffer{}, &stderr)
	if code != 1 {
		t.Errorf("expected worker failure, got %d", code)
	}
	if !strings.Contains(stderr.String(), "worker:") {
		t.Errorf("expected worker error on stderr, got %q", stderr.String())
	}
}
