package worker

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dshills/parminmax/internal/minmax"
	"github.com/dshills/parminmax/internal/transport"
)

func TestParseArgs(t *testing.T) {
	a, err := ParseArgs([]string{
		"--index", "2", "--begin", "5", "--end", "9",
		"--transport", "file", "--result_file", "/tmp/x", "--delay", "10ms",
	}, io.Discard)
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}

	if a.Index != 2 || a.Begin != 5 || a.End != 9 {
		t.Errorf("unexpected range args: %+v", a)
	}
	if a.Transport != transport.KindFile || a.ResultFile != "/tmp/x" {
		t.Errorf("unexpected transport args: %+v", a)
	}
	if a.Delay.Milliseconds() != 10 {
		t.Errorf("expected 10ms delay, got %v", a.Delay)
	}
}

func TestParseArgs_Invalid(t *testing.T) {
	tests := [][]string{
		{"--begin", "0", "--end", "1"},
		{"--index", "0", "--begin", "4", "--end", "1"},
		{"--index", "0", "--transport", "smoke-signal"},
		{"--index", "0", "--bogus"},
	}
	for _, args := range tests {
		if _, err := ParseArgs(args, io.Discard); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestRun_FileTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mm_0.tmp")
	stdin := bytes.NewReader(minmax.EncodeValues([]int32{8, -3, 12, 5}))

	err := Run(Args{Begin: 10, End: 14, Transport: transport.KindFile, ResultFile: path}, stdin, zap.NewNop())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("result file missing: %v", err)
	}
	defer f.Close()

	got, err := minmax.ReadRecord(f)
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if want := (minmax.MinMax{Min: -3, Max: 12}); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRun_RangeMismatch(t *testing.T) {
	stdin := bytes.NewReader(minmax.EncodeValues([]int32{1, 2}))

	err := Run(Args{Begin: 0, End: 3, Transport: transport.KindFile, ResultFile: filepath.Join(t.TempDir(), "r")}, stdin, zap.NewNop())
	if !errors.Is(err, ErrRangeMismatch) {
		t.Errorf("expected ErrRangeMismatch, got %v", err)
	}
}

func TestMain_Failures(t *testing.T) {
	var stderr bytes.Buffer

	code := Main([]string{"--index", "0", "--begin", "0", "--end", "1", "--transport", "pipe", "--result_fd", "1"},
		bytes.NewReader(minmax.EncodeValues([]int32{1})), &stderr)
	if code != ExitFailure {
		t.Errorf("expected failure for an invalid descriptor, got %d", code)
	}

	stderr.Reset()
	code = Main([]string{"--begin", "0"}, strings.NewReader(""), &stderr)
	if code != ExitFailure {
		t.Errorf("expected failure for missing index, got %d", code)
	}
	if !strings.Contains(stderr.String(), "--index is required") {
		t.Errorf("expected usage error on stderr, got %q", stderr.String())
	}
}

func TestMain_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mm_1.tmp")
	code := Main([]string{"--index", "1", "--begin", "0", "--end", "2", "--transport", "file", "--result_file", path},
		bytes.NewReader(minmax.EncodeValues([]int32{4, 2})), io.Discard)
	if code != ExitOK {
		t.Fatalf("expected success, got %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected result file: %v", err)
	}
}
