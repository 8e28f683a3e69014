package transport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/dshills/parminmax/internal/minmax"
)

// FileTransport has every worker write its record to a file named after its
// index inside Dir.
type FileTransport struct {
	Dir string
}

// NewFileTransport creates a file transport rooted at dir. An empty dir means
// the current working directory.
func NewFileTransport(dir string) *FileTransport {
	if dir == "" {
		dir = "."
	}
	return &FileTransport{Dir: dir}
}

// Kind implements Transport.
func (*FileTransport) Kind() Kind { return KindFile }

// ResultPath returns the deterministic result file path for worker index.
func (t *FileTransport) ResultPath(index int) string {
	return filepath.Join(t.Dir, fmt.Sprintf("mm_%d.tmp", index))
}

// Open removes any stale result at the worker's path so a file from an
// earlier run is never read as this run's result.
func (t *FileTransport) Open(index int) (Endpoint, error) {
	path := t.ResultPath(index)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale result for worker %d: %w", index, err)
	}
	return &fileEndpoint{index: index, path: path}, nil
}

type fileEndpoint struct {
	index int
	path  string

	mu       sync.Mutex
	received bool
}

func (e *fileEndpoint) Index() int { return e.index }

func (e *fileEndpoint) Attach(cmd *exec.Cmd) {
	cmd.Args = append(cmd.Args,
		"--transport", string(KindFile),
		"--result_file", e.path,
	)
}

func (e *fileEndpoint) Spawned() error { return nil }

// Receive reads the result file and removes it once it could be opened,
// whether or not the read succeeds. A file that cannot be opened is left
// alone.
func (e *fileEndpoint) Receive() (minmax.MinMax, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.received {
		return minmax.MinMax{}, ErrAlreadyReceived
	}
	e.received = true

	f, err := os.Open(e.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return minmax.MinMax{}, ErrNoResult
		}
		return minmax.MinMax{}, fmt.Errorf("open result file: %w", err)
	}

	m, err := receive(f)
	_ = f.Close()
	_ = os.Remove(e.path)
	return m, err
}

func (e *fileEndpoint) Close() error { return nil }
