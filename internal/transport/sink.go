package transport

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// OpenSink opens the worker's side of the channel.
//
// For KindPipe, fd is the inherited descriptor of the write end. For
// KindFile, path is the result file, created or truncated with mode 0644.
func OpenSink(kind Kind, fd int, path string) (io.WriteCloser, error) {
	switch kind {
	case KindPipe:
		if fd < 3 {
			return nil, fmt.Errorf("invalid result descriptor %d", fd)
		}
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
			return nil, fmt.Errorf("result descriptor %d: %w", fd, err)
		}
		return os.NewFile(uintptr(fd), "result"), nil
	case KindFile:
		if path == "" {
			return nil, fmt.Errorf("missing result file path")
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open result file: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
