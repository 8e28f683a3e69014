package minmax

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncatedValues is returned when a value stream ends mid-value.
var ErrTruncatedValues = errors.New("truncated value stream")

// EncodeValues encodes values as consecutive little-endian int32s.
func EncodeValues(values []int32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
	}
	return buf
}

// WriteValues writes values to w in the EncodeValues format.
func WriteValues(w io.Writer, values []int32) error {
	if _, err := w.Write(EncodeValues(values)); err != nil {
		return fmt.Errorf("write values: %w", err)
	}
	return nil
}

// ReadValues reads int32 values from r until EOF.
func ReadValues(r io.Reader) ([]int32, error) {
	br := bufio.NewReader(r)
	var values []int32
	var buf [4]byte
	for {
		_, err := io.ReadFull(br, buf[:])
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w after %d values", ErrTruncatedValues, len(values))
		}
		if err != nil {
			return nil, fmt.Errorf("read values: %w", err)
		}
		values = append(values, int32(binary.LittleEndian.Uint32(buf[:])))
	}
}
