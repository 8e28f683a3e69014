package minmax

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Size is the encoded size of a MinMax record in bytes.
const Size = 8

// ErrRecordSize is returned when a record is not exactly Size bytes.
var ErrRecordSize = errors.New("minmax record must be 8 bytes")

// MarshalBinary encodes m as Min then Max, little-endian.
func (m MinMax) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(m.Min))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.Max))
	return buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (m *MinMax) UnmarshalBinary(data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("%w: got %d", ErrRecordSize, len(data))
	}
	m.Min = int32(binary.LittleEndian.Uint32(data[0:4]))
	m.Max = int32(binary.LittleEndian.Uint32(data[4:8]))
	return nil
}

// WriteTo writes the record to w in a single write.
// A write of fewer than Size bytes is reported as io.ErrShortWrite.
func (m MinMax) WriteTo(w io.Writer) (int64, error) {
	buf, _ := m.MarshalBinary()
	n, err := w.Write(buf)
	if err == nil && n != Size {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// ReadRecord reads exactly one record from r and never more than Size bytes.
// A zero-length read returns io.EOF; a partial one io.ErrUnexpectedEOF.
func ReadRecord(r io.Reader) (MinMax, error) {
	var buf [Size]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return MinMax{}, err
	}

	var m MinMax
	if err := m.UnmarshalBinary(buf[:]); err != nil {
		return MinMax{}, err
	}
	return m, nil
}
