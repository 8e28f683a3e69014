package minmax

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/dshills/parminmax/internal/partition"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name   string
		values []int32
		want   MinMax
	}{
		{"single", []int32{7}, MinMax{7, 7}},
		{"mixed", []int32{3, -2, 9, 0}, MinMax{-2, 9}},
		{"extremes", []int32{math.MaxInt32, math.MinInt32}, MinMax{math.MinInt32, math.MaxInt32}},
		{"empty", nil, Neutral()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Of(tt.values); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCompute_OnlyScansRange(t *testing.T) {
	array := []int32{-100, 5, 3, 8, 100}

	got := Compute(array, partition.Range{Begin: 1, End: 4})
	if want := (MinMax{3, 8}); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got := Compute(array, partition.Range{Begin: 2, End: 2}); !got.IsNeutral() {
		t.Errorf("expected neutral for empty range, got %v", got)
	}
}

func TestMerge_NeutralIsIdentity(t *testing.T) {
	m := MinMax{-4, 12}
	m.Merge(Neutral())
	if m != (MinMax{-4, 12}) {
		t.Errorf("merging neutral changed value: %v", m)
	}

	n := Neutral()
	n.Merge(MinMax{-4, 12})
	if n != (MinMax{-4, 12}) {
		t.Errorf("expected {-4 12}, got %v", n)
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := MinMax{Min: -123456, Max: 987654}

	n, err := want.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != Size {
		t.Fatalf("expected %d bytes written, got %d", Size, n)
	}

	got, err := ReadRecord(&buf)
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReadRecord_ShortAndEmpty(t *testing.T) {
	if _, err := ReadRecord(bytes.NewReader(nil)); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF on empty input, got %v", err)
	}

	if _, err := ReadRecord(bytes.NewReader([]byte{1, 2, 3})); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF on short input, got %v", err)
	}
}

func TestReadRecord_ReadsAtMostOneRecord(t *testing.T) {
	first, _ := MinMax{1, 2}.MarshalBinary()
	second, _ := MinMax{3, 4}.MarshalBinary()
	r := bytes.NewReader(append(first, second...))

	if _, err := ReadRecord(r); err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if r.Len() != Size {
		t.Errorf("expected %d unread bytes, got %d", Size, r.Len())
	}
}

func TestUnmarshalBinary_RejectsWrongSize(t *testing.T) {
	var m MinMax
	if err := m.UnmarshalBinary(make([]byte, Size+1)); !errors.Is(err, ErrRecordSize) {
		t.Errorf("expected ErrRecordSize, got %v", err)
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestWriteTo_ShortWrite(t *testing.T) {
	if _, err := (MinMax{}).WriteTo(shortWriter{}); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("expected io.ErrShortWrite, got %v", err)
	}
}

func TestValues(t *testing.T) {
	values := []int32{0, -1, math.MaxInt32, math.MinInt32, 42}

	var buf bytes.Buffer
	if err := WriteValues(&buf, values); err != nil {
		t.Fatalf("WriteValues failed: %v", err)
	}

	got, err := ReadValues(&buf)
	if err != nil {
		t.Fatalf("ReadValues failed: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("expected %d values, got %d", len(values), len(got))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("value %d: expected %d, got %d", i, values[i], got[i])
		}
	}

	truncated := EncodeValues(values)[:6]
	if _, err := ReadValues(bytes.NewReader(truncated)); !errors.Is(err, ErrTruncatedValues) {
		t.Errorf("expected ErrTruncatedValues, got %v", err)
	}
}

func TestOf_IsComputeOverWholeSlice(t *testing.T) {
	values := []int32{4, -9, 17, 0, 3}

	whole := Compute(values, partition.Range{Begin: 0, End: uint(len(values))})
	if got := Of(values); got != whole {
		t.Errorf("expected Of to equal Compute over the whole slice: %v vs %v", got, whole)
	}
	if want := (MinMax{Min: -9, Max: 17}); whole != want {
		t.Errorf("expected %v, got %v", want, whole)
	}
}
