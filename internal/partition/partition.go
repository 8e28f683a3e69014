// Package partition divides an index space into contiguous worker ranges.
package partition

import "fmt"

// Range is a half-open interval [Begin, End) of array indices.
type Range struct {
	Begin uint
	End   uint
}

// Len returns the number of indices covered by the range.
func (r Range) Len() uint {
	return r.End - r.Begin
}

// Empty reports whether the range covers no indices.
func (r Range) Empty() bool {
	return r.End <= r.Begin
}

// String returns the range in interval notation.
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Begin, r.End)
}

// Split returns the range assigned to worker i out of p workers over n indices.
//
// Each worker gets n/p indices and the first n%p workers get one extra, so
// ranges are contiguous and their lengths differ by at most one.
// p must be positive and i must be in [0, p).
func Split(n, p, i uint) Range {
	base := n / p
	rem := n % p

	begin := i*base + min(i, rem)
	end := begin + base
	if i < rem {
		end++
	}
	return Range{Begin: begin, End: end}
}

// Ranges returns the ranges of all p workers in worker order.
func Ranges(n, p uint) []Range {
	ranges := make([]Range, p)
	for i := uint(0); i < p; i++ {
		ranges[i] = Split(n, p, i)
	}
	return ranges
}
