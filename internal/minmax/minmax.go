// Package minmax holds the per-worker result record and the scan that
// produces it.
package minmax

import (
	"fmt"
	"math"

	"github.com/dshills/parminmax/internal/partition"
)

// MinMax is the minimum and maximum of a set of values.
type MinMax struct {
	Min int32 `json:"min" yaml:"min"`
	Max int32 `json:"max" yaml:"max"`
}

// Neutral returns the identity of Merge: Min is the largest int32 and Max
// the smallest.
func Neutral() MinMax {
	return MinMax{Min: math.MaxInt32, Max: math.MinInt32}
}

// IsNeutral reports whether m has absorbed no values.
func (m MinMax) IsNeutral() bool {
	return m == Neutral()
}

// Merge folds other into m.
func (m *MinMax) Merge(other MinMax) {
	if other.Min < m.Min {
		m.Min = other.Min
	}
	if other.Max > m.Max {
		m.Max = other.Max
	}
}

// String implements fmt.Stringer.
func (m MinMax) String() string {
	return fmt.Sprintf("min=%d max=%d", m.Min, m.Max)
}

// Of scans values and returns their bounds. An empty slice yields Neutral.
func Of(values []int32) MinMax {
	return Compute(values, partition.Range{End: uint(len(values))})
}

// Compute returns the bounds of array over exactly the indices in r.
func Compute(array []int32, r partition.Range) MinMax {
	result := Neutral()
	if r.Empty() {
		return result
	}
	for _, v := range array[r.Begin:r.End] {
		if v < result.Min {
			result.Min = v
		}
		if v > result.Max {
			result.Max = v
		}
	}
	return result
}
