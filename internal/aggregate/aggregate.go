// Package aggregate folds per-worker results into one global MinMax.
package aggregate

import (
	"sort"

	"go.uber.org/zap"

	"github.com/dshills/parminmax/internal/minmax"
	"github.com/dshills/parminmax/internal/transport"
)

// Result is the outcome of folding all workers' records.
type Result struct {
	MinMax minmax.MinMax

	// Contributed is the number of workers whose record was read.
	Contributed int

	// Missing lists, in ascending order, the workers that contributed nothing.
	Missing []int
}

// Complete reports whether every worker contributed.
func (r Result) Complete() bool {
	return len(r.Missing) == 0
}

// Aggregator accumulates worker records. The zero value is not ready; use
// New.
type Aggregator struct {
	result Result
}

// New returns an aggregator holding the neutral MinMax.
func New() *Aggregator {
	return &Aggregator{result: Result{MinMax: minmax.Neutral()}}
}

// Add folds one worker's record.
func (a *Aggregator) Add(m minmax.MinMax) {
	a.result.MinMax.Merge(m)
	a.result.Contributed++
}

// Skip records that worker index contributed nothing.
func (a *Aggregator) Skip(index int) {
	a.result.Missing = append(a.result.Missing, index)
}

// Result returns the aggregate so far.
func (a *Aggregator) Result() Result {
	r := a.result
	r.Missing = append([]int(nil), a.result.Missing...)
	sort.Ints(r.Missing)
	return r
}

// Collect receives from every endpoint in index order. A failed receive is
// logged at debug level and skipped; it never aborts the collection.
func Collect(endpoints []transport.Endpoint, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := New()
	for _, ep := range endpoints {
		m, err := ep.Receive()
		if err != nil {
			logger.Debug("worker contributed nothing",
				zap.Int("worker", ep.Index()),
				zap.Error(err),
			)
			a.Skip(ep.Index())
			continue
		}
		a.Add(m)
	}
	return a.Result()
}
