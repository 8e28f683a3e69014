// Package generator produces the deterministic input arrays.
//
// The sequence matches the C library's srand/rand pair (the additive
// feedback generator with a 31-word state), so a seed reproduces the same
// numbers that C tooling would produce for it.
package generator

const (
	degree    = 31
	separator = 3
	discard   = 10 * degree
)

// Rand is a deterministic pseudo-random source. It is not safe for
// concurrent use.
type Rand struct {
	state [degree]uint32
	front int
	rear  int
}

// NewRand seeds a new source. A zero seed behaves like a seed of one.
func NewRand(seed uint32) *Rand {
	if seed == 0 {
		seed = 1
	}

	g := &Rand{front: separator, rear: 0}
	g.state[0] = seed

	// Park-Miller minimal standard, computed with Schrage's method.
	word := int64(seed)
	for i := 1; i < degree; i++ {
		hi := word / 127773
		lo := word % 127773
		word = 16807*lo - 2836*hi
		if word < 0 {
			word += 2147483647
		}
		g.state[i] = uint32(word)
	}

	for i := 0; i < discard; i++ {
		g.Next()
	}
	return g
}

// Next returns the next value in [0, 2^31).
func (g *Rand) Next() int32 {
	g.state[g.front] += g.state[g.rear]
	v := g.state[g.front] >> 1

	g.front = (g.front + 1) % degree
	g.rear = (g.rear + 1) % degree
	return int32(v)
}

// Generate returns size values drawn from a source seeded with seed.
func Generate(seed uint32, size int) []int32 {
	g := NewRand(seed)
	array := make([]int32, size)
	for i := range array {
		array[i] = g.Next()
	}
	return array
}
