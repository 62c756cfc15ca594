package generator

import "math/rand"

// Source adapts a Generator to math/rand.
type Source struct {
	g Generator
}

var (
	_ rand.Source64 = (*Source)(nil)
)

// NewSource returns a rand.Source64 backed by g. Distribution helpers from
// math/rand can then be used with rand.New(NewSource(g)).
func NewSource(g Generator) *Source {
	return &Source{g: g}
}

// Seed panics. Generators are seeded with byte material at construction.
func (s *Source) Seed(int64) {
	panic("generator: Source cannot be reseeded, construct a new generator")
}

// Uint64 returns the generator's next 64-bit value.
func (s *Source) Uint64() uint64 {
	return s.g.Uint64()
}

// Int63 returns a non-negative 63-bit value.
func (s *Source) Int63() int64 {
	return int64(s.g.Uint64() >> 1)
}
