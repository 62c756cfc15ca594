// Package catalog maps algorithm names to generator constructors.
package catalog

import (
	"sort"
	"strings"

	"github.com/moontrade/prng/generator"
	"github.com/moontrade/prng/logger"
	"github.com/pkg/errors"
)

// ErrUnknownAlgorithm is returned for a name that is not in the catalog.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Entry describes one algorithm.
type Entry struct {
	Name       string
	MinSeedLen int
	New        func(seed []byte, opts ...generator.Option) (generator.Generator, error)
	Restore    func(state []byte, opts ...generator.Option) (generator.Generator, error)
}

var entries = map[string]Entry{}

func register(e Entry) {
	entries[strings.ToLower(e.Name)] = e
}

func init() {
	register(Entry{
		Name:       generator.WELL19937Name,
		MinSeedLen: generator.WELL19937SeedLen,
		New: func(seed []byte, opts ...generator.Option) (generator.Generator, error) {
			return generator.NewWELL19937(seed, opts...)
		},
		Restore: func(state []byte, opts ...generator.Option) (generator.Generator, error) {
			return generator.RestoreWELL19937(state, opts...)
		},
	})
	register(Entry{
		Name:       generator.XORShiftName,
		MinSeedLen: generator.XORShiftSeedLen,
		New: func(seed []byte, opts ...generator.Option) (generator.Generator, error) {
			return generator.NewXORShift(seed, opts...)
		},
		Restore: func(state []byte, opts ...generator.Option) (generator.Generator, error) {
			return generator.RestoreXORShift(state, opts...)
		},
	})
	register(Entry{
		Name:       generator.CellularAutomatonName,
		MinSeedLen: generator.CellularAutomatonSeedLen,
		New: func(seed []byte, opts ...generator.Option) (generator.Generator, error) {
			return generator.NewCellularAutomaton(seed, opts...)
		},
		Restore: func(state []byte, opts ...generator.Option) (generator.Generator, error) {
			return generator.RestoreCellularAutomaton(state, opts...)
		},
	})
}

// Lookup finds an entry by name, ignoring case.
func Lookup(name string) (Entry, error) {
	e, ok := entries[strings.ToLower(name)]
	if !ok {
		return Entry{}, errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
	}
	return e, nil
}

// Names returns the canonical algorithm names, sorted.
func Names() []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// New builds the named generator from seed.
func New(name string, seed []byte, opts ...generator.Option) (generator.Generator, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	g, err := e.New(seed, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("algorithm", e.Name, "seed_len", len(seed), "shared", g.IsShared(), "generator created")
	return g, nil
}

// NewSecure builds the named generator from a crypto/rand seed of the
// minimum length.
func NewSecure(name string, opts ...generator.Option) (generator.Generator, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	seed, err := generator.SecureSeed(e.MinSeedLen)
	if err != nil {
		return nil, err
	}
	return New(e.Name, seed, opts...)
}

// NewFromUint64 builds the named generator from a splitmix64 expansion of x.
func NewFromUint64(name string, x uint64, opts ...generator.Option) (generator.Generator, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return New(e.Name, generator.SeedFromUint64(x, e.MinSeedLen), opts...)
}

// Restore rebuilds the named generator from the output of its MarshalBinary.
func Restore(name string, state []byte, opts ...generator.Option) (generator.Generator, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.Restore(state, opts...)
}
