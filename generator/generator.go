// Package generator provides seedable pseudorandom bit generators that share
// a single buffered generation contract. None of them are suitable for
// cryptographic use.
package generator

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// Generator is the streaming contract implemented by every algorithm.
//
// Fill methods write until dst is full or, for shared generators, until the
// configured Liveness reports false. They return the number of elements
// written. A short count is a normal result, never an error.
type Generator interface {
	io.Reader
	encoding.BinaryMarshaler

	FillBytes(dst []byte, order binary.ByteOrder) int
	FillUint32(dst []uint32) int
	FillInt32(dst []int32) int
	FillInt64(dst []int64) int
	FillFloat32(dst []float32) int
	FillFloat64(dst []float64) int

	Uint32() uint32
	Int32() int32
	Uint64() uint64
	Int64() int64
	Int() int
	Float32() float32
	Float64() float64

	// Clone returns an independent generator in the same state. Options
	// configure the clone the same way they configure a constructor.
	Clone(opts ...Option) Generator
	Equal(other Generator) bool
	Hash() uint64
	String() string

	Algorithm() string
	MinSeedLen() int
	Seed() []byte
	IsShared() bool
	IsOpen() bool
	Close() error
}

// Option configures a generator at construction.
type Option func(o *options)

type options struct {
	live Liveness
}

// Shared marks the generator as driven from outside its owning call path.
// Bulk fills check l before producing each output unit and stop early once
// it reports false.
func Shared(l Liveness) Option {
	return func(o *options) {
		o.live = l
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// base carries the fields every algorithm shares: the mark, lifecycle flag
// and liveness.
type base struct {
	mark   []byte
	live   Liveness
	closed bool
}

func newBase(seed []byte, o options) base {
	mark := make([]byte, len(seed))
	copy(mark, seed)
	return base{mark: mark, live: o.live}
}

// Seed returns a copy of the seed material the generator was built from.
func (b *base) Seed() []byte {
	out := make([]byte, len(b.mark))
	copy(out, b.mark)
	return out
}

// IsShared reports whether bulk fills check a Liveness.
func (b *base) IsShared() bool { return b.live != nil }

// IsOpen reports whether Close has not been called yet.
func (b *base) IsOpen() bool { return !b.closed }

// Close marks the generator closed. Generation after Close is undefined and
// equality and hashing fall back to identity.
func (b *base) Close() error {
	b.closed = true
	return nil
}

func identityHash(p unsafe.Pointer) uint64 {
	return splitmix64(uint64(uintptr(p)))
}

func describe(name string, open bool, hash uint64) string {
	if !open {
		return name + "{closed}"
	}
	return fmt.Sprintf("%s{%016x}", name, hash)
}
