package generator

import (
	"encoding/binary"
)

// WELL19937 (Panneton, L'Ecuyer, Matsumoto 2006) with Matsumoto-Kurita
// tempering, the "WELL19937c" variant.
//
// http://www.iro.umontreal.ca/~panneton/WELLRNG.html
const (
	wellR  = 625 // state words, ceil(19937/32)
	wellM1 = 70
	wellM2 = 179
	wellM3 = 449

	wellTemperB = 0xe46e1700
	wellTemperC = 0x9b868000

	// WELL19937SeedLen is the minimum seed length in bytes.
	WELL19937SeedLen = wellR * 4
)

// WELL19937Name is the algorithm name reported by WELL19937 generators.
const WELL19937Name = "WELL19937"

// Index transition tables. Computed once and never written afterwards.
var (
	wellI1, wellI2, wellI3 [wellR]uint16
	wellRm1, wellRm2       [wellR]uint16
)

func init() {
	for j := 0; j < wellR; j++ {
		wellI1[j] = uint16((j + wellM1) % wellR)
		wellI2[j] = uint16((j + wellM2) % wellR)
		wellI3[j] = uint16((j + wellM3) % wellR)
		wellRm1[j] = uint16((j + wellR - 1) % wellR)
		wellRm2[j] = uint16((j + wellR - 2) % wellR)
	}
}

type wellState struct {
	v     [wellR]uint32
	index int
}

func (s *wellState) next() uint32 {
	v := &s.v
	idx := s.index
	rm1 := int(wellRm1[idx])
	rm2 := int(wellRm2[idx])

	v0 := v[idx]
	vM1 := v[wellI1[idx]]
	vM2 := v[wellI2[idx]]
	vM3 := v[wellI3[idx]]

	z0 := v[rm1]&0x80000000 | v[rm2]&0x7fffffff
	z1 := (v0 ^ v0<<25) ^ (vM1 ^ vM1>>27)
	z2 := vM2>>9 ^ (vM3 ^ vM3>>1)
	z3 := z1 ^ z2
	z4 := z0 ^ (z1 ^ z1<<9) ^ (z2 ^ z2<<21) ^ (z3 ^ z3>>21)

	v[idx] = z3
	v[rm1] = z4
	v[rm2] &= 0x80000000
	s.index = rm1

	z4 ^= z4 << 7 & wellTemperB
	z4 ^= z4 << 15 & wellTemperC
	return z4
}

func (s *wellState) equal(o *wellState) bool { return *s == *o }

func (s *wellState) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(s.index))
	for _, w := range s.v {
		dst = binary.BigEndian.AppendUint32(dst, w)
	}
	return dst
}

func (s *wellState) restore(src []byte) error {
	if len(src) != 2+wellR*4 {
		return ErrCorruptState
	}
	index := int(binary.BigEndian.Uint16(src))
	if index >= wellR {
		return ErrCorruptState
	}
	src = src[2:]
	for i := range s.v {
		s.v[i] = binary.BigEndian.Uint32(src[i*4:])
	}
	s.index = index
	return nil
}

// WELL19937 is a large-state generator with a period of 2^19937-1.
type WELL19937 struct {
	stream[*wellState]
}

var _ Generator = (*WELL19937)(nil)

// NewWELL19937 derives the state from the first WELL19937SeedLen bytes of
// seed, read as big-endian words.
func NewWELL19937(seed []byte, opts ...Option) (*WELL19937, error) {
	if err := checkSeed(WELL19937Name, seed, WELL19937SeedLen); err != nil {
		return nil, err
	}
	return newWELL19937(seed, applyOptions(opts)), nil
}

func newWELL19937(seed []byte, o options) *WELL19937 {
	g := &WELL19937{stream[*wellState]{
		base: newBase(seed, o),
		name: WELL19937Name,
		s:    new(wellState),
	}}
	for i := range g.s.v {
		g.s.v[i] = binary.BigEndian.Uint32(seed[i*4:])
	}
	return g
}

// RestoreWELL19937 rebuilds a generator from the output of MarshalBinary.
func RestoreWELL19937(data []byte, opts ...Option) (*WELL19937, error) {
	mark, state, err := splitState(data)
	if err != nil {
		return nil, err
	}
	g, err := NewWELL19937(mark, opts...)
	if err != nil {
		return nil, ErrCorruptState
	}
	if err := g.s.restore(state); err != nil {
		return nil, err
	}
	return g, nil
}

// MinSeedLen returns WELL19937SeedLen.
func (g *WELL19937) core() *stream[*wellState] {
	if g == nil {
		return nil
	}
	return &g.stream
}

func (g *WELL19937) MinSeedLen() int { return WELL19937SeedLen }

// Clone re-derives a generator from the mark and copies the live state
// over it.
func (g *WELL19937) Clone(opts ...Option) Generator {
	c := newWELL19937(g.mark, applyOptions(opts))
	*c.s = *g.s
	return c
}
