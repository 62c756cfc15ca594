package generator

import "encoding/binary"

// XORShiftSeedLen is the minimum seed length in bytes: five 32-bit words.
const XORShiftSeedLen = 20

// XORShiftName is the algorithm name reported by XORShift generators.
const XORShiftName = "XORShift"

type xorshiftState struct {
	s1, s2, s3, s4, s5 uint32
}

func (s *xorshiftState) next() uint32 {
	t := s.s1 ^ uint32(int32(s.s1)>>7)
	s.s1, s.s2, s.s3, s.s4 = s.s2, s.s3, s.s4, s.s5
	s.s5 = (s.s5 ^ s.s5<<6) ^ (t ^ t<<13)
	return (s.s2 + s.s2 + 1) * s.s5
}

func (s *xorshiftState) equal(o *xorshiftState) bool { return *s == *o }

func (s *xorshiftState) appendTo(dst []byte) []byte {
	for _, w := range [...]uint32{s.s1, s.s2, s.s3, s.s4, s.s5} {
		dst = binary.BigEndian.AppendUint32(dst, w)
	}
	return dst
}

func (s *xorshiftState) restore(src []byte) error {
	if len(src) != XORShiftSeedLen {
		return ErrCorruptState
	}
	s.load(src)
	return nil
}

func (s *xorshiftState) load(b []byte) {
	s.s1 = binary.BigEndian.Uint32(b[0:])
	s.s2 = binary.BigEndian.Uint32(b[4:])
	s.s3 = binary.BigEndian.Uint32(b[8:])
	s.s4 = binary.BigEndian.Uint32(b[12:])
	s.s5 = binary.BigEndian.Uint32(b[16:])
}

// XORShift is Marsaglia's xorshift with a multiplicative output step,
// 160 bits of state and a period of 2^160-1.
type XORShift struct {
	stream[*xorshiftState]
}

var _ Generator = (*XORShift)(nil)

// NewXORShift reads the state words s1..s5 from the first 20 bytes of seed.
func NewXORShift(seed []byte, opts ...Option) (*XORShift, error) {
	if err := checkSeed(XORShiftName, seed, XORShiftSeedLen); err != nil {
		return nil, err
	}
	return newXORShift(seed, applyOptions(opts)), nil
}

func newXORShift(seed []byte, o options) *XORShift {
	g := &XORShift{stream[*xorshiftState]{
		base: newBase(seed, o),
		name: XORShiftName,
		s:    new(xorshiftState),
	}}
	g.s.load(seed)
	return g
}

// RestoreXORShift rebuilds a generator from the output of MarshalBinary.
func RestoreXORShift(data []byte, opts ...Option) (*XORShift, error) {
	mark, state, err := splitState(data)
	if err != nil {
		return nil, err
	}
	g, err := NewXORShift(mark, opts...)
	if err != nil {
		return nil, ErrCorruptState
	}
	if err := g.s.restore(state); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *XORShift) core() *stream[*xorshiftState] {
	if g == nil {
		return nil
	}
	return &g.stream
}

func (g *XORShift) MinSeedLen() int { return XORShiftSeedLen }

func (g *XORShift) Clone(opts ...Option) Generator {
	c := newXORShift(g.mark, applyOptions(opts))
	*c.s = *g.s
	return c
}
