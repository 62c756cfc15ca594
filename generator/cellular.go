package generator

import (
	"encoding/binary"
	"math/bits"
)

// CellularAutomatonSeedLen is the minimum seed length in bytes: three 64-bit
// words.
const CellularAutomatonSeedLen = 24

// CellularAutomatonName is the algorithm name reported by CellularAutomaton
// generators.
const CellularAutomatonName = "CellularAutomaton"

// cellularState is a ring of 192 cells. Cell k lives in word k%3 at bit k/3,
// so neighbouring cells sit in neighbouring words and one rule-30 step is
// three word-wide operations.
type cellularState struct {
	w0, w1, w2 uint64
}

func (s *cellularState) next() uint32 {
	w0, w1, w2 := s.w0, s.w1, s.w2
	var r uint32
	for i := 0; i < 32; i++ {
		r = r<<1 | uint32(w0>>32)&1
		t0 := bits.RotateLeft64(w2, -1) ^ (w0 | w1)
		t1 := w0 ^ (w1 | w2)
		t2 := w1 ^ (w2 | bits.RotateLeft64(w0, 1))
		w0, w1, w2 = t0, t1, t2
	}
	s.w0, s.w1, s.w2 = w0, w1, w2
	return r
}

func (s *cellularState) equal(o *cellularState) bool { return *s == *o }

func (s *cellularState) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint64(dst, s.w0)
	dst = binary.BigEndian.AppendUint64(dst, s.w1)
	return binary.BigEndian.AppendUint64(dst, s.w2)
}

func (s *cellularState) restore(src []byte) error {
	if len(src) != 24 {
		return ErrCorruptState
	}
	s.w0 = binary.BigEndian.Uint64(src[0:])
	s.w1 = binary.BigEndian.Uint64(src[8:])
	s.w2 = binary.BigEndian.Uint64(src[16:])
	return nil
}

// interleave spreads the 192 seed bits over the three state words: bit j of
// the concatenated seed goes to word j%3, bit j/3.
func (s *cellularState) interleave(seed [3]uint64) {
	var w [3]uint64
	for j := 0; j < 192; j++ {
		bit := seed[j/64] >> (j % 64) & 1
		w[j%3] |= bit << (j / 3)
	}
	s.w0, s.w1, s.w2 = w[0], w[1], w[2]
}

// CellularAutomaton extracts one bit per elementary rule-30 update of a
// 192-cell ring, 32 updates per output word.
//
// An all-zero seed is a fixed point of rule 30 and yields only zeros.
type CellularAutomaton struct {
	stream[*cellularState]
}

var _ Generator = (*CellularAutomaton)(nil)

// NewCellularAutomaton reads three big-endian 64-bit words from the first 24
// bytes of seed and interleaves them into the cell ring.
func NewCellularAutomaton(seed []byte, opts ...Option) (*CellularAutomaton, error) {
	if err := checkSeed(CellularAutomatonName, seed, CellularAutomatonSeedLen); err != nil {
		return nil, err
	}
	return newCellularAutomaton(seed, applyOptions(opts)), nil
}

func newCellularAutomaton(seed []byte, o options) *CellularAutomaton {
	g := &CellularAutomaton{stream[*cellularState]{
		base: newBase(seed, o),
		name: CellularAutomatonName,
		s:    new(cellularState),
	}}
	g.s.interleave([3]uint64{
		binary.BigEndian.Uint64(seed[0:]),
		binary.BigEndian.Uint64(seed[8:]),
		binary.BigEndian.Uint64(seed[16:]),
	})
	return g
}

// RestoreCellularAutomaton rebuilds a generator from the output of
// MarshalBinary.
func RestoreCellularAutomaton(data []byte, opts ...Option) (*CellularAutomaton, error) {
	mark, state, err := splitState(data)
	if err != nil {
		return nil, err
	}
	g, err := NewCellularAutomaton(mark, opts...)
	if err != nil {
		return nil, ErrCorruptState
	}
	if err := g.s.restore(state); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *CellularAutomaton) core() *stream[*cellularState] {
	if g == nil {
		return nil
	}
	return &g.stream
}

func (g *CellularAutomaton) MinSeedLen() int { return CellularAutomatonSeedLen }

func (g *CellularAutomaton) Clone(opts ...Option) Generator {
	c := newCellularAutomaton(g.mark, applyOptions(opts))
	*c.s = *g.s
	return c
}
