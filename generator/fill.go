package generator

import (
	"encoding/binary"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// engine is the per-algorithm state. next advances the state by one step and
// returns the output word; everything else in the contract is built on it.
type engine[S any] interface {
	next() uint32
	equal(other S) bool
	appendTo(dst []byte) []byte
	restore(src []byte) error
}

// stream implements the buffered generation contract on top of an engine.
// Algorithms embed it and add construction, cloning and naming.
type stream[S engine[S]] struct {
	base
	name string
	s    S
}

// Algorithm returns the algorithm name.
func (st *stream[S]) Algorithm() string { return st.name }

func (st *stream[S]) FillBytes(dst []byte, order binary.ByteOrder) int {
	return fillBytes(st.s, st.live, dst, order)
}

func (st *stream[S]) FillUint32(dst []uint32) int {
	return fillUint32(st.s, st.live, dst)
}

func (st *stream[S]) FillInt32(dst []int32) int {
	return fillInt32(st.s, st.live, dst)
}

func (st *stream[S]) FillInt64(dst []int64) int {
	return fillInt64(st.s, st.live, dst)
}

func (st *stream[S]) FillFloat32(dst []float32) int {
	return fillFloat32(st.s, st.live, dst)
}

func (st *stream[S]) FillFloat64(dst []float64) int {
	return fillFloat64(st.s, st.live, dst)
}

// Read fills p with big-endian words. It returns ErrNotAlive if a shared
// generator stopped before p was full.
func (st *stream[S]) Read(p []byte) (int, error) {
	n := fillBytes(st.s, st.live, p, binary.BigEndian)
	if n < len(p) {
		return n, ErrNotAlive
	}
	return n, nil
}

func (st *stream[S]) Uint32() uint32 { return st.s.next() }

func (st *stream[S]) Int32() int32 { return int32(st.s.next()) }

func (st *stream[S]) Int64() int64 {
	l := st.s.next()
	r := st.s.next()
	return toInt64(l, r)
}

func (st *stream[S]) Uint64() uint64 { return uint64(st.Int64()) }

// Int returns a non-negative int.
func (st *stream[S]) Int() int {
	u := uint(st.Int64())
	return int(u << 1 >> 1)
}

func (st *stream[S]) Float32() float32 { return toFloat32(st.s.next()) }

func (st *stream[S]) Float64() float64 {
	l := st.s.next()
	r := st.s.next()
	return toFloat64(l, r)
}

// Equal reports whether other is an open generator of the same algorithm in
// the same state. A closed generator is only equal to itself. Algorithms
// expose their stream through core, which is nil for a nil receiver.
func (st *stream[S]) Equal(other Generator) bool {
	o, ok := other.(interface{ core() *stream[S] })
	if !ok {
		return false
	}
	ot := o.core()
	if ot == nil {
		return false
	}
	if st == ot {
		return true
	}
	if st.closed || ot.closed {
		return false
	}
	return st.s.equal(ot.s)
}

// Hash is derived from the state while open and from identity once closed.
func (st *stream[S]) Hash() uint64 {
	if st.closed {
		return identityHash(unsafe.Pointer(st))
	}
	return xxhash.Sum64(st.s.appendTo(nil))
}

func (st *stream[S]) String() string {
	if st.closed {
		return describe(st.name, false, 0)
	}
	return describe(st.name, true, st.Hash())
}

// MarshalBinary encodes the mark followed by the live state.
func (st *stream[S]) MarshalBinary() ([]byte, error) {
	out := binary.AppendUvarint(nil, uint64(len(st.mark)))
	out = append(out, st.mark...)
	return st.s.appendTo(out), nil
}

// splitState separates the output of MarshalBinary into mark and live state.
func splitState(data []byte) (mark, state []byte, err error) {
	n, k := binary.Uvarint(data)
	if k <= 0 || uint64(len(data)-k) < n {
		return nil, nil, ErrCorruptState
	}
	data = data[k:]
	return data[:n], data[n:], nil
}

// #region -- word conversions

func toFloat32(w uint32) float32 {
	return float32(w>>8) / (1 << 24)
}

func toFloat64(l, r uint32) float64 {
	return float64(uint64(l>>6)<<27+uint64(r>>5)) / (1 << 53)
}

func toInt64(l, r uint32) int64 {
	return int64(int32(l))<<32 + int64(r)
}

// #endregion

// #region -- fills

func fillBytes[S engine[S]](s S, live Liveness, dst []byte, order binary.ByteOrder) int {
	if order == nil {
		order = binary.BigEndian
	}
	whole := len(dst) &^ 3
	i := 0
	for ; i < whole; i += 4 {
		if live != nil && !live.Alive() {
			return i
		}
		order.PutUint32(dst[i:], s.next())
	}
	if i == len(dst) {
		return i
	}
	if live != nil && !live.Alive() {
		return i
	}
	putTail(dst[i:], s.next(), order)
	return len(dst)
}

// putTail writes the low-order len(dst) bytes of w. Big endian (and any
// order other than little endian) emits the most significant remaining byte
// first.
func putTail(dst []byte, w uint32, order binary.ByteOrder) {
	n := len(dst)
	if order == binary.LittleEndian {
		for j := 0; j < n; j++ {
			dst[j] = byte(w >> (8 * j))
		}
		return
	}
	for j := 0; j < n; j++ {
		dst[j] = byte(w >> (8 * (n - 1 - j)))
	}
}

func fillUint32[S engine[S]](s S, live Liveness, dst []uint32) int {
	for i := range dst {
		if live != nil && !live.Alive() {
			return i
		}
		dst[i] = s.next()
	}
	return len(dst)
}

func fillInt32[S engine[S]](s S, live Liveness, dst []int32) int {
	for i := range dst {
		if live != nil && !live.Alive() {
			return i
		}
		dst[i] = int32(s.next())
	}
	return len(dst)
}

func fillFloat32[S engine[S]](s S, live Liveness, dst []float32) int {
	for i := range dst {
		if live != nil && !live.Alive() {
			return i
		}
		dst[i] = toFloat32(s.next())
	}
	return len(dst)
}

func fillInt64[S engine[S]](s S, live Liveness, dst []int64) int {
	for i := range dst {
		if live != nil && !live.Alive() {
			return i
		}
		l := s.next()
		r := s.next()
		dst[i] = toInt64(l, r)
	}
	return len(dst)
}

func fillFloat64[S engine[S]](s S, live Liveness, dst []float64) int {
	for i := range dst {
		if live != nil && !live.Alive() {
			return i
		}
		l := s.next()
		r := s.next()
		dst[i] = toFloat64(l, r)
	}
	return len(dst)
}

// #endregion
