// Package snapshot persists a generator's seed mark and live state so it can
// be rebuilt elsewhere, bit for bit.
//
// Binary layout:
//
//	"PRNG" | version | codec | uvarint len(algorithm) | algorithm |
//	uvarint len(state) | uvarint len(body) | body
//
// body is the generator's MarshalBinary output, compressed with codec.
package snapshot

import (
	"bytes"
	"encoding/binary"

	"github.com/moontrade/prng/catalog"
	"github.com/moontrade/prng/compress"
	"github.com/moontrade/prng/generator"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	magic      = "PRNG"
	version    = 1
	maxNameLen = 64
)

const (
	// MaxStateLen bounds the generator state, mark included, that a
	// snapshot carries.
	MaxStateLen = 1 << 16

	// MaxSeedLen is the longest seed whose generator always fits in a
	// snapshot. The rest of MaxStateLen covers the mark length prefix and
	// the largest live state, WELL19937's 2502 bytes.
	MaxSeedLen = MaxStateLen - 4096
)

var (
	// ErrFormat is returned for data that is not a snapshot.
	ErrFormat = errors.New("invalid snapshot")
	// ErrTooLarge is returned for a state longer than MaxStateLen.
	ErrTooLarge = errors.New("snapshot too large")
)

// Snapshot is a point-in-time copy of a generator.
type Snapshot struct {
	Algorithm   string
	State       []byte
	Description string
}

// Take captures g. The generator is not advanced.
func Take(g generator.Generator) (Snapshot, error) {
	state, err := g.MarshalBinary()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Algorithm:   g.Algorithm(),
		State:       state,
		Description: g.String(),
	}, nil
}

// Generator rebuilds the captured generator.
func (s Snapshot) Generator(opts ...generator.Option) (generator.Generator, error) {
	return catalog.Restore(s.Algorithm, s.State, opts...)
}

// Validate checks s against the limits Decode enforces.
func (s Snapshot) Validate() error {
	if len(s.State) > MaxStateLen {
		return errors.Wrapf(ErrTooLarge, "state is %d bytes, limit %d", len(s.State), MaxStateLen)
	}
	if len(s.Algorithm) > maxNameLen {
		return errors.Wrapf(ErrFormat, "algorithm name is %d bytes", len(s.Algorithm))
	}
	return nil
}

// Encode returns the binary form of s with the state compressed by c.
func (s Snapshot) Encode(c compress.Codec) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	used, body, err := compress.Compress(c, s.State)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(magic)+2+len(s.Algorithm)+len(body)+16)
	out = append(out, magic...)
	out = append(out, version, byte(used))
	out = binary.AppendUvarint(out, uint64(len(s.Algorithm)))
	out = append(out, s.Algorithm...)
	out = binary.AppendUvarint(out, uint64(len(s.State)))
	out = binary.AppendUvarint(out, uint64(len(body)))
	return append(out, body...), nil
}

// Decode parses the binary form produced by Encode.
func Decode(data []byte) (Snapshot, error) {
	if !bytes.HasPrefix(data, []byte(magic)) {
		return Snapshot{}, errors.Wrap(ErrFormat, "bad magic")
	}
	data = data[len(magic):]
	if len(data) < 2 {
		return Snapshot{}, errors.Wrap(ErrFormat, "short header")
	}
	if data[0] != version {
		return Snapshot{}, errors.Wrapf(ErrFormat, "version %d", data[0])
	}
	codec := compress.Codec(data[1])
	if !codec.Valid() {
		return Snapshot{}, errors.Wrapf(ErrFormat, "codec %d", data[1])
	}
	data = data[2:]

	name, data, err := readField(data, maxNameLen)
	if err != nil {
		return Snapshot{}, err
	}
	size, k := binary.Uvarint(data)
	if k <= 0 {
		return Snapshot{}, errors.Wrap(ErrFormat, "state length")
	}
	if size > MaxStateLen {
		return Snapshot{}, errors.Wrapf(ErrTooLarge, "state is %d bytes", size)
	}
	body, rest, err := readField(data[k:], MaxStateLen)
	if err != nil {
		return Snapshot{}, err
	}
	if len(rest) != 0 {
		return Snapshot{}, errors.Wrap(ErrFormat, "trailing data")
	}
	state, err := compress.Decompress(codec, body, int(size))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Algorithm: string(name),
		State:     append([]byte(nil), state...),
	}, nil
}

func readField(data []byte, max uint64) (field, rest []byte, err error) {
	n, k := binary.Uvarint(data)
	if k <= 0 || n > max || uint64(len(data)-k) < n {
		return nil, nil, errors.Wrap(ErrFormat, "truncated")
	}
	data = data[k:]
	return data[:n], data[n:], nil
}

// Parse accepts either the binary or the JSON form.
func Parse(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if !gjson.ValidBytes(trimmed) {
			return Snapshot{}, errors.Wrap(ErrFormat, "malformed json")
		}
		if !gjson.GetBytes(trimmed, "algorithm").Exists() {
			return Snapshot{}, errors.Wrap(ErrFormat, "missing algorithm")
		}
		var s Snapshot
		if err := s.UnmarshalJSON(trimmed); err != nil {
			return Snapshot{}, errors.Wrap(ErrFormat, err.Error())
		}
		if err := s.Validate(); err != nil {
			return Snapshot{}, err
		}
		return s, nil
	}
	return Decode(data)
}
