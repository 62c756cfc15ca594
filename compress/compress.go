// Package compress holds the block codecs used for generator snapshots.
package compress

import (
	"strconv"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Codec identifies a block compression format. The values are persisted in
// snapshot headers and must not be renumbered.
type Codec byte

const (
	None Codec = iota
	LZ4
	LZ4HC
	Snappy
	Zstd
)

var (
	// ErrUnknownCodec is returned for a codec name or id that is not known.
	ErrUnknownCodec = errors.New("unknown codec")
	// ErrCorrupt is returned when a block fails to decompress.
	ErrCorrupt = errors.New("corrupt block")
)

const zstdLevel = 3

var names = [...]string{"none", "lz4", "lz4hc", "snappy", "zstd"}

func (c Codec) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return "codec(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is a known codec.
func (c Codec) Valid() bool {
	return int(c) < len(names)
}

// Parse returns the codec for a case-insensitive name.
func Parse(name string) (Codec, error) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return Codec(i), nil
		}
	}
	return None, errors.Wrapf(ErrUnknownCodec, "%q", name)
}

// Compress encodes src with c. The returned codec is None, with src returned
// as is, when the block does not shrink.
func Compress(c Codec, src []byte) (Codec, []byte, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case None:
		return None, src, nil
	case LZ4:
		out = make([]byte, lz4.CompressBlockBound(len(src)))
		var n int
		n, err = lz4.CompressBlock(src, out, nil)
		out = out[:n]
	case LZ4HC:
		out = make([]byte, lz4.CompressBlockBound(len(src)))
		var n int
		n, err = lz4.CompressBlockHC(src, out, lz4.Level9, nil, nil)
		out = out[:n]
	case Snappy:
		out = snappy.Encode(nil, src)
	case Zstd:
		out, err = zstd.CompressLevel(nil, src, zstdLevel)
	default:
		return None, nil, errors.Wrapf(ErrUnknownCodec, "id %d", byte(c))
	}
	if err != nil {
		return None, nil, errors.Wrapf(err, "%s compress", c)
	}
	if len(out) == 0 || len(out) >= len(src) {
		return None, src, nil
	}
	return c, out, nil
}

// Decompress decodes a block produced by Compress. size is the length of the
// uncompressed data.
func Decompress(c Codec, src []byte, size int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case None:
		out = src
	case LZ4, LZ4HC:
		out = make([]byte, size)
		var n int
		n, err = lz4.UncompressBlock(src, out)
		out = out[:n]
	case Snappy:
		out, err = snappy.Decode(nil, src)
	case Zstd:
		out, err = zstd.Decompress(nil, src)
	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "id %d", byte(c))
	}
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%s: %v", c, err)
	}
	if len(out) != size {
		return nil, errors.Wrapf(ErrCorrupt, "%s: size %d, want %d", c, len(out), size)
	}
	return out, nil
}
