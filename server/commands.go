package server

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mailru/easyjson"
	"github.com/moontrade/prng/catalog"
	"github.com/moontrade/prng/compress"
	"github.com/moontrade/prng/generator"
	"github.com/moontrade/prng/logger"
	"github.com/moontrade/prng/snapshot"
	"github.com/tidwall/redcon"
)

type command func(s *Server, args []string) (interface{}, error)

var commands map[string]command

func init() {
	commands = map[string]command{
		"gen.algorithms": cmdGENALGORITHMS,
		"gen.new":        cmdGENNEW,
		"gen.del":        cmdGENDEL,
		"gen.list":       cmdGENLIST,
		"gen.info":       cmdGENINFO,
		"gen.clone":      cmdGENCLONE,
		"gen.equal":      cmdGENEQUAL,
		"gen.int32":      cmdGENINT32,
		"gen.int64":      cmdGENINT64,
		"gen.float32":    cmdGENFLOAT32,
		"gen.float64":    cmdGENFLOAT64,
		"gen.bytes":      cmdGENBYTES,
		"gen.save":       cmdGENSAVE,
		"gen.load":       cmdGENLOAD,
		"gen.dump":       cmdGENDUMP,
	}
}

// GEN.ALGORITHMS
// help: lists the algorithm names accepted by GEN.NEW.
func cmdGENALGORITHMS(s *Server, args []string) (interface{}, error) {
	if len(args) != 1 {
		return nil, ErrWrongNumArgs
	}
	return catalog.Names(), nil
}

// GEN.NEW key algorithm [SEED hex|UINT64 n]
// help: creates a generator under key. Without a seed option the seed is
//       read from the system's secure random source. Seeds longer than
//       snapshot.MaxSeedLen bytes are refused so that GEN.SAVE always works.
func cmdGENNEW(s *Server, args []string) (interface{}, error) {
	if len(args) != 3 && len(args) != 5 {
		return nil, ErrWrongNumArgs
	}
	key, name := args[1], args[2]
	var build func(opts ...generator.Option) (generator.Generator, error)
	if len(args) == 3 {
		build = func(opts ...generator.Option) (generator.Generator, error) {
			return catalog.NewSecure(name, opts...)
		}
	} else {
		switch strings.ToLower(args[3]) {
		case "seed":
			if len(args[4]) > 2*snapshot.MaxSeedLen {
				return nil, ErrSeedTooLong
			}
			seed, err := hex.DecodeString(args[4])
			if err != nil {
				return nil, ErrSyntax
			}
			build = func(opts ...generator.Option) (generator.Generator, error) {
				return catalog.New(name, seed, opts...)
			}
		case "uint64":
			x, err := strconv.ParseUint(args[4], 10, 64)
			if err != nil {
				return nil, ErrSyntax
			}
			build = func(opts ...generator.Option) (generator.Generator, error) {
				return catalog.NewFromUint64(name, x, opts...)
			}
		default:
			return nil, ErrSyntax
		}
	}
	if err := s.host(key, build); err != nil {
		return nil, err
	}
	return redcon.SimpleString("OK"), nil
}

// host builds a shared generator and stores it under key.
func (s *Server) host(key string, build func(opts ...generator.Option) (generator.Generator, error)) error {
	if s.closed.Load() {
		return ErrClosed
	}
	e, err := newEntry(build)
	if err != nil {
		return err
	}
	if err := s.gens.insert(key, e); err != nil {
		e.retire()
		return err
	}
	logger.Debug("key", key, "algorithm", e.g.Algorithm(), "hosted")
	return nil
}

// GEN.DEL key [key ...]
// help: deletes generators, stopping fills that are running on other
//       connections. Returns the number of generators deleted.
func cmdGENDEL(s *Server, args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, ErrWrongNumArgs
	}
	var n int
	for _, key := range args[1:] {
		e, ok := s.gens.remove(key)
		if !ok {
			continue
		}
		e.retire()
		n++
		logger.Debug("key", key, "deleted")
	}
	return n, nil
}

// GEN.LIST [pattern]
// help: returns the keys matching a glob pattern in order.
func cmdGENLIST(s *Server, args []string) (interface{}, error) {
	switch len(args) {
	case 1:
		return s.gens.keys(""), nil
	case 2:
		return s.gens.keys(args[1]), nil
	}
	return nil, ErrWrongNumArgs
}

// GEN.INFO key
// help: describes a generator as field, value pairs.
func cmdGENINFO(s *Server, args []string) (interface{}, error) {
	if len(args) != 2 {
		return nil, ErrWrongNumArgs
	}
	e, err := s.gens.get(args[1])
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return info{
		"algorithm":    e.g.Algorithm(),
		"description":  e.g.String(),
		"hash":         fmt.Sprintf("%016x", e.g.Hash()),
		"seed_len":     strconv.Itoa(len(e.g.Seed())),
		"min_seed_len": strconv.Itoa(e.g.MinSeedLen()),
		"shared":       strconv.FormatBool(e.g.IsShared()),
		"open":         strconv.FormatBool(e.g.IsOpen()),
		"created":      e.created.UTC().Format(time.RFC3339Nano),
	}, nil
}

// GEN.CLONE src dst
// help: stores an independent copy of src, at its current position, as dst.
func cmdGENCLONE(s *Server, args []string) (interface{}, error) {
	if len(args) != 3 {
		return nil, ErrWrongNumArgs
	}
	src, err := s.gens.get(args[1])
	if err != nil {
		return nil, err
	}
	err = s.host(args[2], func(opts ...generator.Option) (generator.Generator, error) {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.g.Clone(opts...), nil
	})
	if err != nil {
		return nil, err
	}
	return redcon.SimpleString("OK"), nil
}

// GEN.EQUAL a b
// help: returns 1 when both generators are of the same algorithm and would
//       produce the same output.
func cmdGENEQUAL(s *Server, args []string) (interface{}, error) {
	if len(args) != 3 {
		return nil, ErrWrongNumArgs
	}
	a, err := s.gens.get(args[1])
	if err != nil {
		return nil, err
	}
	b, err := s.gens.get(args[2])
	if err != nil {
		return nil, err
	}
	if a == b {
		return true, nil
	}
	// lock in key order
	if args[1] > args[2] {
		a, b = b, a
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	return a.g.Equal(b.g), nil
}

func (s *Server) countArg(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, ErrSyntax
	}
	if n < 0 || n > s.conf.MaxCount {
		return 0, ErrCount
	}
	return n, nil
}

// fill runs f on the generator stored under key while holding its lock.
func (s *Server) fill(args []string, f func(g generator.Generator, n int) interface{}) (interface{}, error) {
	if len(args) != 3 {
		return nil, ErrWrongNumArgs
	}
	n, err := s.countArg(args[2])
	if err != nil {
		return nil, err
	}
	e, err := s.gens.get(args[1])
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return f(e.g, n), nil
}

// GEN.INT32 key count
// help: returns up to count signed 32-bit values. Fewer are returned when
//       the generator is deleted while the fill runs.
func cmdGENINT32(s *Server, args []string) (interface{}, error) {
	return s.fill(args, func(g generator.Generator, n int) interface{} {
		dst := make([]int32, n)
		return dst[:g.FillInt32(dst)]
	})
}

// GEN.INT64 key count
// help: returns up to count signed 64-bit values.
func cmdGENINT64(s *Server, args []string) (interface{}, error) {
	return s.fill(args, func(g generator.Generator, n int) interface{} {
		dst := make([]int64, n)
		return dst[:g.FillInt64(dst)]
	})
}

// GEN.FLOAT32 key count
// help: returns up to count values in [0,1) with 24 bits of resolution.
func cmdGENFLOAT32(s *Server, args []string) (interface{}, error) {
	return s.fill(args, func(g generator.Generator, n int) interface{} {
		dst := make([]float32, n)
		return float32s(dst[:g.FillFloat32(dst)])
	})
}

// GEN.FLOAT64 key count
// help: returns up to count values in [0,1) with 53 bits of resolution.
func cmdGENFLOAT64(s *Server, args []string) (interface{}, error) {
	return s.fill(args, func(g generator.Generator, n int) interface{} {
		dst := make([]float64, n)
		return float64s(dst[:g.FillFloat64(dst)])
	})
}

// GEN.BYTES key count [BE|LE]
// help: returns up to count bytes as one bulk string. Words are laid out
//       big-endian unless LE is given.
func cmdGENBYTES(s *Server, args []string) (interface{}, error) {
	var order binary.ByteOrder = binary.BigEndian
	if len(args) == 4 {
		switch strings.ToLower(args[3]) {
		case "be":
		case "le":
			order = binary.LittleEndian
		default:
			return nil, ErrSyntax
		}
		args = args[:3]
	}
	return s.fill(args, func(g generator.Generator, n int) interface{} {
		dst := make([]byte, n)
		return dst[:g.FillBytes(dst, order)]
	})
}

// GEN.SAVE key [codec]
// help: returns a binary snapshot of the generator. The codec is one of
//       NONE, LZ4, LZ4HC, SNAPPY or ZSTD and defaults to the server's.
func cmdGENSAVE(s *Server, args []string) (interface{}, error) {
	codec := s.codec
	switch len(args) {
	case 2:
	case 3:
		var err error
		codec, err = compress.Parse(args[2])
		if err != nil {
			return nil, ErrSyntax
		}
	default:
		return nil, ErrWrongNumArgs
	}
	snap, err := s.take(args[1])
	if err != nil {
		return nil, err
	}
	return snap.Encode(codec)
}

// GEN.LOAD key snapshot
// help: restores a snapshot made by GEN.SAVE or GEN.DUMP under key.
func cmdGENLOAD(s *Server, args []string) (interface{}, error) {
	if len(args) != 3 {
		return nil, ErrWrongNumArgs
	}
	snap, err := snapshot.Parse([]byte(args[2]))
	if err != nil {
		return nil, err
	}
	err = s.host(args[1], func(opts ...generator.Option) (generator.Generator, error) {
		return snap.Generator(opts...)
	})
	if err != nil {
		return nil, err
	}
	return redcon.SimpleString("OK"), nil
}

// GEN.DUMP key
// help: returns the snapshot of a generator as a JSON document.
func cmdGENDUMP(s *Server, args []string) (interface{}, error) {
	if len(args) != 2 {
		return nil, ErrWrongNumArgs
	}
	snap, err := s.take(args[1])
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	doc, err := easyjson.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return string(doc), nil
}

func (s *Server) take(key string) (snapshot.Snapshot, error) {
	e, err := s.gens.get(key)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot.Take(e.g)
}
