package server

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/moontrade/prng/catalog"
	"github.com/moontrade/prng/generator"
	"github.com/moontrade/prng/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func start(t *testing.T, conf Config) (*Server, string) {
	s, err := New(conf)
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()
	t.Cleanup(func() {
		s.Close()
		select {
		case err := <-done:
			if err != nil {
				assert.ErrorIs(t, err, ErrClosed)
			}
		case <-time.After(5 * time.Second):
			t.Error("serve did not return")
		}
	})
	return s, ln.Addr().String()
}

func dial(t *testing.T, addr string) redis.Conn {
	c, err := redis.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func local(t *testing.T, name string, x uint64) generator.Generator {
	g, err := catalog.NewFromUint64(name, x)
	require.NoError(t, err)
	return g
}

func TestPingEchoQuit(t *testing.T) {
	_, addr := start(t, Config{})
	c := dial(t, addr)

	s, err := redis.String(c.Do("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", s)
	s, err = redis.String(c.Do("PING", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
	s, err = redis.String(c.Do("ECHO", "there"))
	require.NoError(t, err)
	assert.Equal(t, "there", s)
	_, err = c.Do("ECHO")
	assert.ErrorContains(t, err, ErrWrongNumArgs.Error())

	s, err = redis.String(c.Do("QUIT"))
	require.NoError(t, err)
	assert.Equal(t, "OK", s)
	_, err = c.Do("PING")
	assert.Error(t, err)
}

func TestAuth(t *testing.T) {
	_, addr := start(t, Config{Auth: "secret"})
	c := dial(t, addr)

	_, err := c.Do("GEN.LIST")
	assert.ErrorContains(t, err, ErrUnauthorized.Error())
	_, err = c.Do("AUTH", "wrong")
	assert.ErrorContains(t, err, ErrUnauthorized.Error())
	s, err := redis.String(c.Do("AUTH", "secret"))
	require.NoError(t, err)
	assert.Equal(t, "OK", s)
	_, err = c.Do("GEN.LIST")
	assert.NoError(t, err)
}

func TestDraws(t *testing.T) {
	_, addr := start(t, Config{})
	c := dial(t, addr)

	for _, name := range catalog.Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			_, err := c.Do("GEN.NEW", name, name, "UINT64", 7)
			require.NoError(t, err)
			g := local(t, name, 7)

			i32, err := redis.Ints(c.Do("GEN.INT32", name, 17))
			require.NoError(t, err)
			want32 := make([]int32, 17)
			g.FillInt32(want32)
			for i, v := range i32 {
				assert.Equal(t, int(want32[i]), v)
			}

			i64, err := redis.Int64s(c.Do("GEN.INT64", name, 9))
			require.NoError(t, err)
			want64 := make([]int64, 9)
			g.FillInt64(want64)
			assert.Equal(t, want64, i64)

			f64, err := redis.Float64s(c.Do("GEN.FLOAT64", name, 5))
			require.NoError(t, err)
			wantF64 := make([]float64, 5)
			g.FillFloat64(wantF64)
			assert.Equal(t, wantF64, f64)

			f32, err := redis.Strings(c.Do("GEN.FLOAT32", name, 5))
			require.NoError(t, err)
			wantF32 := make([]float32, 5)
			g.FillFloat32(wantF32)
			for i, v := range f32 {
				f, err := strconv.ParseFloat(v, 32)
				require.NoError(t, err)
				assert.Equal(t, wantF32[i], float32(f))
			}

			be, err := redis.Bytes(c.Do("GEN.BYTES", name, 11))
			require.NoError(t, err)
			wantBE := make([]byte, 11)
			g.FillBytes(wantBE, binary.BigEndian)
			assert.Equal(t, wantBE, be)

			le, err := redis.Bytes(c.Do("GEN.BYTES", name, 11, "LE"))
			require.NoError(t, err)
			wantLE := make([]byte, 11)
			g.FillBytes(wantLE, binary.LittleEndian)
			assert.Equal(t, wantLE, le)

			empty, err := redis.Int64s(c.Do("GEN.INT64", name, 0))
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestSeedHex(t *testing.T) {
	_, addr := start(t, Config{})
	c := dial(t, addr)

	seed := make([]byte, generator.XORShiftSeedLen)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	_, err := c.Do("GEN.NEW", "x", "xorshift", "SEED", hex.EncodeToString(seed))
	require.NoError(t, err)
	got, err := redis.Int64s(c.Do("GEN.INT64", "x", 1))
	require.NoError(t, err)
	assert.Equal(t, []int64{5891850872164774288}, got)

	m, err := redis.StringMap(c.Do("GEN.INFO", "x"))
	require.NoError(t, err)
	assert.Equal(t, "XORShift", m["algorithm"])
	assert.Equal(t, "20", m["seed_len"])
	assert.Equal(t, "20", m["min_seed_len"])
	assert.Equal(t, "true", m["shared"])
	assert.Equal(t, "true", m["open"])
	assert.Equal(t, "XORShift{"+m["hash"]+"}", m["description"])

	_, err = c.Do("GEN.NEW", "y", "securegen")
	assert.ErrorContains(t, err, catalog.ErrUnknownAlgorithm.Error())
	_, err = c.Do("GEN.NEW", "y", "cellularautomaton")
	assert.NoError(t, err)
}

func TestErrors(t *testing.T) {
	_, addr := start(t, Config{MaxCount: 100, MaxGenerators: 2})
	c := dial(t, addr)

	_, err := c.Do("GEN.NEW", "a", "xorshift", "UINT64", 1)
	require.NoError(t, err)

	cases := []struct {
		args []interface{}
		want error
	}{
		{[]interface{}{"NOPE"}, ErrUnknownCommand},
		{[]interface{}{"GEN.NEW", "a"}, ErrWrongNumArgs},
		{[]interface{}{"GEN.NEW", "a", "xorshift"}, ErrExists},
		{[]interface{}{"GEN.NEW", "b", "xorshift", "SEED", "zz"}, ErrSyntax},
		{[]interface{}{"GEN.NEW", "b", "xorshift", "SEED", "0102"}, generator.ErrInsufficientSeed},
		{[]interface{}{"GEN.NEW", "b", "xorshift", "UINT64", "-1"}, ErrSyntax},
		{[]interface{}{"GEN.NEW", "b", "xorshift", "PHRASE", "x"}, ErrSyntax},
		{[]interface{}{"GEN.INT64", "missing", 1}, ErrNotFound},
		{[]interface{}{"GEN.INT64", "a", 101}, ErrCount},
		{[]interface{}{"GEN.INT64", "a", -1}, ErrCount},
		{[]interface{}{"GEN.INT64", "a", "many"}, ErrSyntax},
		{[]interface{}{"GEN.BYTES", "a", 4, "ME"}, ErrSyntax},
		{[]interface{}{"GEN.SAVE", "a", "GZIP"}, ErrSyntax},
		{[]interface{}{"GEN.LOAD", "c", "garbage"}, nil},
		{[]interface{}{"GEN.CLONE", "missing", "c"}, ErrNotFound},
		{[]interface{}{"GEN.EQUAL", "a", "missing"}, ErrNotFound},
	}
	for _, tc := range cases {
		_, err := c.Do(tc.args[0].(string), tc.args[1:]...)
		require.Error(t, err, "%v", tc.args)
		if tc.want != nil {
			assert.Contains(t, err.Error(), tc.want.Error(), "%v", tc.args)
		}
	}

	_, err = c.Do("GEN.NEW", "b", "xorshift")
	require.NoError(t, err)
	_, err = c.Do("GEN.NEW", "c", "xorshift")
	assert.ErrorContains(t, err, ErrFull.Error())
}

func TestListCloneEqualDel(t *testing.T) {
	s, addr := start(t, Config{})
	c := dial(t, addr)

	for _, key := range []string{"b1", "a2", "a1"} {
		_, err := c.Do("GEN.NEW", key, "well19937", "UINT64", 3)
		require.NoError(t, err)
	}
	keys, err := redis.Strings(c.Do("GEN.LIST"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1"}, keys)
	keys, err = redis.Strings(c.Do("GEN.LIST", "a*"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, keys)

	eq, err := redis.Bool(c.Do("GEN.EQUAL", "a1", "b1"))
	require.NoError(t, err)
	assert.True(t, eq)
	_, err = c.Do("GEN.INT32", "a1", 1)
	require.NoError(t, err)
	eq, err = redis.Bool(c.Do("GEN.EQUAL", "b1", "a1"))
	require.NoError(t, err)
	assert.False(t, eq)

	_, err = c.Do("GEN.CLONE", "a1", "c1")
	require.NoError(t, err)
	eq, err = redis.Bool(c.Do("GEN.EQUAL", "a1", "c1"))
	require.NoError(t, err)
	assert.True(t, eq)
	want, err := redis.Int64s(c.Do("GEN.INT64", "a1", 6000))
	require.NoError(t, err)
	got, err := redis.Int64s(c.Do("GEN.INT64", "c1", 6000))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	e, err := s.gens.get("c1")
	require.NoError(t, err)
	n, err := redis.Int(c.Do("GEN.DEL", "c1", "missing", "b1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, e.g.IsOpen())
	assert.Equal(t, 2, s.Len())
}

func TestSaveLoadDump(t *testing.T) {
	_, addr := start(t, Config{})
	c := dial(t, addr)

	_, err := c.Do("GEN.NEW", "src", "cellularautomaton", "UINT64", 11)
	require.NoError(t, err)
	_, err = c.Do("GEN.FLOAT64", "src", 77)
	require.NoError(t, err)

	for _, codec := range []string{"", "NONE", "LZ4", "LZ4HC", "SNAPPY", "ZSTD"} {
		args := []interface{}{"src"}
		if codec != "" {
			args = append(args, codec)
		}
		blob, err := redis.Bytes(c.Do("GEN.SAVE", args...))
		require.NoError(t, err, codec)
		assert.True(t, bytes.HasPrefix(blob, []byte("PRNG")))

		key := "copy" + codec
		_, err = c.Do("GEN.LOAD", key, blob)
		require.NoError(t, err, codec)
		eq, err := redis.Bool(c.Do("GEN.EQUAL", "src", key))
		require.NoError(t, err)
		assert.True(t, eq, codec)
	}

	doc, err := redis.String(c.Do("GEN.DUMP", "src"))
	require.NoError(t, err)
	assert.Equal(t, "CellularAutomaton", gjson.Get(doc, "algorithm").String())
	_, err = c.Do("GEN.LOAD", "fromjson", doc)
	require.NoError(t, err)
	eq, err := redis.Bool(c.Do("GEN.EQUAL", "fromjson", "src"))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestKilledFillIsPartial(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.host("k", func(opts ...generator.Option) (generator.Generator, error) {
		return catalog.NewFromUint64(generator.WELL19937Name, 5, opts...)
	}))
	e, err := s.gens.get("k")
	require.NoError(t, err)

	v, err := cmdGENINT64(s, []string{"gen.int64", "k", "4"})
	require.NoError(t, err)
	assert.Len(t, v, 4)

	e.live.Kill()
	v, err = cmdGENINT64(s, []string{"gen.int64", "k", "4"})
	require.NoError(t, err)
	assert.Empty(t, v)
	v, err = cmdGENBYTES(s, []string{"gen.bytes", "k", "9"})
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestCloseRetiresGenerators(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	build := func(opts ...generator.Option) (generator.Generator, error) {
		return catalog.NewFromUint64(generator.XORShiftName, 5, opts...)
	}
	require.NoError(t, s.host("k", build))
	e, err := s.gens.get("k")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.False(t, e.live.Alive())
	assert.False(t, e.g.IsOpen())
	assert.Zero(t, s.Len())
	assert.ErrorIs(t, s.host("j", build), ErrClosed)
	assert.ErrorIs(t, s.Close(), ErrClosed)
}

func TestMonitor(t *testing.T) {
	s, addr := start(t, Config{})
	o := s.Monitor().NewObserver()
	defer o.Stop()
	c := dial(t, addr)

	_, err := c.Do("AUTH", "anything")
	require.NoError(t, err)
	_, err = c.Do("GEN.NEW", "m", "xorshift")
	require.NoError(t, err)
	_, err = c.Do("GEN.INT64", "missing", 1)
	require.Error(t, err)

	msg := <-o.C()
	assert.Equal(t, []string{"gen.new", "m", "xorshift"}, msg.Args)
	assert.NoError(t, msg.Err)
	msg = <-o.C()
	assert.Equal(t, "gen.int64", msg.Args[0])
	assert.ErrorIs(t, msg.Err, ErrNotFound)
}

func TestCloseDisconnectsClients(t *testing.T) {
	s, addr := start(t, Config{})
	c := dial(t, addr)
	_, err := c.Do("GEN.NEW", "k", "xorshift", "UINT64", 1)
	require.NoError(t, err)
	pong, err := redis.String(c.Do("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)
	e, err := s.gens.get("k")
	require.NoError(t, err)

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}
	assert.False(t, e.g.IsOpen())

	_, err = c.Do("PING")
	assert.Error(t, err)
	assert.ErrorIs(t, s.Close(), ErrClosed)
}

func TestServeAfterClose(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Serve(ln), ErrClosed)
}

func TestServeStopsWhenListenerCloses(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	defer s.Close()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	c := dial(t, ln.Addr().String())
	_, err = c.Do("PING")
	require.NoError(t, err)

	ln.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestSeedLimit(t *testing.T) {
	_, addr := start(t, Config{})
	c := dial(t, addr)

	seed := make([]byte, snapshot.MaxSeedLen)
	for i := range seed {
		seed[i] = byte(i + 3)
	}
	_, err := c.Do("GEN.NEW", "big", "well19937", "SEED", hex.EncodeToString(seed))
	require.NoError(t, err)
	blob, err := redis.Bytes(c.Do("GEN.SAVE", "big", "NONE"))
	require.NoError(t, err)
	_, err = c.Do("GEN.LOAD", "back", blob)
	require.NoError(t, err)
	eq, err := redis.Bool(c.Do("GEN.EQUAL", "big", "back"))
	require.NoError(t, err)
	assert.True(t, eq)
	doc, err := redis.String(c.Do("GEN.DUMP", "big"))
	require.NoError(t, err)
	_, err = c.Do("GEN.LOAD", "fromjson", doc)
	require.NoError(t, err)

	_, err = c.Do("GEN.NEW", "huge", "xorshift", "SEED", hex.EncodeToString(append(seed, 1)))
	assert.ErrorContains(t, err, ErrSeedTooLong.Error())
}

func TestRunHelpAndVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(Config{LogOutput: &out}, []string{"-h"}))
	assert.Contains(t, out.String(), "Usage: prngd")

	out.Reset()
	require.NoError(t, run(Config{Version: "1.0.0", LogOutput: &out}, []string{"-v"}))
	assert.Equal(t, "prngd version 1.0.0\n", out.String())

	assert.Error(t, run(Config{LogOutput: &out}, []string{"--bogus"}))
}

func TestCloseStopsCommandTrace(t *testing.T) {
	s, err := New(Config{LogLevel: "trace"})
	require.NoError(t, err)
	require.NotNil(t, s.trace)
	s.mon.obMu.Lock()
	assert.Len(t, s.mon.obs, 1)
	s.mon.obMu.Unlock()

	require.NoError(t, s.Close())
	s.mon.obMu.Lock()
	assert.Empty(t, s.mon.obs)
	s.mon.obMu.Unlock()
	_, open := <-s.trace.C()
	assert.False(t, open)

	plain, err := New(Config{})
	require.NoError(t, err)
	assert.Nil(t, plain.trace)
	require.NoError(t, plain.Close())
}
