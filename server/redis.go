package server

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/redcon"
)

type client struct {
	authorized bool
	addr       string
}

func commandToArgs(cmd redcon.Command) []string {
	args := make([]string, len(cmd.Args))
	args[0] = strings.ToLower(string(cmd.Args[0]))
	for i := 1; i < len(cmd.Args); i++ {
		args[i] = string(cmd.Args[i])
	}
	return args
}

type quitClose struct{}

// float32s and float64s are written as bulk strings with the shortest
// representation that parses back to the same value.
type float32s []float32
type float64s []float64

// info is written as a flat array of field, value pairs ordered by field.
type info map[string]string

func (s *Server) exec(c *client, args []string) (interface{}, error) {
	switch args[0] {
	case "quit":
		return quitClose{}, nil
	case "auth":
		if len(args) != 2 {
			return nil, ErrWrongNumArgs
		}
		if err := s.auth(args[1]); err != nil {
			c.authorized = false
			return nil, err
		}
		c.authorized = true
		return redcon.SimpleString("OK"), nil
	}
	if !c.authorized {
		if err := s.auth(""); err != nil {
			return nil, err
		}
		c.authorized = true
	}
	switch args[0] {
	case "ping":
		if len(args) == 1 {
			return redcon.SimpleString("PONG"), nil
		} else if len(args) == 2 {
			return args[1], nil
		}
		return nil, ErrWrongNumArgs
	case "echo":
		if len(args) != 2 {
			return nil, ErrWrongNumArgs
		}
		return args[1], nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return nil, errUnknownCommand(args)
	}
	return cmd(s, args)
}

func (s *Server) execArgs(c *client, conn redcon.Conn, args [][]string) {
	for _, args := range args {
		start := time.Now()
		resp, err := s.exec(c, args)
		elapsed := time.Since(start)
		if err != nil {
			conn.WriteError("ERR " + err.Error())
		} else if _, ok := resp.(quitClose); ok {
			conn.WriteString("OK")
			conn.Close()
		} else {
			writeReply(conn, resp)
		}
		// broadcast the request and response to all observers
		s.mon.Send(Message{
			Addr:    c.addr,
			Args:    args,
			Resp:    resp,
			Err:     err,
			Elapsed: elapsed,
		})
		if _, ok := resp.(quitClose); ok {
			return
		}
	}
}

func writeReply(conn redcon.Conn, v interface{}) {
	switch v := v.(type) {
	case []int64:
		conn.WriteArray(len(v))
		for _, x := range v {
			conn.WriteInt64(x)
		}
	case []int32:
		conn.WriteArray(len(v))
		for _, x := range v {
			conn.WriteInt64(int64(x))
		}
	case float32s:
		conn.WriteArray(len(v))
		for _, x := range v {
			conn.WriteBulkString(strconv.FormatFloat(float64(x), 'g', -1, 32))
		}
	case float64s:
		conn.WriteArray(len(v))
		for _, x := range v {
			conn.WriteBulkString(strconv.FormatFloat(x, 'g', -1, 64))
		}
	case []string:
		conn.WriteArray(len(v))
		for _, x := range v {
			conn.WriteBulkString(x)
		}
	case info:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		conn.WriteArray(len(keys) * 2)
		for _, k := range keys {
			conn.WriteBulkString(k)
			conn.WriteBulkString(v[k])
		}
	case bool:
		if v {
			conn.WriteInt(1)
		} else {
			conn.WriteInt(0)
		}
	default:
		conn.WriteAny(v)
	}
}
