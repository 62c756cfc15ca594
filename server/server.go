// Package server hosts named generators behind a Redis-compatible protocol.
package server

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/moontrade/prng/compress"
	"github.com/moontrade/prng/logger"
	"github.com/pkg/errors"
	"github.com/tidwall/redcon"
)

// Main parses the command line, then serves until SIGINT or SIGTERM.
func Main(conf Config) error {
	return run(conf, os.Args[1:])
}

func run(conf Config, args []string) error {
	if err := confInit(&conf, args); err != nil {
		if err == ErrVersion || err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if err := logInit(conf); err != nil {
		return err
	}
	s, err := New(conf)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", conf.Addr)
	if err != nil {
		s.Close()
		return errors.Wrap(err, "listen")
	}
	logger.Info("addr", ln.Addr().String(), "listening")

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigC)
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case sig := <-sigC:
			logger.Warn("signal", sig.String(), "shutting down")
			s.Close()
		case <-stopped:
		}
	}()
	err = s.Serve(ln)
	s.Close()
	return err
}

// Server hosts generators keyed by name.
type Server struct {
	conf   Config
	codec  compress.Codec
	gens   table
	mon    *monitor
	trace  Observer // logs commands at trace level, nil otherwise
	closed atomic.Bool

	mu     sync.Mutex
	ln     net.Listener
	served chan struct{} // closed when Serve returns
	shut   chan struct{} // closed when the first Close returns
}

// New returns a server for conf. Zero fields take their defaults.
func New(conf Config) (*Server, error) {
	conf.def()
	if err := conf.validate(); err != nil {
		return nil, err
	}
	codec, _ := compress.Parse(conf.Codec)
	s := &Server{conf: conf, codec: codec, mon: newMonitor(), shut: make(chan struct{})}
	s.gens.max = conf.MaxGenerators
	if strings.EqualFold(conf.LogLevel, "trace") {
		s.trace = s.mon.NewObserver()
		go traceCommands(s.trace)
	}
	return s, nil
}

// Monitor returns the command monitor.
func (s *Server) Monitor() Monitor {
	return s.mon
}

// Len returns the number of hosted generators.
func (s *Server) Len() int {
	return s.gens.len()
}

func (s *Server) auth(pass string) error {
	if s.conf.Auth != "" && pass != s.conf.Auth {
		return ErrUnauthorized
	}
	return nil
}

// Serve accepts connections on ln until Close is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		ln.Close()
		return ErrClosed
	}
	if s.served != nil {
		s.mu.Unlock()
		return errors.New("already serving")
	}
	s.ln = ln
	s.served = make(chan struct{})
	s.mu.Unlock()
	defer close(s.served)

	rs := redcon.NewServer(ln.Addr().String(),
		func(conn redcon.Conn, cmd redcon.Command) {
			c := conn.Context().(*client)
			args := [][]string{commandToArgs(cmd)}
			for _, cmd := range conn.ReadPipeline() {
				args = append(args, commandToArgs(cmd))
			}
			s.execArgs(c, conn, args)
		},
		func(conn redcon.Conn) bool {
			if s.closed.Load() {
				return false
			}
			conn.SetContext(&client{addr: conn.RemoteAddr()})
			logger.Debug("addr", conn.RemoteAddr(), "opened")
			return true
		},
		func(conn redcon.Conn, err error) {
			if conn.Context() == nil {
				return
			}
			logger.Debug("addr", conn.RemoteAddr(), "closed")
		},
	)
	// Close shuts the listener, so the accept loop lands here. Stopping the
	// redcon server from its own goroutine ends the loop and drops every
	// accepted connection.
	var lnErr error
	rs.AcceptError = func(err error) {
		if s.closed.Load() {
			rs.Close()
			return
		}
		if errors.Is(err, net.ErrClosed) {
			lnErr = err
			rs.Close()
			return
		}
		logger.WarnErr(err, "accept")
	}
	err := rs.Serve(ln)
	if s.closed.Load() {
		return nil
	}
	if err == nil {
		err = lnErr
	}
	return err
}

// Close stops accepting connections and disconnects clients, then kills
// every hosted generator so that running fills return early, and closes
// them. It returns once Serve has returned. Later calls wait for the first
// one and return ErrClosed.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed.Swap(true) {
		s.mu.Unlock()
		<-s.shut
		return ErrClosed
	}
	defer close(s.shut)
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	served := s.served
	s.mu.Unlock()

	all := s.gens.drain()
	for _, e := range all {
		e.live.Kill()
	}
	for _, e := range all {
		e.retire()
	}
	if served != nil {
		<-served
	}
	if s.trace != nil {
		s.trace.Stop()
	}
	logger.Info("generators", len(all), "closed")
	return err
}
