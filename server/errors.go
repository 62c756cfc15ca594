package server

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is returned where there was a syntax error
var ErrSyntax = errors.New("syntax error")

// ErrWrongNumArgs is returned when the arg count is wrong
var ErrWrongNumArgs = errors.New("wrong number of arguments")

// ErrUnauthorized is returned when a client connection has not been authorized
var ErrUnauthorized = errors.New("unauthorized")

// ErrUnknownCommand is returned when a command is not known
var ErrUnknownCommand = errors.New("unknown command")

// ErrNotFound is returned when no generator is stored under a key
var ErrNotFound = errors.New("no such generator")

// ErrExists is returned when a key is already taken
var ErrExists = errors.New("generator already exists")

// ErrFull is returned when the generator table is at capacity
var ErrFull = errors.New("too many generators")

// ErrCount is returned when a fill count is out of range
var ErrCount = errors.New("count out of range")

// ErrSeedTooLong is returned for a seed that would not fit in a snapshot
var ErrSeedTooLong = errors.New("seed too long")

// ErrClosed is returned once the server is shutting down
var ErrClosed = errors.New("server closed")

func errUnknownCommand(args []string) error {
	return fmt.Errorf("%s '%s'", ErrUnknownCommand, strings.Join(args[:1], " "))
}
