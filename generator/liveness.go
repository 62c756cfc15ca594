package generator

import (
	"context"
	"sync/atomic"
)

// Liveness is polled by shared generators before every output unit of a
// bulk fill. Implementations must be safe for concurrent use.
type Liveness interface {
	Alive() bool
}

// Switch is a Liveness that stays alive until Kill is called.
type Switch struct {
	dead atomic.Bool
}

// NewSwitch returns a live Switch.
func NewSwitch() *Switch {
	return new(Switch)
}

// Alive implements Liveness.
func (s *Switch) Alive() bool {
	return !s.dead.Load()
}

// Kill stops every fill that polls s. It is idempotent.
func (s *Switch) Kill() {
	s.dead.Store(true)
}

// ContextLiveness returns a Liveness that dies when ctx is done. The check
// on the fill path is a single atomic load.
func ContextLiveness(ctx context.Context) Liveness {
	s := NewSwitch()
	if ctx.Err() != nil {
		s.Kill()
		return s
	}
	context.AfterFunc(ctx, s.Kill)
	return s
}
