package generator

import "github.com/pkg/errors"

// ErrInsufficientSeed is returned when the seed is shorter than the
// algorithm's minimum. No state is derived in that case.
var ErrInsufficientSeed = errors.New("insufficient seed data")

// ErrNotAlive is returned by Read when a shared generator lost liveness
// before the buffer was full.
var ErrNotAlive = errors.New("generator not alive")

// ErrCorruptState is returned when restoring from malformed state data.
var ErrCorruptState = errors.New("corrupt generator state")

func checkSeed(name string, seed []byte, min int) error {
	if len(seed) < min {
		return errors.Wrapf(ErrInsufficientSeed, "%s needs %d bytes, got %d",
			name, min, len(seed))
	}
	return nil
}
