package generator

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/pkg/errors"
)

// SecureSeed returns n bytes of seed material from crypto/rand.
func SecureSeed(n int) ([]byte, error) {
	seed := make([]byte, n)
	if _, err := rand.Read(seed); err != nil {
		return nil, errors.Wrap(err, "seed read failed")
	}
	return seed, nil
}

// SeedFromUint64 deterministically expands x into n bytes with splitmix64.
func SeedFromUint64(x uint64, n int) []byte {
	seed := make([]byte, (n+7)&^7)
	for i := 0; i < len(seed); i += 8 {
		x += 0x9e3779b97f4a7c15
		binary.BigEndian.PutUint64(seed[i:], mix64(x))
	}
	return seed[:n]
}

// http://xoshiro.di.unimi.it/splitmix64.c
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func splitmix64(x uint64) uint64 {
	return mix64(x + 0x9e3779b97f4a7c15)
}
