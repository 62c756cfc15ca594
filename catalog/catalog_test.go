package catalog

import (
	"testing"

	"github.com/moontrade/prng/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"CellularAutomaton", "WELL19937", "XORShift"}, Names())
}

func TestLookup(t *testing.T) {
	e, err := Lookup("well19937")
	require.NoError(t, err)
	assert.Equal(t, generator.WELL19937Name, e.Name)
	assert.Equal(t, 2500, e.MinSeedLen)

	_, err = Lookup("mt19937")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
	_, err = New("mt19937", nil)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestNewAndRestore(t *testing.T) {
	for _, name := range Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			g, err := NewFromUint64(name, 7)
			require.NoError(t, err)
			assert.Equal(t, name, g.Algorithm())

			h, err := NewFromUint64(name, 7)
			require.NoError(t, err)
			assert.True(t, g.Equal(h))

			g.FillFloat64(make([]float64, 33))
			state, err := g.MarshalBinary()
			require.NoError(t, err)
			r, err := Restore(name, state)
			require.NoError(t, err)
			assert.True(t, g.Equal(r))
			assert.Equal(t, g.Int64(), r.Int64())

			s, err := NewSecure(name, generator.Shared(generator.NewSwitch()))
			require.NoError(t, err)
			assert.True(t, s.IsShared())
			assert.Len(t, s.Seed(), s.MinSeedLen())

			_, err = New(name, make([]byte, s.MinSeedLen()-1))
			assert.ErrorIs(t, err, generator.ErrInsufficientSeed)
		})
	}
}
