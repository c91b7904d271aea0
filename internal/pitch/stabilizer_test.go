package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noteAt(t *testing.T, midi int, cents float64) *Note {
	t.Helper()
	n, err := MapFrequency(FrequencyOfMIDI(midi) * math.Pow(2, cents/1200))
	require.NoError(t, err)
	return n
}

func TestStabilizer_DisabledPassesThrough(t *testing.T) {
	s := NewStabilizer(0)

	a := noteAt(t, 69, 45)
	b := noteAt(t, 70, -45)
	assert.Same(t, a, s.Apply(a))
	assert.Same(t, b, s.Apply(b))
}

func TestStabilizer_HoldsAcrossBoundary(t *testing.T) {
	s := NewStabilizer(10)

	first := s.Apply(noteAt(t, 69, 45))
	assert.Equal(t, "A4", first.FullName())

	// 52 cents above A4 rounds to A#4 but stays inside the band.
	held := s.Apply(noteAt(t, 70, -48))
	assert.Equal(t, "A4", held.FullName())
	assert.InDelta(t, 52, held.Cents, 1e-6)

	// 65 cents above A4 leaves the band.
	moved := s.Apply(noteAt(t, 70, -35))
	assert.Equal(t, "A#4", moved.FullName())
	assert.InDelta(t, -35, moved.Cents, 1e-6)
}

func TestStabilizer_LargeJumpsAreNotHeld(t *testing.T) {
	s := NewStabilizer(20)

	s.Apply(noteAt(t, 60, 0))
	got := s.Apply(noteAt(t, 64, -40))
	assert.Equal(t, "E4", got.FullName())
}

func TestStabilizer_NilClearsHistory(t *testing.T) {
	s := NewStabilizer(10)

	s.Apply(noteAt(t, 69, 45))
	assert.Nil(t, s.Apply(nil))

	got := s.Apply(noteAt(t, 70, -48))
	assert.Equal(t, "A#4", got.FullName())

	s.Reset()
	got = s.Apply(noteAt(t, 69, 48))
	assert.Equal(t, "A4", got.FullName())
}
