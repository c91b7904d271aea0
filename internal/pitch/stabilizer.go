package pitch

import "math"

// Stabilizer adds hysteresis around semitone boundaries. A frequency that sits
// just past the boundary between the previous note and its neighbour keeps the
// previous note's label as long as it stays within bandCents of that boundary.
// A zero band passes notes through unchanged.
type Stabilizer struct {
	bandCents float64
	last      *Note
}

// NewStabilizer creates a stabilizer with the given hysteresis band in cents.
func NewStabilizer(bandCents float64) *Stabilizer {
	if bandCents < 0 {
		bandCents = 0
	}
	return &Stabilizer{bandCents: bandCents}
}

// Apply returns the note to display for n. A nil note clears the history.
func (s *Stabilizer) Apply(n *Note) *Note {
	if n == nil {
		s.last = nil
		return nil
	}
	if s.bandCents == 0 || s.last == nil {
		s.last = n
		return n
	}

	step := n.MIDI - s.last.MIDI
	if step == 1 || step == -1 {
		dev := 1200 * math.Log2(n.Frequency/FrequencyOfMIDI(s.last.MIDI))
		if math.Abs(dev) < 50+s.bandCents {
			held := *s.last
			held.Frequency = n.Frequency
			held.Cents = dev
			s.last = &held
			return &held
		}
	}

	s.last = n
	return n
}

// Reset forgets the previous note.
func (s *Stabilizer) Reset() {
	s.last = nil
}
