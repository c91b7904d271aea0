package pitch

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/0xlemi/vocalrange/internal/audio"
)

// Errors
var (
	ErrEmptyBuffer = errors.New("empty audio buffer")
	ErrOutOfRange  = errors.New("frequency outside representable range")

	// ErrNoPitch is matched (via errors.Is) by every "no reliable pitch" result.
	ErrNoPitch         = errors.New("no reliable pitch")
	ErrVolumeThreshold = fmt.Errorf("%w: volume below threshold", ErrNoPitch)
	ErrNoPeriod        = fmt.Errorf("%w: no periodic structure", ErrNoPitch)
)

const (
	// Reference pitch: A4 = 440Hz = MIDI 69
	referenceFrequency = 440.0
	referenceMIDI      = 69

	// Default representable span for the note mapper (Hz)
	MinFrequency = 20.0
	MaxFrequency = 8000.0

	// |cents| below this counts as in tune
	inTuneCents = 15.0
)

// Note represents a musical note
type Note struct {
	Name      string  // e.g., "A", "A#", "B"
	Octave    int     // e.g., 4 for middle C (C4)
	Frequency float64 // Source frequency in Hz
	Cents     float64 // Cents deviation from the nearest equal-tempered pitch
	MIDI      int     // Pitch index, A4 = 69
}

// FullName returns the display name, e.g. "C#4".
func (n Note) FullName() string {
	return n.Name + strconv.Itoa(n.Octave)
}

// InTune reports whether the deviation is small enough to call the note in tune.
func (n Note) InTune() bool {
	return math.Abs(n.Cents) < inTuneCents
}

// Detector defines the interface for pitch detection
type Detector interface {
	// DetectPitch analyzes an audio buffer and returns the detected note
	DetectPitch(buffer *audio.AudioBuffer) (*Note, error)
}

// All note names in chromatic order
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Mapper converts frequencies to notes within [MinHz, MaxHz].
type Mapper struct {
	MinHz float64
	MaxHz float64
}

// DefaultMapper accepts the full vocal/audible span.
var DefaultMapper = Mapper{MinHz: MinFrequency, MaxHz: MaxFrequency}

// MapFrequency converts a frequency to a musical note using DefaultMapper.
func MapFrequency(hz float64) (*Note, error) {
	return DefaultMapper.Map(hz)
}

// Map converts a frequency to a musical note. Frequencies outside the mapper's
// span return ErrOutOfRange.
func (m Mapper) Map(hz float64) (*Note, error) {
	if math.IsNaN(hz) || hz < m.MinHz || hz > m.MaxHz {
		return nil, ErrOutOfRange
	}

	// Semitones from A4, rounded half up
	semitones := 12 * math.Log2(hz/referenceFrequency)
	midi := int(math.Floor(semitones+0.5)) + referenceMIDI

	// Deviation is always measured against the rounded pitch
	cents := 1200 * math.Log2(hz/FrequencyOfMIDI(midi))

	return &Note{
		Name:      noteNames[mod12(midi)],
		Octave:    floorDiv12(midi) - 1,
		Frequency: hz,
		Cents:     cents,
		MIDI:      midi,
	}, nil
}

// FrequencyOfMIDI returns the equal-tempered frequency of a pitch index.
func FrequencyOfMIDI(midi int) float64 {
	return referenceFrequency * math.Pow(2, float64(midi-referenceMIDI)/12)
}

// FrequencyOf returns the equal-tempered frequency of a named note.
func FrequencyOf(name string, octave int) (float64, error) {
	idx := noteIndex(name)
	if idx < 0 {
		return 0, fmt.Errorf("unknown note name %q", name)
	}
	return FrequencyOfMIDI((octave+1)*12 + idx), nil
}

// ParseNote splits a display name like "C#4" or "a-1" into name and octave.
func ParseNote(s string) (string, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", 0, errors.New("empty note name")
	}

	split := 1
	if len(s) > 1 && s[1] == '#' {
		split = 2
	}
	name := strings.ToUpper(s[:1]) + s[1:split]
	if noteIndex(name) < 0 {
		return "", 0, fmt.Errorf("unknown note name %q", s[:split])
	}

	octave, err := strconv.Atoi(s[split:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid octave in %q: %w", s, err)
	}
	return name, octave, nil
}

func noteIndex(name string) int {
	for i, n := range noteNames {
		if n == name {
			return i
		}
	}
	return -1
}

func mod12(n int) int {
	m := n % 12
	if m < 0 {
		m += 12
	}
	return m
}

func floorDiv12(n int) int {
	return int(math.Floor(float64(n) / 12))
}

// AutocorrelationDetector runs the Estimator and maps the result to a Note.
type AutocorrelationDetector struct {
	estimator *Estimator
	mapper    Mapper
}

// NewAutocorrelationDetector creates a detector from estimator options and a note range.
func NewAutocorrelationDetector(opts Options, mapper Mapper) *AutocorrelationDetector {
	return &AutocorrelationDetector{
		estimator: NewEstimator(opts),
		mapper:    mapper,
	}
}

// DetectPitch analyzes an audio buffer and returns the detected note
func (d *AutocorrelationDetector) DetectPitch(buffer *audio.AudioBuffer) (*Note, error) {
	if buffer == nil || len(buffer.Samples) == 0 {
		return nil, ErrEmptyBuffer
	}

	hz, err := d.estimator.Estimate(buffer.Samples, float64(buffer.SampleRate))
	if err != nil {
		return nil, err
	}
	return d.mapper.Map(hz)
}
