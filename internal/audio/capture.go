package audio

import (
	"errors"
	"math"
	"sync"
)

// Errors
var (
	ErrAlreadyCapturing = errors.New("audio capture already started")
	ErrNotCapturing     = errors.New("audio capture not started")
	ErrNoFrames         = errors.New("no audio frames available")
)

// AudioBuffer represents a buffer of audio samples
type AudioBuffer struct {
	Samples    []float32
	SampleRate int
}

// Capturer defines the interface for audio capture
type Capturer interface {
	// Start begins audio capture
	Start() error

	// Stop ends audio capture and releases the device
	Stop() error

	// GetBuffer returns a copy of the most recent audio frame
	GetBuffer() (*AudioBuffer, error)

	// IsCapturing returns true if currently capturing audio
	IsCapturing() bool
}

// Level returns the RMS and dB level of a buffer. Silence reports -100 dB.
func Level(buffer *AudioBuffer) (rms, db float32) {
	if buffer == nil || len(buffer.Samples) == 0 {
		return 0, -100
	}

	sumSquares := 0.0
	for _, sample := range buffer.Samples {
		sumSquares += float64(sample) * float64(sample)
	}
	rms = float32(math.Sqrt(sumSquares / float64(len(buffer.Samples))))

	// Avoid log(0)
	if rms > 0.0000001 {
		db = 20 * float32(math.Log10(float64(rms)))
	} else {
		db = -100
	}
	return rms, db
}

// ReplayCapturer serves pre-recorded frames in order, one per GetBuffer call.
// It stands in for a microphone when replaying a file or in tests.
type ReplayCapturer struct {
	mu          sync.Mutex
	frames      [][]float32
	sampleRate  int
	next        int
	loop        bool
	isCapturing bool
}

// NewReplayCapturer creates a capturer over frames. With loop set, playback
// restarts after the last frame.
func NewReplayCapturer(frames [][]float32, sampleRate int, loop bool) *ReplayCapturer {
	return &ReplayCapturer{
		frames:     frames,
		sampleRate: sampleRate,
		loop:       loop,
	}
}

// Start begins playback from the first frame
func (c *ReplayCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isCapturing {
		return ErrAlreadyCapturing
	}
	c.next = 0
	c.isCapturing = true
	return nil
}

// Stop ends playback
func (c *ReplayCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return ErrNotCapturing
	}
	c.isCapturing = false
	return nil
}

// GetBuffer returns the next frame
func (c *ReplayCapturer) GetBuffer() (*AudioBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return nil, ErrNotCapturing
	}
	if c.next >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return nil, ErrNoFrames
		}
		c.next = 0
	}

	frame := c.frames[c.next]
	c.next++

	out := &AudioBuffer{
		Samples:    make([]float32, len(frame)),
		SampleRate: c.sampleRate,
	}
	copy(out.Samples, frame)
	return out, nil
}

// IsCapturing returns true if currently capturing audio
func (c *ReplayCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCapturing
}

// downmix averages interleaved channels into mono and applies gain.
func downmix(in []float32, channels int, gain float32) []float32 {
	if channels < 1 {
		channels = 1
	}
	mono := make([]float32, len(in)/channels)
	for i := range mono {
		sum := float32(0)
		for ch := 0; ch < channels; ch++ {
			sum += in[i*channels+ch]
		}
		mono[i] = sum / float32(channels) * gain
	}
	return mono
}
