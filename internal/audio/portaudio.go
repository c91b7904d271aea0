package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioCapturer implements audio capture using PortAudio
type PortAudioCapturer struct {
	mu            sync.Mutex
	isCapturing   bool
	stream        *portaudio.Stream
	latest        []float32
	bufferSize    int
	sampleRate    int
	channels      int
	amplification float32 // Audio signal amplification factor
}

// NewPortAudioCapturer creates a new audio capturer using PortAudio.
// bufferSize is the number of mono samples per frame.
func NewPortAudioCapturer(bufferSize, sampleRate, channels int) *PortAudioCapturer {
	if channels < 1 {
		channels = 1
	}
	return &PortAudioCapturer{
		bufferSize:    bufferSize,
		sampleRate:    sampleRate,
		channels:      channels,
		amplification: 1.0,
	}
}

// Start initializes PortAudio and opens the default input stream. PortAudio is
// initialized per capture so the device can be reopened after Stop.
func (c *PortAudioCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isCapturing {
		return ErrAlreadyCapturing
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: initialize: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(
		c.channels, // input channels
		0,          // no output
		float64(c.sampleRate),
		c.bufferSize, // frames per buffer
		c.processAudio,
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio: open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio: start stream: %w", err)
	}

	c.stream = stream
	c.latest = nil
	c.isCapturing = true
	return nil
}

// Stop closes the stream and terminates PortAudio
func (c *PortAudioCapturer) Stop() error {
	c.mu.Lock()
	if !c.isCapturing {
		c.mu.Unlock()
		return ErrNotCapturing
	}
	stream := c.stream
	c.stream = nil
	c.isCapturing = false
	c.mu.Unlock()

	// The callback takes mu, so the stream is stopped without holding it.
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("portaudio: stop stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("portaudio: close stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("portaudio: terminate: %w", err)
	}
	return nil
}

// processAudio is the stream callback; it keeps the latest mono frame.
func (c *PortAudioCapturer) processAudio(in, _ []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = downmix(in, c.channels, c.amplification)
}

// GetBuffer returns the current audio buffer
func (c *PortAudioCapturer) GetBuffer() (*AudioBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return nil, ErrNotCapturing
	}

	buffer := &AudioBuffer{
		Samples:    make([]float32, len(c.latest)),
		SampleRate: c.sampleRate,
	}
	copy(buffer.Samples, c.latest)
	return buffer, nil
}

// IsCapturing returns true if currently capturing audio
func (c *PortAudioCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCapturing
}

// SetAmplification sets the audio amplification factor
func (c *PortAudioCapturer) SetAmplification(factor float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Ensure amplification is positive
	if factor < 0.1 {
		factor = 0.1
	}
	c.amplification = factor
}
