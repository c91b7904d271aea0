package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoCapturer implements audio capture using miniaudio through malgo.
// Device callbacks deliver arbitrary chunk sizes, so samples are collected in
// a sliding window of bufferSize mono samples.
type MalgoCapturer struct {
	mu            sync.Mutex
	isCapturing   bool
	ctx           *malgo.AllocatedContext
	device        *malgo.Device
	window        []float32
	bufferSize    int
	sampleRate    int
	channels      int
	amplification float32
	logger        *slog.Logger
}

// NewMalgoCapturer creates a new audio capturer using malgo.
func NewMalgoCapturer(bufferSize, sampleRate, channels int, logger *slog.Logger) *MalgoCapturer {
	if channels < 1 {
		channels = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MalgoCapturer{
		bufferSize:    bufferSize,
		sampleRate:    sampleRate,
		channels:      channels,
		amplification: 1.0,
		logger:        logger,
	}
}

// Start initializes a miniaudio context and starts the default capture device
func (c *MalgoCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isCapturing {
		return ErrAlreadyCapturing
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		c.logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return fmt.Errorf("malgo: init context: %w", err)
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = uint32(c.channels)
	config.SampleRate = uint32(c.sampleRate)

	device, err := malgo.InitDevice(ctx.Context, config, malgo.DeviceCallbacks{
		Data: c.onData,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("malgo: init device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("malgo: start device: %w", err)
	}

	c.ctx = ctx
	c.device = device
	c.window = c.window[:0]
	c.isCapturing = true
	return nil
}

// Stop stops the device and frees the context
func (c *MalgoCapturer) Stop() error {
	c.mu.Lock()
	if !c.isCapturing {
		c.mu.Unlock()
		return ErrNotCapturing
	}
	device, ctx := c.device, c.ctx
	c.device, c.ctx = nil, nil
	c.isCapturing = false
	c.mu.Unlock()

	// Uninit waits for the data callback, which takes mu.
	device.Uninit()
	if err := ctx.Uninit(); err != nil {
		ctx.Free()
		return fmt.Errorf("malgo: uninit context: %w", err)
	}
	ctx.Free()
	return nil
}

// onData receives interleaved little-endian float32 samples.
func (c *MalgoCapturer) onData(_, input []byte, _ uint32) {
	if len(input) == 0 {
		return
	}

	raw := make([]float32, len(input)/4)
	for i := range raw {
		raw[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:]))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.window = append(c.window, downmix(raw, c.channels, c.amplification)...)
	if extra := len(c.window) - c.bufferSize; extra > 0 {
		c.window = append(c.window[:0], c.window[extra:]...)
	}
}

// GetBuffer returns the most recent bufferSize samples
func (c *MalgoCapturer) GetBuffer() (*AudioBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return nil, ErrNotCapturing
	}

	buffer := &AudioBuffer{
		Samples:    make([]float32, len(c.window)),
		SampleRate: c.sampleRate,
	}
	copy(buffer.Samples, c.window)
	return buffer, nil
}

// IsCapturing returns true if currently capturing audio
func (c *MalgoCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCapturing
}

// SetAmplification sets the audio amplification factor
func (c *MalgoCapturer) SetAmplification(factor float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if factor < 0.1 {
		factor = 0.1
	}
	c.amplification = factor
}
