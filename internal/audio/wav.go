package audio

import (
	"fmt"
	"io"

	"github.com/zenwerk/go-wave"
)

// LoadWAV reads a PCM WAV file into a mono buffer. Multi-channel files are
// averaged.
func LoadWAV(path string) (*AudioBuffer, error) {
	reader, err := wave.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("wav: open %q: %w", path, err)
	}

	samples := make([]float32, 0, reader.NumSamples)
	for {
		v, err := reader.ReadSample()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wav: read %q: %w", path, err)
		}
		if len(v) == 0 {
			continue
		}

		sum := 0.0
		for _, a := range v {
			// Negative samples come back offset into (1, 2].
			if 1 < a {
				a -= 2.0
			}
			sum += a
		}
		samples = append(samples, float32(sum/float64(len(v))))
	}

	return &AudioBuffer{
		Samples:    samples,
		SampleRate: int(reader.FmtChunk.Data.SamplesPerSec),
	}, nil
}

// Frames splits samples into frames of size samples starting every hop
// samples. A trailing partial frame is dropped.
func Frames(samples []float32, size, hop int) [][]float32 {
	if size <= 0 || hop <= 0 {
		return nil
	}

	var frames [][]float32
	for start := 0; start+size <= len(samples); start += hop {
		frames = append(frames, samples[start:start+size])
	}
	return frames
}
