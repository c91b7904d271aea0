package audio

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayCapturer_Lifecycle(t *testing.T) {
	c := NewReplayCapturer([][]float32{{0.1, 0.2}, {0.3}}, 8000, false)

	_, err := c.GetBuffer()
	assert.ErrorIs(t, err, ErrNotCapturing)
	assert.ErrorIs(t, c.Stop(), ErrNotCapturing)

	require.NoError(t, c.Start())
	assert.True(t, c.IsCapturing())
	assert.ErrorIs(t, c.Start(), ErrAlreadyCapturing)

	buf, err := c.GetBuffer()
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, buf.Samples)
	assert.Equal(t, 8000, buf.SampleRate)

	buf, err = c.GetBuffer()
	require.NoError(t, err)
	assert.Equal(t, []float32{0.3}, buf.Samples)

	_, err = c.GetBuffer()
	assert.ErrorIs(t, err, ErrNoFrames)

	require.NoError(t, c.Stop())
	assert.False(t, c.IsCapturing())
}

func TestReplayCapturer_LoopsAndCopies(t *testing.T) {
	frames := [][]float32{{1}, {2}}
	c := NewReplayCapturer(frames, 44100, true)
	require.NoError(t, c.Start())

	var got []float32
	for i := 0; i < 5; i++ {
		buf, err := c.GetBuffer()
		require.NoError(t, err)
		got = append(got, buf.Samples[0])
		buf.Samples[0] = -1
	}
	assert.Equal(t, []float32{1, 2, 1, 2, 1}, got)
	assert.Equal(t, float32(1), frames[0][0])
}

func TestReplayCapturer_RestartRewinds(t *testing.T) {
	c := NewReplayCapturer([][]float32{{1}, {2}}, 44100, false)
	require.NoError(t, c.Start())
	_, _ = c.GetBuffer()
	require.NoError(t, c.Stop())

	require.NoError(t, c.Start())
	buf, err := c.GetBuffer()
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, buf.Samples)
}

func TestLevel(t *testing.T) {
	rms, db := Level(nil)
	assert.Zero(t, rms)
	assert.Equal(t, float32(-100), db)

	rms, db = Level(&AudioBuffer{Samples: make([]float32, 16)})
	assert.Zero(t, rms)
	assert.Equal(t, float32(-100), db)

	rms, db = Level(&AudioBuffer{Samples: []float32{0.5, -0.5, 0.5, -0.5}})
	assert.InDelta(t, 0.5, rms, 1e-6)
	assert.InDelta(t, -6.02, db, 0.01)
}

func TestDownmix(t *testing.T) {
	stereo := []float32{0.2, 0.4, -0.2, -0.6}
	assert.InDeltaSlice(t, []float32{0.3, -0.4}, downmix(stereo, 2, 1), 1e-6)
	assert.InDeltaSlice(t, []float32{0.6, -0.8}, downmix(stereo, 2, 2), 1e-6)
	assert.Equal(t, stereo, downmix(stereo, 1, 1))
}

func TestLoadWAV_MissingFile(t *testing.T) {
	_, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func ExampleFrames() {
	samples := []float32{0, 1, 2, 3, 4, 5, 6}
	for _, f := range Frames(samples, 3, 2) {
		fmt.Println(f)
	}

	// Output:
	// [0 1 2]
	// [2 3 4]
	// [4 5 6]
}
