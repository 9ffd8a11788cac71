package memwave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflamig/dfxplay/internal/framebuffer"
)

func monoBuffer(rate float64, samples ...float64) *framebuffer.Buffer {
	b := framebuffer.New()
	b.DataRate = rate
	b.Resize(len(samples), 1)
	copy(b.Samples, samples)
	return b
}

func TestTickUnityRateReturnsExactFrames(t *testing.T) {
	buf := monoBuffer(44100, 0.1, 0.2, 0.3)
	w := New()
	w.AliasSamples(buf)
	w.SetRate(44100)
	w.Reset()

	assert.Equal(t, 0.1, w.MonoTick())
	assert.Equal(t, 0.2, w.MonoTick())
	assert.Equal(t, 0.3, w.MonoTick())
	assert.Equal(t, 0.0, w.MonoTick())
	assert.True(t, w.Finished())
}

func TestTickLatchesFinishedOnceAndStaysSilent(t *testing.T) {
	buf := monoBuffer(44100, 1.0)
	w := New()
	w.AliasSamples(buf)
	w.SetRate(44100)
	w.Reset()

	assert.Equal(t, 1.0, w.MonoTick())
	assert.False(t, w.Finished())
	assert.Equal(t, 0.0, w.MonoTick())
	assert.True(t, w.Finished())
	assert.Equal(t, 0.0, w.MonoTick())
}

func TestResetClearsFinishedAndRewindsCursor(t *testing.T) {
	buf := monoBuffer(44100, 1.0, 2.0)
	w := New()
	w.AliasSamples(buf)
	w.SetRate(44100)
	w.Reset()

	w.MonoTick()
	w.MonoTick()
	w.MonoTick()
	require.True(t, w.Finished())

	w.Reset()
	assert.False(t, w.Finished())
	assert.Equal(t, 1.0, w.MonoTick())
}

func TestDownsampleInterpolatesBetweenFrames(t *testing.T) {
	// native 2x output rate: delta = 2.0, no interpolation needed since
	// 2.0 mod 1 == 0, but values should still be every-other-frame.
	buf := monoBuffer(88200, 0.0, 1.0, 2.0, 3.0, 4.0)
	w := New()
	w.AliasSamples(buf)
	w.SetRate(44100)
	w.Reset()

	assert.Equal(t, 0.0, w.MonoTick())
	assert.Equal(t, 2.0, w.MonoTick())
	assert.Equal(t, 4.0, w.MonoTick())
}

func TestNonIntegerDeltaInterpolates(t *testing.T) {
	buf := monoBuffer(48000, 0.0, 1.0, 2.0, 3.0)
	w := New()
	w.AliasSamples(buf)
	w.SetRate(44100)
	w.Reset()

	// delta = 48000/44100 ~= 1.0884, not an integer: must interpolate
	first := w.MonoTick()
	assert.Equal(t, 0.0, first)
	second := w.MonoTick()
	assert.InDelta(t, 1.0884, second, 1e-3)
}

func TestAliasSamplesRederivesRatioAfterRateChange(t *testing.T) {
	buf := monoBuffer(44100, 0.0, 1.0)
	w := New()
	w.SetRate(48000)
	w.AliasSamples(buf)
	w.Reset()

	assert.Equal(t, 0.0, w.MonoTick())
}
