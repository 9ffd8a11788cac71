// Package memwave plays a framebuffer.Buffer back at an output sample
// rate different from its native rate via a fractional playback cursor
// and linear interpolation.
package memwave

import (
	"math"

	"github.com/bflamig/dfxplay/internal/framebuffer"
)

// Wave is a stateful playback cursor over a shared, read-only sample
// buffer. Multiple Waves may alias the same buffer concurrently; each
// owns only its own cursor state.
type Wave struct {
	buf         *framebuffer.Buffer
	nativeRate  float64
	outRate     float64
	delta       float64
	time        float64
	finished    bool
	interpolate bool
}

// New returns a Wave with no buffer aliased yet; call AliasSamples
// before ticking.
func New() *Wave {
	return &Wave{finished: true}
}

// Buffer returns the sample buffer this wave currently aliases, or nil
// if none has been set yet.
func (w *Wave) Buffer() *framebuffer.Buffer {
	return w.buf
}

// AliasSamples shares buf by reference (no copy) and re-derives the
// resampling ratio against the current output rate.
func (w *Wave) AliasSamples(buf *framebuffer.Buffer) {
	w.buf = buf
	w.nativeRate = buf.DataRate
	w.deriveRatio()
}

// SetRate sets the output sample rate the wave is ticked at and
// re-derives the resampling ratio.
func (w *Wave) SetRate(outRate float64) {
	w.outRate = outRate
	w.deriveRatio()
}

func (w *Wave) deriveRatio() {
	if w.outRate == 0 {
		return
	}
	w.delta = w.nativeRate / w.outRate
	w.interpolate = math.Mod(w.delta, 1.0) != 0
}

// Reset rewinds the playback cursor to the start and clears the
// finished latch.
func (w *Wave) Reset() {
	w.time = 0
	w.finished = false
}

// Finished reports whether the cursor has run past the end of the
// buffer.
func (w *Wave) Finished() bool {
	return w.finished
}

// MonoTick advances the cursor by one output frame and returns the
// next mono sample, or 0 once finished.
func (w *Wave) MonoTick() float64 {
	if w.finished || w.buf == nil {
		return 0
	}
	if w.time > float64(w.buf.NumFrames-1) {
		w.finished = true
		return 0
	}

	var out float64
	if w.interpolate {
		out = w.buf.MonoInterpolate(w.time)
	} else {
		out = w.buf.MonoFrame(int(w.time))
	}
	w.time += w.delta
	return out
}

// StereoTick advances the cursor by one output frame and returns the
// next stereo frame, or silence once finished.
func (w *Wave) StereoTick() framebuffer.StereoFrame {
	if w.finished || w.buf == nil {
		return framebuffer.StereoFrame{}
	}
	if w.time > float64(w.buf.NumFrames-1) {
		w.finished = true
		return framebuffer.StereoFrame{}
	}

	var out framebuffer.StereoFrame
	if w.interpolate {
		out = w.buf.StereoInterpolate(w.time)
	} else {
		out = w.buf.StereoFrameAt(int(w.time))
	}
	w.time += w.delta
	return out
}
