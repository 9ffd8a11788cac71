// Package framebuffer holds interleaved PCM frame data, typed by channel
// count, with integer and linearly-interpolated frame access.
package framebuffer

import (
	"fmt"
	"math"
)

// StereoFrame is one left/right sample pair.
type StereoFrame struct {
	Left  float64
	Right float64
}

// Buffer is an ordered sequence of frames of one or two channels, stored
// as an interleaved float64 slice. It is read-only once loaded; voices
// alias it rather than copying it.
type Buffer struct {
	Samples   []float64
	NumFrames int
	NumChans  int
	DataRate  float64 // native sample rate, in Hz
}

// New returns an empty buffer at the standard 44.1kHz native rate.
func New() *Buffer {
	return &Buffer{DataRate: 44100.0}
}

// Resize reallocates the buffer to hold nFrames frames of nChans channels,
// clearing all samples to zero. A no-op if the shape is unchanged.
func (b *Buffer) Resize(nFrames, nChans int) {
	if nFrames == b.NumFrames && nChans == b.NumChans {
		return
	}
	b.NumFrames = nFrames
	b.NumChans = nChans
	b.Samples = make([]float64, nFrames*nChans)
}

// Alias shares other's sample slice by reference (no copy); this is how
// a voice's wave gets its sample data without duplicating memory.
func (b *Buffer) Alias(other *Buffer) {
	b.Samples = other.Samples
	b.NumFrames = other.NumFrames
	b.NumChans = other.NumChans
	b.DataRate = other.DataRate
}

// MonoFrame returns sample i of a single-channel buffer.
func (b *Buffer) MonoFrame(i int) float64 {
	return b.Samples[i]
}

// StereoFrameAt returns frame i of a two-channel buffer.
func (b *Buffer) StereoFrameAt(i int) StereoFrame {
	base := i * 2
	return StereoFrame{Left: b.Samples[base], Right: b.Samples[base+1]}
}

// MonoInterpolate returns the linearly interpolated value at fractional
// frame position p. p must satisfy 0 <= p < NumFrames; callers (the
// In-Memory Wave tick routines) are responsible for staying in bounds.
func (b *Buffer) MonoInterpolate(p float64) float64 {
	i := int(math.Floor(p))
	frac := p - float64(i)
	if frac == 0 {
		return b.Samples[i]
	}
	if i == b.NumFrames-1 {
		return b.Samples[i]
	}
	a := b.Samples[i]
	c := b.Samples[i+1]
	return a + frac*(c-a)
}

// StereoInterpolate is the two-channel analogue of MonoInterpolate.
func (b *Buffer) StereoInterpolate(p float64) StereoFrame {
	i := int(math.Floor(p))
	frac := p - float64(i)
	base := i * 2
	if frac == 0 {
		return StereoFrame{Left: b.Samples[base], Right: b.Samples[base+1]}
	}
	if i == b.NumFrames-1 {
		return StereoFrame{Left: b.Samples[base], Right: b.Samples[base+1]}
	}
	la, lb := b.Samples[base], b.Samples[base+2]
	ra, rb := b.Samples[base+1], b.Samples[base+3]
	return StereoFrame{
		Left:  la + frac*(lb-la),
		Right: ra + frac*(rb-ra),
	}
}

// FindPeak returns the absolute peak sample value over the first
// duration seconds (or the whole buffer when duration <= 0).
func (b *Buffer) FindPeak(duration float64) (float64, error) {
	nFramesToDo := b.NumFrames
	if duration > 0 {
		nFramesToDo = int(duration*b.DataRate + 0.5)
		if nFramesToDo > b.NumFrames {
			nFramesToDo = b.NumFrames
		}
	}
	if nFramesToDo == 0 {
		return 0, fmt.Errorf("framebuffer: range of samples empty")
	}

	nSamples := nFramesToDo * b.NumChans
	peak := 0.0
	for i := 0; i < nSamples; i++ {
		v := math.Abs(b.Samples[i])
		if v > peak {
			peak = v
		}
	}
	return peak, nil
}

// FindRMS measures loudness over the "meat" of the signal: leading and
// trailing silence below 1e-4 is skipped, then the RMS of each
// consecutive 100-sample chunk is computed and averaged over chunks
// whose RMS exceeds peak/100 — this ignores quiet tails that would
// otherwise drag a loudness estimate down.
func (b *Buffer) FindRMS() (float64, error) {
	const silenceThresh = 1e-4
	const chunkSize = 100

	if b.NumFrames == 0 {
		return 0, fmt.Errorf("framebuffer: empty buffer")
	}

	peak, err := b.FindPeak(0)
	if err != nil {
		return 0, err
	}
	if peak == 0 {
		return 0, nil
	}

	start := 0
	for start < b.NumFrames && b.frameAbsMax(start) < silenceThresh {
		start++
	}
	end := b.NumFrames
	for end > start && b.frameAbsMax(end-1) < silenceThresh {
		end--
	}
	if start >= end {
		return 0, nil
	}

	gate := peak / 100.0
	var sum float64
	var nChunks int
	for chunkStart := start; chunkStart < end; chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > end {
			chunkEnd = end
		}
		rms := b.chunkRMS(chunkStart, chunkEnd)
		if rms > gate {
			sum += rms
			nChunks++
		}
	}
	if nChunks == 0 {
		return 0, nil
	}
	return sum / float64(nChunks), nil
}

func (b *Buffer) frameAbsMax(frame int) float64 {
	base := frame * b.NumChans
	m := 0.0
	for c := 0; c < b.NumChans; c++ {
		v := math.Abs(b.Samples[base+c])
		if v > m {
			m = v
		}
	}
	return m
}

func (b *Buffer) chunkRMS(startFrame, endFrame int) float64 {
	var sumSq float64
	n := 0
	for f := startFrame; f < endFrame; f++ {
		base := f * b.NumChans
		for c := 0; c < b.NumChans; c++ {
			v := b.Samples[base+c]
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}
