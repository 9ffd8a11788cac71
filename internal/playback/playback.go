// Package playback implements the audio driver's tick function: the
// one routine that runs on the real-time callback thread. It drains
// pending MIDI in bounded chunks, advances the drummer, and writes
// attenuated interleaved stereo samples. Nothing here allocates,
// blocks, or performs I/O.
package playback

import (
	"math"

	"github.com/bflamig/dfxplay/internal/drummer"
	"github.com/bflamig/dfxplay/internal/midiqueue"
)

// Control codes returned by Tick, mirroring the audio driver's expected
// callback return value.
const (
	Continue = 0
	Stop     = 2
)

// DefaultAttenuationDB is the fixed output attenuation applied to every
// mixed frame, chosen to keep full 16-voice polyphony from clipping.
const DefaultAttenuationDB = -6.0

// midiChunkFrames bounds how many output frames elapse between MIDI
// drain passes, keeping input latency under ~0.3ms at 48kHz without the
// queue-check itself dominating CPU.
const midiChunkFrames = 16

// Callback drives one Drummer from one MIDI Queue at a fixed output
// attenuation.
type Callback struct {
	Drummer       *drummer.Drummer
	Queue         *midiqueue.Queue
	AttenuationDB float64
	attenuation   float64
	stopRequested bool

	// OnNote, when set, is called synchronously on every note-on the
	// drummer actually triggers (layer/robin resolved, a voice
	// activated). OnPeak, when set, is called once per Tick with the
	// peak absolute sample value written this tick. Both must be
	// allocation-free and return promptly; they run on the real-time
	// callback thread. Intended for a non-blocking telemetry sink, not
	// for direct I/O.
	OnNote func(midiNote int, velocity float64, drumName string)
	OnPeak func(peak float64)
}

// New returns a Callback wired to d and q, at the default attenuation.
func New(d *drummer.Drummer, q *midiqueue.Queue) *Callback {
	c := &Callback{Drummer: d, Queue: q, AttenuationDB: DefaultAttenuationDB}
	c.attenuation = dbToLinear(c.AttenuationDB)
	return c
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// RequestStop arranges for the next Tick to return Stop after filling
// out the current buffer with silence. Safe to call from any thread;
// it only ever writes a bool, never reads shared audio state.
func (c *Callback) RequestStop() {
	c.stopRequested = true
}

// Tick fills out (interleaved L,R, length 2*nFrames) and returns a
// control code. It must be called once per audio driver period.
func (c *Callback) Tick(out []float64, nFrames int) int {
	peak := 0.0
	frame := 0
	for frame < nFrames {
		chunk := midiChunkFrames
		if nFrames-frame < chunk {
			chunk = nFrames - frame
		}

		c.Queue.DrainChunk(chunk, c.applyMessage)

		for i := 0; i < chunk; i++ {
			s := c.Drummer.StereoTick()
			left := s.Left * c.attenuation
			right := s.Right * c.attenuation
			out[2*frame] = left
			out[2*frame+1] = right
			if math.Abs(left) > peak {
				peak = math.Abs(left)
			}
			if math.Abs(right) > peak {
				peak = math.Abs(right)
			}
			frame++
		}
	}

	if c.OnPeak != nil {
		c.OnPeak(peak)
	}

	if c.stopRequested {
		return Stop
	}
	return Continue
}

func (c *Callback) applyMessage(m midiqueue.Message) {
	kind, _ := midiqueue.ParseStatus(m.Status)
	if kind != "NoteOn" {
		return
	}
	if m.Data2 == 0 {
		// NoteOn with velocity 0 is a conventional NoteOff; the drummer
		// has no note-off behavior (one-shot samples), so it is ignored.
		return
	}
	note := int(m.Data1 & 0x7F)
	velocity := float64(m.Data2&0x7F) / 127.0
	if c.Drummer.NoteOn(note, velocity) && c.OnNote != nil {
		c.OnNote(note, velocity, c.Drummer.LastDrumName)
	}
}
