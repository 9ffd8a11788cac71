// Package drummer implements the polyphonic voice dispatcher: it maps
// MIDI note-on events to kit drums and velocity layers, drives a fixed
// pool of voices via the voice table, and mixes them down on each tick.
package drummer

import (
	"github.com/bflamig/dfxplay/internal/framebuffer"
	"github.com/bflamig/dfxplay/internal/kit"
	"github.com/bflamig/dfxplay/internal/voicetable"
)

// DefaultPolyphony is the voice table size used when none is given.
const DefaultPolyphony = 16

// Drummer plays one Kit through a fixed-size voice table.
type Drummer struct {
	Kit               *kit.Kit
	Voices            *voicetable.Table
	InterruptSameNote bool
	outputRate        float64

	// LastDrumName and LastVelocity record the most recently dispatched
	// note-on, for status reporting; they are not read on any hot path.
	LastDrumName string
	LastVelocity float64
}

// New returns a Drummer over k with a voice table of polyphony slots
// (DefaultPolyphony if polyphony <= 0), each voice's wave pre-tuned to
// outputRate so aliasing a robin template at note-on time needs no
// further rate bookkeeping.
func New(k *kit.Kit, polyphony int, outputRate float64) *Drummer {
	if polyphony <= 0 {
		polyphony = DefaultPolyphony
	}
	voices := voicetable.New(polyphony)
	for i := 0; i < voices.Len(); i++ {
		voices.Slot(i).Wave.SetRate(outputRate)
	}
	return &Drummer{
		Kit:               k,
		Voices:            voices,
		InterruptSameNote: true,
		outputRate:        outputRate,
	}
}

// NoteOn dispatches a MIDI note-on at fractional velocity v (0..1) and
// reports whether a voice was actually triggered. If the note has no
// drum mapped, this is silently a no-op and reports false. When
// InterruptSameNote finds an existing voice already sounding the same
// note, it is reset and re-gained in place rather than stealing a new
// slot.
func (d *Drummer) NoteOn(midiNote int, v float64) bool {
	drum := d.Kit.NoteMap[midiNote]
	if drum == nil {
		return false
	}
	layer := drum.LayerForVelocity(v)
	if layer == nil || len(layer.Robins) == 0 {
		return false
	}
	robin := layer.Choose()

	d.LastDrumName = drum.Name
	d.LastVelocity = v

	if d.InterruptSameNote {
		if s := d.Voices.FindActiveBySoundNumber(midiNote); s != -1 {
			slot := d.Voices.Slot(s)
			slot.Wave.AliasSamples(robinBuffer(robin))
			slot.Wave.Reset()
			slot.Gain = v
			return true
		}
	}

	s := d.Voices.Activate(midiNote)
	slot := d.Voices.Slot(s)
	slot.Wave.AliasSamples(robinBuffer(robin))
	slot.Wave.Reset()
	slot.Gain = v
	return true
}

// robinBuffer retrieves the underlying sample buffer a robin's template
// wave aliases, so a fresh voice can alias the same buffer rather than
// sharing the template's own cursor.
func robinBuffer(r *kit.Robin) *framebuffer.Buffer {
	return r.Template.Buffer()
}

// StereoTick advances every active voice by one output frame,
// deactivating any that finished during this tick, and returns the
// gain-weighted stereo sum.
func (d *Drummer) StereoTick() framebuffer.StereoFrame {
	var sum framebuffer.StereoFrame

	s := d.Voices.ActiveHead()
	for s != -1 {
		next := d.Voices.Older(s)
		slot := d.Voices.Slot(s)

		if slot.Wave.Finished() {
			d.Voices.Deactivate(s)
		} else {
			frame := slot.Wave.StereoTick()
			sum.Left += frame.Left * slot.Gain
			sum.Right += frame.Right * slot.Gain
		}

		s = next
	}

	return sum
}

// HasSoundsToPlay reports whether any voice is currently active.
func (d *Drummer) HasSoundsToPlay() bool {
	return d.Voices.ActiveHead() != -1
}
