// Package telemetry forwards note-on events and peak-meter readings to
// an OSC listener, off the audio thread, for external monitoring
// (a DAW, a lighting rig, a level meter).
package telemetry

import (
	"log"

	"github.com/hypebeast/go-osc/osc"
)

// NoteEvent describes one dispatched note-on, for OSC broadcast.
type NoteEvent struct {
	MidiNote int
	Velocity float64
	DrumName string
}

// PeakEvent carries one mixed-output peak-level reading.
type PeakEvent struct {
	Peak float64
}

// eventBufferSize bounds how many pending events the audio thread can
// enqueue before Publish starts dropping rather than blocking.
const eventBufferSize = 256

// Broadcaster owns an OSC client and a buffered channel the audio
// thread publishes into without ever blocking.
type Broadcaster struct {
	client *osc.Client
	notes  chan NoteEvent
	peaks  chan PeakEvent
	done   chan struct{}
}

// NewBroadcaster returns a Broadcaster sending to host:port, and starts
// its forwarding goroutine. Call Close to stop it.
func NewBroadcaster(host string, port int) *Broadcaster {
	b := &Broadcaster{
		client: osc.NewClient(host, port),
		notes:  make(chan NoteEvent, eventBufferSize),
		peaks:  make(chan PeakEvent, eventBufferSize),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

// PublishNote enqueues a note-on event, dropping it if the channel is
// full rather than blocking the caller. Safe to call from the
// real-time audio callback thread itself: the send is non-blocking and
// NoteEvent is a plain value, so nothing here allocates.
func (b *Broadcaster) PublishNote(e NoteEvent) {
	select {
	case b.notes <- e:
	default:
	}
}

// PublishPeak enqueues a peak-meter reading, dropping it if full.
func (b *Broadcaster) PublishPeak(e PeakEvent) {
	select {
	case b.peaks <- e:
	default:
	}
}

// Close stops the forwarding goroutine.
func (b *Broadcaster) Close() {
	close(b.done)
}

func (b *Broadcaster) run() {
	for {
		select {
		case <-b.done:
			return
		case e := <-b.notes:
			msg := osc.NewMessage("/drum/note")
			msg.Append(int32(e.MidiNote))
			msg.Append(float32(e.Velocity))
			msg.Append(e.DrumName)
			if err := b.client.Send(msg); err != nil {
				log.Printf("telemetry: note OSC send failed: %v", err)
			}
		case e := <-b.peaks:
			msg := osc.NewMessage("/drum/peak")
			msg.Append(float32(e.Peak))
			if err := b.client.Send(msg); err != nil {
				log.Printf("telemetry: peak OSC send failed: %v", err)
			}
		}
	}
}
