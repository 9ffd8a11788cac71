//go:build !windows

package midiqueue

import (
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var mutex sync.Mutex
var devicesOpen = map[string]drivers.In{}

// Devices lists the names of currently visible MIDI input ports.
func Devices() (devices []string) {
	for _, in := range midi.GetInPorts() {
		devices = append(devices, in.String())
	}
	return
}

// filterName resolves a caller-supplied name against the visible input
// ports, first by exact (case-insensitive) match, then prefix, then
// substring, truncating the query to its first 3 words as device
// strings often carry a trailing instance suffix.
func filterName(name string) (foundName string, err error) {
	names := Devices()

	words := strings.Fields(name)
	if len(words) > 3 {
		words = words[:3]
	}
	truncated := strings.Join(words, " ")

	for _, n := range names {
		if strings.EqualFold(n, truncated) {
			return n, nil
		}
	}
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), strings.ToLower(truncated)) {
			return n, nil
		}
	}
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), strings.ToLower(truncated)) {
			return n, nil
		}
	}
	return "", fmt.Errorf("could not find MIDI input device with name %s", truncated)
}

// Listener owns an open MIDI input port and pushes every incoming
// channel-voice message onto a Queue for the audio callback to drain.
type Listener struct {
	name  string
	stop  func()
	Queue *Queue
}

// Listen opens the input port matching name (fuzzy-matched as above)
// and begins forwarding its messages into a fresh Queue.
func Listen(name string) (*Listener, error) {
	portName, err := filterName(name)
	if err != nil {
		return nil, err
	}

	in, err := midi.FindInPort(portName)
	if err != nil {
		return nil, fmt.Errorf("midiqueue: find input port %q: %w", portName, err)
	}

	l := &Listener{name: portName, Queue: NewQueue()}

	stop, err := midi.ListenTo(in, func(data []byte, _ int32) {
		l.onMessage(data)
	})
	if err != nil {
		return nil, fmt.Errorf("midiqueue: listen on %q: %w", portName, err)
	}
	l.stop = stop

	mutex.Lock()
	devicesOpen[portName] = in
	mutex.Unlock()

	return l, nil
}

// onMessage runs on the MIDI driver's own thread; it must not block.
func (l *Listener) onMessage(data []byte) {
	if len(data) == 0 {
		return
	}
	_, length := ParseStatus(data[0])
	msg := Message{Status: data[0], Len: length}
	if length >= 2 && len(data) >= 2 {
		msg.Data1 = data[1]
	}
	if length >= 3 && len(data) >= 3 {
		msg.Data2 = data[2]
	}
	l.Queue.Push(msg)
}

// Close stops the listener and releases the input port.
func (l *Listener) Close() {
	if l.stop != nil {
		l.stop()
	}
	mutex.Lock()
	defer mutex.Unlock()
	if in, ok := devicesOpen[l.name]; ok {
		in.Close()
		delete(devicesOpen, l.name)
	}
}
