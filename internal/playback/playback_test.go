package playback

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflamig/dfxplay/internal/drummer"
	"github.com/bflamig/dfxplay/internal/framebuffer"
	"github.com/bflamig/dfxplay/internal/kit"
	"github.com/bflamig/dfxplay/internal/memwave"
	"github.com/bflamig/dfxplay/internal/midiqueue"
	"github.com/bflamig/dfxplay/internal/robinmgr"
)

func makeDrummer(t *testing.T, note int, samples []float64) *drummer.Drummer {
	t.Helper()
	buf := &framebuffer.Buffer{Samples: samples, NumFrames: len(samples) / 2, NumChans: 2, DataRate: 44100}
	w := memwave.New()
	w.SetRate(44100)
	w.AliasSamples(buf)
	robin := &kit.Robin{Template: w}
	layer := &kit.VelocityLayer{MinVel: 0, MaxVel: 127, FMin: 0, FMax: 1, Robins: []*kit.Robin{robin}}
	layer.RobinMgr = robinmgr.New(1)
	drum := &kit.Drum{Note: note, Layers: []*kit.VelocityLayer{layer}}
	k := &kit.Kit{Name: "Fixture", Drums: []*kit.Drum{drum}}
	k.NoteMap[note] = drum
	return drummer.New(k, 4, 44100)
}

func TestTickWithNoMidiAndNoVoicesWritesSilence(t *testing.T) {
	d := makeDrummer(t, 38, []float64{1, 1, 1, 1})
	q := midiqueue.NewQueue()
	c := New(d, q)

	out := make([]float64, 8)
	code := c.Tick(out, 4)
	assert.Equal(t, Continue, code)
	for _, v := range out {
		assert.Equal(t, 0.0, v)
	}
}

func TestTickAppliesDefaultAttenuation(t *testing.T) {
	d := makeDrummer(t, 38, []float64{1, 1, 1, 1, 1, 1})
	q := midiqueue.NewQueue()
	q.Push(midiqueue.Message{Status: 0x90, Data1: 38, Data2: 127, Len: 3})
	c := New(d, q)

	out := make([]float64, 2)
	c.Tick(out, 1)

	expected := 1.0 * math.Pow(10, DefaultAttenuationDB/20.0)
	assert.InDelta(t, expected, out[0], 1e-9)
	assert.InDelta(t, expected, out[1], 1e-9)
}

func TestTickIgnoresNoteOnWithZeroVelocity(t *testing.T) {
	d := makeDrummer(t, 38, []float64{1, 1})
	q := midiqueue.NewQueue()
	q.Push(midiqueue.Message{Status: 0x90, Data1: 38, Data2: 0, Len: 3})
	c := New(d, q)

	out := make([]float64, 2)
	c.Tick(out, 1)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0.0, out[1])
}

func TestTickDrainsMidiInBoundedChunks(t *testing.T) {
	d := makeDrummer(t, 38, []float64{0, 0})
	q := midiqueue.NewQueue()
	for i := 0; i < 40; i++ {
		q.Push(midiqueue.Message{Status: 0x90, Data1: 38, Data2: 100, Len: 3})
	}
	c := New(d, q)

	out := make([]float64, 2*20)
	c.Tick(out, 20)

	// Each chunk drains at most 16, so two chunks of <=16 over 20
	// frames leaves some messages undrained for the next Tick.
	remaining := 0
	for {
		if _, ok := q.Pop(); !ok {
			break
		}
		remaining++
	}
	assert.Greater(t, remaining, 0)
}

func TestRequestStopReturnsStopControlCode(t *testing.T) {
	d := makeDrummer(t, 38, []float64{0, 0})
	q := midiqueue.NewQueue()
	c := New(d, q)
	c.RequestStop()

	out := make([]float64, 2)
	code := c.Tick(out, 1)
	assert.Equal(t, Stop, code)
}

func TestDbToLinearIsUnityAtZeroDb(t *testing.T) {
	require.InDelta(t, 1.0, dbToLinear(0), 1e-9)
}

func TestTickFiresOnNoteForADispatchedNoteOn(t *testing.T) {
	d := makeDrummer(t, 38, []float64{1, 1, 1, 1})
	q := midiqueue.NewQueue()
	q.Push(midiqueue.Message{Status: 0x90, Data1: 38, Data2: 100, Len: 3})
	c := New(d, q)

	var gotNote int
	var gotVel float64
	var gotDrum string
	c.OnNote = func(note int, velocity float64, drumName string) {
		gotNote, gotVel, gotDrum = note, velocity, drumName
	}

	out := make([]float64, 4)
	c.Tick(out, 2)

	assert.Equal(t, 38, gotNote)
	assert.InDelta(t, 100.0/127.0, gotVel, 1e-9)
	assert.Equal(t, "", gotDrum)
}

func TestTickDoesNotFireOnNoteForAnUnmappedNote(t *testing.T) {
	d := makeDrummer(t, 38, []float64{1, 1})
	q := midiqueue.NewQueue()
	q.Push(midiqueue.Message{Status: 0x90, Data1: 99, Data2: 100, Len: 3})
	c := New(d, q)

	fired := false
	c.OnNote = func(int, float64, string) { fired = true }

	out := make([]float64, 2)
	c.Tick(out, 1)
	assert.False(t, fired)
}

func TestTickFiresOnPeakOnceWithTheLoudestFrame(t *testing.T) {
	d := makeDrummer(t, 38, []float64{1, -1, 0.1, 0.1})
	q := midiqueue.NewQueue()
	q.Push(midiqueue.Message{Status: 0x90, Data1: 38, Data2: 127, Len: 3})
	c := New(d, q)

	calls := 0
	var lastPeak float64
	c.OnPeak = func(p float64) {
		calls++
		lastPeak = p
	}

	out := make([]float64, 4)
	c.Tick(out, 2)

	assert.Equal(t, 1, calls)
	expected := 1.0 * math.Pow(10, DefaultAttenuationDB/20.0)
	assert.InDelta(t, expected, lastPeak, 1e-9)
}
