package drummer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflamig/dfxplay/internal/framebuffer"
	"github.com/bflamig/dfxplay/internal/kit"
	"github.com/bflamig/dfxplay/internal/memwave"
	"github.com/bflamig/dfxplay/internal/robinmgr"
)

func makeRobinTemplate(t *testing.T, samples []float64) *kit.Robin {
	t.Helper()
	buf := &framebuffer.Buffer{Samples: samples, NumFrames: len(samples) / 2, NumChans: 2, DataRate: 44100}
	w := memwave.New()
	w.SetRate(44100)
	w.AliasSamples(buf)
	return &kit.Robin{Template: w}
}

func makeOneDrumKit(t *testing.T, note int) *kit.Kit {
	t.Helper()
	robin := makeRobinTemplate(t, []float64{0.5, -0.5, 0.25, -0.25})
	layer := &kit.VelocityLayer{Code: 0, MinVel: 0, MaxVel: 127, FMin: 0, FMax: 1, Robins: []*kit.Robin{robin}}
	// exercise the real rotation path rather than leaving robinMgr nil
	layer.RobinMgr = robinmgr.New(len(layer.Robins))
	drum := &kit.Drum{Name: "snare", Note: note, Layers: []*kit.VelocityLayer{layer}}
	k := &kit.Kit{Name: "Fixture", Drums: []*kit.Drum{drum}}
	k.NoteMap[note] = drum
	return k
}

func TestNoteOnActivatesAVoiceMappedToTheDrum(t *testing.T) {
	k := makeOneDrumKit(t, 38)
	d := New(k, 4, 44100)

	d.NoteOn(38, 0.8)
	assert.True(t, d.HasSoundsToPlay())

	slot := d.Voices.Slot(d.Voices.ActiveHead())
	assert.Equal(t, 38, slot.SoundNumber)
	assert.InDelta(t, 0.8, slot.Gain, 1e-9)
}

func TestNoteOnUnmappedNoteIsSilentNoOp(t *testing.T) {
	k := makeOneDrumKit(t, 38)
	d := New(k, 4, 44100)

	d.NoteOn(99, 1.0)
	assert.False(t, d.HasSoundsToPlay())
}

func TestNoteOnSameNoteInterruptsRatherThanStealingSlot(t *testing.T) {
	k := makeOneDrumKit(t, 38)
	d := New(k, 4, 44100)

	d.NoteOn(38, 0.5)
	first := d.Voices.ActiveHead()
	d.NoteOn(38, 0.9)
	second := d.Voices.ActiveHead()

	assert.Equal(t, first, second)
	assert.InDelta(t, 0.9, d.Voices.Slot(second).Gain, 1e-9)
}

func TestStereoTickMixesActiveVoicesWeightedByGain(t *testing.T) {
	k := makeOneDrumKit(t, 38)
	d := New(k, 4, 44100)
	d.NoteOn(38, 0.5)

	frame := d.StereoTick()
	assert.InDelta(t, 0.25, frame.Left, 1e-9)
	assert.InDelta(t, -0.25, frame.Right, 1e-9)
}

func TestStereoTickDeactivatesFinishedVoices(t *testing.T) {
	k := makeOneDrumKit(t, 38)
	d := New(k, 4, 44100)
	d.NoteOn(38, 1.0)

	d.StereoTick()
	d.StereoTick()
	assert.True(t, d.HasSoundsToPlay())
	d.StereoTick()
	assert.False(t, d.HasSoundsToPlay())
}

func TestHasSoundsToPlayFalseOnFreshDrummer(t *testing.T) {
	k := makeOneDrumKit(t, 38)
	d := New(k, 4, 44100)
	assert.False(t, d.HasSoundsToPlay())
}

func TestPolyphonyEvictsOldestUnderSaturation(t *testing.T) {
	robin := makeRobinTemplate(t, []float64{0.1, 0.1, 0.1, 0.1})
	layer := &kit.VelocityLayer{MinVel: 0, MaxVel: 127, FMin: 0, FMax: 1, Robins: []*kit.Robin{robin}}
	layer.RobinMgr = robinmgr.New(len(layer.Robins))

	k := &kit.Kit{Name: "Fixture"}
	for n := 36; n < 38; n++ {
		drum := &kit.Drum{Name: "d", Note: n, Layers: []*kit.VelocityLayer{layer}}
		k.Drums = append(k.Drums, drum)
		k.NoteMap[n] = drum
	}

	d := New(k, 1, 44100)
	d.NoteOn(36, 1.0)
	require.True(t, d.HasSoundsToPlay())
	d.NoteOn(37, 1.0)

	slot := d.Voices.Slot(d.Voices.ActiveHead())
	assert.Equal(t, 37, slot.SoundNumber)
}
