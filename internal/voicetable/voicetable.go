// Package voicetable implements the fixed-size polyphonic voice
// allocator: an arena of N slots linked into an active list (newest to
// oldest) and a free list, addressed entirely by index so the audio
// callback never allocates.
package voicetable

import "github.com/bflamig/dfxplay/internal/memwave"

const none = -1

// Slot is one voice: an aliased playback cursor, its gain, the note it
// is sounding, and its position in the doubly-linked active list (or
// the singly-linked free list, via Younger only).
type Slot struct {
	Wave        *memwave.Wave
	Gain        float64
	SoundNumber int
	Younger     int
	Older       int
}

// Table is an arena of N voice slots.
type Table struct {
	slots        []Slot
	activeHead   int
	inactiveHead int
	oldestActive int
}

// New returns a Table of n slots, all initially free, each with its
// own memwave.Wave ready to be aliased on activation.
func New(n int) *Table {
	t := &Table{
		slots:        make([]Slot, n),
		activeHead:   none,
		inactiveHead: none,
		oldestActive: none,
	}
	for i := range t.slots {
		t.slots[i].Wave = memwave.New()
		t.slots[i].SoundNumber = none
		t.slots[i].Younger = none
		t.slots[i].Older = i + 1
	}
	if n > 0 {
		t.slots[n-1].Older = none
		t.inactiveHead = 0
	}
	return t
}

// Len returns the total slot count, N.
func (t *Table) Len() int { return len(t.slots) }

// Slot returns a pointer to slot i for the caller to read or mutate
// its wave/gain/sound-number in place.
func (t *Table) Slot(i int) *Slot { return &t.slots[i] }

// ActiveHead returns the index of the youngest active slot, or -1 if
// none are active.
func (t *Table) ActiveHead() int { return t.activeHead }

// Younger, Older return the active-list neighbor indices of slot i, or
// -1 at the ends of the list.
func (t *Table) Younger(i int) int { return t.slots[i].Younger }
func (t *Table) Older(i int) int   { return t.slots[i].Older }

// Activate returns a slot to hold note, taking one from the free list
// if available, otherwise evicting the oldest active slot. The slot
// becomes the new youngest active entry.
func (t *Table) Activate(note int) int {
	var s int
	if t.inactiveHead != none {
		s = t.inactiveHead
		t.inactiveHead = t.slots[s].Older
	} else {
		s = t.oldestActive
		t.oldestActive = t.slots[s].Younger
		t.detachActive(s)
	}

	t.slots[s].Younger = none
	t.slots[s].Older = t.activeHead
	if t.activeHead != none {
		t.slots[t.activeHead].Younger = s
	}
	t.activeHead = s
	if t.oldestActive == none {
		t.oldestActive = s
	}
	t.slots[s].SoundNumber = note
	return s
}

// detachActive splices s out of the active list without touching
// oldestActive (the caller, Activate's eviction path, already advanced
// it before calling this).
func (t *Table) detachActive(s int) {
	younger := t.slots[s].Younger
	older := t.slots[s].Older
	if younger != none {
		t.slots[younger].Older = older
	} else {
		t.activeHead = older
	}
	if older != none {
		t.slots[older].Younger = younger
	}
}

// Deactivate splices slot s out of the active list and pushes it onto
// the free list.
func (t *Table) Deactivate(s int) {
	if s == t.oldestActive {
		t.oldestActive = t.slots[s].Younger
	}
	t.detachActive(s)

	t.slots[s].Younger = none
	t.slots[s].Older = t.inactiveHead
	t.inactiveHead = s
	t.slots[s].SoundNumber = none
}

// FindActiveBySoundNumber scans the active list, youngest first, for a
// slot with the given SoundNumber. Returns -1 if none matches.
func (t *Table) FindActiveBySoundNumber(note int) int {
	for s := t.activeHead; s != none; s = t.slots[s].Older {
		if t.slots[s].SoundNumber == note {
			return s
		}
	}
	return none
}
