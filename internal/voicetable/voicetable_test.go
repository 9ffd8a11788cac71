package voicetable

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func activeList(t *Table) []int {
	var out []int
	for s := t.ActiveHead(); s != -1; s = t.Older(s) {
		out = append(out, s)
	}
	return out
}

func TestPolyphonySaturationEvictsOldestYoungestFirstOrder(t *testing.T) {
	tbl := New(3)
	a := tbl.Activate(100) // A
	b := tbl.Activate(101) // B
	c := tbl.Activate(102) // C
	_ = a
	d := tbl.Activate(103) // D evicts A

	active := activeList(tbl)
	require.Len(t, active, 3)
	assert.Equal(t, d, active[0])
	assert.Equal(t, c, active[1])
	assert.Equal(t, b, active[2])
}

func TestDeactivateThenActivateReturnsSameSlotIfOnlyFreeOne(t *testing.T) {
	tbl := New(2)
	s0 := tbl.Activate(1)
	s1 := tbl.Activate(2)
	tbl.Deactivate(s0)
	s2 := tbl.Activate(3)
	assert.Equal(t, s0, s2)
	_ = s1
}

func TestActiveLengthPlusFreeLengthAlwaysEqualsN(t *testing.T) {
	tbl := New(4)
	countActive := func() int {
		n := 0
		for s := tbl.ActiveHead(); s != -1; s = tbl.Older(s) {
			n++
		}
		return n
	}
	for i := 0; i < 4; i++ {
		tbl.Activate(i)
	}
	assert.Equal(t, 4, countActive())
	tbl.Deactivate(tbl.ActiveHead())
	assert.Equal(t, 3, countActive())
}

func TestFindActiveBySoundNumber(t *testing.T) {
	tbl := New(3)
	tbl.Activate(10)
	s := tbl.Activate(20)
	tbl.Activate(30)
	assert.Equal(t, s, tbl.FindActiveBySoundNumber(20))
	assert.Equal(t, -1, tbl.FindActiveBySoundNumber(99))
}

// Property: for any sequence of activate/deactivate on N slots, the
// active-list length plus free-list length equals N.
func TestActiveFreeInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		tbl := New(n)
		var active []int

		steps := rapid.IntRange(0, 100).Draw(t, "steps")
		rng := rand.New(rand.NewSource(int64(steps*7 + n)))
		for i := 0; i < steps; i++ {
			if len(active) > 0 && rng.Intn(2) == 0 {
				idx := rng.Intn(len(active))
				tbl.Deactivate(active[idx])
				active = append(active[:idx], active[idx+1:]...)
			} else {
				s := tbl.Activate(i)
				// s may have evicted an existing active slot; rebuild
				// active from the table itself rather than trust bookkeeping
				active = activeList(tbl)
				_ = s
			}
		}

		activeCount := len(activeList(tbl))
		freeCount := 0
		for s := tbl.inactiveHeadForTest(); s != -1; s = tbl.olderForTest(s) {
			freeCount++
		}
		assert.Equal(t, n, activeCount+freeCount)
	})
}

func (t *Table) inactiveHeadForTest() int { return t.inactiveHead }
func (t *Table) olderForTest(i int) int   { return t.slots[i].Older }
