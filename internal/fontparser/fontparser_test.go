package fontparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBryxTopLevelMember(t *testing.T) {
	v, err := New(`Dfx = { a = 1 }`).Parse()
	require.NoError(t, err)
	require.Equal(t, VNameValue, v.Kind)
	assert.Equal(t, "Dfx", v.Name)
	require.Equal(t, VObject, v.Child.Kind)
	require.Len(t, v.Child.Members, 1)
	assert.Equal(t, "a", v.Child.Members[0].Name)
}

func TestParseJSONTopLevelMember(t *testing.T) {
	v, err := New(`"Dfx": { "a": 1 }`).Parse()
	require.NoError(t, err)
	require.Equal(t, VNameValue, v.Kind)
	assert.Equal(t, "Dfx", v.Name)
}

func TestParseBareObjectWithoutMoniker(t *testing.T) {
	v, err := New(`{ a = 1, b = 2 }`).Parse()
	require.NoError(t, err)
	require.Equal(t, VObject, v.Kind)
	require.Len(t, v.Members, 2)
}

func TestParseArrayOfObjects(t *testing.T) {
	v, err := New(`[ { a = 1 }, { b = 2 } ]`).Parse()
	require.NoError(t, err)
	require.Equal(t, VArray, v.Kind)
	require.Len(t, v.Elements, 2)
	assert.Equal(t, VObject, v.Elements[0].Kind)
}

func TestParseNestedKitShape(t *testing.T) {
	src := `Dfx = {
		MyKit = {
			instruments = {
				snare = {
					note = 42,
					velocities = [
						v0 = { robins = [ r1 = { fname = "a.wav" } ] }
					]
				}
			}
		}
	}`
	v, err := New(src).Parse()
	require.NoError(t, err)
	kit, ok := v.Child.Get("MyKit")
	require.True(t, ok)
	instruments, ok := kit.Get("instruments")
	require.True(t, ok)
	snare, ok := instruments.Get("snare")
	require.True(t, ok)
	note, ok := snare.Get("note")
	require.True(t, ok)
	assert.Equal(t, VNumber, note.Kind)
	assert.Equal(t, 42.0, note.Num.X())
}

func TestGetOnMissingMemberReturnsFalse(t *testing.T) {
	v, err := New(`{ a = 1 }`).Parse()
	require.NoError(t, err)
	_, ok := v.Get("b")
	assert.False(t, ok)
}

func TestParseMismatchedBraceIsError(t *testing.T) {
	_, err := New(`{ a = 1 `).Parse()
	assert.Error(t, err)
}

func TestParseTrailingGarbageIsError(t *testing.T) {
	_, err := New(`{ a = 1 } extra`).Parse()
	assert.Error(t, err)
}

func TestParseEmptyObjectAndArray(t *testing.T) {
	v, err := New(`{}`).Parse()
	require.NoError(t, err)
	assert.Empty(t, v.Members)

	v, err = New(`[]`).Parse()
	require.NoError(t, err)
	assert.Empty(t, v.Elements)
}

func TestParseTrueFalseNull(t *testing.T) {
	v, err := New(`[ true, false, null ]`).Parse()
	require.NoError(t, err)
	require.Len(t, v.Elements, 3)
	assert.Equal(t, VTrue, v.Elements[0].Kind)
	assert.Equal(t, VFalse, v.Elements[1].Kind)
	assert.Equal(t, VNull, v.Elements[2].Kind)
}
