package fontvalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflamig/dfxplay/internal/fontparser"
)

func parse(t *testing.T, src string) *fontparser.Value {
	t.Helper()
	v, err := fontparser.New(src).Parse()
	require.NoError(t, err)
	return v
}

func TestValidateWellFormedKit(t *testing.T) {
	src := `Dfx = {
		MyKit = {
			instruments = {
				snare = {
					note = 42,
					velocities = [
						v0 = { robins = [ r1 = { fname = "a.wav", peak = 0.3X, rms = -30dB } ] }
					]
				}
			}
		}
	}`
	v := parse(t, src)
	log := Validate(v)
	assert.True(t, log.OK(), "%v", log.Errors)
}

func TestValidateEmptyKitSucceeds(t *testing.T) {
	v := parse(t, `Dfx = { Empty = { instruments = {} } }`)
	log := Validate(v)
	assert.True(t, log.OK())
}

func TestValidateMissingNoteFails(t *testing.T) {
	src := `Dfx = { K = { instruments = { snare = {
		velocities = [ v0 = { robins = [ r1 = { fname = "a.wav" } ] } ]
	} } } }`
	v := parse(t, src)
	log := Validate(v)
	require.False(t, log.OK())
	assertContains(t, log, "NoteMissing")
}

func TestValidateInvalidVelocityCode(t *testing.T) {
	src := `Dfx = { K = { instruments = { snare = {
		note = 42,
		velocities = [ v128 = { robins = [ r1 = { fname = "a.wav" } ] } ]
	} } } }`
	v := parse(t, src)
	log := Validate(v)
	require.False(t, log.OK())
	assertContains(t, log, "InvalidVelocityCode")
}

func TestValidateEmptyRobinsFails(t *testing.T) {
	src := `Dfx = { K = { instruments = { snare = {
		note = 42,
		velocities = [ v0 = { robins = [] } ]
	} } } }`
	v := parse(t, src)
	log := Validate(v)
	assert.False(t, log.OK())
}

func TestValidateMutatesQuotedNumericPeakInPlace(t *testing.T) {
	src := `Dfx = { K = { instruments = { snare = {
		note = 42,
		velocities = [ v0 = { robins = [ r1 = { fname = "a.wav", peak = "-6dB" } ] } ]
	} } } }`
	v := parse(t, src)
	log := Validate(v)
	require.True(t, log.OK(), "%v", log.Errors)

	kit, _ := v.Child.Get("K")
	instruments, _ := kit.Get("instruments")
	snare, _ := instruments.Get("snare")
	velocities, _ := snare.Get("velocities")
	v0 := velocities.Elements[0]
	robins, _ := v0.Child.Get("robins")
	r1 := robins.Elements[0]
	peak, _ := r1.Child.Get("peak")
	assert.Equal(t, fontparser.VNumber, peak.Kind)
}

func TestValidateOutOfRangePeakFails(t *testing.T) {
	src := `Dfx = { K = { instruments = { snare = {
		note = 42,
		velocities = [ v0 = { robins = [ r1 = { fname = "a.wav", peak = 2.0X } ] } ]
	} } } }`
	v := parse(t, src)
	log := Validate(v)
	assert.False(t, log.OK())
}

func TestValidateBothIncludeAndVelocitiesFails(t *testing.T) {
	src := `Dfx = { K = { instruments = { snare = {
		note = 42, include = "snare.dfx",
		velocities = [ v0 = { robins = [ r1 = { fname = "a.wav" } ] } ]
	} } } }`
	v := parse(t, src)
	log := Validate(v)
	assert.False(t, log.OK())
}

func assertContains(t *testing.T, log *Log, substr string) {
	t.Helper()
	for _, e := range log.Errors {
		if contains(e.Msg, substr) {
			return
		}
	}
	t.Fatalf("expected an error containing %q, got %v", substr, log.Errors)
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
