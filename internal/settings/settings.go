// Package settings loads and saves the player's JSON-backed
// configuration: output rate, polyphony, attenuation, and MIDI/OSC
// endpoints.
package settings

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Settings is the full set of player-wide, rarely-changed configuration.
type Settings struct {
	OutputRate    float64 `json:"output_rate"`
	Polyphony     int     `json:"polyphony"`
	AttenuationDB float64 `json:"attenuation_db"`
	InterruptSame bool    `json:"interrupt_same_note"`
	AuNaturale    bool    `json:"au_naturale"`
	MidiPortName  string  `json:"midi_port_name"`
	OSCHost       string  `json:"osc_host"`
	OSCPort       int     `json:"osc_port"`
}

// Default returns the settings a fresh install starts with.
func Default() Settings {
	return Settings{
		OutputRate:    44100,
		Polyphony:     16,
		AttenuationDB: -6,
		InterruptSame: true,
		AuNaturale:    true,
		MidiPortName:  "",
		OSCHost:       "localhost",
		OSCPort:       0,
	}
}

// Load reads settings from path, returning Default() unmodified if the
// file does not exist.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("settings: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path as indented JSON.
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", path, err)
	}
	return nil
}
