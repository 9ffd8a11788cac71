package main

import (
	"github.com/spf13/cobra"

	"github.com/bflamig/dfxplay/internal/settings"
)

// sharedFlags holds the subset of settings a subcommand can override
// from the command line, layered on top of whatever a --settings file
// supplies.
type sharedFlags struct {
	settingsPath string
	fontPath     string
	kitName      string
	rate         float64
	polyphony    int
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dfxplay",
		Short: "Play multi-layered drum fonts in response to MIDI",
	}

	root.AddCommand(newPlayCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newDevicesCmd())

	return root
}

func addSharedFlags(cmd *cobra.Command, f *sharedFlags) {
	cmd.Flags().StringVar(&f.settingsPath, "settings", "", "path to a JSON settings file (defaults applied if unset or missing)")
	cmd.Flags().StringVar(&f.fontPath, "font", "", "path to a drum font file")
	cmd.Flags().StringVar(&f.kitName, "kit", "", "name of the kit to play within the font (defaults to the first kit)")
	cmd.Flags().Float64Var(&f.rate, "rate", 0, "output sample rate in Hz (0 uses the settings file / default)")
	cmd.Flags().IntVar(&f.polyphony, "polyphony", 0, "voice table size (0 uses the settings file / default)")
}

func loadEffectiveSettings(f *sharedFlags) (settings.Settings, error) {
	s := settings.Default()
	if f.settingsPath != "" {
		loaded, err := settings.Load(f.settingsPath)
		if err != nil {
			return s, err
		}
		s = loaded
	}
	if f.rate > 0 {
		s.OutputRate = f.rate
	}
	if f.polyphony > 0 {
		s.Polyphony = f.polyphony
	}
	return s, nil
}
