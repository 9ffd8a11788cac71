package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bflamig/dfxplay/internal/midiqueue"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List visible MIDI input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := midiqueue.Devices()
			if len(names) == 0 {
				fmt.Println("no MIDI input devices found")
				return nil
			}
			for i, n := range names {
				fmt.Printf("%d: %s\n", i, n)
			}
			return nil
		},
	}
}
