package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"

	"github.com/bflamig/dfxplay/internal/drummer"
	"github.com/bflamig/dfxplay/internal/midiqueue"
	"github.com/bflamig/dfxplay/internal/monitor"
	"github.com/bflamig/dfxplay/internal/playback"
	"github.com/bflamig/dfxplay/internal/telemetry"
)

func newPlayCmd() *cobra.Command {
	f := &sharedFlags{}
	var midiPort string
	var oscHost string
	var oscPort int
	var headless bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Open an audio device and play a kit in response to MIDI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.fontPath == "" {
				return fmt.Errorf("--font is required")
			}

			s, err := loadEffectiveSettings(f)
			if err != nil {
				return err
			}
			if midiPort == "" {
				midiPort = s.MidiPortName
			}
			if oscHost == "" {
				oscHost = s.OSCHost
			}
			if oscPort == 0 {
				oscPort = s.OSCPort
			}

			root, log, err := loadFont(f.fontPath)
			if err != nil {
				return err
			}
			if !log.OK() {
				for _, e := range log.Errors {
					fmt.Fprintln(os.Stderr, e.Error())
				}
				return fmt.Errorf("font failed validation with %d error(s)", len(log.Errors))
			}

			font, berrs := buildFont(root, f.fontPath, s.OutputRate)
			for _, e := range berrs {
				fmt.Fprintln(os.Stderr, "warning:", e)
			}

			k, err := selectKit(font, f.kitName)
			if err != nil {
				return err
			}

			d := drummer.New(k, s.Polyphony, s.OutputRate)
			d.InterruptSameNote = s.InterruptSame

			queue := midiqueue.NewQueue()
			if midiPort != "" {
				listener, err := midiqueue.Listen(midiPort)
				if err != nil {
					return fmt.Errorf("open MIDI input: %w", err)
				}
				defer listener.Close()
				queue = listener.Queue
			}

			cb := playback.New(d, queue)
			cb.AttenuationDB = s.AttenuationDB

			var telem *telemetry.Broadcaster
			if oscPort != 0 {
				telem = telemetry.NewBroadcaster(oscHost, oscPort)
				defer telem.Close()
				cb.OnNote = func(note int, velocity float64, drumName string) {
					telem.PublishNote(telemetry.NoteEvent{MidiNote: note, Velocity: velocity, DrumName: drumName})
				}
				cb.OnPeak = func(peak float64) {
					telem.PublishPeak(telemetry.PeakEvent{Peak: peak})
				}
			}

			if err := portaudio.Initialize(); err != nil {
				return fmt.Errorf("portaudio init: %w", err)
			}
			defer portaudio.Terminate()

			snapshots := make(chan monitor.Snapshot, 1)

			// scratch is reused across every callback invocation; the
			// real-time audio thread must never allocate.
			scratch := make([]float64, 0)

			audioCB := func(out []float32) {
				if cap(scratch) < len(out) {
					scratch = make([]float64, len(out))
				}
				buf := scratch[:len(out)]

				code := cb.Tick(buf, len(out)/2)
				for i, v := range buf {
					out[i] = float32(v)
				}
				if code == playback.Stop {
					return
				}
				select {
				case snapshots <- monitor.Snapshot{
					ActiveVoices: countActive(d),
					Polyphony:    d.Voices.Len(),
					KitName:      k.Name,
					LastDrum:     d.LastDrumName,
					LastVelocity: d.LastVelocity,
				}:
				default:
				}
			}

			stream, err := portaudio.OpenDefaultStream(0, 2, s.OutputRate, portaudio.FramesPerBufferUnspecified, audioCB)
			if err != nil {
				return fmt.Errorf("open audio stream: %w", err)
			}
			defer stream.Close()

			if err := stream.Start(); err != nil {
				return fmt.Errorf("start audio stream: %w", err)
			}
			defer stream.Stop()

			if headless {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
				<-sigCh
				return nil
			}

			_, err = tea.NewProgram(monitor.New(snapshots)).Run()
			return err
		},
	}

	addSharedFlags(cmd, f)
	cmd.Flags().StringVar(&midiPort, "midi-port", "", "MIDI input port name (fuzzy-matched); if unset, no MIDI is read")
	cmd.Flags().StringVar(&oscHost, "osc-host", "", "OSC telemetry host")
	cmd.Flags().IntVar(&oscPort, "osc-port", 0, "OSC telemetry port (0 disables telemetry)")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without the status TUI, exiting on SIGINT/SIGTERM")
	return cmd
}

func countActive(d *drummer.Drummer) int {
	n := 0
	for s := d.Voices.ActiveHead(); s != -1; s = d.Voices.Older(s) {
		n++
	}
	return n
}
