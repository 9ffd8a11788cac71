// Package monitor renders a read-only terminal status view of the
// running player: active voice count, polyphony ceiling, and the last
// triggered drum. It only ever reads a snapshot published by the
// playback loop off the audio thread; it never touches voice state
// directly.
package monitor

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Snapshot is a point-in-time view of playback state, published by the
// playback loop (never read from the audio callback itself).
type Snapshot struct {
	ActiveVoices int
	Polyphony    int
	LastDrum     string
	LastVelocity float64
	KitName      string
}

type snapshotMsg Snapshot

// Model is the bubbletea program showing the latest Snapshot.
type Model struct {
	width, height int
	latest        Snapshot
	snapshots     <-chan Snapshot
	quit          bool
	usage         progress.Model
}

// New returns a Model that reads published snapshots from ch.
func New(ch <-chan Snapshot) Model {
	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40
	return Model{snapshots: ch, usage: p}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.snapshots)
}

func waitForSnapshot(ch <-chan Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quit = true
			return m, tea.Quit
		}
		return m, nil
	case snapshotMsg:
		m.latest = Snapshot(msg)
		var usageCmd tea.Cmd
		if m.latest.Polyphony > 0 {
			usageCmd = m.usage.SetPercent(float64(m.latest.ActiveVoices) / float64(m.latest.Polyphony))
		}
		return m, tea.Batch(usageCmd, waitForSnapshot(m.snapshots))

	case progress.FrameMsg:
		next, cmd := m.usage.Update(msg)
		m.usage = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

func (m Model) View() string {
	if m.quit {
		return ""
	}
	body := fmt.Sprintf(
		"%s\n\n%s %d / %d\n%s\n%s %s\n%s %.2f",
		headerStyle.Render("dfxplay — "+m.latest.KitName),
		labelStyle.Render("voices:"), m.latest.ActiveVoices, m.latest.Polyphony,
		m.usage.View(),
		labelStyle.Render("last drum:"), m.latest.LastDrum,
		labelStyle.Render("last velocity:"), m.latest.LastVelocity,
	)
	dialog := boxStyle.Render(body)
	if m.width == 0 {
		return dialog
	}
	return lipgloss.NewStyle().Width(m.width).Height(m.height).
		Align(lipgloss.Center).AlignVertical(lipgloss.Center).
		Render(dialog)
}
