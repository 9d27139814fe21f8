// Package replay renders an incarnation's event log as a forensic
// timeline, for `swarm inspect` and `swarm replay`.
package replay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Component color scheme - each event kind has a distinct, consistent color.
var (
	// Structural / metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - timestamps, metadata

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - labels

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")) // White - values

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")) // White bold - headers

	// Intent/promise/step lifecycle - default/white
	flowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")) // White

	// Trust updates - Blue
	trustStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // Blue

	// Verification - Cyan
	verificationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("14")) // Cyan

	// Recovery attempts - Orange
	recoveryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	// Checkpoints - Magenta
	checkpointStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("13")) // Magenta

	// Inter-agent messages - Magenta dim
	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")) // Magenta dim

	// Outcomes
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // Red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow

	// Timeline
	seqStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(6).
			Align(lipgloss.Right)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	// Content blocks
	blockHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Italic(true)

	divider = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("━", 60))
)
