package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

var (
	normalDim = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray   = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	fuchsia   = lipgloss.Color("#EE6FF8")
	green     = lipgloss.Color("#04B575")
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	// Speaker colours, indexed by voice number.
	voiceColors = []lipgloss.AdaptiveColor{
		{Light: "#3D7EAA", Dark: "#71BEF2"},
		{Light: "#B5487A", Dark: "#F07DB1"},
		{Light: "#3F8F4A", Dark: "#8CD98F"},
		{Light: "#A86E1D", Dark: "#F2B36B"},
		{Light: "#6B55B5", Dark: "#B8A4F5"},
		{Light: "#2D8C87", Dark: "#76D7C4"},
	}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Padding(0, 1).
			Bold(true)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().Foreground(gray)
	dimStyle    = lipgloss.NewStyle().Foreground(normalDim)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(midGray)

	focusedPaneStyle = paneStyle.BorderForeground(fuchsia)

	sidebarTitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	activeItemStyle   = lipgloss.NewStyle().Foreground(fuchsia).Bold(true)
	cursorStyle       = lipgloss.NewStyle().Foreground(fuchsia)

	playingRowStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Background(darkGreen)

	stageStateStyle = lipgloss.NewStyle().Foreground(green).Bold(true)
	stageEmptyStyle = lipgloss.NewStyle().Foreground(gray).Italic(true)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	popoverStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(fuchsia).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(red).
			Padding(1, 3)
)

// speakerStyle colours a speaker by the digits of its label ("Voice 2").
// Labels without a number use the first colour.
func speakerStyle(voiceNumber string) lipgloss.Style {
	n, err := strconv.Atoi(voiceNumber)
	if err != nil || n < 1 {
		n = 1
	}
	c := voiceColors[(n-1)%len(voiceColors)]
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}
