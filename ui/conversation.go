package ui

import (
	"strings"

	"github.com/ashtra-audio/ashtra/internal/queue"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// conversationModel lists every queued segment. The playing row is
// highlighted; the cursor row can be selected to jump there.
type conversationModel struct {
	viewport viewport.Model
	cursor   int
}

func newConversationModel() conversationModel {
	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{}
	return conversationModel{viewport: vp}
}

func (m *conversationModel) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = h
}

func (m *conversationModel) moveCursor(delta, length int) {
	if length == 0 {
		m.cursor = 0
		return
	}
	m.cursor = max(0, min(length-1, m.cursor+delta))
}

// clampCursor keeps the cursor inside a queue of length n.
func (m *conversationModel) clampCursor(n int) {
	m.moveCursor(0, n)
}

// render lays out segs and scrolls so the cursor row is visible.
func (m *conversationModel) render(segs []queue.Segment, playing int, focused bool) {
	width := max(10, m.viewport.Width)
	var (
		b         strings.Builder
		line      int
		cursorTop int
		cursorBot int
	)
	for i, seg := range segs {
		label := speakerStyle(seg.VoiceNumber()).Render(seg.SpeakerLabel)
		text := wordwrap.String(seg.Transcript, width-4)
		row := label + "\n" + indent.String(text, 2)
		if i == playing {
			row = playingRowStyle.Width(width - 2).Render(seg.SpeakerLabel + "\n" + indent.String(text, 2))
		}
		gutter := "  "
		if focused && i == m.cursor {
			gutter = cursorStyle.Render("▌ ")
		}
		rowLines := strings.Split(row, "\n")
		for j, l := range rowLines {
			if j == 0 {
				b.WriteString(gutter)
			} else {
				b.WriteString(strings.Repeat(" ", 2))
			}
			b.WriteString(l)
			b.WriteString("\n")
		}
		if i == m.cursor {
			cursorTop = line
			cursorBot = line + len(rowLines) - 1
		}
		line += len(rowLines) + 1
		b.WriteString("\n")
	}
	m.viewport.SetContent(strings.TrimRight(b.String(), "\n"))

	switch {
	case cursorTop < m.viewport.YOffset:
		m.viewport.SetYOffset(cursorTop)
	case cursorBot >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(cursorBot - m.viewport.Height + 1)
	}
}

func (m conversationModel) view() string {
	return m.viewport.View()
}
