package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/ashtra-audio/ashtra/internal/mixer"
	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const (
	stageHeight  = 6
	meterWidth   = 20
	waitingLabel = "Waiting to generate..."
)

// stageView renders the current speaker and transcript.
func stageView(ctrl *playback.Controller, width int) string {
	seg, ok := ctrl.Current()
	if !ok {
		return stageEmptyStyle.Render(waitingLabel)
	}

	pos := ctrl.Position()
	state := "Paused"
	if pos.Playing {
		state = "▶ Playing"
	}
	header := fmt.Sprintf("%s  %s  %s",
		stageStateStyle.Render(state),
		speakerStyle(seg.VoiceNumber()).Render(seg.SpeakerLabel),
		subtleStyle.Render(fmt.Sprintf("%d/%d", pos.Index+1, pos.Length)),
	)

	body := wordwrap.String(seg.Transcript, max(10, width))
	lines := strings.Split(body, "\n")
	if len(lines) > stageHeight-2 {
		lines = lines[:stageHeight-2]
		last := len(lines) - 1
		lines[last] = truncate.StringWithTail(lines[last], uint(max(0, width-1)), ellipsis) + ellipsis //nolint:gosec
	}
	return header + "\n\n" + strings.Join(lines, "\n")
}

// volumeView renders the visible mixer popover, or "" when none is shown.
func volumeView(mx *mixer.Mixer) string {
	ch, ok := mx.Focused()
	if !ok {
		return ""
	}
	level := mx.Level(ch)
	filled := int(math.Round(level * meterWidth))
	meter := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)

	title := "Voice volume"
	if ch == mixer.Ambience {
		title = "Ambience volume"
	}
	note := fmt.Sprintf("%3.0f%%", level*100)
	if ch == mixer.Voice && mx.Muted() {
		note = "muted"
	}
	return popoverStyle.Render(fmt.Sprintf("%s\n%s %s\n%s",
		title, meter, note,
		subtleStyle.Render("+/- adjust • esc close"),
	))
}
