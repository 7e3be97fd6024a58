// Package mixer holds the two volume channels and which of their controls is
// on screen.
package mixer

import (
	"fmt"
	"math"
)

// Channel identifies a volume channel.
type Channel int

const (
	Voice Channel = iota
	Ambience
)

func (c Channel) String() string {
	switch c {
	case Voice:
		return "voice"
	case Ambience:
		return "ambience"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Popover is the volume control currently shown. Only one can be visible.
type Popover int

const (
	PopoverNone Popover = iota
	PopoverAmbience
	PopoverVoice
)

const (
	// DefaultVoice is the initial voice level.
	DefaultVoice = 1.0
	// DefaultAmbience is the initial ambience level.
	DefaultAmbience = 0.4
	// Step is the increment applied by Nudge.
	Step = 0.05
)

// Sink receives volume changes for one channel.
type Sink interface {
	SetVolume(volume float64)
}

// Mixer tracks channel levels and the visible popover.
type Mixer struct {
	levels  [2]float64
	sinks   [2]Sink
	popover Popover
}

// New returns a mixer at the given levels with no popover showing.
func New(voice, ambience float64) *Mixer {
	m := &Mixer{}
	m.levels[Voice] = clamp(voice)
	m.levels[Ambience] = clamp(ambience)
	return m
}

// Attach routes changes of ch to sink and applies the current level.
func (m *Mixer) Attach(ch Channel, sink Sink) {
	m.sinks[ch] = sink
	if sink != nil {
		sink.SetVolume(m.levels[ch])
	}
}

// Level returns the level of ch.
func (m *Mixer) Level(ch Channel) float64 {
	return m.levels[ch]
}

// SetLevel clamps v into [0, 1], stores it, and forwards it to the sink.
func (m *Mixer) SetLevel(ch Channel, v float64) float64 {
	v = clamp(v)
	m.levels[ch] = v
	if s := m.sinks[ch]; s != nil {
		s.SetVolume(v)
	}
	return v
}

// Nudge moves ch by steps increments of Step.
func (m *Mixer) Nudge(ch Channel, steps int) float64 {
	v := m.levels[ch] + float64(steps)*Step
	// Keep levels on the step grid so repeated nudges land on 0 and 1 exactly.
	v = math.Round(v/Step) * Step
	return m.SetLevel(ch, v)
}

// Muted reports whether the voice level is exactly zero.
func (m *Mixer) Muted() bool {
	return m.levels[Voice] == 0
}

// Popover returns the visible popover.
func (m *Mixer) Popover() Popover {
	return m.popover
}

// Visible reports whether the control for ch is showing.
func (m *Mixer) Visible(ch Channel) bool {
	return m.popover == popoverFor(ch)
}

// Toggle shows ch's control, hiding the other, or hides it if it is showing.
func (m *Mixer) Toggle(ch Channel) {
	p := popoverFor(ch)
	if m.popover == p {
		m.popover = PopoverNone
		return
	}
	m.popover = p
}

// Dismiss hides any visible control.
func (m *Mixer) Dismiss() {
	m.popover = PopoverNone
}

// Focused returns the channel whose control is showing.
func (m *Mixer) Focused() (Channel, bool) {
	switch m.popover {
	case PopoverVoice:
		return Voice, true
	case PopoverAmbience:
		return Ambience, true
	default:
		return 0, false
	}
}

func popoverFor(ch Channel) Popover {
	if ch == Ambience {
		return PopoverAmbience
	}
	return PopoverVoice
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
