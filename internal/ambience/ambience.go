package ambience

import (
	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/charmbracelet/log"
)

// Loop is the long-lived ambience resource. Play may fail (for example when
// the asset cannot be loaded); Pause and SetVolume never do.
type Loop interface {
	Play() error
	Pause()
	SetVolume(volume float64)
}

// Controller starts and pauses a Loop as playback transitions between
// playing and not playing.
type Controller struct {
	loop     Loop
	volume   float64
	active   bool
	failures int
	logger   *log.Logger
}

// New creates a controller around loop and applies the initial volume.
func New(loop Loop, volume float64, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.WithPrefix("ambience")
	}
	c := &Controller{loop: loop, logger: logger}
	c.SetVolume(volume)
	return c
}

// Transitioned implements playback.Observer.
func (c *Controller) Transitioned(from, to playback.Position) {
	wasPlaying := from.State() == playback.StatePlaying
	isPlaying := to.State() == playback.StatePlaying

	switch {
	case isPlaying && (!wasPlaying || !c.active):
		c.start()
	case !isPlaying && (wasPlaying || c.active):
		c.stop()
	}
}

// SetVolume applies volume immediately, whether or not the loop is running.
func (c *Controller) SetVolume(volume float64) {
	switch {
	case volume < 0:
		volume = 0
	case volume > 1:
		volume = 1
	}
	c.volume = volume
	if c.loop != nil {
		c.loop.SetVolume(volume)
	}
}

// Volume returns the ambience volume.
func (c *Controller) Volume() float64 {
	return c.volume
}

// Active reports whether the loop was started successfully and not paused
// since.
func (c *Controller) Active() bool {
	return c.active
}

// Failures returns how many start attempts were rejected.
func (c *Controller) Failures() int {
	return c.failures
}

func (c *Controller) start() {
	if c.loop == nil {
		return
	}
	if err := c.loop.Play(); err != nil {
		c.failures++
		c.active = false
		c.logger.Warn("ambience start rejected", "err", err)
		return
	}
	c.active = true
}

func (c *Controller) stop() {
	if c.loop != nil {
		c.loop.Pause()
	}
	c.active = false
}
