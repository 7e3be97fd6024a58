package playback

import (
	"errors"
	"fmt"

	"github.com/ashtra-audio/ashtra/internal/queue"
	"github.com/charmbracelet/log"
)

// ErrIndexOutOfRange is returned by JumpTo for an index outside the queue.
var ErrIndexOutOfRange = errors.New("jump index out of range")

// Controller walks a segment queue. It is the single source of truth for the
// selected index and the playing flag.
type Controller struct {
	queue *queue.Queue
	deck  Deck

	index   int
	playing bool
	volume  float64

	// Bound voice track; non-nil only while playing a non-empty queue.
	track      Track
	boundIndex int

	observers []Observer
	logger    *log.Logger
}

// Config holds controller settings.
type Config struct {
	Volume float64     // initial voice volume
	Logger *log.Logger // defaults to the global logger with a "playback" prefix
}

// DefaultConfig returns a config with full voice volume.
func DefaultConfig() Config {
	return Config{Volume: 1.0}
}

// NewController creates a controller over q that binds voice tracks through
// deck. The controller starts in the Empty state (or Paused at index 0 if q
// already holds segments).
func NewController(q *queue.Queue, deck Deck, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithPrefix("playback")
	}
	return &Controller{
		queue:  q,
		deck:   deck,
		volume: clampVolume(cfg.Volume),
		logger: logger,
	}
}

// Observe registers an observer for transitions.
func (c *Controller) Observe(o Observer) {
	c.observers = append(c.observers, o)
}

// Position returns a snapshot of the current position.
func (c *Controller) Position() Position {
	return Position{Index: c.index, Playing: c.playing, Length: c.queue.Len()}
}

// State returns the coarse playback state.
func (c *Controller) State() State {
	return c.Position().State()
}

// Index returns the selected segment index.
func (c *Controller) Index() int {
	return c.index
}

// IsPlaying reports whether the sequence is playing.
func (c *Controller) IsPlaying() bool {
	return c.playing
}

// Current returns the selected segment, if any.
func (c *Controller) Current() (queue.Segment, bool) {
	seg, err := c.queue.At(c.index)
	return seg, err == nil
}

// Segments returns the queue contents in playback order.
func (c *Controller) Segments() []queue.Segment {
	return c.queue.Segments()
}

// Len returns the queue length.
func (c *Controller) Len() int {
	return c.queue.Len()
}

// Track returns the bound voice track, or nil.
func (c *Controller) Track() Track {
	return c.track
}

// Volume returns the voice volume applied to bound tracks.
func (c *Controller) Volume() float64 {
	return c.volume
}

// CanSkipBack reports whether SkipBack would move.
func (c *Controller) CanSkipBack() bool {
	return c.queue.Len() > 0 && c.index > 0
}

// CanSkipForward reports whether SkipForward would move.
func (c *Controller) CanSkipForward() bool {
	return c.queue.Len() > 0 && c.index < c.queue.Len()-1
}

// Append adds a generated batch to the queue. If the sequence was not playing
// and the index had caught up with the end of the queue before the append,
// playback starts at the first appended segment.
func (c *Controller) Append(batch []queue.Segment) {
	if len(batch) == 0 {
		return
	}
	from := c.Position()
	prevLen := c.queue.Len()
	c.queue.Append(batch)

	if !c.playing && c.index == prevLen {
		c.playing = true
	}
	c.commit(from)
}

// Ended handles natural completion of the selected segment: advance while
// segments remain, otherwise pause on the last one. It is ignored unless the
// sequence is playing.
func (c *Controller) Ended() {
	if !c.playing || c.queue.IsEmpty() {
		return
	}
	from := c.Position()
	if c.index < c.queue.Len()-1 {
		c.index++
	} else {
		c.playing = false
	}
	c.commit(from)
}

// TrackDone consumes the completion of track t. Completions of tracks that are
// no longer bound are ignored and reported as false.
func (c *Controller) TrackDone(t Track) bool {
	if t == nil || t != c.track {
		return false
	}
	c.track = nil
	_ = t.Close()

	if err := t.Err(); err != nil {
		if !errors.Is(err, ErrTrackClosed) {
			seg, _ := c.queue.At(c.boundIndex)
			c.logger.Error("voice track failed", "index", c.boundIndex, "url", seg.AudioURL, "err", err)
		}
		return true
	}
	c.Ended()
	return true
}

// Toggle flips the playing flag. It is a no-op on an empty queue.
func (c *Controller) Toggle() {
	if c.queue.IsEmpty() {
		return
	}
	from := c.Position()
	c.playing = !c.playing
	c.commit(from)
}

// Play starts the sequence at the current index.
func (c *Controller) Play() {
	if c.playing || c.queue.IsEmpty() {
		return
	}
	c.Toggle()
}

// Pause stops the sequence, keeping the index.
func (c *Controller) Pause() {
	if !c.playing {
		return
	}
	c.Toggle()
}

// SkipBack selects the previous segment and plays it. No-op on the first
// segment.
func (c *Controller) SkipBack() {
	if !c.CanSkipBack() {
		return
	}
	from := c.Position()
	c.index--
	c.playing = true
	c.commit(from)
}

// SkipForward selects the next segment and plays it. No-op on the last
// segment.
func (c *Controller) SkipForward() {
	if !c.CanSkipForward() {
		return
	}
	from := c.Position()
	c.index++
	c.playing = true
	c.commit(from)
}

// JumpTo selects segment i and plays it.
func (c *Controller) JumpTo(i int) error {
	if i < 0 || i >= c.queue.Len() {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, c.queue.Len())
	}
	from := c.Position()
	c.index = i
	c.playing = true
	c.commit(from)
	return nil
}

// Replace swaps the whole queue and lands paused on the first segment.
func (c *Controller) Replace(segments []queue.Segment) {
	from := c.Position()
	c.queue.ReplaceAll(segments)
	c.index = 0
	c.playing = false
	c.commit(from)
}

// Reset lands paused on the first segment without touching the queue.
func (c *Controller) Reset() {
	from := c.Position()
	c.index = 0
	c.playing = false
	c.commit(from)
}

// SetVolume sets the voice volume and applies it to the bound track.
func (c *Controller) SetVolume(volume float64) {
	c.volume = clampVolume(volume)
	if c.track != nil {
		c.track.SetVolume(c.volume)
	}
}

// Close unbinds any track.
func (c *Controller) Close() error {
	return c.unbind()
}

func (c *Controller) commit(from Position) {
	c.reconcile()
	to := c.Position()
	if from != to {
		c.logger.Debug("transition", "from", from, "to", to)
	}
	for _, o := range c.observers {
		o.Transitioned(from, to)
	}
}

// reconcile keeps exactly one track bound to the selected segment while
// playing and none otherwise.
func (c *Controller) reconcile() {
	if !c.playing || c.queue.IsEmpty() {
		_ = c.unbind()
		return
	}
	if c.track != nil && c.boundIndex == c.index {
		return
	}
	_ = c.unbind()

	seg, err := c.queue.At(c.index)
	if err != nil {
		c.logger.Error("selected index out of range", "index", c.index, "len", c.queue.Len())
		return
	}
	if c.deck == nil {
		return
	}
	t, err := c.deck.Bind(seg, c.volume)
	if err != nil {
		c.logger.Error("bind voice track", "index", c.index, "url", seg.AudioURL, "err", err)
		return
	}
	c.track = t
	c.boundIndex = c.index
}

func (c *Controller) unbind() error {
	if c.track == nil {
		return nil
	}
	t := c.track
	c.track = nil
	if err := t.Close(); err != nil {
		return fmt.Errorf("close voice track: %w", err)
	}
	return nil
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
