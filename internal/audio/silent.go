package audio

import (
	"strings"
	"sync"
	"time"

	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/ashtra-audio/ashtra/internal/queue"
)

// DefaultWordsPerMinute is the speaking rate the silent deck simulates.
const DefaultWordsPerMinute = 150

// minSilentDuration keeps empty transcripts from finishing instantly.
const minSilentDuration = 500 * time.Millisecond

// SilentDeck binds tracks that make no sound and finish after the time it
// would take to read the transcript aloud.
type SilentDeck struct {
	WordsPerMinute int

	mu    sync.Mutex
	binds int
}

// NewSilentDeck creates a silent deck at wpm words per minute.
func NewSilentDeck(wpm int) *SilentDeck {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	return &SilentDeck{WordsPerMinute: wpm}
}

// Duration returns the simulated length of seg.
func (d *SilentDeck) Duration(seg queue.Segment) time.Duration {
	wpm := d.WordsPerMinute
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	words := len(strings.Fields(seg.Transcript))
	dur := time.Duration(words) * time.Minute / time.Duration(wpm)
	if dur < minSilentDuration {
		dur = minSilentDuration
	}
	return dur
}

// Bind implements playback.Deck.
func (d *SilentDeck) Bind(seg queue.Segment, volume float64) (playback.Track, error) {
	d.mu.Lock()
	d.binds++
	d.mu.Unlock()

	t := &silentTrack{volume: volume, done: make(chan struct{})}
	t.timer = time.AfterFunc(d.Duration(seg), func() { t.finish(nil) })
	return t, nil
}

// Binds returns how many tracks were bound.
func (d *SilentDeck) Binds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.binds
}

type silentTrack struct {
	timer *time.Timer

	mu     sync.Mutex
	volume float64

	once sync.Once
	done chan struct{}
	err  error
}

func (t *silentTrack) SetVolume(volume float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = volume
}

func (t *silentTrack) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

func (t *silentTrack) Close() error {
	t.timer.Stop()
	t.finish(playback.ErrTrackClosed)
	return nil
}

func (t *silentTrack) Done() <-chan struct{} { return t.done }

func (t *silentTrack) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *silentTrack) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// SilentLoop is an ambience loop that only records its state.
type SilentLoop struct {
	mu      sync.Mutex
	playing bool
	volume  float64
	starts  int
}

// Play implements ambience.Loop.
func (l *SilentLoop) Play() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.playing = true
	l.starts++
	return nil
}

// Pause implements ambience.Loop.
func (l *SilentLoop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.playing = false
}

// SetVolume implements ambience.Loop.
func (l *SilentLoop) SetVolume(volume float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.volume = volume
}

// Playing reports whether the loop is running.
func (l *SilentLoop) Playing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playing
}

// Volume returns the last volume set.
func (l *SilentLoop) Volume() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.volume
}
