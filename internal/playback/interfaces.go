package playback

import (
	"errors"

	"github.com/ashtra-audio/ashtra/internal/queue"
)

// ErrTrackClosed is reported by a track that was unbound before it finished.
var ErrTrackClosed = errors.New("track closed before completion")

// Deck creates playable voice tracks. Bind must return quickly; loading the
// audio may continue in the background and is reported through the track.
type Deck interface {
	Bind(seg queue.Segment, volume float64) (Track, error)
}

// Track is a voice resource bound to exactly one segment. It is never reused
// for another segment.
type Track interface {
	// SetVolume applies a volume in [0, 1] immediately.
	SetVolume(volume float64)

	// Close stops playback and releases the resource. It is idempotent.
	Close() error

	// Done is closed once the track stops for any reason.
	Done() <-chan struct{}

	// Err returns nil when the track played to completion, ErrTrackClosed
	// when it was closed early, or the load/playback failure. It is only
	// meaningful after Done is closed.
	Err() error
}

// Observer is notified after every controller transition.
type Observer interface {
	Transitioned(from, to Position)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(from, to Position)

// Transitioned calls f(from, to).
func (f ObserverFunc) Transitioned(from, to Position) {
	f(from, to)
}
