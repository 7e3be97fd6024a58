package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashtra-audio/ashtra/internal/cache"
	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/ashtra-audio/ashtra/internal/queue"
	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

const pollInterval = 50 * time.Millisecond

// Fetcher downloads audio by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Deck binds voice tracks that stream segment audio through an Engine.
type Deck struct {
	engine *Engine
	fetch  Fetcher
	cache  *cache.LRU
	logger *log.Logger
}

// NewDeck creates a deck. c may be nil to disable caching.
func NewDeck(engine *Engine, fetch Fetcher, c *cache.LRU, logger *log.Logger) *Deck {
	if logger == nil {
		logger = log.WithPrefix("audio")
	}
	return &Deck{engine: engine, fetch: fetch, cache: c, logger: logger}
}

// Bind implements playback.Deck. Loading continues in the background.
func (d *Deck) Bind(seg queue.Segment, volume float64) (playback.Track, error) {
	if d.engine == nil {
		return nil, ErrNoDevice
	}
	if seg.AudioURL == "" {
		return nil, fmt.Errorf("segment %q has no audio url", seg.SpeakerLabel)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &track{
		url:    seg.AudioURL,
		volume: volume,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go d.run(ctx, t)
	return t, nil
}

// CacheStats returns the audio cache metrics.
func (d *Deck) CacheStats() cache.Stats {
	if d.cache == nil {
		return cache.Stats{}
	}
	return d.cache.Stats()
}

func (d *Deck) load(ctx context.Context, url string) ([]byte, error) {
	get := func(ctx context.Context) ([]byte, error) { return d.fetch.Fetch(ctx, url) }
	if d.cache == nil {
		return get(ctx)
	}
	return d.cache.GetOrFetch(ctx, url, get)
}

func (d *Deck) run(ctx context.Context, t *track) {
	data, err := d.load(ctx, t.url)
	if err != nil {
		t.finish(fmt.Errorf("fetch %s: %w", t.url, err))
		return
	}
	stream, format, err := decode(data)
	if err != nil {
		t.finish(fmt.Errorf("decode %s: %w", t.url, err))
		return
	}
	defer stream.Close()

	reader := newPCMReader(toRate(stream, format.SampleRate, d.engine.rate))
	if !t.start(d.engine, reader) {
		return
	}
	d.logger.Debug("voice track started", "url", t.url, "length", format.SampleRate.D(stream.Len()))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.playerErr(); err != nil {
				t.finish(err)
				return
			}
			if reader.Drained() && !t.playing() {
				t.finish(reader.Err())
				return
			}
		}
	}
}

// track is a voice track bound to one segment.
type track struct {
	url    string
	cancel context.CancelFunc

	mu     sync.Mutex
	player *oto.Player
	volume float64
	closed bool

	once sync.Once
	done chan struct{}
	err  error
}

func (t *track) SetVolume(volume float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = volume
	if t.player != nil {
		t.player.SetVolume(volume)
	}
}

func (t *track) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	p := t.player
	t.player = nil
	t.mu.Unlock()

	t.cancel()
	var err error
	if p != nil {
		p.Pause()
		err = p.Close()
	}
	t.finish(playback.ErrTrackClosed)
	return err
}

func (t *track) Done() <-chan struct{} { return t.done }

func (t *track) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// start creates and plays the oto player unless the track was closed while
// loading.
func (t *track) start(e *Engine, r *pcmReader) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.player = e.newPlayer(r, t.volume)
	t.player.Play()
	return true
}

func (t *track) playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.player != nil && t.player.IsPlaying()
}

func (t *track) playerErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.player == nil {
		return nil
	}
	return t.player.Err()
}

func (t *track) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}
