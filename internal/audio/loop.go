package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
)

// Loop plays a single asset on repeat. The asset is loaded on the first Play
// and kept for the life of the loop.
type Loop struct {
	engine *Engine
	fetch  Fetcher
	url    string
	logger *log.Logger

	mu      sync.Mutex
	player  *oto.Player
	volume  float64
	want    bool // Play requested and not paused since
	loading bool
}

// NewLoop creates a loop for the asset at url.
func NewLoop(engine *Engine, fetch Fetcher, url string, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.WithPrefix("ambience")
	}
	return &Loop{engine: engine, fetch: fetch, url: url, volume: 1, logger: logger}
}

// Play resumes the loop, loading the asset first if needed. Load failures
// are logged; the next Play retries.
func (l *Loop) Play() error {
	if l.engine == nil {
		return ErrNoDevice
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.want = true
	switch {
	case l.player != nil:
		l.player.Play()
	case !l.loading:
		l.loading = true
		go l.load()
	}
	return nil
}

// Pause pauses the loop, keeping its position.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.want = false
	if l.player != nil {
		l.player.Pause()
	}
}

// SetVolume applies volume immediately.
func (l *Loop) SetVolume(volume float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.volume = volume
	if l.player != nil {
		l.player.SetVolume(volume)
	}
}

// Close releases the player.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.player == nil {
		return nil
	}
	err := l.player.Close()
	l.player = nil
	return err
}

func (l *Loop) load() {
	s, err := l.open()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.logger.Warn("ambience asset unavailable", "url", l.url, "err", err)
		return
	}
	l.player = l.engine.newPlayer(newPCMReader(s), l.volume)
	if l.want {
		l.player.Play()
	}
}

func (l *Loop) open() (beep.Streamer, error) {
	data, err := l.fetch.Fetch(context.Background(), l.url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	stream, format, err := decode(data)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	buf := beep.NewBuffer(format)
	buf.Append(stream)
	if buf.Len() == 0 {
		return nil, fmt.Errorf("asset %s is empty", l.url)
	}
	looped, err := beep.Loop2(buf.Streamer(0, buf.Len()))
	if err != nil {
		return nil, fmt.Errorf("loop: %w", err)
	}
	return toRate(looped, format.SampleRate, l.engine.rate), nil
}
