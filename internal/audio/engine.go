package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
)

// ErrNoDevice is returned when an engine is required but was not created.
var ErrNoDevice = errors.New("audio device not initialized")

// EngineConfig contains configuration for the output device.
type EngineConfig struct {
	SampleRate int           // 44100 or 48000 Hz only
	BufferSize time.Duration // device buffer length
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SampleRate: 44100,
		BufferSize: 100 * time.Millisecond,
	}
}

func validateConfig(config EngineConfig) error {
	// oto only supports these reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// Engine owns the process-wide oto context. Decoded streams are converted to
// stereo signed 16-bit little endian PCM at the engine rate.
type Engine struct {
	ctx  *oto.Context
	rate beep.SampleRate
}

var (
	engineOnce sync.Once
	engine     *Engine
	engineErr  error
)

// NewEngine opens the audio device. oto allows one context per process, so
// later calls return the first engine (or its error).
func NewEngine(config EngineConfig) (*Engine, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	engineOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   config.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   config.BufferSize,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			engineErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		engine = &Engine{ctx: ctx, rate: beep.SampleRate(config.SampleRate)}
	})
	return engine, engineErr
}

// SampleRate returns the output rate.
func (e *Engine) SampleRate() beep.SampleRate {
	return e.rate
}

// newPlayer wraps r, a PCM source at the engine rate, in a paused oto player.
func (e *Engine) newPlayer(r io.Reader, volume float64) *oto.Player {
	p := e.ctx.NewPlayer(r)
	p.SetVolume(volume)
	return p
}
