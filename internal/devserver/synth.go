package devserver

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// Synth renders placeholder speech as WAV files.
type Synth struct {
	SampleRate     beep.SampleRate
	WordsPerMinute int
}

// DefaultSynth returns a 22.05 kHz synth at a conversational pace.
func DefaultSynth() Synth {
	return Synth{SampleRate: 22050, WordsPerMinute: 150}
}

func (s Synth) format() beep.Format {
	return beep.Format{SampleRate: s.SampleRate, NumChannels: 1, Precision: 2}
}

// Duration returns how long text takes to say.
func (s Synth) Duration(text string) time.Duration {
	wpm := s.WordsPerMinute
	if wpm <= 0 {
		wpm = 150
	}
	d := time.Duration(len(strings.Fields(text))) * time.Minute / time.Duration(wpm)
	if d < time.Second {
		d = time.Second
	}
	return d
}

// Speak writes a soft tone for text to path. Each voice gets its own pitch.
func (s Synth) Speak(path string, voice int, text string) error {
	freq := 180 + 40*float64(voice%6)
	n := s.SampleRate.N(s.Duration(text))
	return s.write(path, tone(s.SampleRate, freq, n))
}

// Noise writes d of soft white noise to path.
func (s Synth) Noise(path string, d time.Duration, seed int64) error {
	return s.write(path, noise(s.SampleRate.N(d), seed))
}

func (s Synth) write(path string, st beep.Streamer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := wav.Encode(f, st, s.format()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// tone is a sine at freq with a short fade in and out.
func tone(sr beep.SampleRate, freq float64, total int) beep.Streamer {
	const amp = 0.15
	fade := sr.N(20 * time.Millisecond)
	i := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if i >= total {
			return 0, false
		}
		n := 0
		for ; n < len(samples) && i < total; n, i = n+1, i+1 {
			env := 1.0
			if i < fade {
				env = float64(i) / float64(fade)
			} else if total-i < fade {
				env = float64(total-i) / float64(fade)
			}
			v := amp * env * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
			samples[n] = [2]float64{v, v}
		}
		return n, true
	})
}

func noise(total int, seed int64) beep.Streamer {
	const amp = 0.05
	rng := rand.New(rand.NewSource(seed))
	i := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if i >= total {
			return 0, false
		}
		n := 0
		for ; n < len(samples) && i < total; n, i = n+1, i+1 {
			v := amp * (rng.Float64()*2 - 1)
			samples[n] = [2]float64{v, v}
		}
		return n, true
	})
}
