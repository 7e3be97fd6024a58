package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for audio that is neither MP3 nor WAV.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

const (
	bytesPerFrame   = 4 // stereo, 16-bit
	resampleQuality = 4
)

// decode picks a decoder by sniffing data.
func decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	if len(data) == 0 {
		return nil, beep.Format{}, fmt.Errorf("%w: empty body", ErrUnsupportedFormat)
	}
	mt := mimetype.Detect(data)
	rc := io.NopCloser(bytes.NewReader(data))
	switch {
	case mt.Is("audio/mpeg"):
		return mp3.Decode(rc)
	case mt.Is("audio/wav"):
		return wav.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}
}

// toRate resamples s from its native rate when it differs from rate.
func toRate(s beep.Streamer, from, rate beep.SampleRate) beep.Streamer {
	if from == rate {
		return s
	}
	return beep.Resample(resampleQuality, from, rate, s)
}

// pcmReader renders a beep streamer as the PCM the engine expects.
type pcmReader struct {
	s       beep.Streamer
	buf     [][2]float64
	drained atomic.Bool
	err     atomic.Value // error
}

func newPCMReader(s beep.Streamer) *pcmReader {
	return &pcmReader{s: s}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	if r.drained.Load() {
		return 0, io.EOF
	}
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([][2]float64, frames)
	}
	buf := r.buf[:frames]

	n, ok := r.s.Stream(buf)
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			v := math.Max(-1, math.Min(1, buf[i][ch]))
			binary.LittleEndian.PutUint16(p[i*bytesPerFrame+ch*2:], uint16(int16(v*math.MaxInt16)))
		}
	}
	if !ok {
		if err := r.s.Err(); err != nil {
			r.err.Store(err)
		}
		r.drained.Store(true)
		return n * bytesPerFrame, io.EOF
	}
	return n * bytesPerFrame, nil
}

// Drained reports whether the stream has been fully read.
func (r *pcmReader) Drained() bool {
	return r.drained.Load()
}

// Err returns the stream error seen when draining, if any.
func (r *pcmReader) Err() error {
	if err, ok := r.err.Load().(error); ok {
		return err
	}
	return nil
}
