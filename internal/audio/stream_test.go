package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
)

func constant(frames int, v float64) beep.Streamer {
	left := frames
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left == 0 {
			return 0, false
		}
		n := len(samples)
		if n > left {
			n = left
		}
		for i := 0; i < n; i++ {
			samples[i] = [2]float64{v, -v}
		}
		left -= n
		return n, true
	})
}

func TestPCMReaderEncodesStereoInt16(t *testing.T) {
	r := newPCMReader(constant(3, 0.5))
	p := make([]byte, 64)

	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 3*bytesPerFrame {
		t.Fatalf("Expected %d bytes, got %d", 3*bytesPerFrame, n)
	}
	half := 0.5
	want := int16(half * math.MaxInt16)
	l := int16(binary.LittleEndian.Uint16(p[0:]))
	rr := int16(binary.LittleEndian.Uint16(p[2:]))
	if l != want || rr != -want {
		t.Errorf("Unexpected samples: %d %d", l, rr)
	}

	if _, err := r.Read(p); err != io.EOF {
		t.Errorf("Expected EOF, got %v", err)
	}
	if !r.Drained() {
		t.Error("Expected reader drained")
	}
	if n, err := r.Read(p); n != 0 || err != io.EOF {
		t.Errorf("Expected (0, EOF) after drain, got (%d, %v)", n, err)
	}
}

func TestPCMReaderClips(t *testing.T) {
	r := newPCMReader(constant(1, 2.0))
	p := make([]byte, bytesPerFrame)
	r.Read(p)

	if v := int16(binary.LittleEndian.Uint16(p[0:])); v != math.MaxInt16 {
		t.Errorf("Expected clip to max, got %d", v)
	}
	if v := int16(binary.LittleEndian.Uint16(p[2:])); v != -math.MaxInt16 {
		t.Errorf("Expected clip to min, got %d", v)
	}
}

func TestDecodeRejectsUnknownFormats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("<html>not audio</html>")},
		{"json", []byte(`{"error": "Session not found"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := decode(tt.data); !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestToRatePassThrough(t *testing.T) {
	s := constant(1, 0)
	if got := toRate(s, 44100, 44100); got == nil {
		t.Fatal("Expected a streamer")
	}
}
