package audio

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/ashtra-audio/ashtra/internal/queue"
)

func TestSilentDeckDuration(t *testing.T) {
	d := NewSilentDeck(600) // ten words per second

	tests := []struct {
		name       string
		transcript string
		want       time.Duration
	}{
		{"empty", "", minSilentDuration},
		{"short", "hi there", minSilentDuration},
		{"twenty words", strings.Repeat("word ", 20), 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Duration(queue.Segment{Transcript: tt.transcript})
			if got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSilentTrackCompletes(t *testing.T) {
	d := NewSilentDeck(60000)
	tr, err := d.Bind(queue.Segment{Transcript: "a b c"}, 0.5)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Track did not complete")
	}
	if tr.Err() != nil {
		t.Errorf("Expected natural completion, got %v", tr.Err())
	}
	if d.Binds() != 1 {
		t.Errorf("Expected 1 bind, got %d", d.Binds())
	}
}

func TestSilentTrackClose(t *testing.T) {
	d := NewSilentDeck(1)
	tr, _ := d.Bind(queue.Segment{Transcript: "long segment"}, 1)

	if tr.Err() != nil {
		t.Error("Err must be nil before completion")
	}
	tr.Close()
	tr.Close()

	select {
	case <-tr.Done():
	default:
		t.Fatal("Expected Done after Close")
	}
	if !errors.Is(tr.Err(), playback.ErrTrackClosed) {
		t.Errorf("Expected ErrTrackClosed, got %v", tr.Err())
	}
}

func TestSilentDeckDrivesController(t *testing.T) {
	deck := NewSilentDeck(60000)
	c := playback.NewController(queue.New(), deck, playback.DefaultConfig())
	c.Append([]queue.Segment{{Transcript: "one"}, {Transcript: "two"}})

	for i := 0; i < 2; i++ {
		tr := c.Track()
		if tr == nil {
			t.Fatalf("step %d: expected a bound track", i)
		}
		select {
		case <-tr.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("step %d: track did not complete", i)
		}
		if !c.TrackDone(tr) {
			t.Fatalf("step %d: completion not consumed", i)
		}
	}

	if c.IsPlaying() || c.Index() != 1 {
		t.Errorf("Expected to stop on the last segment, got (%d, %v)", c.Index(), c.IsPlaying())
	}
	if deck.Binds() != 2 {
		t.Errorf("Expected 2 binds, got %d", deck.Binds())
	}
}

func TestSilentLoop(t *testing.T) {
	var l SilentLoop
	l.SetVolume(0.4)
	if err := l.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !l.Playing() || l.Volume() != 0.4 {
		t.Errorf("Unexpected loop state: playing=%v volume=%f", l.Playing(), l.Volume())
	}
	l.Pause()
	if l.Playing() {
		t.Error("Expected loop paused")
	}
}
