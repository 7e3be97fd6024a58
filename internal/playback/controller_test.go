package playback

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/ashtra-audio/ashtra/internal/queue"
)

// fakeTrack implements Track for testing.
type fakeTrack struct {
	seg    queue.Segment
	volume float64
	closed bool
	done   chan struct{}
	err    error
}

func (t *fakeTrack) SetVolume(v float64) { t.volume = v }

func (t *fakeTrack) Close() error {
	if !t.closed {
		t.closed = true
		if t.err == nil {
			t.err = ErrTrackClosed
		}
		t.finish()
	}
	return nil
}

func (t *fakeTrack) Done() <-chan struct{} { return t.done }
func (t *fakeTrack) Err() error            { return t.err }

func (t *fakeTrack) finish() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

// complete simulates the track playing to its end.
func (t *fakeTrack) complete() {
	t.finish()
}

// fail simulates a load failure.
func (t *fakeTrack) fail(err error) {
	t.err = err
	t.finish()
}

// fakeDeck records every bind.
type fakeDeck struct {
	bound   []*fakeTrack
	bindErr error
}

func (d *fakeDeck) Bind(seg queue.Segment, volume float64) (Track, error) {
	if d.bindErr != nil {
		return nil, d.bindErr
	}
	t := &fakeTrack{seg: seg, volume: volume, done: make(chan struct{})}
	d.bound = append(d.bound, t)
	return t, nil
}

func (d *fakeDeck) last() *fakeTrack {
	if len(d.bound) == 0 {
		return nil
	}
	return d.bound[len(d.bound)-1]
}

func segs(names ...string) []queue.Segment {
	out := make([]queue.Segment, len(names))
	for i, n := range names {
		out[i] = queue.Segment{SpeakerLabel: "Voice 1", Transcript: n, AudioURL: "http://x/" + n + ".mp3"}
	}
	return out
}

func newTestController(t *testing.T) (*Controller, *fakeDeck) {
	t.Helper()
	deck := &fakeDeck{}
	return NewController(queue.New(), deck, DefaultConfig()), deck
}

// loadPlaying builds a controller with the given segments selected at index
// and playing.
func loadPlaying(t *testing.T, names []string, index int) (*Controller, *fakeDeck) {
	t.Helper()
	c, deck := newTestController(t)
	c.Replace(segs(names...))
	if err := c.JumpTo(index); err != nil {
		t.Fatalf("JumpTo(%d) failed: %v", index, err)
	}
	return c, deck
}

func TestControllerInitialState(t *testing.T) {
	c, deck := newTestController(t)

	if c.State() != StateEmpty {
		t.Errorf("Expected initial state Empty, got %s", c.State())
	}
	if c.Index() != 0 || c.IsPlaying() {
		t.Errorf("Expected (0, false), got (%d, %v)", c.Index(), c.IsPlaying())
	}
	if len(deck.bound) != 0 {
		t.Error("Expected no track bound initially")
	}
}

func TestControllerAppendAutoplayFromEmpty(t *testing.T) {
	// Scenario B: queue=[], generate returns [A,B].
	c, deck := newTestController(t)

	c.Append(segs("A", "B"))

	if c.Len() != 2 {
		t.Fatalf("Expected queue length 2, got %d", c.Len())
	}
	if c.Index() != 0 || !c.IsPlaying() {
		t.Errorf("Expected (0, playing), got (%d, %v)", c.Index(), c.IsPlaying())
	}
	if tr := deck.last(); tr == nil || tr.seg.Transcript != "A" {
		t.Errorf("Expected track bound to A, got %+v", tr)
	}
}

func TestControllerAppendNoAutoplayWhenBehind(t *testing.T) {
	// Scenario C: queue=[A,B,C], index=1, paused; append [D,E].
	c, deck := loadPlaying(t, []string{"A", "B", "C"}, 1)
	c.Pause()
	binds := len(deck.bound)

	c.Append(segs("D", "E"))

	if c.Len() != 5 {
		t.Fatalf("Expected length 5, got %d", c.Len())
	}
	if c.IsPlaying() {
		t.Error("Expected playback to stay paused")
	}
	if c.Index() != 1 {
		t.Errorf("Expected index 1, got %d", c.Index())
	}
	if len(deck.bound) != binds {
		t.Error("Append must not bind a track while paused")
	}
}

func TestControllerAppendDoesNotInterruptPlayback(t *testing.T) {
	c, deck := loadPlaying(t, []string{"A", "B"}, 1)
	playing := deck.last()

	c.Append(segs("C"))

	if !c.IsPlaying() || c.Index() != 1 {
		t.Errorf("Expected (1, playing), got (%d, %v)", c.Index(), c.IsPlaying())
	}
	if deck.last() != playing || playing.closed {
		t.Error("Append must not rebind the playing track")
	}
}

func TestControllerAppendEmptyBatchIsNoop(t *testing.T) {
	c, _ := newTestController(t)
	called := 0
	c.Observe(ObserverFunc(func(_, _ Position) { called++ }))

	c.Append(nil)

	if c.State() != StateEmpty || called != 0 {
		t.Errorf("Expected no transition, state=%s notifications=%d", c.State(), called)
	}
}

func TestControllerEndedAdvances(t *testing.T) {
	c, deck := loadPlaying(t, []string{"A", "B", "C"}, 0)
	first := deck.last()

	c.Ended()

	if c.Index() != 1 || !c.IsPlaying() {
		t.Errorf("Expected (1, playing), got (%d, %v)", c.Index(), c.IsPlaying())
	}
	if !first.closed {
		t.Error("Expected previous track to be unbound")
	}
	if tr := deck.last(); tr.seg.Transcript != "B" {
		t.Errorf("Expected track bound to B, got %q", tr.seg.Transcript)
	}
}

func TestControllerEndedOnLastPauses(t *testing.T) {
	// Scenario A: queue=[A,B,C], index=2, playing → ended.
	c, deck := loadPlaying(t, []string{"A", "B", "C"}, 2)
	last := deck.last()

	c.Ended()

	if c.Index() != 2 {
		t.Errorf("Expected index to stay 2, got %d", c.Index())
	}
	if c.IsPlaying() {
		t.Error("Expected playback to stop at end of queue")
	}
	if !last.closed || c.Track() != nil {
		t.Error("Expected track to be unbound when paused")
	}
}

func TestControllerEndedIgnoredWhilePaused(t *testing.T) {
	c, _ := loadPlaying(t, []string{"A", "B"}, 0)
	c.Pause()

	c.Ended()

	if c.Index() != 0 || c.IsPlaying() {
		t.Errorf("Expected (0, paused), got (%d, %v)", c.Index(), c.IsPlaying())
	}
}

func TestControllerTrackDone(t *testing.T) {
	c, deck := loadPlaying(t, []string{"A", "B"}, 0)
	tr := deck.last()
	tr.complete()

	if !c.TrackDone(tr) {
		t.Fatal("Expected bound track completion to be consumed")
	}
	if c.Index() != 1 || !c.IsPlaying() {
		t.Errorf("Expected advance to (1, playing), got (%d, %v)", c.Index(), c.IsPlaying())
	}
}

func TestControllerTrackDoneStaleIgnored(t *testing.T) {
	c, deck := loadPlaying(t, []string{"A", "B", "C"}, 0)
	stale := deck.last()
	c.SkipForward()

	if c.TrackDone(stale) {
		t.Error("Expected stale completion to be ignored")
	}
	if c.Index() != 1 {
		t.Errorf("Expected index 1, got %d", c.Index())
	}
}

func TestControllerTrackDoneFailureDoesNotAdvance(t *testing.T) {
	c, deck := loadPlaying(t, []string{"A", "B"}, 0)
	tr := deck.last()
	tr.fail(errors.New("decode failed"))

	if !c.TrackDone(tr) {
		t.Fatal("Expected failure of bound track to be consumed")
	}
	if c.Index() != 0 || !c.IsPlaying() {
		t.Errorf("Expected (0, playing), got (%d, %v)", c.Index(), c.IsPlaying())
	}
	if c.Track() != nil {
		t.Error("Expected failed track to be released")
	}

	// Pausing and resuming retries the segment.
	c.Toggle()
	c.Toggle()
	if tr := deck.last(); tr.seg.Transcript != "A" || tr.closed {
		t.Error("Expected a fresh track for A after resume")
	}
}

func TestControllerToggle(t *testing.T) {
	c, deck := newTestController(t)

	c.Toggle()
	if c.State() != StateEmpty {
		t.Error("Toggle on empty queue must be a no-op")
	}

	c.Replace(segs("A"))
	c.Toggle()
	if !c.IsPlaying() || deck.last() == nil {
		t.Error("Expected toggle to start playback and bind a track")
	}
	c.Toggle()
	if c.IsPlaying() || c.Track() != nil {
		t.Error("Expected toggle to pause and unbind")
	}
}

func TestControllerSkip(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		playing   bool
		skip      func(*Controller)
		wantIndex int
		wantPlay  bool
	}{
		{"forward from paused", 0, false, (*Controller).SkipForward, 1, true},
		{"forward at end is noop", 2, false, (*Controller).SkipForward, 2, false},
		{"back from playing", 2, true, (*Controller).SkipBack, 1, true},
		{"back at start is noop", 0, false, (*Controller).SkipBack, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := loadPlaying(t, []string{"A", "B", "C"}, tt.start)
			if !tt.playing {
				c.Pause()
			}
			tt.skip(c)
			if c.Index() != tt.wantIndex || c.IsPlaying() != tt.wantPlay {
				t.Errorf("got (%d, %v), want (%d, %v)", c.Index(), c.IsPlaying(), tt.wantIndex, tt.wantPlay)
			}
		})
	}
}

func TestControllerJumpTo(t *testing.T) {
	c, deck := newTestController(t)
	c.Replace(segs("A", "B", "C"))

	if err := c.JumpTo(2); err != nil {
		t.Fatalf("JumpTo failed: %v", err)
	}
	if c.Index() != 2 || !c.IsPlaying() {
		t.Errorf("Expected (2, playing), got (%d, %v)", c.Index(), c.IsPlaying())
	}

	bound := deck.last()
	if err := c.JumpTo(2); err != nil {
		t.Fatalf("JumpTo same index failed: %v", err)
	}
	if deck.last() != bound || bound.closed {
		t.Error("Jumping to the playing segment must not restart it")
	}

	if err := c.JumpTo(3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if err := c.JumpTo(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if c.Index() != 2 {
		t.Errorf("Failed jump must not move the index, got %d", c.Index())
	}
}

func TestControllerReplaceResets(t *testing.T) {
	c, deck := loadPlaying(t, []string{"A", "B", "C"}, 2)
	playing := deck.last()

	c.Replace(segs("X", "Y"))

	if c.Len() != 2 || c.Index() != 0 || c.IsPlaying() {
		t.Errorf("Expected (len 2, 0, paused), got (len %d, %d, %v)", c.Len(), c.Index(), c.IsPlaying())
	}
	if !playing.closed {
		t.Error("Expected previous track to be unbound on replace")
	}

	c.Replace(nil)
	if c.State() != StateEmpty || c.Index() != 0 {
		t.Errorf("Expected empty reset, got %s at %d", c.State(), c.Index())
	}
}

func TestControllerVolume(t *testing.T) {
	c, deck := loadPlaying(t, []string{"A", "B"}, 0)

	c.SetVolume(0.25)
	if deck.last().volume != 0.25 {
		t.Errorf("Expected bound track volume 0.25, got %f", deck.last().volume)
	}

	c.SkipForward()
	if deck.last().volume != 0.25 {
		t.Errorf("Expected new track to be bound at 0.25, got %f", deck.last().volume)
	}

	c.SetVolume(3)
	if c.Volume() != 1 {
		t.Errorf("Expected volume clamped to 1, got %f", c.Volume())
	}
}

func TestControllerBindFailureKeepsState(t *testing.T) {
	c, deck := newTestController(t)
	deck.bindErr = errors.New("no audio device")

	c.Append(segs("A"))

	if !c.IsPlaying() || c.Index() != 0 {
		t.Errorf("Expected (0, playing) despite bind failure, got (%d, %v)", c.Index(), c.IsPlaying())
	}
	if c.Track() != nil {
		t.Error("Expected no track after bind failure")
	}
}

func TestControllerObservers(t *testing.T) {
	c, _ := newTestController(t)
	var seen []Position
	c.Observe(ObserverFunc(func(_, to Position) { seen = append(seen, to) }))

	c.Append(segs("A", "B"))
	c.Ended()
	c.Ended()

	want := []Position{
		{Index: 0, Playing: true, Length: 2},
		{Index: 1, Playing: true, Length: 2},
		{Index: 1, Playing: false, Length: 2},
	}
	if len(seen) != len(want) {
		t.Fatalf("Expected %d notifications, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d = %+v, want %+v", i, seen[i], want[i])
		}
	}
}

// TestControllerInvariants drives random operation sequences and checks that
// the index stays in bounds and a track is bound exactly while playing.
func TestControllerInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		c, _ := newTestController(t)
		for step := 0; step < 60; step++ {
			op := rng.Intn(9)
			switch op {
			case 0:
				n := rng.Intn(4)
				batch := make([]string, n)
				for i := range batch {
					batch[i] = fmt.Sprintf("s%d-%d", step, i)
				}
				c.Append(segs(batch...))
			case 1:
				c.Ended()
			case 2:
				c.Toggle()
			case 3:
				c.SkipBack()
			case 4:
				c.SkipForward()
			case 5:
				_ = c.JumpTo(rng.Intn(c.Len() + 2))
			case 6:
				n := rng.Intn(3)
				batch := make([]string, n)
				for i := range batch {
					batch[i] = fmt.Sprintf("r%d-%d", step, i)
				}
				c.Replace(segs(batch...))
			case 7:
				if tr, ok := c.Track().(*fakeTrack); ok {
					tr.complete()
					c.TrackDone(tr)
				}
			case 8:
				c.Reset()
			}

			pos := c.Position()
			if !pos.InBounds() {
				t.Fatalf("run %d step %d op %d: index out of bounds: %+v", run, step, op, pos)
			}
			if pos.Length == 0 && pos.Playing {
				t.Fatalf("run %d step %d op %d: playing on empty queue", run, step, op)
			}
			if pos.Playing != (c.Track() != nil) {
				t.Fatalf("run %d step %d op %d: playing=%v but track bound=%v", run, step, op, pos.Playing, c.Track() != nil)
			}
		}
	}
}
