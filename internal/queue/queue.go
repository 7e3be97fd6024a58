package queue

import (
	"errors"
	"regexp"
)

// ErrIndexOutOfRange is returned when a position outside the queue is read.
var ErrIndexOutOfRange = errors.New("segment index out of range")

// Segment is one generated speech turn.
type Segment struct {
	SpeakerLabel string // e.g. "Voice 2"
	Transcript   string // what the speaker says
	AudioURL     string // playable audio resource
}

var voiceNumber = regexp.MustCompile(`\d+`)

// VoiceNumber returns the first number found in the speaker label, or an
// empty string when the label has none. The UI keys speaker colours off it.
func (s Segment) VoiceNumber() string {
	return voiceNumber.FindString(s.SpeakerLabel)
}

// Queue is an ordered, append-or-replace collection of segments. The order of
// the queue is the playback order and is never changed after insertion.
//
// Queue is not safe for concurrent use; it is owned by the event loop.
type Queue struct {
	segments []Segment
	stats    Stats
}

// Stats tracks how the queue has been fed.
type Stats struct {
	Appends      int // batches appended
	Replacements int // wholesale replacements, including clears
	PeakSize     int
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Append extends the queue with a generated batch. An empty or nil batch is a
// no-op.
func (q *Queue) Append(batch []Segment) {
	if len(batch) == 0 {
		return
	}
	q.segments = append(q.segments, batch...)
	q.stats.Appends++
	q.trackPeak()
}

// ReplaceAll discards the current contents and takes a copy of segments.
func (q *Queue) ReplaceAll(segments []Segment) {
	q.segments = append([]Segment(nil), segments...)
	q.stats.Replacements++
	q.trackPeak()
}

// Clear empties the queue. It is equivalent to ReplaceAll(nil).
func (q *Queue) Clear() {
	q.ReplaceAll(nil)
}

// Len returns the number of segments in the queue.
func (q *Queue) Len() int {
	return len(q.segments)
}

// IsEmpty reports whether the queue holds no segments.
func (q *Queue) IsEmpty() bool {
	return len(q.segments) == 0
}

// At returns the segment at index i.
func (q *Queue) At(i int) (Segment, error) {
	if i < 0 || i >= len(q.segments) {
		return Segment{}, ErrIndexOutOfRange
	}
	return q.segments[i], nil
}

// Segments returns a copy of the queue contents in playback order.
func (q *Queue) Segments() []Segment {
	return append([]Segment(nil), q.segments...)
}

// Stats returns queue counters.
func (q *Queue) Stats() Stats {
	return q.stats
}

func (q *Queue) trackPeak() {
	if len(q.segments) > q.stats.PeakSize {
		q.stats.PeakSize = len(q.segments)
	}
}
