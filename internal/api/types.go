package api

import (
	"github.com/ashtra-audio/ashtra/internal/queue"
	"github.com/ashtra-audio/ashtra/internal/session"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message  string `json:"message"`
	FileData string `json:"file_data,omitempty"`
	FileType string `json:"file_type,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	AudioSegments []WireSegment `json:"audio_segments"`
	ResponseText  string        `json:"responseed_text,omitempty"`
	FolderName    string        `json:"folder_name,omitempty"`
}

// WireSegment is a segment as the backend serializes it.
type WireSegment struct {
	ID       int    `json:"id,omitempty"`
	Voice    string `json:"voice"`
	Filename string `json:"filename,omitempty"`
	Text     string `json:"text"`
	URL      string `json:"url"`
}

// HistoryEntry is one element of GET /history.
type HistoryEntry struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// SessionDetail is the body of GET /history/{id}. Segments is nil when the
// field is absent.
type SessionDetail struct {
	Title    string         `json:"title,omitempty"`
	Segments *[]WireSegment `json:"segments"`
}

// Health is the body of GET /health.
type Health struct {
	Status     string `json:"status"`
	SessionDir string `json:"session_dir"`
}

// ErrorBody is the JSON error shape returned with non-2xx statuses.
type ErrorBody struct {
	Error string `json:"error"`
}

// Segment converts a wire segment.
func (w WireSegment) Segment() queue.Segment {
	return queue.Segment{SpeakerLabel: w.Voice, Transcript: w.Text, AudioURL: w.URL}
}

// FromSegment converts a queue segment to its wire form.
func FromSegment(s queue.Segment) WireSegment {
	return WireSegment{Voice: s.SpeakerLabel, Text: s.Transcript, URL: s.AudioURL}
}

func toSegments(ws []WireSegment) []queue.Segment {
	out := make([]queue.Segment, len(ws))
	for i, w := range ws {
		out[i] = w.Segment()
	}
	return out
}

func (e HistoryEntry) summary() session.Summary {
	return session.Summary{ID: e.ID, Title: e.Title}
}
