package session

import (
	"context"
	"errors"
	"strings"

	"github.com/ashtra-audio/ashtra/internal/queue"
)

var (
	// ErrEmptyDraft is returned when generation is requested without a
	// prompt or attachment.
	ErrEmptyDraft = errors.New("draft has no prompt or attachment")

	// ErrMissingSegments marks a session payload without a segment list.
	ErrMissingSegments = errors.New("session payload has no segments")

	// ErrNoBackend is returned when an operation needs a collaborator that
	// was not configured.
	ErrNoBackend = errors.New("no backend configured")
)

// Summary is a history listing entry.
type Summary struct {
	ID    string
	Title string
}

// DisplayTitle returns the title, or the id when the title is blank.
func (s Summary) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return s.ID
}

// Session is a persisted session with its segments.
type Session struct {
	ID       string
	Title    string
	Segments []queue.Segment
}

// Attachment is a reference file encoded for upload.
type Attachment struct {
	Name    string // base name shown to the user
	Path    string // source path on disk, if any
	MIME    string // sniffed media type
	DataURL string // data:<mime>;base64,<payload>
	Size    int64
}

// Draft is the pending generation input.
type Draft struct {
	Prompt     string
	Attachment *Attachment
}

// Empty reports whether the draft has neither prompt text nor attachment.
func (d Draft) Empty() bool {
	return strings.TrimSpace(d.Prompt) == "" && d.Attachment == nil
}

// Request is the payload sent to a Generator.
type Request struct {
	Message  string
	FileData string
	FileType string
}

// RequestFor builds the generation request for d.
func RequestFor(d Draft) Request {
	req := Request{Message: d.Prompt}
	if d.Attachment != nil {
		req.FileData = d.Attachment.DataURL
		req.FileType = d.Attachment.MIME
	}
	return req
}

// Generation is a generator response.
type Generation struct {
	Segments []queue.Segment
	Text     string // raw model output, if returned
	Folder   string // backend session folder, if returned
}

// Generator turns a request into a batch of segments.
type Generator interface {
	Generate(ctx context.Context, req Request) (Generation, error)
}

// Repository reads persisted sessions. GetSession returns an error wrapping
// ErrMissingSegments when the payload has no segment list.
type Repository interface {
	ListSessions(ctx context.Context) ([]Summary, error)
	GetSession(ctx context.Context, id string) (Session, error)
}
