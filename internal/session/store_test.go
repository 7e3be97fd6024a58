package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/ashtra-audio/ashtra/internal/queue"
)

type fakeGenerator struct {
	batch []queue.Segment
	err   error
	reqs  []Request
}

func (g *fakeGenerator) Generate(_ context.Context, req Request) (Generation, error) {
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return Generation{}, g.err
	}
	return Generation{Segments: g.batch, Folder: "conversation1"}, nil
}

type fakeRepository struct {
	list     []Summary
	listErr  error
	sessions map[string]Session
	getErr   error
}

func (r *fakeRepository) ListSessions(context.Context) ([]Summary, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.list, nil
}

func (r *fakeRepository) GetSession(_ context.Context, id string) (Session, error) {
	if r.getErr != nil {
		return Session{}, r.getErr
	}
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s: not found", id)
	}
	return s, nil
}

func batch(names ...string) []queue.Segment {
	out := make([]queue.Segment, len(names))
	for i, n := range names {
		out[i] = queue.Segment{SpeakerLabel: fmt.Sprintf("Voice %d", i%2+1), Transcript: n, AudioURL: "http://x/" + n}
	}
	return out
}

func newTestStore(gen Generator, repo Repository) *Store {
	ctrl := playback.NewController(queue.New(), nil, playback.DefaultConfig())
	return NewStore(ctrl, gen, repo)
}

func TestSummaryDisplayTitle(t *testing.T) {
	tests := []struct {
		s    Summary
		want string
	}{
		{Summary{ID: "conversation1", Title: "Space"}, "Space"},
		{Summary{ID: "conversation2"}, "conversation2"},
		{Summary{ID: "conversation3", Title: "  "}, "conversation3"},
	}
	for _, tt := range tests {
		if got := tt.s.DisplayTitle(); got != tt.want {
			t.Errorf("DisplayTitle(%+v) = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestStoreLoadSessionResets(t *testing.T) {
	repo := &fakeRepository{sessions: map[string]Session{
		"conversation2": {Title: "Two", Segments: batch("x", "y", "z", "w")},
	}}
	s := newTestStore(&fakeGenerator{batch: batch("a", "b")}, repo)

	// Arbitrary prior state: playing the second of two generated segments.
	s.SetPrompt("topic")
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	s.Controller().SkipForward()

	if err := s.LoadSession(context.Background(), "conversation2"); err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}

	c := s.Controller()
	if c.Len() != 4 || c.Index() != 0 || c.IsPlaying() {
		t.Errorf("Expected (len 4, 0, paused), got (len %d, %d, %v)", c.Len(), c.Index(), c.IsPlaying())
	}
	if s.Active() != "conversation2" {
		t.Errorf("Expected active conversation2, got %q", s.Active())
	}
}

func TestStoreLoadSessionFailureIsNoop(t *testing.T) {
	tests := []struct {
		name string
		repo *fakeRepository
		want error
	}{
		{"fetch error", &fakeRepository{getErr: errors.New("connection refused")}, nil},
		{"missing segments", &fakeRepository{sessions: map[string]Session{"c1": {Title: "t"}}}, ErrMissingSegments},
		{"wrapped missing segments", &fakeRepository{getErr: fmt.Errorf("decode: %w", ErrMissingSegments)}, ErrMissingSegments},
		{"no repository", nil, ErrNoBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var repo Repository
			if tt.repo != nil {
				repo = tt.repo
			}
			s := newTestStore(nil, repo)
			s.RecordGeneration(batch("a", "b", "c"))
			s.Controller().SkipForward()

			err := s.LoadSession(context.Background(), "c1")
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}

			c := s.Controller()
			if c.Len() != 3 || c.Index() != 1 || !c.IsPlaying() {
				t.Errorf("State changed on failed load: (len %d, %d, %v)", c.Len(), c.Index(), c.IsPlaying())
			}
			if s.Active() != "" {
				t.Errorf("Active changed on failed load: %q", s.Active())
			}
		})
	}
}

func TestStoreLoadEmptySegmentList(t *testing.T) {
	repo := &fakeRepository{sessions: map[string]Session{"c1": {Segments: []queue.Segment{}}}}
	s := newTestStore(nil, repo)
	s.RecordGeneration(batch("a"))

	if err := s.LoadSession(context.Background(), "c1"); err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if s.Controller().State() != playback.StateEmpty || s.Active() != "c1" {
		t.Errorf("Expected empty queue with active c1, got %s %q", s.Controller().State(), s.Active())
	}
}

func TestStoreStartNewSession(t *testing.T) {
	repo := &fakeRepository{sessions: map[string]Session{"c1": {Segments: batch("a", "b")}}}
	s := newTestStore(nil, repo)
	if err := s.LoadSession(context.Background(), "c1"); err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	s.Controller().JumpTo(1)
	s.SetPrompt("next topic")
	s.Attach(&Attachment{Name: "notes.txt", MIME: "text/plain", DataURL: "data:text/plain;base64,aGk="})

	s.StartNewSession()

	c := s.Controller()
	if c.Len() != 0 || c.Index() != 0 || c.IsPlaying() {
		t.Errorf("Expected (len 0, 0, paused), got (len %d, %d, %v)", c.Len(), c.Index(), c.IsPlaying())
	}
	if s.Active() != "" {
		t.Errorf("Expected no active session, got %q", s.Active())
	}
	if !s.Draft().Empty() {
		t.Errorf("Expected cleared draft, got %+v", s.Draft())
	}
}

func TestStoreGenerate(t *testing.T) {
	gen := &fakeGenerator{batch: batch("a", "b")}
	s := newTestStore(gen, nil)

	if _, err := s.Generate(context.Background()); !errors.Is(err, ErrEmptyDraft) {
		t.Fatalf("Expected ErrEmptyDraft, got %v", err)
	}
	if len(gen.reqs) != 0 {
		t.Fatal("Empty draft must not reach the generator")
	}

	s.SetPrompt("black holes")
	s.Attach(&Attachment{Name: "a.png", MIME: "image/png", DataURL: "data:image/png;base64,AAA="})
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	req := gen.reqs[0]
	if req.Message != "black holes" || req.FileType != "image/png" || req.FileData != "data:image/png;base64,AAA=" {
		t.Errorf("Unexpected request: %+v", req)
	}
	c := s.Controller()
	if c.Len() != 2 || c.Index() != 0 || !c.IsPlaying() {
		t.Errorf("Expected autoplay from empty, got (len %d, %d, %v)", c.Len(), c.Index(), c.IsPlaying())
	}
	if !s.Draft().Empty() {
		t.Error("Expected draft cleared after success")
	}
}

func TestStoreGenerateAttachmentOnly(t *testing.T) {
	gen := &fakeGenerator{batch: batch("a")}
	s := newTestStore(gen, nil)
	s.Attach(&Attachment{Name: "a.pdf", MIME: "application/pdf", DataURL: "data:application/pdf;base64,JVBE"})

	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate with attachment only failed: %v", err)
	}
}

func TestStoreGenerateFailureKeepsState(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend down")}
	s := newTestStore(gen, nil)
	s.RecordGeneration(batch("a"))
	s.SetPrompt("topic")

	if _, err := s.Generate(context.Background()); err == nil {
		t.Fatal("Expected generation error")
	}
	if s.Controller().Len() != 1 {
		t.Errorf("Queue changed on failure: len %d", s.Controller().Len())
	}
	if s.Draft().Prompt != "topic" {
		t.Errorf("Draft cleared on failure: %+v", s.Draft())
	}
}

func TestStoreRecordGenerationKeepsActive(t *testing.T) {
	repo := &fakeRepository{sessions: map[string]Session{"c1": {Segments: batch("a", "b", "c")}}}
	s := newTestStore(nil, repo)
	if err := s.LoadSession(context.Background(), "c1"); err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	s.Controller().JumpTo(1)
	s.Controller().Pause()

	// Scenario C
	if !s.RecordGeneration(batch("d", "e")) {
		t.Fatal("Expected queue to grow")
	}
	c := s.Controller()
	if c.Len() != 5 || c.IsPlaying() || c.Index() != 1 {
		t.Errorf("Expected (len 5, 1, paused), got (len %d, %d, %v)", c.Len(), c.Index(), c.IsPlaying())
	}
	if s.Active() != "c1" {
		t.Errorf("Expected active to stay c1, got %q", s.Active())
	}

	if s.RecordGeneration(nil) {
		t.Error("Expected empty batch to report no growth")
	}
}

func TestStoreListSessions(t *testing.T) {
	repo := &fakeRepository{list: []Summary{{ID: "conversation2", Title: "B"}, {ID: "conversation1"}}}
	s := newTestStore(nil, repo)

	list, err := s.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "conversation2" {
		t.Errorf("Unexpected list: %+v", list)
	}

	repo.listErr = errors.New("timeout")
	list, err = s.ListSessions(context.Background())
	if err == nil {
		t.Fatal("Expected list error")
	}
	if len(list) != 2 {
		t.Errorf("Expected previous list retained, got %+v", list)
	}
}

func TestStoreApplySessionsDropsStale(t *testing.T) {
	s := newTestStore(nil, &fakeRepository{})

	first := s.BeginList()
	second := s.BeginList()

	if !s.ApplySessions(ListResult{Ticket: second, Summaries: []Summary{{ID: "new"}}}) {
		t.Fatal("Expected newest list to apply")
	}
	if s.ApplySessions(ListResult{Ticket: first, Summaries: []Summary{{ID: "old"}}}) {
		t.Error("Expected stale list to be dropped")
	}
	if got := s.Summaries(); len(got) != 1 || got[0].ID != "new" {
		t.Errorf("Unexpected summaries: %+v", got)
	}
}
