package devserver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/ashtra-audio/ashtra/internal/api"
	"github.com/ashtra-audio/ashtra/internal/session"
	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, *api.Client) {
	t.Helper()
	synth := DefaultSynth()
	synth.SampleRate = 8000
	synth.WordsPerMinute = 6000

	s, err := New(Config{Dir: t.TempDir(), PublicURL: "http://example.test", Synth: synth})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	c, err := api.New(srv.URL, api.WithRate(0))
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}
	return s, c
}

func TestServerChatAndHistory(t *testing.T) {
	s, c := newTestServer(t)
	ctx := context.Background()

	gen, err := c.Generate(ctx, session.Request{Message: "the history of radio"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(gen.Segments) != 4 {
		t.Fatalf("Expected 4 segments, got %d", len(gen.Segments))
	}
	first := gen.Segments[0]
	if first.SpeakerLabel != "Voice 1" || !strings.Contains(first.Transcript, "the history of radio") {
		t.Errorf("Unexpected first segment: %+v", first)
	}
	if first.AudioURL != "http://example.test/audio/conversation1/voice1-1.wav" {
		t.Errorf("Unexpected audio url: %s", first.AudioURL)
	}
	if gen.Folder != "conversation1" {
		t.Errorf("Expected folder conversation1, got %s", gen.Folder)
	}

	// A second chat continues the same session and numbering.
	gen2, err := c.Generate(ctx, session.Request{Message: "now television"})
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if !strings.HasSuffix(gen2.Segments[0].AudioURL, "voice1-5.wav") {
		t.Errorf("Expected numbering to continue, got %s", gen2.Segments[0].AudioURL)
	}

	list, err := c.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "conversation1" || list[0].Title != "the history of radio" {
		t.Errorf("Unexpected history: %+v", list)
	}

	sess, err := c.GetSession(ctx, "conversation1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(sess.Segments) != 6 {
		t.Errorf("Expected 6 stored segments, got %d", len(sess.Segments))
	}

	h, err := c.Health(ctx)
	if err != nil || h.Status != "ok" || h.SessionDir != s.SessionDir() {
		t.Errorf("Health = %+v, %v", h, err)
	}
}

func TestServerServesAudio(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	gen, err := c.Generate(ctx, session.Request{Message: "owls"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	u, _ := url.Parse(gen.Segments[0].AudioURL)

	data, err := c.Fetch(ctx, c.URL(u.Path))
	if err != nil {
		t.Fatalf("Fetch audio failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Errorf("Expected a WAV file, got % x", data[:8])
	}

	amb, err := c.Fetch(ctx, c.URL("/assets/whitenoise.mp3"))
	if err != nil {
		t.Fatalf("Fetch ambience failed: %v", err)
	}
	if !bytes.HasPrefix(amb, []byte("RIFF")) {
		t.Error("Expected generated ambience asset")
	}

	if _, err := c.Fetch(ctx, c.URL("/audio/conversation1/missing.wav")); !api.IsNotFound(err) {
		t.Errorf("Expected 404 for missing file, got %v", err)
	}
	if _, err := c.Fetch(ctx, c.URL("/audio/..%2f/metadata.json")); err == nil {
		t.Error("Expected traversal to be refused")
	}
}

func TestServerChatValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty", `{"message": ""}`, http.StatusBadRequest},
		{"not json", `hello`, http.StatusBadRequest},
		{"image only", `{"message": "", "file_data": "data:image/png;base64,AAAA", "file_type": "image/png"}`, http.StatusOK},
		{"pdf with text", `{"message": "summarize", "file_data": "data:application/pdf;base64,JVBERi0=", "file_type": "application/pdf"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestServerMissingSession(t *testing.T) {
	_, c := newTestServer(t)

	// The run's own folder exists but has no metadata until the first chat.
	_, err := c.GetSession(context.Background(), "conversation1")
	if !api.IsNotFound(err) {
		t.Errorf("Expected 404, got %v", err)
	}
	if _, err := c.GetSession(context.Background(), "conversation99"); !errors.Is(err, api.ErrStatus) {
		t.Errorf("Expected status error, got %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		in     ChatInput
		want   string
		wantOK bool
	}{
		{ChatInput{Message: "hi"}, "hi", true},
		{ChatInput{}, "", false},
		{ChatInput{FileData: "data:image/jpeg;base64,AA==", FileType: "image/jpeg"}, "Analyze this image.", true},
		{ChatInput{Message: "x", FileData: "data:text/plain;base64,aGk=", FileType: "text/plain"}, "x\n\n[Attached text/plain, 4 bytes encoded]", true},
	}
	for _, tt := range tests {
		got, ok := buildMessage(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("buildMessage(%+v) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
