package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// DefaultAddr matches the port the real backend listens on.
	DefaultAddr = "localhost:5011"

	ambienceAsset = "whitenoise.mp3"
	ambienceFile  = "whitenoise.wav"
	systemPrompt  = "You are a podcast script writer. Use <voiceN> tags for each speaker."
)

// Config configures a Server.
type Config struct {
	Addr      string // listen address
	Dir       string // library directory; a temp dir when empty
	PublicURL string // base URL written into segment urls; derived from Addr when empty
	Scripter  Scripter
	Synth     Synth
	Logger    *log.Logger
}

// ChatInput is the body of POST /chat.
type ChatInput struct {
	Message  string `json:"message"`
	FileData string `json:"file_data"`
	FileType string `json:"file_type"`
}

// Server serves the backend API for one process lifetime. Like the real
// backend it writes every chat of the run into a single session folder.
type Server struct {
	cfg     Config
	lib     *Library
	engine  *gin.Engine
	logger  *log.Logger
	session string

	mu      sync.Mutex
	history []Message
	counter int
}

// New prepares the library and routes.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + cfg.Addr
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	if cfg.Scripter == nil {
		cfg.Scripter = EchoScripter{}
	}
	if cfg.Synth.SampleRate == 0 {
		cfg.Synth = DefaultSynth()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.WithPrefix("devserver")
	}
	if cfg.Dir == "" {
		dir, err := os.MkdirTemp("", "ashtra-audiostream-")
		if err != nil {
			return nil, fmt.Errorf("create library dir: %w", err)
		}
		cfg.Dir = dir
	}

	lib, err := OpenLibrary(cfg.Dir)
	if err != nil {
		return nil, err
	}
	session, err := lib.NextSession()
	if err != nil {
		return nil, err
	}
	if err := ensureAmbience(lib.Root(), cfg.Synth); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		lib:     lib,
		logger:  cfg.Logger,
		session: session,
		history: []Message{{Role: "system", Content: systemPrompt}},
	}
	s.engine = s.routes()
	s.logger.Info("server initialized", "session_dir", s.SessionDir())
	return s, nil
}

// SessionDir returns the folder this run writes to.
func (s *Server) SessionDir() string {
	return filepath.Join(s.lib.Root(), s.session)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	// The original backend allows every origin.
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "X-Request-Id"}
	r.Use(cors.New(config))

	r.POST("/chat", s.chat)
	r.GET("/history", s.listHistory)
	r.GET("/history/:id", s.getHistory)
	r.GET("/assets/:file", s.serveAsset)
	r.GET("/audio/:session/:file", s.serveAudio)
	r.GET("/health", s.health)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-Id", id)
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"id", id,
			"took", time.Since(start))
	}
}

func (s *Server) chat(c *gin.Context) {
	var in ChatInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	message, ok := buildMessage(in)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No message or file provided"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, Message{Role: "user", Content: message})
	script, err := s.cfg.Scripter.Script(c.Request.Context(), s.history)
	if err != nil {
		s.logger.Error("script generation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.history = append(s.history, Message{Role: "assistant", Content: script})

	segs, err := s.synthesize(script)
	if err != nil {
		s.logger.Error("audio generation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.lib.Append(s.session, message, segs); err != nil {
		s.logger.Error("persist metadata failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"responseed_text": script,
		"audio_segments":  segs,
		"folder_name":     s.session,
	})
}

// buildMessage folds an attachment into the user message. Images without
// text get a default prompt.
func buildMessage(in ChatInput) (string, bool) {
	msg := in.Message
	hasImage := false
	if in.FileData != "" && in.FileType != "" {
		switch {
		case strings.HasPrefix(in.FileType, "image/"):
			hasImage = true
		default:
			msg += fmt.Sprintf("\n\n[Attached %s, %d bytes encoded]", in.FileType, len(payload(in.FileData)))
		}
	}
	if strings.TrimSpace(msg) == "" {
		if !hasImage {
			return "", false
		}
		msg = "Analyze this image."
	}
	return msg, true
}

// payload strips a data URL prefix.
func payload(data string) string {
	if i := strings.IndexByte(data, ','); i >= 0 {
		return data[i+1:]
	}
	return data
}

// synthesize must be called with mu held.
func (s *Server) synthesize(script string) ([]Segment, error) {
	turns := ParseVoiceTags(script)
	segs := make([]Segment, 0, len(turns))
	for _, t := range turns {
		s.counter++
		filename := fmt.Sprintf("voice%d-%d.wav", t.Voice, s.counter)
		if err := s.cfg.Synth.Speak(filepath.Join(s.SessionDir(), filename), t.Voice, t.Text); err != nil {
			return nil, err
		}
		segs = append(segs, Segment{
			ID:       s.counter,
			Voice:    fmt.Sprintf("Voice %d", t.Voice),
			Filename: filename,
			Text:     t.Text,
			URL:      fmt.Sprintf("%s/audio/%s/%s", s.cfg.PublicURL, s.session, filename),
		})
	}
	return segs, nil
}

func (s *Server) listHistory(c *gin.Context) {
	entries, err := s.lib.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) getHistory(c *gin.Context) {
	md, err := s.lib.Load(c.Param("id"))
	if errors.Is(err, ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, md)
}

func (s *Server) serveAsset(c *gin.Context) {
	name := c.Param("file")
	if name == ambienceAsset {
		if _, err := os.Stat(filepath.Join(s.lib.Root(), name)); errors.Is(err, os.ErrNotExist) {
			name = ambienceFile
		}
	}
	s.serveFile(c, s.lib.Root(), name)
}

func (s *Server) serveAudio(c *gin.Context) {
	dir, err := s.lib.Dir(c.Param("session"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	s.serveFile(c, dir, c.Param("file"))
}

func (s *Server) serveFile(c *gin.Context, dir, name string) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.File(path)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "session_dir": s.SessionDir()})
}

func ensureAmbience(root string, synth Synth) error {
	path := filepath.Join(root, ambienceFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := synth.Noise(path, 4*time.Second, 1); err != nil {
		return fmt.Errorf("write ambience asset: %w", err)
	}
	return nil
}
