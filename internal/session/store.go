package session

import (
	"context"
	"fmt"

	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/ashtra-audio/ashtra/internal/queue"
	"github.com/charmbracelet/log"
)

// ListResult is the outcome of a session list fetch.
type ListResult struct {
	Ticket    uint64
	Summaries []Summary
	Err       error
}

// LoadResult is the outcome of a session detail fetch.
type LoadResult struct {
	ID      string
	Session Session
	Err     error
}

// GenerateResult is the outcome of a generation request.
type GenerateResult struct {
	Request    Request
	Generation Generation
	Err        error
}

// Store owns the session-level state around a playback controller.
type Store struct {
	ctrl *playback.Controller
	gen  Generator
	repo Repository

	active    string
	summaries []Summary
	draft     Draft

	// List refreshes are ticketed; responses older than the last applied
	// one are dropped.
	listIssued  uint64
	listApplied uint64

	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store driving ctrl. gen and repo may be nil; the
// operations needing them then fail with ErrNoBackend.
func NewStore(ctrl *playback.Controller, gen Generator, repo Repository, opts ...Option) *Store {
	s := &Store{ctrl: ctrl, gen: gen, repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithPrefix("session")
	}
	return s
}

// Controller returns the playback controller.
func (s *Store) Controller() *playback.Controller { return s.ctrl }

// Active returns the active session id, or "" when none.
func (s *Store) Active() string { return s.active }

// Summaries returns the last applied session list.
func (s *Store) Summaries() []Summary {
	out := make([]Summary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Draft returns the pending generation input.
func (s *Store) Draft() Draft { return s.draft }

// SetPrompt replaces the draft prompt.
func (s *Store) SetPrompt(prompt string) { s.draft.Prompt = prompt }

// Attach sets or, with nil, clears the draft attachment.
func (s *Store) Attach(a *Attachment) { s.draft.Attachment = a }

// BeginList issues a ticket for a list refresh.
func (s *Store) BeginList() uint64 {
	s.listIssued++
	return s.listIssued
}

// FetchSessions queries the repository. It does not touch store state and
// is safe to run off the event loop.
func (s *Store) FetchSessions(ctx context.Context, ticket uint64) ListResult {
	if s.repo == nil {
		return ListResult{Ticket: ticket, Err: ErrNoBackend}
	}
	list, err := s.repo.ListSessions(ctx)
	if err != nil {
		return ListResult{Ticket: ticket, Err: fmt.Errorf("list sessions: %w", err)}
	}
	return ListResult{Ticket: ticket, Summaries: list}
}

// ApplySessions installs a list result. Failures and responses superseded by
// a newer applied ticket leave the list unchanged. It reports whether the
// list was replaced.
func (s *Store) ApplySessions(res ListResult) bool {
	if res.Ticket <= s.listApplied {
		s.logger.Debug("dropping stale session list", "ticket", res.Ticket, "applied", s.listApplied)
		return false
	}
	if res.Err != nil {
		s.logger.Error("failed to fetch history", "err", res.Err)
		return false
	}
	s.listApplied = res.Ticket
	s.summaries = append(s.summaries[:0:0], res.Summaries...)
	return true
}

// ListSessions refreshes the session list synchronously.
func (s *Store) ListSessions(ctx context.Context) ([]Summary, error) {
	res := s.FetchSessions(ctx, s.BeginList())
	s.ApplySessions(res)
	return s.Summaries(), res.Err
}

// FetchSession reads a session from the repository without touching store
// state.
func (s *Store) FetchSession(ctx context.Context, id string) LoadResult {
	if s.repo == nil {
		return LoadResult{ID: id, Err: ErrNoBackend}
	}
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return LoadResult{ID: id, Err: fmt.Errorf("load session %q: %w", id, err)}
	}
	if sess.Segments == nil {
		return LoadResult{ID: id, Err: fmt.Errorf("load session %q: %w", id, ErrMissingSegments)}
	}
	if sess.ID == "" {
		sess.ID = id
	}
	return LoadResult{ID: id, Session: sess}
}

// ApplyLoad replaces the queue with a loaded session, marks it active and
// lands paused on the first segment. Failed results change nothing. It
// reports whether state was replaced.
func (s *Store) ApplyLoad(res LoadResult) bool {
	if res.Err != nil {
		s.logger.Error("failed to load session", "id", res.ID, "err", res.Err)
		return false
	}
	s.ctrl.Replace(res.Session.Segments)
	s.active = res.ID
	s.logger.Info("loaded session", "id", res.ID, "segments", len(res.Session.Segments))
	return true
}

// LoadSession fetches and applies session id synchronously.
func (s *Store) LoadSession(ctx context.Context, id string) error {
	res := s.FetchSession(ctx, id)
	s.ApplyLoad(res)
	return res.Err
}

// StartNewSession empties the queue, forgets the active session and clears
// the draft.
func (s *Store) StartNewSession() {
	s.ctrl.Replace(nil)
	s.active = ""
	s.draft = Draft{}
}

// RecordGeneration appends a generated batch. The active session reference
// is left alone. It reports whether the queue grew.
func (s *Store) RecordGeneration(batch []queue.Segment) bool {
	if len(batch) == 0 {
		return false
	}
	s.ctrl.Append(batch)
	return true
}

// BeginGenerate snapshots the draft into a request, refusing an empty one.
func (s *Store) BeginGenerate() (Request, error) {
	if s.draft.Empty() {
		return Request{}, ErrEmptyDraft
	}
	return RequestFor(s.draft), nil
}

// FetchGeneration runs req against the generator without touching store
// state.
func (s *Store) FetchGeneration(ctx context.Context, req Request) GenerateResult {
	if s.gen == nil {
		return GenerateResult{Request: req, Err: ErrNoBackend}
	}
	g, err := s.gen.Generate(ctx, req)
	if err != nil {
		return GenerateResult{Request: req, Err: fmt.Errorf("generate: %w", err)}
	}
	return GenerateResult{Request: req, Generation: g}
}

// ApplyGeneration records a successful batch and clears the draft. On
// failure the queue and draft are untouched. It reports whether the queue
// grew.
func (s *Store) ApplyGeneration(res GenerateResult) bool {
	if res.Err != nil {
		s.logger.Error("error generating podcast", "err", res.Err)
		return false
	}
	grew := s.RecordGeneration(res.Generation.Segments)
	s.draft = Draft{}
	s.logger.Info("generation received", "segments", len(res.Generation.Segments), "folder", res.Generation.Folder)
	return grew
}

// Generate sends the draft and records the result synchronously.
func (s *Store) Generate(ctx context.Context) (Generation, error) {
	req, err := s.BeginGenerate()
	if err != nil {
		return Generation{}, err
	}
	res := s.FetchGeneration(ctx, req)
	s.ApplyGeneration(res)
	return res.Generation, res.Err
}
