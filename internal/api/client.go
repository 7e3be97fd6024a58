package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashtra-audio/ashtra/internal/session"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"
)

const (
	// DefaultServer is the backend the original deployment listens on.
	DefaultServer = "http://localhost:5011"

	defaultTimeout = 120 * time.Second
	defaultRate    = 4.0

	requestIDHeader = "X-Request-Id"
)

// Client talks to the backend over HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRate limits requests per second. Zero or less disables limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at server.
func New(server string, opts ...Option) (*Client, error) {
	if server == "" {
		server = DefaultServer
	}
	base, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", server)
	}

	c := &Client{
		base: base,
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRate), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.WithPrefix("api")
	}
	return c, nil
}

// Server returns the backend base URL.
func (c *Client) Server() string {
	return c.base.String()
}

// URL resolves path against the backend base URL.
func (c *Client) URL(path string) string {
	return c.base.String() + "/" + strings.TrimLeft(path, "/")
}

// HTTPClient returns the underlying HTTP client, for fetching segment audio.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Generate implements session.Generator.
func (c *Client) Generate(ctx context.Context, req session.Request) (session.Generation, error) {
	body := ChatRequest{Message: req.Message, FileData: req.FileData, FileType: req.FileType}
	var resp ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat", body, &resp); err != nil {
		return session.Generation{}, err
	}
	return session.Generation{
		Segments: toSegments(resp.AudioSegments),
		Text:     resp.ResponseText,
		Folder:   resp.FolderName,
	}, nil
}

// ListSessions implements session.Repository.
func (c *Client) ListSessions(ctx context.Context) ([]session.Summary, error) {
	var entries []HistoryEntry
	if err := c.doJSON(ctx, http.MethodGet, "/history", nil, &entries); err != nil {
		return nil, err
	}
	out := make([]session.Summary, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		out = append(out, e.summary())
	}
	return out, nil
}

// GetSession implements session.Repository.
func (c *Client) GetSession(ctx context.Context, id string) (session.Session, error) {
	var detail SessionDetail
	if err := c.doJSON(ctx, http.MethodGet, "/history/"+url.PathEscape(id), nil, &detail); err != nil {
		return session.Session{}, err
	}
	if detail.Segments == nil {
		return session.Session{}, fmt.Errorf("session %s: %w", id, session.ErrMissingSegments)
	}
	return session.Session{ID: id, Title: detail.Title, Segments: toSegments(*detail.Segments)}, nil
}

// Health queries GET /health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.doJSON(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

// Fetch downloads an absolute URL, typically segment audio, through the
// client's transport and limiter.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	resp, err := c.do(ctx, method, c.URL(path), payload, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	if result == nil {
		return nil
	}
	if err := sonic.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// do sends a request and returns the response when the status is 2xx. The
// caller closes the body.
func (c *Client) do(ctx context.Context, method, target string, payload []byte, contentType string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	reqID := uuid.New().String()
	req.Header.Set(requestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	c.logger.Debug("request", "method", method, "url", target, "status", resp.StatusCode, "id", reqID, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		se := &StatusError{Method: method, Path: req.URL.Path, Code: resp.StatusCode, RequestID: reqID}
		if data, rerr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); rerr == nil {
			var eb ErrorBody
			if sonic.Unmarshal(data, &eb) == nil {
				se.Message = eb.Error
			}
		}
		return nil, se
	}
	return resp, nil
}
