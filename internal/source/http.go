package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgnsrekt/audiocache/pkg/cache"
)

const (
	// DefaultMaxFetchSize caps how much a single HTTP source will accept.
	DefaultMaxFetchSize = 100 * 1024 * 1024

	// DefaultFetchTimeout bounds a whole fetch when no client is supplied.
	DefaultFetchTimeout = 60 * time.Second

	// DefaultRequestsPerMinute paces fetches against a single host so a
	// preload burst does not trip remote throttling.
	DefaultRequestsPerMinute = 50
)

// HTTPConfig holds configuration for an HTTP-backed source.
type HTTPConfig struct {
	// URL of the audio resource. Required.
	URL string

	// Label overrides the diagnostic label. Defaults to the last path
	// segment, falling back to the host.
	Label string

	// Client used for the fetch. Defaults to one with DefaultFetchTimeout.
	Client *http.Client

	// Limiter paces requests. Share one limiter across the sources of a
	// host to pace the host as a whole. Nil disables pacing.
	Limiter *rate.Limiter

	// MaxSize caps the response size. Defaults to DefaultMaxFetchSize.
	MaxSize int64
}

// HTTP fetches audio over HTTP, reporting progress from the response
// body as it streams in.
type HTTP struct {
	url     string
	label   string
	client  *http.Client
	limiter *rate.Limiter
	maxSize int64
}

// NewHTTP creates an HTTP-backed source.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http source: url cannot be empty")
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("http source: invalid url: %w", err)
	}
	if cfg.Label == "" {
		cfg.Label = path.Base(parsed.Path)
		if cfg.Label == "." || cfg.Label == "/" {
			cfg.Label = parsed.Host
		}
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxFetchSize
	}

	return &HTTP{
		url:     cfg.URL,
		label:   cfg.Label,
		client:  cfg.Client,
		limiter: cfg.Limiter,
		maxSize: cfg.MaxSize,
	}, nil
}

// HostLimiter builds a limiter pacing requests per minute, for sharing
// across the HTTP sources of one host.
func HostLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

// Label returns the diagnostic label.
func (h *HTTP) Label() string {
	return h.label
}

// Read fetches the resource. Progress totals come from Content-Length
// and are -1 when the server does not send one.
func (h *HTTP) Read(ctx context.Context, progress cache.ProgressFunc) ([]byte, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", h.label, resp.Status)
	}
	total := resp.ContentLength
	if total > h.maxSize {
		return nil, fmt.Errorf("response too large: %d bytes (max %d)", total, h.maxSize)
	}

	return readChunked(ctx, resp.Body, total, h.maxSize, progress)
}

var _ cache.Source = (*HTTP)(nil)
