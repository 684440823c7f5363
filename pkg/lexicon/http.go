package lexicon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMaxBodySize bounds how much of a page is read.
const DefaultMaxBodySize = 10 * 1024 * 1024

// HTTPSource fetches word pages from a synonymo.fr style site, where
// BaseURL + word serves a page listing the associated words.
type HTTPSource struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
	// Limiter throttles requests; nil means no throttling.
	Limiter *rate.Limiter
	// MaxBodySize defaults to DefaultMaxBodySize.
	MaxBodySize int64

	log *zap.Logger
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) HTTPOption { return func(s *HTTPSource) { s.Client = c } }

// WithRate throttles requests to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRate(perSecond float64, burst int) HTTPOption {
	return func(s *HTTPSource) {
		if perSecond <= 0 {
			s.Limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption { return func(s *HTTPSource) { s.UserAgent = ua } }

// WithMaxBodySize bounds the page size.
func WithMaxBodySize(n int64) HTTPOption { return func(s *HTTPSource) { s.MaxBodySize = n } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) HTTPOption { return func(s *HTTPSource) { s.log = l } }

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		BaseURL:     baseURL,
		Client:      &http.Client{Timeout: 30 * time.Second},
		UserAgent:   "lexigraph",
		MaxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("lexicon")
	return s
}

// PageURL returns the address of word's page.
func (s *HTTPSource) PageURL(word string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(word)
}

// Fetch implements Source. A 404 or a page without a word list is reported as
// not found. Network errors, other status codes and oversized pages wrap
// ErrTransport. Context cancellation is returned as is.
func (s *HTTPSource) Fetch(ctx context.Context, word string) (Result, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			return Result{}, fmt.Errorf("%w: rate limiter: %v", ErrTransport, err)
		}
	}

	pageURL := s.PageURL(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.5")

	resp, err := s.Client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("%w: get %s: %v", ErrTransport, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		s.log.Debug("No page for word", zap.String("word", word))
		return Result{URL: pageURL}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: get %s: status %d", ErrTransport, pageURL, resp.StatusCode)
	}

	maxBody := s.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	if resp.ContentLength > maxBody {
		return Result{}, fmt.Errorf("%w: content-length %d exceeds limit of %d bytes", ErrTransport, resp.ContentLength, maxBody)
	}
	// Read one byte past the limit to tell a full page from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if int64(len(body)) > maxBody {
		return Result{}, fmt.Errorf("%w: body exceeded %d bytes", ErrTransport, maxBody)
	}

	page, err := ParsePage(body, req.URL)
	if err != nil {
		return Result{}, fmt.Errorf("%w: parse %s: %v", ErrTransport, pageURL, err)
	}
	if !page.Found {
		s.log.Debug("No word list on page", zap.String("word", word))
		return Result{URL: pageURL, Title: page.Title}, nil
	}
	s.log.Debug("Fetched word", zap.String("word", word), zap.Int("words", len(page.Words)))
	return Result{Found: true, Words: page.Words, Title: page.Title, URL: pageURL}, nil
}
