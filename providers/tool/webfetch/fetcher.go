package webfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corpix/uarand"
	"golang.org/x/net/html/charset"

	"github.com/leofalp/tablescrape/internal/utils"
	"github.com/leofalp/tablescrape/providers/observability"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the default User-Agent header value
	DefaultUserAgent = "tablescrape/1.0"
	// MaxBodySize is the default maximum response body size (10MB)
	MaxBodySize = 10 * 1024 * 1024
	// MaxRedirects is the number of redirects followed before giving up
	MaxRedirects = 10
	// DialTimeout is the maximum time to wait for a TCP connection
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the maximum time to wait for TLS handshake
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is the maximum time to wait for response headers
	ResponseHeaderTimeout = 10 * time.Second
	// IdleConnTimeout is the maximum time an idle connection can be reused
	IdleConnTimeout = 90 * time.Second
)

// ErrFetch is wrapped by every error returned from a [Fetcher] when the page
// could not be retrieved.
var ErrFetch = errors.New("fetch failed")

// StatusError reports a response other than 200 OK.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "unexpected status code: " + e.Status
}

// Fetcher retrieves the HTML of a page.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Page is a retrieved document.
type Page struct {
	// URL is the final URL after redirects
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// HTTPFetcher is the net/http implementation of [Fetcher].
// The zero value is not usable; create one with [NewHTTPFetcher].
type HTTPFetcher struct {
	client          *http.Client
	timeout         time.Duration
	maxBodySize     int64
	userAgent       string
	randomUserAgent bool
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Option configures an [HTTPFetcher].
type Option func(*HTTPFetcher)

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithMaxBodySize caps the number of bytes read from a response body.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithUserAgent sets a fixed User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(f *HTTPFetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

// WithRandomUserAgent picks a browser User-Agent per request.
// Some results sites reject obvious non-browser clients.
func WithRandomUserAgent(enabled bool) Option {
	return func(f *HTTPFetcher) {
		f.randomUserAgent = enabled
	}
}

// WithHTTPClient replaces the underlying client. Its redirect policy is kept as given.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewHTTPFetcher creates a fetcher with the package default limits.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		timeout:     DefaultTimeout,
		maxBodySize: MaxBodySize,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = newHTTPClient()
	}
	return f
}

// newHTTPClient has no overall Timeout; the deadline comes from the request context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			IdleConnTimeout:       IdleConnTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			ForceAttemptHTTP2:     true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("too many redirects (>%d)", MaxRedirects)
			}
			return nil
		},
	}
}

// with returns a copy of f with opts applied. The HTTP client is shared.
func (f *HTTPFetcher) with(opts ...Option) *HTTPFetcher {
	clone := *f
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// FetchHTML implements [Fetcher].
func (f *HTTPFetcher) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	page, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return page.HTML, nil
}

// Fetch retrieves rawURL and decodes the body to UTF-8.
//
// Partial URLs (e.g. "example.com") get an "https://" prefix. Only http and
// https are accepted. A status other than 200 OK, a body larger than the
// configured limit, a timeout or a cancelled context all fail with an error
// wrapping [ErrFetch].
//
// When ctx carries an observer, the download runs in its own page.fetch span.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return Page{}, err
	}

	observer := observability.ObserverFromContext(ctx)
	if observer == nil {
		return f.fetch(ctx, target)
	}

	ctx, span := observer.StartSpan(ctx, observability.SpanPageFetch,
		observability.String(observability.AttrHTTPURL, target),
	)
	defer span.End()

	page, err := f.fetch(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, err.Error())
		return Page{}, err
	}
	span.SetStatus(observability.StatusOK, "")
	return page, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, target string) (Page, error) {
	start := time.Now()
	ctxWithTimeout, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: failed to create request: %v", ErrFetch, err)
	}
	httpReq.Header.Set("User-Agent", f.pickUserAgent())
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		if ctxWithTimeout.Err() != nil {
			return Page{}, fmt.Errorf("%w: request timeout or canceled: %w", ErrFetch, err)
		}
		return Page{}, fmt.Errorf("%w: failed to fetch URL: %w", ErrFetch, err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("%w: %w", ErrFetch, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status})
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := f.readBody(ctxWithTimeout, resp.Body, contentType)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		URL:         resp.Request.URL.String(),
		HTML:        body,
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventPageFetched,
			observability.String(observability.AttrHTTPMethod, http.MethodGet),
			observability.String(observability.AttrHTTPURL, target),
			observability.String(observability.AttrHTTPFinalURL, page.URL),
			observability.Int(observability.AttrHTTPStatusCode, page.StatusCode),
			observability.String(observability.AttrHTTPContentType, contentType),
			observability.Int(observability.AttrHTTPResponseBodySize, len(body)),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		)
	}

	return page, nil
}

// readBody reads at most maxBodySize bytes, converting from the declared or
// sniffed charset. Reading runs in a goroutine so cancellation is honoured
// even while a slow server trickles bytes.
func (f *HTTPFetcher) readBody(ctx context.Context, body io.Reader, contentType string) (string, error) {
	type readResult struct {
		data []byte
		err  error
	}

	readChan := make(chan readResult, 1)
	go func() {
		// One byte over the limit tells an exact-size body apart from a truncated one.
		raw, err := io.ReadAll(io.LimitReader(body, f.maxBodySize+1))
		readChan <- readResult{data: raw, err: err}
	}()

	var raw []byte
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: timeout while reading response body: %w", ErrFetch, ctx.Err())
	case result := <-readChan:
		if result.err != nil {
			return "", fmt.Errorf("%w: failed to read response body: %w", ErrFetch, result.err)
		}
		raw = result.data
	}

	if int64(len(raw)) > f.maxBodySize {
		return "", fmt.Errorf("%w: response body exceeds maximum size of %d bytes", ErrFetch, f.maxBodySize)
	}

	decoder, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		// Unknown charset label: hand back the bytes untouched.
		return string(raw), nil
	}
	decoded, err := io.ReadAll(decoder)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode response body: %w", ErrFetch, err)
	}
	return string(decoded), nil
}

func (f *HTTPFetcher) pickUserAgent() string {
	if f.randomUserAgent {
		if ua := uarand.GetRandom(); ua != "" {
			return ua
		}
	}
	return f.userAgent
}

// NormalizeURL trims rawURL, adds "https://" when it carries no scheme and
// rejects anything that is not an absolute http or https URL.
func NormalizeURL(rawURL string) (string, error) {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return "", fmt.Errorf("%w: URL cannot be empty", ErrFetch)
	}

	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: invalid URL %q: %w", ErrFetch, rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported protocol %q", ErrFetch, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: URL %q has no host", ErrFetch, rawURL)
	}
	return parsed.String(), nil
}
