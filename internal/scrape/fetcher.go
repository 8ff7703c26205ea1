package scrape

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; LeadEnrichBot/1.0)"
	maxBodyBytes     = 1 * 1024 * 1024
)

// Fetcher retrieves a page body as a string. Shared by the email
// crawler and the keyword pipeline's website-context step.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// Option configures the HTTP fetcher.
type Option func(*httpFetcher)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *httpFetcher) {
		f.http.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *httpFetcher) {
		f.userAgent = ua
	}
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *httpFetcher) {
		f.http = hc
	}
}

// WithRateLimit overrides the request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *httpFetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpFetcher struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewFetcher creates an HTTP fetcher with a bounded timeout, a
// descriptive user agent, and a polite per-process rate limit.
func NewFetcher(opts ...Option) Fetcher {
	f := &httpFetcher{
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(2, 4),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *httpFetcher) Get(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "scrape: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrapf(err, "scrape: create request %s", url)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "scrape: fetch %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("scrape: fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrapf(err, "scrape: read body %s", url)
	}
	return string(body), nil
}
