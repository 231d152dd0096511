package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"RaceBrain/internal/model"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxBodyBytes     = 4 << 20
)

// HTTPConfig configures an HTTPFetcher.
type HTTPConfig struct {
	ProxyURL       string
	Timeout        time.Duration
	RequestsPerMin int
	UserAgent      string
}

// HTTPFetcher implements Fetcher over plain HTTP GET.
type HTTPFetcher struct {
	Client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPFetcher creates a fetcher with an optional proxy, a per-request timeout and a
// request rate limit.
func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 30
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter:   rate.NewLimiter(rate.Limit(float64(perMin)/60), 1),
		userAgent: ua,
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch GETs rawURL. Network errors and non-200 responses are returned as FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", &model.FetchError{Op: "rate limit", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &model.FetchError{Op: "build request", Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &model.FetchError{Op: "get", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &model.FetchError{Op: "read body", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &model.FetchError{Op: "get", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return string(body), nil
}
