// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests for HTML pages and streams video downloads
// straight to disk.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gaurav-prasanna/framedoc/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "framedoc/1.0 (https://github.com/gaurav-prasanna/framedoc)"
	maxPageBytes     = 8 << 20
)

// HTTPFetcher fetches web pages and files via HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// New creates an HTTPFetcher. A zero timeout means the page default; downloads
// are bounded by the caller's context instead of the client timeout.
func New(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	resp, err := f.get(ctx, url, "text/html,application/xhtml+xml", f.client)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.FetchResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}

// Download streams url into dst and returns the number of bytes written.
// A partial file is removed on failure.
func (f *HTTPFetcher) Download(ctx context.Context, url, dst string) (int64, error) {
	// Large videos outlive the page timeout; rely on ctx for cancellation.
	client := &http.Client{Transport: f.client.Transport}
	resp, err := f.get(ctx, url, "video/*,application/octet-stream;q=0.9,*/*;q=0.5", client)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", dst, err)
	}
	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("downloading %s: %w", url, err)
	}
	return n, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url, accept string, client *http.Client) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	return resp, nil
}
