package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PlaylistSource retrieves raw playlist text for a manifest URL.
type PlaylistSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// DefaultFetchTimeout bounds a single playlist fetch. The reference behavior
// had no timeout; imposing one is a strengthening, and a timeout surfaces as
// ErrNetwork like any other transport failure.
const DefaultFetchTimeout = 30 * time.Second

// Fetcher is the HTTP implementation of PlaylistSource.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher whose requests are bounded by timeout.
// A non-positive timeout falls back to DefaultFetchTimeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch performs one GET and returns the response body as text. Transport
// failures and non-2xx statuses are reported as ErrNetwork; callers must not
// mutate persisted state on that failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status %d fetching %s", ErrNetwork, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return string(body), nil
}

// IsFinalized fetches the manifest at manifestURL and reports whether the
// underlying recording has fully ended. Only the end-of-list marker is
// checked; no full parse is required.
func IsFinalized(ctx context.Context, source PlaylistSource, manifestURL string) (bool, error) {
	raw, err := source.Fetch(ctx, manifestURL)
	if err != nil {
		return false, err
	}
	return ContainsEndList(raw), nil
}

// ContainsEndList reports whether raw playlist text carries the marker that
// says no further segments will be appended.
func ContainsEndList(raw string) bool {
	return strings.Contains(raw, endListDirective)
}
