package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yourusername/ol-results/internal/metrics"
)

// MaxDocumentBytes bounds the size of a fetched result list
const MaxDocumentBytes = 64 << 20

const (
	fetchStatusSuccess = "success"
	fetchStatusFailure = "failure"
)

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	// ErrDocumentTooLarge is returned when a body exceeds MaxDocumentBytes
	ErrDocumentTooLarge = errors.New("document exceeds size limit")
)

// StatusError reports a non-2xx response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// Fetcher downloads IOF result lists over HTTP
type Fetcher struct {
	client *RateLimitedHTTPClient
}

// NewFetcher creates a fetcher using client
func NewFetcher(client *RateLimitedHTTPClient) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch opens the document at rawURL. The caller closes the returned body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	start := time.Now()
	body, err := f.fetch(ctx, rawURL)
	status := fetchStatusSuccess
	if err != nil {
		status = fetchStatusFailure
	}
	metrics.RecordFetch(status, time.Since(start).Seconds())
	return body, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	resp, err := f.client.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, &StatusError{URL: u.String(), Code: resp.StatusCode}
	}
	if resp.ContentLength > MaxDocumentBytes {
		resp.Body.Close()
		return nil, ErrDocumentTooLarge
	}
	return &limitedBody{r: io.LimitReader(resp.Body, MaxDocumentBytes+1), c: resp.Body}, nil
}

type limitedBody struct {
	r    io.Reader
	c    io.Closer
	read int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.read += int64(n)
	if b.read > MaxDocumentBytes {
		return n, ErrDocumentTooLarge
	}
	return n, err
}

func (b *limitedBody) Close() error {
	return b.c.Close()
}
