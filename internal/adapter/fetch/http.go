// Package fetch downloads daily products from an HTTP mirror of the AWI
// CryoSat-SMOS archive.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"go.ngs.io/seaice-api/internal/adapter/store"
	"go.ngs.io/seaice-api/internal/adapter/store/cs2smos"
)

const (
	defaultTimeout = 60 * time.Second
	maxRetries     = 3
)

// latestFrom is the first month served from the LATEST folder instead of a
// YYYY/MM folder.
var latestFrom = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

// republished lists days whose product is only published under another
// day's file name.
var republished = map[string]time.Time{
	"20250325": time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC),
}

// HTTPFetcher downloads product files below a base URL.
type HTTPFetcher struct {
	baseURL    string
	client     *http.Client
	timeout    time.Duration
	newBackOff func() backoff.BackOff
	notify     backoff.Notify
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithTimeout bounds each download.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) { f.timeout = d }
}

// WithBackOff sets the retry policy for transient failures.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(f *HTTPFetcher) { f.newBackOff = newBackOff }
}

// WithNotify is called before every retry.
func WithNotify(n backoff.Notify) Option {
	return func(f *HTTPFetcher) { f.notify = n }
}

func defaultBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
}

// NewHTTPFetcher creates a fetcher for the archive rooted at baseURL.
func NewHTTPFetcher(baseURL string, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		client:     http.DefaultClient,
		timeout:    defaultTimeout,
		newBackOff: defaultBackOff,
		notify:     func(error, time.Duration) {},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the archive location of the product for date.
func (f *HTTPFetcher) URL(date time.Time) string {
	name := cs2smos.FileName(date)
	if alt, ok := republished[date.Format("20060102")]; ok {
		name = cs2smos.FileName(alt)
	}
	folder := "LATEST"
	if date.Before(latestFrom) {
		folder = date.Format("2006/01")
	}
	return f.baseURL + "/" + folder + "/" + url.PathEscape(name)
}

// Fetch downloads the product for date into dst, retrying transient
// failures. A missing remote file is reported as store.ErrNotAvailable and
// is not retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, date time.Time, dst string) error {
	var missing error
	op := func() error {
		err := f.fetchOnce(ctx, date, dst)
		if errors.Is(err, store.ErrNotAvailable) {
			missing = err
			return nil
		}
		return err
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(f.newBackOff(), ctx), f.notify); err != nil {
		return err
	}
	return missing
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, date time.Time, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	u := f.URL(date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", date.Format(time.DateOnly), store.ErrNotAvailable)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}
