package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/wikiracer/internal/proxy"
	"github.com/user/wikiracer/internal/repository"
)

const defaultMaxPageBytes = 10 << 20 // 10 MB

// Fetcher is a PageFetcher over plain HTTP GET.
type Fetcher struct {
	client       *http.Client
	proxies      *proxy.Manager
	maxPageBytes int64
}

// NewFetcher builds a fetcher whose requests rotate proxies and user agents
// through pm. timeout bounds each request, including reading the body.
func NewFetcher(pm *proxy.Manager, timeout time.Duration, maxPageBytes int64) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = pm.ProxyFunc
	transport.MaxIdleConnsPerHost = 32

	if maxPageBytes <= 0 {
		maxPageBytes = defaultMaxPageBytes
	}
	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		proxies:      pm,
		maxPageBytes: maxPageBytes,
	}
}

// Fetch performs a GET of url and returns the body of a 2xx response.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", repository.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.proxies.GetUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: received status code %d", repository.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxPageBytes))
	if err != nil {
		return nil, classify(err)
	}
	return body, nil
}

func classify(err error) error {
	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		return fmt.Errorf("%w: %w", repository.ErrFetchTimeout, err)
	}
	return fmt.Errorf("%w: %w", repository.ErrFetchFailed, err)
}
