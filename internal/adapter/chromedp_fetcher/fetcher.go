package chromedp_fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/wikiracer/internal/proxy"
	"github.com/user/wikiracer/internal/repository"
	"go.uber.org/zap"
)

// Fetcher renders pages in a shared headless browser, one tab per fetch.
type Fetcher struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	slots         chan struct{}
	timeout       time.Duration
	startOnce     sync.Once
	startErr      error
	closeOnce     sync.Once
}

// NewFetcher prepares a browser allocator. The browser process is launched by
// Start or the first Fetch and shared by every tab. At most maxConcurrency tabs
// are open at once.
func NewFetcher(maxConcurrency int, pageLoadTimeout time.Duration, pm *proxy.Manager, logger *zap.Logger) *Fetcher {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(pm.GetUserAgent()),
	)
	if p := pm.GetProxy(); p != nil {
		opts = append(opts, chromedp.ProxyServer(p.String()))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	return &Fetcher{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		slots:         make(chan struct{}, maxConcurrency),
		timeout:       pageLoadTimeout,
	}
}

// Start launches the shared browser. Tabs must be created from a running
// browser, otherwise each one starts its own process.
func (f *Fetcher) Start() error {
	f.startOnce.Do(func() {
		if err := chromedp.Run(f.browserCtx); err != nil {
			f.startErr = fmt.Errorf("start browser: %w", err)
		}
	})
	return f.startErr
}

// Fetch navigates to url and returns the rendered document HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	select {
	case f.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, classify(ctx.Err(), ctx)
	}
	defer func() { <-f.slots }()

	if err := f.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrFetchFailed, err)
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	// Redirects surface as requestWillBeSent events, so the first document
	// response is the final one.
	var status atomic.Int64
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, resp.Response.Status)
		}
	})

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, classify(err, tabCtx)
	}
	if err := statusError(status.Load()); err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// Close shuts the browser down.
func (f *Fetcher) Close() {
	f.closeOnce.Do(func() {
		f.cancelBrowser()
		f.cancelAlloc()
	})
}

func statusError(code int64) error {
	if code == 0 || (code >= 200 && code <= 299) {
		return nil
	}
	return fmt.Errorf("%w: received status code %d", repository.ErrUnexpectedStatus, code)
}

func classify(err error, ctx context.Context) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", repository.ErrFetchTimeout, err)
	}
	return fmt.Errorf("%w: %w", repository.ErrFetchFailed, err)
}
