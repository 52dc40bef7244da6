// Package app assembles the search stack from configuration. Both binaries
// build their racer through it.
package app

import (
	"fmt"

	"github.com/user/wikiracer/internal/adapter/chromedp_fetcher"
	"github.com/user/wikiracer/internal/adapter/goquery_parser"
	"github.com/user/wikiracer/internal/adapter/httpfetch"
	"github.com/user/wikiracer/internal/proxy"
	"github.com/user/wikiracer/internal/racer"
	"github.com/user/wikiracer/internal/repository"
	"github.com/user/wikiracer/pkg/config"
	"github.com/user/wikiracer/pkg/metrics"
	"go.uber.org/zap"
)

// NewPageFetcher returns the fetcher selected by cfg.FetcherMode and a func
// releasing its resources.
func NewPageFetcher(cfg *config.Config, logger *zap.Logger) (repository.PageFetcher, func(), error) {
	pm, err := proxy.NewManager(cfg.ProxyList(), cfg.UserAgentList())
	if err != nil {
		return nil, nil, fmt.Errorf("proxy manager: %w", err)
	}

	switch cfg.FetcherMode {
	case config.FetcherModeHTTP:
		return httpfetch.NewFetcher(pm, cfg.FetchTimeout(), cfg.MaxPageBytes), func() {}, nil
	case config.FetcherModeChromedp:
		f := chromedp_fetcher.NewFetcher(cfg.FetchWorkers, cfg.FetchTimeout(), pm, logger)
		if err := f.Start(); err != nil {
			f.Close()
			return nil, nil, err
		}
		return f, f.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown fetcher mode %q", cfg.FetcherMode)
	}
}

func NewLinkParser(cfg *config.Config) (*goquery_parser.LinkParser, error) {
	return goquery_parser.NewLinkParser(goquery_parser.Config{
		SiteBaseURL:        cfg.SiteBaseURL,
		ArticlePrefix:      cfg.ArticlePrefix,
		NamespaceSeparator: cfg.NamespaceSeparator,
		ContentSelector:    cfg.ContentSelector,
	})
}

// NewRacer wires fetcher, parser and options into a Racer. The returned func
// must be called once the racer is no longer used.
func NewRacer(cfg *config.Config, hooks racer.Hooks, logger *zap.Logger, m *metrics.Metrics) (*racer.Racer, func(), error) {
	fetcher, closeFetcher, err := NewPageFetcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	parser, err := NewLinkParser(cfg)
	if err != nil {
		closeFetcher()
		return nil, nil, fmt.Errorf("link parser: %w", err)
	}

	r := racer.New(fetcher, parser, racer.Options{
		Workers:      cfg.FetchWorkers,
		FetchTimeout: cfg.FetchTimeout(),
		Hooks:        hooks,
	}, logger.Named("racer"), m)
	return r, closeFetcher, nil
}
