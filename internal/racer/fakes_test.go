package racer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/user/wikiracer/internal/repository"
)

const site = "https://wiki.test/wiki/"

// page turns a short node name into its canonical URL.
func page(name string) string { return site + name }

func pages(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = page(n)
	}
	return out
}

// graphFetcher serves a fixed link graph. The body of a page is its outbound
// links, one per line, which lineParser turns back into URLs.
type graphFetcher struct {
	mu     sync.Mutex
	graph  map[string][]string
	fail   map[string]error
	calls  map[string]int
	before func(ctx context.Context, url string) error
}

func newGraphFetcher(edges map[string][]string) *graphFetcher {
	g := make(map[string][]string, len(edges))
	for from, to := range edges {
		g[page(from)] = pages(to...)
	}
	return &graphFetcher{
		graph: g,
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *graphFetcher) failWith(name string, err error) {
	f.fail[page(name)] = err
}

func (f *graphFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	err := f.fail[url]
	links := f.graph[url]
	before := f.before
	f.mu.Unlock()

	if before != nil {
		if err := before(ctx, url); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	return []byte(strings.Join(links, "\n")), nil
}

func (f *graphFetcher) callsFor(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[page(name)]
}

func (f *graphFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *graphFetcher) maxCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n = max(n, c)
	}
	return n
}

type lineParser struct{}

func (lineParser) Parse(body []byte, _ string) ([]string, error) {
	if strings.HasPrefix(string(body), "<broken") {
		return nil, fmt.Errorf("%w: bad markup", repository.ErrParseFailed)
	}
	var links []string
	for _, l := range strings.Split(string(body), "\n") {
		if l != "" {
			links = append(links, l)
		}
	}
	return links, nil
}

// funcExpander adapts a function to the Expander interface.
type funcExpander func(ctx context.Context, page string) ([]string, error)

func (f funcExpander) Expand(ctx context.Context, page string) ([]string, error) {
	return f(ctx, page)
}
