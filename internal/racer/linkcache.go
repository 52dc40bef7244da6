package racer

import "sync"

// LinkCache memoizes extracted links per page URL for the lifetime of one race.
// Entries are written once and never refreshed.
type LinkCache struct {
	mu    sync.RWMutex
	links map[string][]string
}

func NewLinkCache() *LinkCache {
	return &LinkCache{links: make(map[string][]string)}
}

// Get returns the cached links of page. The returned slice is shared and must
// not be modified.
func (c *LinkCache) Get(page string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	links, ok := c.links[page]
	return links, ok
}

// Put stores the de-duplicated links of page unless an entry already exists,
// and returns whichever set is cached afterwards.
func (c *LinkCache) Put(page string, links []string) []string {
	set := dedupe(links)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.links[page]; ok {
		return existing
	}
	c.links[page] = set
	return set
}

func (c *LinkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.links)
}

func dedupe(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
