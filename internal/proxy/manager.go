package proxy

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Manager handles the rotation of proxies and user agents.
type Manager struct {
	proxies    []*url.URL
	userAgents []string

	mu         sync.Mutex
	proxyIndex int
	rng        *rand.Rand
}

// NewManager validates the proxy URLs. An empty userAgents list falls back to
// a small set of desktop browser agents.
func NewManager(proxies, userAgents []string) (*Manager, error) {
	parsed := make([]*url.URL, 0, len(proxies))
	for _, p := range proxies {
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", p)
		}
		parsed = append(parsed, u)
	}
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents
	}
	return &Manager{
		proxies:    parsed,
		userAgents: userAgents,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// GetProxy returns a proxy URL from the list, rotating sequentially.
// It returns nil when no proxies are configured.
func (m *Manager) GetProxy() *url.URL {
	if len(m.proxies) == 0 {
		return nil // No proxy
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	proxy := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return proxy
}

// ProxyFunc plugs the rotation into an http.Transport.
func (m *Manager) ProxyFunc(_ *http.Request) (*url.URL, error) {
	return m.GetProxy(), nil
}

// GetUserAgent returns a random user agent string.
func (m *Manager) GetUserAgent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userAgents[m.rng.Intn(len(m.userAgents))]
}
