package goquery_parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/wikiracer/internal/repository"
	"github.com/user/wikiracer/pkg/utils"
)

// Config describes which links of a page count as article links.
type Config struct {
	// SiteBaseURL is the scheme and host of the site, e.g. https://en.wikipedia.org.
	SiteBaseURL string
	// ArticlePrefix is the path prefix of article pages, e.g. /wiki/.
	ArticlePrefix string
	// NamespaceSeparator marks non-article pages such as Special:, Help: or Talk:.
	NamespaceSeparator string
	// ContentSelector selects the main-content region of a page.
	ContentSelector string
}

// WithDefaults returns a copy of the config with Wikipedia defaults for empty fields.
func (c Config) WithDefaults() Config {
	if c.SiteBaseURL == "" {
		c.SiteBaseURL = "https://en.wikipedia.org"
	}
	if c.ArticlePrefix == "" {
		c.ArticlePrefix = "/wiki/"
	}
	if c.NamespaceSeparator == "" {
		c.NamespaceSeparator = ":"
	}
	if c.ContentSelector == "" {
		c.ContentSelector = "#bodyContent"
	}
	return c
}

// LinkParser extracts article links with goquery.
type LinkParser struct {
	cfg  Config
	host string
}

// NewLinkParser creates a parser for the site described by cfg.
func NewLinkParser(cfg Config) (*LinkParser, error) {
	cfg = cfg.WithDefaults()
	site, err := url.Parse(cfg.SiteBaseURL)
	if err != nil || site.Host == "" {
		return nil, fmt.Errorf("invalid site base url %q", cfg.SiteBaseURL)
	}
	return &LinkParser{cfg: cfg, host: strings.ToLower(site.Host)}, nil
}

// Parse returns the de-duplicated absolute article URLs linked from the
// main-content region of body. A page without that region yields no links.
func (p *LinkParser) Parse(body []byte, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url %q: %v", repository.ErrParseFailed, baseURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrParseFailed, err)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find(p.cfg.ContentSelector).Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, ok := p.articleURL(base, href)
		if !ok {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links, nil
}

// articleURL resolves href and reports whether it names an article of the site.
func (p *LinkParser) articleURL(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	abs, err := utils.ToAbsoluteURL(base, href)
	if err != nil {
		return "", false
	}
	u, err := url.Parse(abs)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if strings.ToLower(u.Host) != p.host {
		return "", false
	}
	if !strings.HasPrefix(u.EscapedPath(), p.cfg.ArticlePrefix) {
		return "", false
	}
	if strings.Contains(u.Path, p.cfg.NamespaceSeparator) {
		return "", false
	}
	return abs, true
}
