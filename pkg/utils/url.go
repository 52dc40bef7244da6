package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// RaceID derives a stable identifier for a race request.
func RaceID(start, end string, maxDepth int) string {
	return HashURL(fmt.Sprintf("%s|%s|%d", start, end, maxDepth))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
// The fragment is dropped since it never names a different page.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(strings.TrimSpace(relative))
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(relURL)
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), nil
}

// CanonicalURL returns raw in the form link resolution produces: the path
// percent-encoded and the fragment dropped. Page identifiers are compared as
// strings, so user input must go through the same rewrite as extracted links.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// IsAbsoluteHTTPURL reports whether raw is a well-formed absolute http(s) URL.
func IsAbsoluteHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
