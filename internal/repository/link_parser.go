package repository

// LinkParser extracts same-site article links from an HTML document.
type LinkParser interface {
	// Parse returns the absolute article URLs found in the main-content region
	// of body, resolved against baseURL.
	Parse(body []byte, baseURL string) ([]string, error)
}
