package entity

// Path is an ordered sequence of page URLs from the start page to a reached page.
// Adjacent elements are connected by a discovered outbound link.
type Path []string

// Hops returns the number of links followed along the path.
func (p Path) Hops() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Extend returns a new path with page appended. The receiver is never modified,
// so frontier entries sharing a prefix stay independent.
func (p Path) Extend(page string) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, page)
}
