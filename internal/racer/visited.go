package racer

import "sync"

// VisitedSet holds every page that has been placed into some frontier.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Add marks page as visited. It reports true only for the call that inserted
// it, so exactly one caller may enqueue a given page.
func (v *VisitedSet) Add(page string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[page]; ok {
		return false
	}
	v.seen[page] = struct{}{}
	return true
}

func (v *VisitedSet) Contains(page string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[page]
	return ok
}

func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
