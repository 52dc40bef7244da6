package entity

import "time"

// Outcome is the terminal state of a search.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// FailedPage is a page whose links could not be extracted during a race.
type FailedPage struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// LevelStats describes one completed BFS level.
type LevelStats struct {
	Depth      int           `json:"depth"`
	Queued     int           `json:"queued"`
	Discovered int           `json:"discovered"`
	Failed     int           `json:"failed"`
	Elapsed    time.Duration `json:"elapsed"`
}

// RaceResult mirrors the `races` PostgreSQL table schema.
type RaceResult struct {
	RaceID        string
	Start         string
	End           string
	MaxDepth      int
	Outcome       Outcome
	Path          Path // nil unless Outcome is OutcomeFound
	DepthReached  int
	PagesExpanded int
	FailedPages   []FailedPage // stored in race_failed_pages
	Levels        []LevelStats
	FailureReason string
	Duration      time.Duration
	CompletedAt   time.Time
}

// Found reports whether a path was discovered.
func (r *RaceResult) Found() bool {
	return r != nil && r.Outcome == OutcomeFound
}
