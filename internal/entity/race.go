package entity

import "time"

// Race is a single shortest-path request between two pages.
type Race struct {
	ID          string    `json:"id"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	MaxDepth    int       `json:"max_depth"`
	SubmittedAt time.Time `json:"submitted_at"`
}
