package entity

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusNotFound  = "not_found"
)

type RaceStatus struct {
	RaceID        string
	CurrentStatus string // "pending", "running", "completed", "failed", "not_found"
	Result        *RaceResult
	FailureReason string
}
