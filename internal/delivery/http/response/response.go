package response

import (
	"time"

	"github.com/user/wikiracer/internal/entity"
)

type SubmitRaceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RaceID  string `json:"race_id"`
}

// RaceStatusResponse is a DTO for race status, mirroring entity.RaceStatus
type RaceStatusResponse struct {
	RaceID        string      `json:"race_id"`
	CurrentStatus string      `json:"current_status"` // "pending", "running", "completed", "failed"
	Result        *RaceResult `json:"result,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`
}

type RaceResult struct {
	Start         string              `json:"start"`
	End           string              `json:"end"`
	MaxDepth      int                 `json:"max_depth"`
	Outcome       string              `json:"outcome"`
	Path          []string            `json:"path,omitempty"`
	Hops          int                 `json:"hops"`
	DepthReached  int                 `json:"depth_reached"`
	PagesExpanded int                 `json:"pages_expanded"`
	FailedPages   []entity.FailedPage `json:"failed_pages,omitempty"`
	Levels        []Level             `json:"levels,omitempty"`
	DurationMS    int64               `json:"duration_ms"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

type Level struct {
	Depth      int   `json:"depth"`
	Queued     int   `json:"queued"`
	Discovered int   `json:"discovered"`
	Failed     int   `json:"failed"`
	ElapsedMS  int64 `json:"elapsed_ms"`
}

// FromStatus converts a use case status into its wire form.
func FromStatus(st *entity.RaceStatus) RaceStatusResponse {
	resp := RaceStatusResponse{
		RaceID:        st.RaceID,
		CurrentStatus: st.CurrentStatus,
		FailureReason: st.FailureReason,
	}
	if st.Result != nil {
		resp.Result = FromResult(st.Result)
	}
	return resp
}

func FromResult(r *entity.RaceResult) *RaceResult {
	out := &RaceResult{
		Start:         r.Start,
		End:           r.End,
		MaxDepth:      r.MaxDepth,
		Outcome:       string(r.Outcome),
		Path:          r.Path,
		Hops:          r.Path.Hops(),
		DepthReached:  r.DepthReached,
		PagesExpanded: r.PagesExpanded,
		FailedPages:   r.FailedPages,
		DurationMS:    r.Duration.Milliseconds(),
	}
	if !r.CompletedAt.IsZero() {
		completed := r.CompletedAt
		out.CompletedAt = &completed
	}
	for _, l := range r.Levels {
		out.Levels = append(out.Levels, Level{
			Depth:      l.Depth,
			Queued:     l.Queued,
			Discovered: l.Discovered,
			Failed:     l.Failed,
			ElapsedMS:  l.Elapsed.Milliseconds(),
		})
	}
	return out
}
