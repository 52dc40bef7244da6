package request

type SubmitRaceRequest struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	MaxDepth int    `json:"max_depth"` // 0 means the server default
}
