package events

// ImportEvent is emitted once per import job when it reaches a terminal
// step.
type ImportEvent struct {
	JobID     string           `json:"job_id"`
	Mode      string           `json:"mode"`
	Step      string           `json:"step"`
	Message   string           `json:"message"`
	Processed int64            `json:"processed"`
	Inserted  int64            `json:"inserted"`
	Failed    int64            `json:"failed"`
	Summary   map[string]int64 `json:"summary,omitempty"`
}
