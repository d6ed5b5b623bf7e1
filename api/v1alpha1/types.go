package v1alpha1

// ImportMode selects the commit strategy used for an import job.
type ImportMode string

const (
	// ImportModeAtomic persists the whole file in a single write. If that
	// write fails nothing is committed.
	ImportModeAtomic ImportMode = "ATOMIC"
	// ImportModeChunked persists fixed-size chunks independently. Committed
	// chunks stay durable even if a later chunk fails.
	ImportModeChunked ImportMode = "CHUNKED"
)

// StringToImportMode maps a request parameter to an ImportMode. An empty or
// unknown value falls back to CHUNKED, the default mode.
func StringToImportMode(s string) ImportMode {
	switch s {
	case string(ImportModeAtomic):
		return ImportModeAtomic
	case string(ImportModeChunked):
		return ImportModeChunked
	default:
		return ImportModeChunked
	}
}

// ImportJob is the lifecycle snapshot returned by the status endpoint.
type ImportJob struct {
	Id            string        `json:"id"`
	Step          string        `json:"step"`
	Message       string        `json:"message"`
	RowsProcessed int64         `json:"rowsProcessed"`
	RowsTotal     int64         `json:"rowsTotal"`
	Result        *ImportResult `json:"result,omitempty"`
}

// ImportResult is the terminal aggregate of a completed import.
type ImportResult struct {
	Processed   int64            `json:"processed"`
	Inserted    int64            `json:"inserted"`
	Failed      int64            `json:"failed"`
	ErrorReport string           `json:"errorReport,omitempty"`
	Summary     map[string]int64 `json:"summary,omitempty"`
}

// ImportAccepted acknowledges an accepted upload.
type ImportAccepted struct {
	Id string `json:"id"`
}

// Error is the common error reply body.
type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`
}
