package run

import "time"

const (
	StageDone   = "DONE"
	StageFailed = "FAILED"
)

// Run is the outcome of one answer request.
type Run struct {
	ID            string    `json:"id"`
	Document      string    `json:"document"`
	Format        string    `json:"format"`
	Stage         string    `json:"stage"`
	FailedStage   string    `json:"failed_stage,omitempty"`
	ErrorCode     string    `json:"error_code,omitempty"`
	Error         string    `json:"error,omitempty"`
	Questions     int       `json:"questions"`
	Answered      int       `json:"answered"`
	NoMatch       int       `json:"no_match"`
	ModelErrors   int       `json:"model_errors"`
	ChunkCount    int       `json:"chunk_count"`
	DurationMs    int64     `json:"duration_ms"`
	CorrelationID string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}
