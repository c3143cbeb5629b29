package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobStatus defines the status of a background indexing job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// TaskType names the kind of work a job carries.
type TaskType string

const (
	// TaskTypeIndexDocument extracts and embeds an uploaded document.
	TaskTypeIndexDocument TaskType = "index_document"
)

// Job is one background task over a document. DocumentID links the job to
// the document row so job status lookups can surface which document is
// being indexed.
type Job struct {
	ID         int             `json:"id"`
	TaskType   TaskType        `gorm:"not null" json:"task_type"`
	DocumentID int64           `gorm:"index" json:"document_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `gorm:"not null;default:pending" json:"status"`
	Error      *string         `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobRepository defines the interface for job persistence
type JobRepository interface {
	Create(ctx context.Context, taskType TaskType, documentID int64, payload json.RawMessage) (*Job, error)
	Get(ctx context.Context, id int) (*Job, error)
	UpdateStatus(ctx context.Context, id int, status JobStatus, err *string) error
}
