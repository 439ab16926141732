package domain

import "time"

// JobStatus represents the status of a crawl job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// CrawlJob represents one execution of a Source crawl and its outcome.
// A job record transitions through its states exactly once; retried work
// creates a new job rather than reusing an old record.
type CrawlJob struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	SourceID     string     `gorm:"type:text;not null;index" json:"source_id"`
	Status       JobStatus  `gorm:"default:pending" json:"status"`
	FoundCount   int        `gorm:"default:0" json:"found_count"`
	NewCount     int        `gorm:"default:0" json:"new_count"`
	UpdatedCount int        `gorm:"default:0" json:"updated_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for CrawlJob.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (CrawlJob) TableName() string {
	return "crawl_jobs"
}
