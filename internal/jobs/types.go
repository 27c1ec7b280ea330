package jobs

import (
	"context"
	"time"
)

// JobType discriminates the kinds of work the queue carries.
type JobType string

const (
	// JobTypeComputeSegmentation is a full RFM recomputation run.
	JobTypeComputeSegmentation JobType = "compute_segmentation"
)

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// SegmentationJob is one requested recomputation of the customer
// segmentation snapshot.
type SegmentationJob struct {
	JobID string `json:"job_id"`

	// AsOfDate is the reference date the run scores recency against,
	// formatted 2006-01-02.
	AsOfDate string `json:"as_of_date"`

	// RunID is the segmentation_runs row created for this job, once started.
	RunID string `json:"run_id,omitempty"`

	Status JobStatus `json:"status"`

	// CustomerCount is the number of records the run produced, once complete.
	CustomerCount int `json:"customer_count,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the last failure message, if any.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is the queue's view of any job type.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *SegmentationJob) GetID() string {
	return j.JobID
}

func (j *SegmentationJob) GetType() JobType {
	return JobTypeComputeSegmentation
}

func (j *SegmentationJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs. Implementations may be in-process or backed by a
// managed queue service.
type Publisher interface {
	PublishSegmentation(ctx context.Context, job *SegmentationJob) error

	// Close releases the publisher's resources. Publishing after Close fails.
	Close() error
}

// Consumer pulls jobs off the queue and hands them to a JobHandler.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error

	// Stop drains in-flight jobs before returning, bounded by ctx.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A non-nil error marks the attempt failed and
// makes it eligible for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore persists job state so callers can poll run progress.
type JobStore interface {
	// SaveJob inserts or overwrites a job's full state.
	SaveJob(ctx context.Context, job *SegmentationJob) error

	GetJob(ctx context.Context, jobID string) (*SegmentationJob, error)

	ListJobs(ctx context.Context, filter JobFilter) ([]*SegmentationJob, error)

	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	// Status filters jobs by status. Empty matches all.
	Status JobStatus

	// Limit caps the number of results. Zero means no cap.
	Limit int

	// Offset skips that many results, for paging.
	Offset int
}
