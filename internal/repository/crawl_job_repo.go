package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hyunsoo/bizharvest/internal/domain"
	"gorm.io/gorm"
)

// CrawlJobRepository handles crawl job records.
type CrawlJobRepository struct {
	db *gorm.DB
}

// NewCrawlJobRepository creates a new CrawlJobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *CrawlJobRepository: repository instance bound to db.
func NewCrawlJobRepository(db *gorm.DB) *CrawlJobRepository {
	return &CrawlJobRepository{db: db}
}

// Create inserts a new pending job for a source.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: source the job will crawl.
// Returns:
//   - *domain.CrawlJob: the created pending job.
//   - error: non-nil if the insert fails.
func (r *CrawlJobRepository) Create(ctx context.Context, sourceID string) (*domain.CrawlJob, error) {
	job := &domain.CrawlJob{
		ID:       uuid.New().String(),
		SourceID: sourceID,
		Status:   domain.JobStatusPending,
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// MarkRunning transitions a job to running and stamps its start time.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job to transition.
// Returns:
//   - error: non-nil if the update fails.
func (r *CrawlJobRepository) MarkRunning(ctx context.Context, job *domain.CrawlJob) error {
	now := time.Now()
	job.Status = domain.JobStatusRunning
	job.StartedAt = &now
	return r.db.WithContext(ctx).Model(job).Updates(map[string]interface{}{
		"status":     job.Status,
		"started_at": job.StartedAt,
	}).Error
}

// MarkCompleted transitions a job to completed with its final counters.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job carrying FoundCount, NewCount, and UpdatedCount.
// Returns:
//   - error: non-nil if the update fails.
func (r *CrawlJobRepository) MarkCompleted(ctx context.Context, job *domain.CrawlJob) error {
	now := time.Now()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	return r.db.WithContext(ctx).Model(job).Updates(map[string]interface{}{
		"status":        job.Status,
		"found_count":   job.FoundCount,
		"new_count":     job.NewCount,
		"updated_count": job.UpdatedCount,
		"completed_at":  job.CompletedAt,
	}).Error
}

// MarkFailed transitions a job to failed, keeping whatever counters the run
// accumulated before the error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job to transition.
//   - errMsg: human-readable failure reason.
// Returns:
//   - error: non-nil if the update fails.
func (r *CrawlJobRepository) MarkFailed(ctx context.Context, job *domain.CrawlJob, errMsg string) error {
	now := time.Now()
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = errMsg
	job.CompletedAt = &now
	return r.db.WithContext(ctx).Model(job).Updates(map[string]interface{}{
		"status":        job.Status,
		"found_count":   job.FoundCount,
		"new_count":     job.NewCount,
		"updated_count": job.UpdatedCount,
		"error_message": job.ErrorMessage,
		"completed_at":  job.CompletedAt,
	}).Error
}

// GetByID retrieves a crawl job by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.CrawlJob: job record if found.
//   - error: non-nil if the lookup fails.
func (r *CrawlJobRepository) GetByID(ctx context.Context, id string) (*domain.CrawlJob, error) {
	var job domain.CrawlJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// List retrieves jobs newest first, optionally filtered by source.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: filter by source, empty means all.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.CrawlJob: matching job records.
//   - error: non-nil if the query fails.
func (r *CrawlJobRepository) List(ctx context.Context, sourceID string, limit, offset int) ([]domain.CrawlJob, error) {
	var jobs []domain.CrawlJob
	query := r.db.WithContext(ctx)
	if sourceID != "" {
		query = query.Where("source_id = ?", sourceID)
	}
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
