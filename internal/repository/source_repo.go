package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hyunsoo/bizharvest/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceRepository handles crawl source registry records.
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository creates a new SourceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SourceRepository: repository instance bound to db.
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Upsert creates or updates a source record keyed by ID. Registration at
// startup uses this so config changes land without manual migration.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - src: source record to create or update.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *SourceRepository) Upsert(ctx context.Context, src *domain.Source) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "base_url", "strategy", "config", "is_enabled", "updated_at"}),
	}).Create(src).Error
}

// GetByID retrieves a source by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: source ID.
// Returns:
//   - *domain.Source: source record, nil if not registered.
//   - error: non-nil if the lookup fails.
func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	var src domain.Source
	if err := r.db.WithContext(ctx).First(&src, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &src, nil
}

// ListEnabled retrieves all sources eligible for crawling.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.Source: enabled source records.
//   - error: non-nil if the query fails.
func (r *SourceRepository) ListEnabled(ctx context.Context) ([]domain.Source, error) {
	var sources []domain.Source
	if err := r.db.WithContext(ctx).Where("is_enabled = ?", true).Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// UpdateLastCrawled advances the last successful crawl timestamp. Called
// only after a job completes; failed runs leave the watermark untouched.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: source ID.
//   - at: completion time of the successful crawl.
// Returns:
//   - error: non-nil if the update fails.
func (r *SourceRepository) UpdateLastCrawled(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Source{}).
		Where("id = ?", id).
		Update("last_crawled_at", at).Error
}
