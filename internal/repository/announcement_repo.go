package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hyunsoo/bizharvest/internal/domain"
	"gorm.io/gorm"
)

// UpsertResult reports whether an upsert created a new announcement row or
// updated an existing one. The crawl job counters are built from these.
type UpsertResult struct {
	ID      string
	Created bool
}

// AnnouncementRepository handles announcement and attachment persistence.
type AnnouncementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository creates a new AnnouncementRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *AnnouncementRepository: repository instance bound to db.
func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// FindByNaturalKey locates an announcement by its natural key: ExternalID
// when the portal supplies one, otherwise the (Name, Organization) pair.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: owning source ID.
//   - externalID: portal-assigned stable ID, may be empty.
//   - name: announcement title.
//   - organization: issuing organization.
// Returns:
//   - *domain.Announcement: matching record, nil if none exists.
//   - error: non-nil if the lookup fails.
func (r *AnnouncementRepository) FindByNaturalKey(ctx context.Context, sourceID, externalID, name, organization string) (*domain.Announcement, error) {
	var ann domain.Announcement
	query := r.db.WithContext(ctx)
	if externalID != "" {
		query = query.Where("source_id = ? AND external_id = ?", sourceID, externalID)
	} else {
		query = query.Where("source_id = ? AND name = ? AND organization = ?", sourceID, name, organization)
	}
	if err := query.First(&ann).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ann, nil
}

// Upsert creates or updates an announcement keyed by natural key, then
// replaces its attachment set. Both happen inside one transaction so a
// failed re-crawl never leaves an announcement with a half-written set.
// Field conflicts resolve last-writer-wins; the incoming record overwrites
// stored scalar fields wholesale.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ann: announcement to persist; ID is assigned when created.
//   - attachments: full replacement attachment set for this announcement.
// Returns:
//   - UpsertResult: row ID and whether the row was newly created.
//   - error: non-nil if the transaction fails.
func (r *AnnouncementRepository) Upsert(ctx context.Context, ann *domain.Announcement, attachments []domain.Attachment) (UpsertResult, error) {
	var result UpsertResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByNaturalKeyTx(tx, ann.SourceID, ann.ExternalID, ann.Name, ann.Organization)
		if err != nil {
			return err
		}

		if existing == nil {
			if ann.ID == "" {
				ann.ID = uuid.New().String()
			}
			if err := tx.Omit("Attachments").Create(ann).Error; err != nil {
				return err
			}
			result = UpsertResult{ID: ann.ID, Created: true}
		} else {
			ann.ID = existing.ID
			ann.CreatedAt = existing.CreatedAt
			ann.UpdatedAt = time.Now()
			if err := tx.Omit("Attachments").Save(ann).Error; err != nil {
				return err
			}
			result = UpsertResult{ID: ann.ID, Created: false}
		}

		if err := tx.Where("announcement_id = ?", ann.ID).Delete(&domain.Attachment{}).Error; err != nil {
			return err
		}
		for i := range attachments {
			attachments[i].AnnouncementID = ann.ID
			if attachments[i].ID == "" {
				attachments[i].ID = uuid.New().String()
			}
		}
		if len(attachments) > 0 {
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return result, nil
}

func findByNaturalKeyTx(tx *gorm.DB, sourceID, externalID, name, organization string) (*domain.Announcement, error) {
	var ann domain.Announcement
	query := tx
	if externalID != "" {
		query = query.Where("source_id = ? AND external_id = ?", sourceID, externalID)
	} else {
		query = query.Where("source_id = ? AND name = ? AND organization = ?", sourceID, name, organization)
	}
	if err := query.First(&ann).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ann, nil
}

// GetByID retrieves an announcement with its attachments preloaded.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: announcement ID.
// Returns:
//   - *domain.Announcement: record if found.
//   - error: non-nil if the lookup fails.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	var ann domain.Announcement
	if err := r.db.WithContext(ctx).Preload("Attachments").First(&ann, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ann, nil
}

// List retrieves announcements newest first with optional filters.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: filter by source, empty means all.
//   - category: filter by category, empty means all.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Announcement: matching records.
//   - error: non-nil if the query fails.
func (r *AnnouncementRepository) List(ctx context.Context, sourceID, category string, limit, offset int) ([]domain.Announcement, error) {
	var anns []domain.Announcement
	query := r.db.WithContext(ctx)
	if sourceID != "" {
		query = query.Where("source_id = ?", sourceID)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.
		Order("posted_at DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&anns).Error; err != nil {
		return nil, err
	}
	return anns, nil
}

// Count counts announcements, optionally restricted to one source.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: filter by source, empty means all.
// Returns:
//   - int64: number of matching records.
//   - error: non-nil if the query fails.
func (r *AnnouncementRepository) Count(ctx context.Context, sourceID string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Announcement{})
	if sourceID != "" {
		query = query.Where("source_id = ?", sourceID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListAttachments retrieves the attachments of one announcement ordered by
// descending priority.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - announcementID: owning announcement ID.
// Returns:
//   - []domain.Attachment: attachment records.
//   - error: non-nil if the query fails.
func (r *AnnouncementRepository) ListAttachments(ctx context.Context, announcementID string) ([]domain.Attachment, error) {
	var atts []domain.Attachment
	if err := r.db.WithContext(ctx).
		Where("announcement_id = ?", announcementID).
		Order("priority DESC").
		Find(&atts).Error; err != nil {
		return nil, err
	}
	return atts, nil
}

// Delete removes an announcement; attachments go with it via cascade.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: announcement ID to delete.
// Returns:
//   - error: non-nil if the delete fails.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("announcement_id = ?", id).Delete(&domain.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Announcement{}, "id = ?", id).Error
	})
}
