package domain

import "time"

// Announcement represents a harvested government support-program listing.
// The natural key is ExternalID when the portal provides stable IDs,
// otherwise the (Name, Organization) pair. Exactly one row exists per
// natural key; a re-crawl updates the row in place.
type Announcement struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	SourceID     string     `gorm:"type:text;not null;index" json:"source_id"`
	ExternalID   string     `gorm:"type:text;index:idx_announcements_external,unique,where:external_id <> ''" json:"external_id,omitempty"`
	Name         string     `gorm:"type:text;not null;index:idx_announcements_name_org" json:"name"`
	Organization string     `gorm:"type:text;index:idx_announcements_name_org" json:"organization"`
	Category     string     `gorm:"type:text" json:"category,omitempty"`
	Region       string     `gorm:"type:text" json:"region,omitempty"`
	DetailURL    string     `gorm:"type:text" json:"detail_url"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	ApplyStart   *time.Time `json:"apply_start,omitempty"`
	ApplyEnd     *time.Time `json:"apply_end,omitempty"`

	Attachments []Attachment `gorm:"foreignKey:AnnouncementID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Announcement.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Announcement) TableName() string {
	return "announcements"
}
