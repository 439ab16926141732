package domain

import "time"

// FileFormat is the detected document format of an attachment, derived from
// magic bytes rather than the claimed file extension.
type FileFormat string

const (
	FileFormatPDF     FileFormat = "pdf"
	FileFormatHWP     FileFormat = "hwp"
	FileFormatHWPX    FileFormat = "hwpx"
	FileFormatUnknown FileFormat = "unknown"
)

// Attachment represents a file associated with an Announcement.
// StorageKey is empty when the file was intentionally not persisted
// (ShouldParse=false). IsParsed=true implies ExtractedText is non-empty.
// Attachment sets are replaced wholesale on re-crawl, never versioned.
type Attachment struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	AnnouncementID string     `gorm:"type:text;not null;index:idx_attachments_announcement" json:"announcement_id"`
	FileName       string     `gorm:"type:text;not null" json:"file_name"`
	Format         FileFormat `gorm:"type:text;default:unknown" json:"format"`
	FileSize       int64      `gorm:"default:0" json:"file_size"`
	StorageKey     string     `gorm:"type:text" json:"storage_key,omitempty"`
	SourceURL      string     `gorm:"type:text;not null" json:"source_url"`
	Priority       int        `gorm:"default:0" json:"priority"`
	ShouldParse    bool       `gorm:"default:false" json:"should_parse"`
	IsParsed       bool       `gorm:"default:false" json:"is_parsed"`
	ExtractedText  string     `gorm:"type:text" json:"extracted_text,omitempty"`
	ParseError     string     `gorm:"type:text" json:"parse_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName returns the database table name for Attachment.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Attachment) TableName() string {
	return "attachments"
}
