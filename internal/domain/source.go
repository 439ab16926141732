package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SourceConfig is a custom type for storing per-source JSON config in the database.
type SourceConfig map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the config.
//   - error: non-nil if marshaling fails.
func (c SourceConfig) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (c *SourceConfig) Scan(value interface{}) error {
	if value == nil {
		*c = SourceConfig{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan SourceConfig")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, c)
}

// Source represents a crawl target portal configuration record.
// LastCrawledAt is advanced by the crawl controller only when a job
// completes successfully.
type Source struct {
	ID            string       `gorm:"type:text;primaryKey" json:"id"`
	Name          string       `gorm:"type:text;not null" json:"name"`
	BaseURL       string       `gorm:"type:text;not null" json:"base_url"`
	Strategy      string       `gorm:"type:text;not null" json:"strategy"`
	Config        SourceConfig `gorm:"type:text" json:"config"`
	LastCrawledAt *time.Time   `json:"last_crawled_at,omitempty"`
	IsEnabled     bool         `gorm:"default:true" json:"is_enabled"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Source.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Source) TableName() string {
	return "sources"
}
