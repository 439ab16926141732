package source

import (
	"context"
	"strings"
	"time"
)

// ListingItem represents one announcement row parsed from a portal's
// listing page. PostedAt is nil when the portal omits or mangles the date;
// the recency filter treats such items as fresh rather than dropping them.
type ListingItem struct {
	ExternalID   string // Portal-assigned stable ID, may be empty
	Title        string
	Organization string
	Category     string
	Region       string
	DetailURL    string // Absolute URL of the detail page
	PostedAt     *time.Time
}

// Portal defines the interface for government support-program portals.
type Portal interface {
	// ID returns the unique identifier for this portal.
	// Parameters: none.
	// Returns:
	//   - string: stable portal identifier, used as the Source ID.
	ID() string

	// Name returns a human-readable name for this portal.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly portal name.
	Name() string

	// BaseURL returns the portal's root URL.
	// Parameters: none.
	// Returns:
	//   - string: absolute base URL.
	BaseURL() string

	// FetchPage fetches and parses one listing page.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - page: 1-based page index.
	// Returns:
	//   - []ListingItem: parsed announcement rows, empty past the last page.
	//   - error: non-nil if the fetch or parse fails.
	FetchPage(ctx context.Context, page int) ([]ListingItem, error)
}

// kst is the zone government portals report upload dates in. A fixed zone
// keeps behavior identical on hosts without tzdata.
var kst = time.FixedZone("KST", 9*60*60)

var dateLayouts = []string{
	"2006-01-02 15:04",
	"2006.01.02 15:04",
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
}

// ParseDate parses a portal-reported date string in Korea Standard Time.
// Parameters:
//   - s: raw date text from a listing cell.
// Returns:
//   - *time.Time: parsed time in KST, nil when s matches no known layout.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, kst); err == nil {
			return &t
		}
	}
	return nil
}
