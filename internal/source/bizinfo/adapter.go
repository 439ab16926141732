// Package bizinfo crawls the Bizinfo (기업마당) support-program portal.
package bizinfo

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyunsoo/bizharvest/internal/fetch"
	"github.com/hyunsoo/bizharvest/internal/source"
)

const (
	PortalID   = "bizinfo"
	PortalName = "기업마당"

	// Listing page of active support-program announcements.
	listPath = "/web/lay1/bbs/S1T122C128/AS/74/list.do"
)

// Adapter implements the Portal interface for Bizinfo.
// The listing is a plain table: number, category, title, organization,
// posted date. Selectors track the portal markup and fail soft, skipping
// rows that do not carry a title link.
type Adapter struct {
	baseURL string
	client  *fetch.Client
}

// NewAdapter creates a Bizinfo portal adapter.
// Parameters:
//   - baseURL: portal root, e.g. https://www.bizinfo.go.kr.
//   - client: shared transport client.
// Returns:
//   - *Adapter: adapter instance.
func NewAdapter(baseURL string, client *fetch.Client) *Adapter {
	return &Adapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// ID returns the unique identifier for this portal
func (a *Adapter) ID() string {
	return PortalID
}

// Name returns a human-readable name for this portal
func (a *Adapter) Name() string {
	return PortalName
}

// BaseURL returns the portal's root URL
func (a *Adapter) BaseURL() string {
	return a.baseURL
}

// FetchPage fetches and parses one listing page.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - page: 1-based page index.
// Returns:
//   - []source.ListingItem: parsed announcement rows.
//   - error: non-nil if the fetch or parse fails.
func (a *Adapter) FetchPage(ctx context.Context, page int) ([]source.ListingItem, error) {
	pageURL := fmt.Sprintf("%s%s?cpage=%d", a.baseURL, listPath, page)

	body, err := a.client.Fetch(ctx, pageURL, fetch.KindPage, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page %d: %w", page, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page %d: %w", page, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL: %w", err)
	}

	var items []source.ListingItem
	doc.Find("div.table_Ty1 table tbody tr, table.table_Ty1 tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		link := cells.Eq(2).Find("a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		detail := base.ResolveReference(ref)

		items = append(items, source.ListingItem{
			ExternalID:   detail.Query().Get("pblancId"),
			Title:        strings.TrimSpace(link.Text()),
			Category:     strings.TrimSpace(cells.Eq(1).Text()),
			Organization: strings.TrimSpace(cells.Eq(3).Text()),
			DetailURL:    detail.String(),
			PostedAt:     source.ParseDate(cells.Eq(4).Text()),
		})
	})

	return items, nil
}
