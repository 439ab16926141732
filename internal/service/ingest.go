package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyunsoo/bizharvest/internal/classify"
	"github.com/hyunsoo/bizharvest/internal/domain"
	"github.com/hyunsoo/bizharvest/internal/extract"
	"github.com/hyunsoo/bizharvest/internal/fetch"
	"github.com/hyunsoo/bizharvest/internal/hangul"
	"github.com/hyunsoo/bizharvest/internal/logger"
	"github.com/hyunsoo/bizharvest/internal/repository"
	"github.com/hyunsoo/bizharvest/internal/source"
	"github.com/hyunsoo/bizharvest/internal/storage"
	"github.com/hyunsoo/bizharvest/internal/textract"
)

// IngestService turns one listing item into persisted Announcement and
// Attachment records: detail fetch, attachment discovery, per-attachment
// download/classify/repair/store/extract, then a transactional upsert.
// A failed attachment is recorded on its own row and never aborts its
// siblings or the parent announcement.
type IngestService struct {
	annRepo   *repository.AnnouncementRepository
	storage   storage.BlobStorage
	client    *fetch.Client
	extractor *extract.Extractor
	textract  *textract.Extractor
	repair    *hangul.Engine
	logger    *logger.Logger
	fileDelay time.Duration
}

// IngestConfig holds configuration for the ingest service
type IngestConfig struct {
	FileDelay time.Duration // pause between attachment downloads
}

// NewIngestService creates a new ingest service.
// Parameters:
//   - annRepo: announcement repository.
//   - blobStore: attachment blob storage.
//   - client: shared transport client.
//   - extractor: detail-page attachment link extractor.
//   - textExtractor: document text extraction adapter.
//   - repair: encoding recovery engine.
//   - log: logger; nil uses the default logger.
//   - cfg: service configuration.
// Returns:
//   - *IngestService: initialized service.
func NewIngestService(
	annRepo *repository.AnnouncementRepository,
	blobStore storage.BlobStorage,
	client *fetch.Client,
	extractor *extract.Extractor,
	textExtractor *textract.Extractor,
	repair *hangul.Engine,
	log *logger.Logger,
	cfg *IngestConfig,
) *IngestService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &IngestService{
		annRepo:   annRepo,
		storage:   blobStore,
		client:    client,
		extractor: extractor,
		textract:  textExtractor,
		repair:    repair,
		logger:    log,
		fileDelay: cfg.FileDelay,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// ProcessItem ingests one listing item end to end.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: owning source ID.
//   - item: listing item discovered by the crawl loop.
// Returns:
//   - repository.UpsertResult: stored row ID and created/updated flag.
//   - error: non-nil when the announcement itself could not be ingested.
func (s *IngestService) ProcessItem(ctx context.Context, sourceID string, item source.ListingItem) (repository.UpsertResult, error) {
	log := s.log(ctx).WithFields(logger.Fields{
		"source":      sourceID,
		"external_id": item.ExternalID,
	})

	ann := domain.Announcement{
		SourceID:     sourceID,
		ExternalID:   item.ExternalID,
		Name:         s.repair.Repair(item.Title),
		Organization: s.repair.Repair(item.Organization),
		Category:     item.Category,
		Region:       item.Region,
		DetailURL:    item.DetailURL,
		PostedAt:     item.PostedAt,
	}

	// The storage path is keyed by announcement ID, so the ID must be
	// settled before any attachment is uploaded.
	existing, err := s.annRepo.FindByNaturalKey(ctx, sourceID, ann.ExternalID, ann.Name, ann.Organization)
	if err != nil {
		return repository.UpsertResult{}, fmt.Errorf("failed to look up announcement: %w", err)
	}
	if existing != nil {
		ann.ID = existing.ID
	} else {
		ann.ID = uuid.New().String()
	}

	pageHTML, err := s.client.Fetch(ctx, item.DetailURL, fetch.KindPage, nil)
	if err != nil {
		return repository.UpsertResult{}, fmt.Errorf("failed to fetch detail page: %w", err)
	}

	links, err := s.extractor.AttachmentLinks(pageHTML, item.DetailURL)
	if err != nil {
		return repository.UpsertResult{}, fmt.Errorf("failed to extract attachment links: %w", err)
	}

	// Rank every link before the first download so the most informative
	// documents are fetched and stored first. Ties keep discovery order.
	candidates := make([]attachmentCandidate, 0, len(links))
	for _, link := range links {
		name := s.repair.Repair(displayName(link))
		candidates = append(candidates, attachmentCandidate{
			link:     link,
			name:     name,
			decision: classify.Evaluate(name),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].decision.Priority > candidates[j].decision.Priority
	})

	attachments := make([]domain.Attachment, 0, len(candidates))
	downloads := 0
	for _, cand := range candidates {
		if !cand.decision.ShouldParse {
			// Ineligible files are recorded by reference only.
			attachments = append(attachments, domain.Attachment{
				FileName:  cand.name,
				Format:    domain.FileFormatUnknown,
				SourceURL: cand.link.URL,
				Priority:  cand.decision.Priority,
			})
			continue
		}
		if downloads > 0 && s.fileDelay > 0 {
			select {
			case <-ctx.Done():
				return repository.UpsertResult{}, ctx.Err()
			case <-time.After(s.fileDelay):
			}
		}
		downloads++
		attachments = append(attachments, s.processAttachment(ctx, ann.ID, item.DetailURL, cand))
	}

	result, err := s.annRepo.Upsert(ctx, &ann, attachments)
	if err != nil {
		return repository.UpsertResult{}, fmt.Errorf("failed to upsert announcement: %w", err)
	}

	log.WithFields(logger.Fields{
		"announcement_id": result.ID,
		"created":         result.Created,
		"attachments":     len(attachments),
	}).Info("Announcement ingested")

	return result, nil
}

// attachmentCandidate is a discovered link with its repaired display name
// and pre-download verdict.
type attachmentCandidate struct {
	link     extract.Link
	name     string
	decision classify.Decision
}

// processAttachment runs the per-attachment download pipeline. Every
// failure path returns a record carrying the error instead of propagating
// it, so one bad file never costs the announcement its other attachments.
func (s *IngestService) processAttachment(ctx context.Context, announcementID, detailURL string, cand attachmentCandidate) domain.Attachment {
	att := domain.Attachment{
		FileName:    cand.name,
		Format:      domain.FileFormatUnknown,
		SourceURL:   cand.link.URL,
		Priority:    cand.decision.Priority,
		ShouldParse: true,
	}

	data, err := s.client.Fetch(ctx, cand.link.URL, fetch.KindFile, &fetch.RequestContext{Referer: detailURL})
	if err != nil {
		att.ParseError = fmt.Sprintf("download failed: %v", err)
		s.log(ctx).WithError(err).WithField("url", cand.link.URL).Warn("Attachment download failed")
		return att
	}

	att.FileSize = int64(len(data))
	att.Format = classify.DetectFormat(data)
	if att.Format == domain.FileFormatUnknown {
		// Unknown formats are kept out of blob storage by policy.
		att.ParseError = "unrecognized file format"
		return att
	}

	key := fmt.Sprintf("announcements/%s/%s%s", announcementID, uuid.New().String(), formatExtension(att.Format))
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), formatContentType(att.Format)); err != nil {
		att.ParseError = fmt.Sprintf("storage upload failed: %v", err)
		s.log(ctx).WithError(err).WithField("storage_key", key).Warn("Attachment upload failed")
		return att
	}
	att.StorageKey = key

	text, err := s.textract.Extract(ctx, data, att.Format)
	switch {
	case err == nil && text != "":
		att.ExtractedText = text
		att.IsParsed = true
	case err == nil:
		// A parsed but empty document stays unparsed per the invariant.
	case errors.Is(err, textract.ErrUnsupportedFormat):
		att.ParseError = err.Error()
	default:
		att.ParseError = fmt.Sprintf("text extraction failed: %v", err)
		s.log(ctx).WithError(err).WithField("storage_key", key).Warn("Text extraction failed")
	}

	return att
}

// displayName derives an attachment's display name from the link text,
// falling back to the URL's path segment or a query filename parameter.
func displayName(link extract.Link) string {
	if name := strings.TrimSpace(link.Text); name != "" {
		return name
	}
	u, err := url.Parse(link.URL)
	if err != nil {
		return link.URL
	}
	for _, param := range []string{"fileName", "file_name", "atchFileNm"} {
		if v := u.Query().Get(param); v != "" {
			return v
		}
	}
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return link.URL
}

func formatExtension(format domain.FileFormat) string {
	switch format {
	case domain.FileFormatPDF:
		return ".pdf"
	case domain.FileFormatHWP:
		return ".hwp"
	case domain.FileFormatHWPX:
		return ".hwpx"
	default:
		return ".bin"
	}
}

func formatContentType(format domain.FileFormat) string {
	switch format {
	case domain.FileFormatPDF:
		return "application/pdf"
	case domain.FileFormatHWP:
		return "application/x-hwp"
	case domain.FileFormatHWPX:
		return "application/hwp+zip"
	default:
		return "application/octet-stream"
	}
}
