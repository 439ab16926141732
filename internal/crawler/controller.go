// Package crawler drives a crawl job across a portal's listing pages:
// pagination, recency filtering, stop conditions, and job bookkeeping.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/hyunsoo/bizharvest/internal/domain"
	"github.com/hyunsoo/bizharvest/internal/logger"
	"github.com/hyunsoo/bizharvest/internal/repository"
	"github.com/hyunsoo/bizharvest/internal/source"
)

// ItemProcessor ingests one surviving listing item. Implemented by the
// ingest service; a fake stands in for it in controller tests.
type ItemProcessor interface {
	ProcessItem(ctx context.Context, sourceID string, item source.ListingItem) (repository.UpsertResult, error)
}

// Config holds the crawl-loop budgets and pacing delays.
type Config struct {
	MaxPages      int           // page budget per job
	MaxItems      int           // item budget per job
	RecencyWindow time.Duration // items older than now minus this are dropped
	PageDelay     time.Duration // pause between listing page fetches
	DetailDelay   time.Duration // pause between item detail fetches
}

func (c *Config) applyDefaults() {
	if c.MaxPages <= 0 {
		c.MaxPages = 5
	}
	if c.MaxItems <= 0 {
		c.MaxItems = 50
	}
	if c.RecencyWindow <= 0 {
		c.RecencyWindow = 28 * time.Hour
	}
}

// Controller runs crawl jobs. One controller may run jobs for several
// portals, but each Run call is a single sequential flow of control.
type Controller struct {
	jobs      *repository.CrawlJobRepository
	sources   *repository.SourceRepository
	processor ItemProcessor
	logger    *logger.Logger
	cfg       Config
}

// New creates a crawl controller.
// Parameters:
//   - jobs: crawl job repository.
//   - sources: source registry repository.
//   - processor: per-item ingest pipeline.
//   - log: logger; nil uses the default logger.
//   - cfg: loop configuration; zero fields take defaults.
// Returns:
//   - *Controller: initialized controller.
func New(jobs *repository.CrawlJobRepository, sources *repository.SourceRepository, processor ItemProcessor, log *logger.Logger, cfg Config) *Controller {
	cfg.applyDefaults()
	if log == nil {
		log = logger.GetDefault()
	}
	return &Controller{
		jobs:      jobs,
		sources:   sources,
		processor: processor,
		logger:    log,
		cfg:       cfg,
	}
}

// Run executes one crawl job for a portal: pending, running, then completed
// or failed. A listing page fetch failure ends the loop gracefully and
// keeps the records already ingested; only a failure of the controller's
// own bookkeeping marks the job failed. The source's lastCrawled watermark
// advances only when the job completes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - portal: portal to crawl.
// Returns:
//   - *domain.CrawlJob: terminal job record with final counts.
//   - error: non-nil when the job could not run or ended failed.
func (c *Controller) Run(ctx context.Context, portal source.Portal) (*domain.CrawlJob, error) {
	job, err := c.jobs.Create(ctx, portal.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to create crawl job: %w", err)
	}
	if err := c.jobs.MarkRunning(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to start crawl job: %w", err)
	}

	log := c.logger.WithFields(logger.Fields{
		"source": portal.ID(),
		"job_id": job.ID,
	})
	log.Info("Crawl job started")

	// Terminal bookkeeping must land even when the crawl context is
	// already cancelled, or the job row is stranded in running.
	bookCtx := context.WithoutCancel(ctx)

	if err := c.runLoop(ctx, portal, job, log); err != nil {
		if failErr := c.jobs.MarkFailed(bookCtx, job, err.Error()); failErr != nil {
			log.WithError(failErr).Error("Failed to record job failure")
		}
		log.WithError(err).Error("Crawl job failed")
		return job, err
	}

	if err := c.jobs.MarkCompleted(bookCtx, job); err != nil {
		return job, fmt.Errorf("failed to complete crawl job: %w", err)
	}
	if err := c.sources.UpdateLastCrawled(bookCtx, portal.ID(), time.Now()); err != nil {
		log.WithError(err).Error("Failed to advance lastCrawled watermark")
	}

	log.WithFields(logger.Fields{
		"found":   job.FoundCount,
		"new":     job.NewCount,
		"updated": job.UpdatedCount,
	}).Info("Crawl job completed")

	return job, nil
}

func (c *Controller) runLoop(ctx context.Context, portal source.Portal, job *domain.CrawlJob, log *logger.Logger) error {
	cutoff := time.Now().Add(-c.cfg.RecencyWindow)
	emptyStreak := 0

	for page := 1; page <= c.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl aborted: %w", err)
		}
		if page > 1 && c.cfg.PageDelay > 0 {
			if err := sleep(ctx, c.cfg.PageDelay); err != nil {
				return err
			}
		}

		items, err := portal.FetchPage(ctx, page)
		if err != nil {
			// The retries inside the transport client are already spent.
			// Keep what this job collected so far.
			log.WithError(err).WithField("page", page).Warn("Listing page fetch failed, ending crawl with partial results")
			return nil
		}

		surviving := filterRecent(items, cutoff)
		log.WithFields(logger.Fields{
			"page":      page,
			"items":     len(items),
			"surviving": len(surviving),
		}).Debug("Listing page processed")

		if len(surviving) == 0 {
			emptyStreak++
			if emptyStreak >= 2 {
				// The recency window has been fully paged past.
				return nil
			}
			continue
		}
		emptyStreak = 0

		for i, item := range surviving {
			if job.FoundCount >= c.cfg.MaxItems {
				return nil
			}
			if i > 0 && c.cfg.DetailDelay > 0 {
				if err := sleep(ctx, c.cfg.DetailDelay); err != nil {
					return err
				}
			}

			job.FoundCount++
			result, err := c.processor.ProcessItem(ctx, portal.ID(), item)
			if err != nil {
				// One bad announcement never costs the job.
				log.WithError(err).WithField("detail_url", item.DetailURL).Warn("Failed to ingest announcement")
				continue
			}
			if result.Created {
				job.NewCount++
			} else {
				job.UpdatedCount++
			}
		}
	}

	return nil
}

// filterRecent keeps items whose portal-reported date falls inside the
// recency window. Items without a parseable date are kept; dropping them
// would silently lose announcements from portals with odd date formats.
func filterRecent(items []source.ListingItem, cutoff time.Time) []source.ListingItem {
	out := items[:0:0]
	for _, item := range items {
		if item.PostedAt == nil || !item.PostedAt.Before(cutoff) {
			out = append(out, item)
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("crawl aborted: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}
