package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyunsoo/bizharvest/internal/domain"
	"github.com/hyunsoo/bizharvest/internal/repository"
	"github.com/hyunsoo/bizharvest/internal/source"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakePortal serves scripted listing pages and records which were fetched.
type fakePortal struct {
	pages   map[int][]source.ListingItem
	fetched []int
	err     map[int]error
}

func (p *fakePortal) ID() string      { return "fake" }
func (p *fakePortal) Name() string    { return "Fake Portal" }
func (p *fakePortal) BaseURL() string { return "https://fake.example" }

func (p *fakePortal) FetchPage(_ context.Context, page int) ([]source.ListingItem, error) {
	p.fetched = append(p.fetched, page)
	if err := p.err[page]; err != nil {
		return nil, err
	}
	return p.pages[page], nil
}

// fakeProcessor records processed items and scripts created/updated results.
type fakeProcessor struct {
	processed []source.ListingItem
	created   map[string]bool
	err       error
}

func (f *fakeProcessor) ProcessItem(_ context.Context, _ string, item source.ListingItem) (repository.UpsertResult, error) {
	f.processed = append(f.processed, item)
	if f.err != nil {
		return repository.UpsertResult{}, f.err
	}
	return repository.UpsertResult{ID: item.DetailURL, Created: f.created[item.DetailURL]}, nil
}

func newCrawlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestController(t *testing.T, db *gorm.DB, processor ItemProcessor, cfg Config) *Controller {
	t.Helper()
	return New(
		repository.NewCrawlJobRepository(db),
		repository.NewSourceRepository(db),
		processor,
		nil,
		cfg,
	)
}

func recentItem(url string) source.ListingItem {
	now := time.Now()
	return source.ListingItem{Title: "t", Organization: "o", DetailURL: url, PostedAt: &now}
}

func staleItem(url string) source.ListingItem {
	old := time.Now().Add(-72 * time.Hour)
	return source.ListingItem{Title: "t", Organization: "o", DetailURL: url, PostedAt: &old}
}

func registerFakeSource(t *testing.T, db *gorm.DB) {
	t.Helper()
	repo := repository.NewSourceRepository(db)
	err := repo.Upsert(context.Background(), &domain.Source{
		ID: "fake", Name: "Fake Portal", BaseURL: "https://fake.example", Strategy: "fake", IsEnabled: true,
	})
	if err != nil {
		t.Fatalf("failed to register source: %v", err)
	}
}

func TestRunStopsAfterTwoConsecutiveEmptyPages(t *testing.T) {
	db := newCrawlerTestDB(t)
	registerFakeSource(t, db)

	portal := &fakePortal{pages: map[int][]source.ListingItem{
		1: {recentItem("https://fake.example/1")},
		2: {staleItem("https://fake.example/2")},
		3: {},
		4: {recentItem("https://fake.example/4")}, // must never be reached
	}}
	proc := &fakeProcessor{created: map[string]bool{"https://fake.example/1": true}}
	ctrl := newTestController(t, db, proc, Config{MaxPages: 10, MaxItems: 100})

	job, err := ctrl.Run(context.Background(), portal)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Pages 2 and 3 yield zero surviving items, so the loop must stop
	// exactly two pages past the last non-empty page.
	if len(portal.fetched) != 3 {
		t.Errorf("expected 3 pages fetched, got %v", portal.fetched)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Errorf("expected completed, got %q", job.Status)
	}
	if job.FoundCount != 1 || job.NewCount != 1 || job.UpdatedCount != 0 {
		t.Errorf("unexpected counts: found=%d new=%d updated=%d", job.FoundCount, job.NewCount, job.UpdatedCount)
	}
}

func TestRunHonorsMaxPages(t *testing.T) {
	db := newCrawlerTestDB(t)
	registerFakeSource(t, db)

	pages := map[int][]source.ListingItem{}
	for p := 1; p <= 10; p++ {
		pages[p] = []source.ListingItem{recentItem("https://fake.example/p" + string(rune('0'+p)))}
	}
	portal := &fakePortal{pages: pages}
	proc := &fakeProcessor{}
	ctrl := newTestController(t, db, proc, Config{MaxPages: 3, MaxItems: 100})

	job, err := ctrl.Run(context.Background(), portal)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(portal.fetched) != 3 {
		t.Errorf("expected MaxPages=3 pages fetched, got %v", portal.fetched)
	}
	if job.FoundCount != 3 {
		t.Errorf("expected 3 found, got %d", job.FoundCount)
	}
}

func TestRunHonorsMaxItems(t *testing.T) {
	db := newCrawlerTestDB(t)
	registerFakeSource(t, db)

	portal := &fakePortal{pages: map[int][]source.ListingItem{
		1: {recentItem("a"), recentItem("b"), recentItem("c"), recentItem("d")},
	}}
	proc := &fakeProcessor{}
	ctrl := newTestController(t, db, proc, Config{MaxPages: 5, MaxItems: 2})

	job, err := ctrl.Run(context.Background(), portal)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if job.FoundCount != 2 {
		t.Errorf("expected item budget of 2, got %d", job.FoundCount)
	}
	if len(proc.processed) != 2 {
		t.Errorf("expected 2 processed items, got %d", len(proc.processed))
	}
}

func TestRunKeepsPartialResultsOnPageFetchFailure(t *testing.T) {
	db := newCrawlerTestDB(t)
	registerFakeSource(t, db)

	portal := &fakePortal{
		pages: map[int][]source.ListingItem{1: {recentItem("https://fake.example/1")}},
		err:   map[int]error{2: errors.New("connection reset")},
	}
	proc := &fakeProcessor{created: map[string]bool{"https://fake.example/1": true}}
	ctrl := newTestController(t, db, proc, Config{MaxPages: 5, MaxItems: 100})

	job, err := ctrl.Run(context.Background(), portal)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Errorf("page fetch failure must end the job gracefully, got %q", job.Status)
	}
	if job.FoundCount != 1 || job.NewCount != 1 {
		t.Errorf("partial results lost: found=%d new=%d", job.FoundCount, job.NewCount)
	}
}

func TestRunAdvancesWatermarkOnlyOnSuccess(t *testing.T) {
	db := newCrawlerTestDB(t)
	registerFakeSource(t, db)

	portal := &fakePortal{pages: map[int][]source.ListingItem{1: {}, 2: {}}}
	ctrl := newTestController(t, db, &fakeProcessor{}, Config{MaxPages: 5, MaxItems: 10})

	if _, err := ctrl.Run(context.Background(), portal); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	src, err := repository.NewSourceRepository(db).GetByID(context.Background(), "fake")
	if err != nil {
		t.Fatalf("failed to load source: %v", err)
	}
	if src.LastCrawledAt == nil {
		t.Error("expected lastCrawled to advance after a completed job")
	}

	// A cancelled run must not advance the watermark further.
	before := *src.LastCrawledAt
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ctrl.Run(cancelled, portal); err == nil {
		t.Fatal("expected cancelled run to fail")
	}
	src, err = repository.NewSourceRepository(db).GetByID(context.Background(), "fake")
	if err != nil {
		t.Fatalf("failed to reload source: %v", err)
	}
	if !src.LastCrawledAt.Equal(before) {
		t.Error("failed run advanced lastCrawled")
	}
}

// cancellingProcessor cancels the crawl context from inside item
// processing, mimicking an operator interrupt mid-job.
type cancellingProcessor struct {
	cancel context.CancelFunc
}

func (c *cancellingProcessor) ProcessItem(_ context.Context, _ string, item source.ListingItem) (repository.UpsertResult, error) {
	c.cancel()
	return repository.UpsertResult{ID: item.DetailURL, Created: true}, nil
}

func TestRunMarksJobFailedWhenCancelledMidCrawl(t *testing.T) {
	db := newCrawlerTestDB(t)
	registerFakeSource(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portal := &fakePortal{pages: map[int][]source.ListingItem{
		1: {recentItem("https://fake.example/1")},
		2: {recentItem("https://fake.example/2")},
	}}
	ctrl := newTestController(t, db, &cancellingProcessor{cancel: cancel}, Config{MaxPages: 5, MaxItems: 10})

	job, err := ctrl.Run(ctx, portal)
	if err == nil {
		t.Fatal("expected cancelled run to fail")
	}
	if job == nil {
		t.Fatal("expected a job record for a run cancelled mid-crawl")
	}

	// The terminal write happens after cancellation, so it must reach the
	// database anyway; a row stuck in running would be invisible to the
	// status surface.
	jobs := repository.NewCrawlJobRepository(db)
	stored, err := jobs.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("failed to reload job: %v", err)
	}
	if stored.Status != domain.JobStatusFailed {
		t.Errorf("stored status = %q, want %q", stored.Status, domain.JobStatusFailed)
	}
}

func TestRunItemFailureDoesNotAbortJob(t *testing.T) {
	db := newCrawlerTestDB(t)
	registerFakeSource(t, db)

	portal := &fakePortal{pages: map[int][]source.ListingItem{
		1: {recentItem("a"), recentItem("b")},
	}}
	proc := &fakeProcessor{err: errors.New("detail page unreachable")}
	ctrl := newTestController(t, db, proc, Config{MaxPages: 1, MaxItems: 10})

	job, err := ctrl.Run(context.Background(), portal)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Errorf("item failures must not fail the job, got %q", job.Status)
	}
	if job.FoundCount != 2 || job.NewCount != 0 || job.UpdatedCount != 0 {
		t.Errorf("unexpected counts: found=%d new=%d updated=%d", job.FoundCount, job.NewCount, job.UpdatedCount)
	}
}
