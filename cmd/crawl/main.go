package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyunsoo/bizharvest/internal/config"
	"github.com/hyunsoo/bizharvest/internal/crawler"
	"github.com/hyunsoo/bizharvest/internal/domain"
	"github.com/hyunsoo/bizharvest/internal/extract"
	"github.com/hyunsoo/bizharvest/internal/fetch"
	"github.com/hyunsoo/bizharvest/internal/hangul"
	"github.com/hyunsoo/bizharvest/internal/logger"
	"github.com/hyunsoo/bizharvest/internal/repository"
	"github.com/hyunsoo/bizharvest/internal/service"
	"github.com/hyunsoo/bizharvest/internal/source"
	"github.com/hyunsoo/bizharvest/internal/source/bizinfo"
	"github.com/hyunsoo/bizharvest/internal/source/kstartup"
	"github.com/hyunsoo/bizharvest/internal/storage"
	"github.com/hyunsoo/bizharvest/internal/textract"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "bizharvest-crawl",
	})
	logger.SetDefaultLogger(appLogger)

	sourceFlag := flag.String("source", "", "Crawl a single portal (bizinfo, kstartup); empty crawls all enabled")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blobStore, err := storage.NewFromConfig(ctx, &storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	client := fetch.New(fetch.Config{
		RequestTimeout: cfg.Crawl.RequestTimeout,
		FileTimeout:    cfg.Crawl.FileTimeout,
		MaxFileSize:    cfg.Crawl.MaxFileSize,
		UserAgent:      cfg.Crawl.UserAgent,
	}, appLogger)

	ingest := service.NewIngestService(
		repository.NewAnnouncementRepository(db),
		blobStore,
		client,
		extract.New(),
		textract.New(&textract.Config{
			BaseURL:     cfg.Parser.BaseURL,
			APIKey:      cfg.Parser.APIKey,
			Timeout:     cfg.Parser.Timeout,
			MaxTextSize: cfg.Parser.MaxTextSize,
		}, appLogger),
		hangul.NewEngine(nil),
		appLogger,
		&service.IngestConfig{
			FileDelay: time.Duration(cfg.Crawl.FileDelayMs) * time.Millisecond,
		},
	)

	srcRepo := repository.NewSourceRepository(db)
	ctrl := crawler.New(
		repository.NewCrawlJobRepository(db),
		srcRepo,
		ingest,
		appLogger,
		crawler.Config{
			MaxPages:      cfg.Crawl.MaxPages,
			MaxItems:      cfg.Crawl.MaxProjects,
			RecencyWindow: time.Duration(cfg.Crawl.HoursFilter) * time.Hour,
			PageDelay:     time.Duration(cfg.Crawl.PageDelayMs) * time.Millisecond,
			DetailDelay:   time.Duration(cfg.Crawl.DetailDelayMs) * time.Millisecond,
		},
	)

	portals := buildPortals(cfg, client)
	if *sourceFlag != "" {
		portal, ok := portals[*sourceFlag]
		if !ok {
			appLogger.WithField("source", *sourceFlag).Fatal("Unknown portal")
		}
		portals = map[string]source.Portal{*sourceFlag: portal}
	}

	// Register portals so jobs and the watermark have a source row.
	for _, portal := range portals {
		err := srcRepo.Upsert(ctx, &domain.Source{
			ID:        portal.ID(),
			Name:      portal.Name(),
			BaseURL:   portal.BaseURL(),
			Strategy:  portal.ID(),
			IsEnabled: true,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to register source")
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	exitCode := 0
	for id, portal := range portals {
		job, err := ctrl.Run(ctx, portal)
		if err != nil {
			appLogger.WithError(err).WithField("source", id).Error("Crawl failed")
			exitCode = 1
			if ctx.Err() != nil {
				break
			}
			continue
		}
		appLogger.WithFields(logger.Fields{
			"source":  id,
			"job_id":  job.ID,
			"found":   job.FoundCount,
			"new":     job.NewCount,
			"updated": job.UpdatedCount,
		}).Info("Crawl finished")
	}
	os.Exit(exitCode)
}

func buildPortals(cfg *config.Config, client *fetch.Client) map[string]source.Portal {
	portals := map[string]source.Portal{}
	if cfg.Sources.Bizinfo.Enabled {
		portals[bizinfo.PortalID] = bizinfo.NewAdapter(cfg.Sources.Bizinfo.BaseURL, client)
	}
	if cfg.Sources.KStartup.Enabled {
		portals[kstartup.PortalID] = kstartup.NewAdapter(cfg.Sources.KStartup.BaseURL, client)
	}
	return portals
}
