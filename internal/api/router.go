package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hyunsoo/bizharvest/internal/api/handler"
	"github.com/hyunsoo/bizharvest/internal/api/middleware"
	"github.com/hyunsoo/bizharvest/internal/logger"
	"github.com/hyunsoo/bizharvest/internal/repository"
)

// SetupRouter configures the Gin router with all routes. Every route is
// read-only; the crawl pipeline is the only writer.
func SetupRouter(
	annRepo *repository.AnnouncementRepository,
	jobRepo *repository.CrawlJobRepository,
	srcRepo *repository.SourceRepository,
	log *logger.Logger,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cors))

	healthHandler := handler.NewHealthHandler()
	annHandler := handler.NewAnnouncementHandler(annRepo)
	jobHandler := handler.NewJobHandler(jobRepo, srcRepo)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/announcements", annHandler.ListAnnouncements)
		v1.GET("/announcements/:id", annHandler.GetAnnouncement)

		v1.GET("/jobs", jobHandler.ListJobs)
		v1.GET("/jobs/:id", jobHandler.GetJob)

		v1.GET("/sources", jobHandler.ListSources)
	}

	return r
}
