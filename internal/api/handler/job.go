package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hyunsoo/bizharvest/internal/api/middleware"
	"github.com/hyunsoo/bizharvest/internal/repository"
)

// JobHandler serves crawl job records, the pipeline's status surface.
type JobHandler struct {
	jobs    *repository.CrawlJobRepository
	sources *repository.SourceRepository
}

// NewJobHandler creates a new job handler.
// Parameters:
//   - jobs: crawl job repository.
//   - sources: source registry repository.
// Returns:
//   - *JobHandler: initialized handler.
func NewJobHandler(jobs *repository.CrawlJobRepository, sources *repository.SourceRepository) *JobHandler {
	return &JobHandler{jobs: jobs, sources: sources}
}

// ListJobs handles GET /api/v1/jobs.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobHandler) ListJobs(c *gin.Context) {
	sourceID := c.Query("source")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	jobs, err := h.jobs.List(c.Request.Context(), sourceID, limit, offset)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list crawl jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list crawl jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":   limit,
		"offset":  offset,
		"results": jobs,
	})
}

// GetJob handles GET /api/v1/jobs/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID is required"})
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListSources handles GET /api/v1/sources.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobHandler) ListSources(c *gin.Context) {
	sources, err := h.sources.ListEnabled(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list sources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": sources})
}
