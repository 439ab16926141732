package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hyunsoo/bizharvest/internal/api/middleware"
	"github.com/hyunsoo/bizharvest/internal/repository"
)

// AnnouncementHandler serves harvested announcements read-only.
type AnnouncementHandler struct {
	repo *repository.AnnouncementRepository
}

// NewAnnouncementHandler creates a new announcement handler.
// Parameters:
//   - repo: announcement repository.
// Returns:
//   - *AnnouncementHandler: initialized handler.
func NewAnnouncementHandler(repo *repository.AnnouncementRepository) *AnnouncementHandler {
	return &AnnouncementHandler{repo: repo}
}

// ListAnnouncements handles GET /api/v1/announcements.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnnouncementHandler) ListAnnouncements(c *gin.Context) {
	sourceID := c.Query("source")
	category := c.Query("category")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	ctx := c.Request.Context()
	anns, err := h.repo.List(ctx, sourceID, category, limit, offset)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list announcements")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list announcements"})
		return
	}
	total, err := h.repo.Count(ctx, sourceID)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to count announcements")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count announcements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"limit":   limit,
		"offset":  offset,
		"results": anns,
	})
}

// GetAnnouncement handles GET /api/v1/announcements/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnnouncementHandler) GetAnnouncement(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Announcement ID is required"})
		return
	}

	ann, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		return
	}

	c.JSON(http.StatusOK, ann)
}
