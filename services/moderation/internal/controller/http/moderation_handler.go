package http

import (
	"errors"
	"net/http"
	"strconv"

	"tg-market/pkg/logger"
	"tg-market/services/moderation/internal/entity"
	"tg-market/services/moderation/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	moderationUseCase usecase.ModerationUseCase
	logger            *logger.Logger
}

func NewModerationHandler(moderationUseCase usecase.ModerationUseCase, logger *logger.Logger) *ModerationHandler {
	return &ModerationHandler{
		moderationUseCase: moderationUseCase,
		logger:            logger,
	}
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// ListListings godoc
// @Summary      Review queue
// @Description  Listings in the given status, premium first then oldest first. Defaults to manual_review.
// @Tags         moderation
// @Produce      json
// @Security     BasicAuth
// @Param        status query string false "Status" Enums(draft, moderation, manual_review, published, blocked, archived)
// @Param        page query int false "Page, from 1"
// @Param        limit query int false "Page size, at most 100"
// @Success      200  {object}  entity.ListingPage
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /moderation/listings [get]
func (h *ModerationHandler) ListListings(c *gin.Context) {
	status, err := entity.ParseStatus(c.DefaultQuery("status", entity.StatusManualReview.String()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	result, err := h.moderationUseCase.ListListings(c.Request.Context(), status, page, limit)
	if err != nil {
		h.logger.Error("Failed to list listings for moderation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Approve godoc
// @Summary      Approve listing
// @Description  Publish a listing awaiting moderation or manual review
// @Tags         moderation
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Listing ID"
// @Success      200  {object}  entity.Listing
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /moderation/listings/{id}/approve [post]
func (h *ModerationHandler) Approve(c *gin.Context) {
	listing, err := h.moderationUseCase.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeDecisionError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Reject godoc
// @Summary      Reject listing
// @Description  Block a listing. Published listings can be taken down too.
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Listing ID"
// @Param        request body RejectRequest false "Reason shown to the author"
// @Success      200  {object}  entity.Listing
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /moderation/listings/{id}/reject [post]
func (h *ModerationHandler) Reject(c *gin.Context) {
	var req RejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	listing, err := h.moderationUseCase.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.writeDecisionError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Stats godoc
// @Summary      Moderation stats
// @Description  Number of listings in each status
// @Tags         moderation
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  map[string]int64
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /moderation/stats [get]
func (h *ModerationHandler) Stats(c *gin.Context) {
	stats, err := h.moderationUseCase.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load moderation stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ModerationHandler) writeDecisionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
	case errors.Is(err, usecase.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Moderation decision failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing"})
	}
}
