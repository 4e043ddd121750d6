package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"tg-market/pkg/logger"
	"tg-market/services/listing/internal/entity"
	"tg-market/services/listing/internal/usecase"

	"github.com/gin-gonic/gin"
)

// Maintenance runs the lifecycle passes on demand.
type Maintenance interface {
	ArchiveExpired(ctx context.Context) (int64, error)
	BoostDue(ctx context.Context) (int64, error)
}

type AdminHandler struct {
	adminUseCase usecase.AdminUseCase
	maintenance  Maintenance
	logger       *logger.Logger
}

func NewAdminHandler(adminUseCase usecase.AdminUseCase, maintenance Maintenance, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{
		adminUseCase: adminUseCase,
		maintenance:  maintenance,
		logger:       logger,
	}
}

// Stats godoc
// @Summary      Dashboard
// @Description  Listing totals by status, type and tier, user totals and last week's activity
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  entity.AdminStats
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminUseCase.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build admin stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListListings godoc
// @Summary      All listings
// @Description  Every listing regardless of author or status, newest first
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Param        status query string false "Status" Enums(draft, moderation, manual_review, published, blocked, archived)
// @Param        post_type query string false "job or service" Enums(job, service)
// @Param        page query int false "Page, from 1"
// @Param        limit query int false "Page size, at most 200"
// @Success      200  {object}  entity.ListingPage
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/listings [get]
func (h *AdminHandler) ListListings(c *gin.Context) {
	var filter entity.AdminListingFilter
	if name := c.Query("status"); name != "" {
		status, err := entity.ParseStatus(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Status = status
	}
	filter.PostType = entity.PostType(c.Query("post_type"))
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	page, err := h.adminUseCase.ListListings(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err, "Failed to fetch listings")
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateListing godoc
// @Summary      Edit listing
// @Description  Change any of the given fields, status included. The cached copy is dropped.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Listing ID"
// @Param        request body entity.ListingPatch true "Fields to change"
// @Success      200  {object}  entity.Listing
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/listings/{id} [put]
func (h *AdminHandler) UpdateListing(c *gin.Context) {
	var patch entity.ListingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.adminUseCase.UpdateListing(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err, "Failed to update listing")
		return
	}
	c.JSON(http.StatusOK, listing)
}

// DeleteListing godoc
// @Summary      Delete listing
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Listing ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/listings/{id} [delete]
func (h *AdminHandler) DeleteListing(c *gin.Context) {
	if err := h.adminUseCase.DeleteListing(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "Failed to delete listing")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}

// ListCategories godoc
// @Summary      All categories
// @Description  Inactive ones included
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {array}   entity.Category
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/categories [get]
func (h *AdminHandler) ListCategories(c *gin.Context) {
	categories, err := h.adminUseCase.Categories(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategory godoc
// @Summary      Create category
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        request body entity.CategoryInput true "Category, slug and name_ru required"
// @Success      201  {object}  entity.Category
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/categories [post]
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var in entity.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.adminUseCase.CreateCategory(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary      Edit category
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Category ID"
// @Param        request body entity.CategoryInput true "Fields to change"
// @Success      200  {object}  entity.Category
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/categories/{id} [put]
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	var in entity.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.adminUseCase.UpdateCategory(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err, "Failed to update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary      Delete category
// @Description  Refused while any listing, deleted ones included, is filed under it
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Category ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /admin/categories/{id} [delete]
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	if err := h.adminUseCase.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "Failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// ListCities godoc
// @Summary      All cities
// @Description  Inactive ones included
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {array}   entity.City
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/cities [get]
func (h *AdminHandler) ListCities(c *gin.Context) {
	cities, err := h.adminUseCase.Cities(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to fetch cities")
		return
	}
	c.JSON(http.StatusOK, cities)
}

// CreateCity godoc
// @Summary      Create city
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        request body entity.CityInput true "City, name_ru required"
// @Success      201  {object}  entity.City
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/cities [post]
func (h *AdminHandler) CreateCity(c *gin.Context) {
	var in entity.CityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	city, err := h.adminUseCase.CreateCity(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err, "Failed to create city")
		return
	}
	c.JSON(http.StatusCreated, city)
}

// UpdateCity godoc
// @Summary      Edit city
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "City ID"
// @Param        request body entity.CityInput true "Fields to change"
// @Success      200  {object}  entity.City
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/cities/{id} [put]
func (h *AdminHandler) UpdateCity(c *gin.Context) {
	var in entity.CityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	city, err := h.adminUseCase.UpdateCity(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err, "Failed to update city")
		return
	}
	c.JSON(http.StatusOK, city)
}

// DeleteCity godoc
// @Summary      Delete city
// @Description  Refused while any listing, deleted ones included, is located in it
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "City ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /admin/cities/{id} [delete]
func (h *AdminHandler) DeleteCity(c *gin.Context) {
	if err := h.adminUseCase.DeleteCity(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "Failed to delete city")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "City deleted"})
}

// ExpireListings godoc
// @Summary      Archive expired listings now
// @Description  Runs the expiry pass without waiting for the schedule
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  map[string]int64
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/tasks/expire-listings [post]
func (h *AdminHandler) ExpireListings(c *gin.Context) {
	archived, err := h.maintenance.ArchiveExpired(c.Request.Context())
	if err != nil {
		h.logger.Error("[ADMIN] manual expiry pass failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive expired listings"})
		return
	}
	h.logger.Info("[ADMIN] manual expiry pass archived %d listing(s)", archived)
	c.JSON(http.StatusOK, gin.H{"archived": archived})
}

// BoostListings godoc
// @Summary      Boost due listings now
// @Description  Runs the boost pass without waiting for the schedule
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  map[string]int64
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/tasks/boost-listings [post]
func (h *AdminHandler) BoostListings(c *gin.Context) {
	boosted, err := h.maintenance.BoostDue(c.Request.Context())
	if err != nil {
		h.logger.Error("[ADMIN] manual boost pass failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to boost listings"})
		return
	}
	h.logger.Info("[ADMIN] manual boost pass lifted %d listing(s)", boosted)
	c.JSON(http.StatusOK, gin.H{"boosted": boosted})
}

func (h *AdminHandler) writeError(c *gin.Context, err error, message string) {
	var inUse *usecase.InUseError
	switch {
	case errors.As(err, &inUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "listings": inUse.Listings})
	case errors.Is(err, usecase.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, usecase.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
