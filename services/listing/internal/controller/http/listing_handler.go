package http

import (
	"errors"
	"net/http"
	"strconv"

	"tg-market/pkg/logger"
	"tg-market/services/listing/internal/entity"
	"tg-market/services/listing/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ListingHandler struct {
	listingUseCase usecase.ListingUseCase
	logger         *logger.Logger
}

func NewListingHandler(listingUseCase usecase.ListingUseCase, logger *logger.Logger) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
		logger:         logger,
	}
}

type CreateListingRequest struct {
	AuthorID    string              `json:"author_id"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description" binding:"required"`
	Price       decimal.NullDecimal `json:"price" swaggertype:"string"`
	CurrencyID  string              `json:"currency_id" binding:"required"`
	CityID      string              `json:"city_id" binding:"required"`
	CategoryID  string              `json:"category_id"`
	Phone       string              `json:"phone"`
	Experience  string              `json:"experience"`
	Schedule    string              `json:"schedule"`
	WorkFormat  string              `json:"work_format"`
	PackageID   string              `json:"package_id" binding:"required"`
	PaymentID   string              `json:"payment_id"`
	Image       string              `json:"image"`
}

// CreateJobListing godoc
// @Summary      Create a job listing
// @Description  Create a vacancy under the chosen package. Free packages use the author's free slot, paid ones need a payment for the same package.
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateListingRequest true "Listing"
// @Success      201  {object}  entity.Listing
// @Failure      400  {object}  map[string]string
// @Failure      402  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /listings/jobs [post]
func (h *ListingHandler) CreateJobListing(c *gin.Context) {
	h.createListing(c, entity.PostTypeJob)
}

// CreateServiceListing godoc
// @Summary      Create a service listing
// @Description  Create a service offer under the chosen package. Job-only fields are rejected.
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateListingRequest true "Listing"
// @Success      201  {object}  entity.Listing
// @Failure      400  {object}  map[string]string
// @Failure      402  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /listings/services [post]
func (h *ListingHandler) CreateServiceListing(c *gin.Context) {
	h.createListing(c, entity.PostTypeService)
}

func (h *ListingHandler) createListing(c *gin.Context, postType entity.PostType) {
	userID := c.GetString("user_id")

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AuthorID != "" && req.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot create listings for another user"})
		return
	}

	listing, err := h.listingUseCase.CreateListing(c.Request.Context(), entity.CreateListingInput{
		AuthorID:    userID,
		PostType:    postType,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CurrencyID:  req.CurrencyID,
		CityID:      req.CityID,
		CategoryID:  req.CategoryID,
		Phone:       req.Phone,
		Experience:  req.Experience,
		Schedule:    req.Schedule,
		WorkFormat:  req.WorkFormat,
		PackageID:   req.PackageID,
		PaymentID:   req.PaymentID,
		Image:       req.Image,
	})
	if err != nil {
		h.writeCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

func (h *ListingHandler) writeCreateError(c *gin.Context, err error) {
	var freeErr *usecase.FreePostUnavailableError
	switch {
	case errors.As(err, &freeErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "next_free_at": freeErr.NextFreeAt})
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, usecase.ErrImageNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPackageUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPaymentRequired):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPaymentInvalid):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPaymentUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to create listing: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
	}
}

// Catalog godoc
// @Summary      Reference data
// @Description  Categories, cities and currencies for the listing form, plus the category each post type files under
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  entity.Catalog
// @Failure      500  {object}  map[string]string
// @Router       /catalog [get]
func (h *ListingHandler) Catalog(c *gin.Context) {
	catalog, err := h.listingUseCase.Catalog(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load catalog: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load catalog"})
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// FreePostStatus godoc
// @Summary      Free listing eligibility
// @Description  Whether the user may publish a free listing now, and when the next one frees up otherwise
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path string true "User ID"
// @Success      200  {object}  entity.FreePostStatus
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/{user_id}/free-post-status [get]
func (h *ListingHandler) FreePostStatus(c *gin.Context) {
	userID := c.Param("user_id")
	if userID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	status, err := h.listingUseCase.FreePostStatus(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to check free post status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check free post status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// UserStats godoc
// @Summary      Author statistics
// @Description  The caller's listings per status, their total views, saved favorites and free listing availability
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path string true "User ID"
// @Success      200  {object}  entity.UserStats
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/{user_id}/stats [get]
func (h *ListingHandler) UserStats(c *gin.Context) {
	userID := c.Param("user_id")
	if userID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	stats, err := h.listingUseCase.UserStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get user stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListListings godoc
// @Summary      List listings
// @Description  Published listings, newest or most recently boosted first. Authors see all of their own with author_id set to themselves.
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        post_type query string false "job or service" Enums(job, service)
// @Param        search query string false "Search in title and description"
// @Param        category_id query string false "Category"
// @Param        city_id query string false "City"
// @Param        author_id query string false "Author"
// @Param        page query int false "Page, from 1"
// @Param        limit query int false "Page size, at most 50"
// @Success      200  {object}  entity.ListingPage
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /listings [get]
func (h *ListingHandler) ListListings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.listingUseCase.ListListings(c.Request.Context(), entity.ListingFilter{
		PostType:   entity.PostType(c.Query("post_type")),
		Search:     c.Query("search"),
		CategoryID: c.Query("category_id"),
		CityID:     c.Query("city_id"),
		AuthorID:   c.Query("author_id"),
		ViewerID:   c.GetString("user_id"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list listings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetListing godoc
// @Summary      Get listing by ID
// @Description  Listing details. Each viewer counts as one view per day.
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Listing ID"
// @Success      200  {object}  entity.Listing
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /listings/{id} [get]
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listingUseCase.GetListing(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		h.logger.Error("Failed to get listing: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listing"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// AddFavorite godoc
// @Summary      Add to favorites
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        listing_id path string true "Listing ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /favorites/{listing_id} [post]
func (h *ListingHandler) AddFavorite(c *gin.Context) {
	err := h.listingUseCase.AddFavorite(c.Request.Context(), c.GetString("user_id"), c.Param("listing_id"))
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		h.logger.Error("Failed to add favorite: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to favorites"})
}

// RemoveFavorite godoc
// @Summary      Remove from favorites
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        listing_id path string true "Listing ID"
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /favorites/{listing_id} [delete]
func (h *ListingHandler) RemoveFavorite(c *gin.Context) {
	if err := h.listingUseCase.RemoveFavorite(c.Request.Context(), c.GetString("user_id"), c.Param("listing_id")); err != nil {
		h.logger.Error("Failed to remove favorite: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}

// ListFavorites godoc
// @Summary      My favorites
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /favorites [get]
func (h *ListingHandler) ListFavorites(c *gin.Context) {
	listings, err := h.listingUseCase.ListFavorites(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.logger.Error("Failed to list favorites: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "count": len(listings)})
}
