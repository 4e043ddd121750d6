package http

import (
	"errors"
	"net/http"
	"strconv"

	"tg-market/pkg/logger"
	"tg-market/services/billing/internal/entity"
	"tg-market/services/billing/internal/usecase"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingUseCase usecase.BillingUseCase
	logger         *logger.Logger
}

func NewBillingHandler(billingUseCase usecase.BillingUseCase, logger *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingUseCase: billingUseCase,
		logger:         logger,
	}
}

type CreatePaymentRequest struct {
	PackageID string `json:"package_id" binding:"required"`
}

type CompletePaymentRequest struct {
	TelegramChargeID string `json:"telegram_charge_id"`
	ProviderChargeID string `json:"provider_charge_id"`
}

// ListPackages godoc
// @Summary      List tiers
// @Description  Active publication packages, cheapest first within the configured order
// @Tags         packages
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /packages [get]
func (h *BillingHandler) ListPackages(c *gin.Context) {
	packages, err := h.billingUseCase.ListPackages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch packages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

// GetPackage godoc
// @Summary      Get tier
// @Tags         packages
// @Produce      json
// @Param        id path string true "Package ID"
// @Success      200  {object}  entity.Package
// @Failure      404  {object}  map[string]string
// @Router       /packages/{id} [get]
func (h *BillingHandler) GetPackage(c *gin.Context) {
	pkg, err := h.billingUseCase.GetPackage(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrPackageUnavailable) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to get package: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch package"})
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// CreatePayment godoc
// @Summary      Start a tier purchase
// @Description  Open a pending payment for a paid tier. The listing that uses it stays a draft until the payment completes.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePaymentRequest true "Tier"
// @Success      201  {object}  entity.Payment
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /payments [post]
func (h *BillingHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.billingUseCase.CreatePayment(c.Request.Context(), c.GetString("user_id"), req.PackageID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPackageUnavailable):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrFreePackage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment"})
		}
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// GetPayment godoc
// @Summary      Get payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Payment ID"
// @Success      200  {object}  entity.Payment
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /payments/{id} [get]
func (h *BillingHandler) GetPayment(c *gin.Context) {
	payment, err := h.billingUseCase.GetPayment(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		writePaymentError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ListPayments godoc
// @Summary      My payments
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Limit"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /payments [get]
func (h *BillingHandler) ListPayments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	payments, err := h.billingUseCase.ListPayments(c.Request.Context(), c.GetString("user_id"), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list payments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}

// CompletePayment godoc
// @Summary      Settle a payment
// @Description  Mark a pending payment completed and send the draft listings it paid for to moderation. Repeating the call is harmless.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Payment ID"
// @Param        request body CompletePaymentRequest false "Provider charge ids"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /payments/{id}/complete [put]
func (h *BillingHandler) CompletePayment(c *gin.Context) {
	var req CompletePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	completion, err := h.billingUseCase.CompletePayment(c.Request.Context(), c.Param("id"), entity.Charge{
		TelegramChargeID: req.TelegramChargeID,
		ProviderChargeID: req.ProviderChargeID,
	})
	if err != nil {
		writePaymentError(c, err, h.logger)
		return
	}

	released := make([]string, len(completion.Released))
	for i, l := range completion.Released {
		released[i] = l.ID
	}
	c.JSON(http.StatusOK, gin.H{
		"payment":           completion.Payment,
		"already_completed": completion.AlreadyCompleted,
		"released_listings": released,
	})
}

func writePaymentError(c *gin.Context, err error, log *logger.Logger) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	case errors.Is(err, usecase.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPaymentNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error("Payment request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment request failed"})
	}
}

// AdminListPackages godoc
// @Summary      All tiers
// @Description  Every package, inactive ones included, in display order
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/packages [get]
func (h *BillingHandler) AdminListPackages(c *gin.Context) {
	packages, err := h.billingUseCase.AllPackages(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list packages for admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch packages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

// CreatePackage godoc
// @Summary      Create tier
// @Description  name_ru, package_type and currency_id are required. A new tier is active with a 30 day lifetime unless told otherwise.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        request body entity.PackageInput true "Package"
// @Success      201  {object}  entity.Package
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/packages [post]
func (h *BillingHandler) CreatePackage(c *gin.Context) {
	var in entity.PackageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.billingUseCase.CreatePackage(c.Request.Context(), in)
	if err != nil {
		writePackageError(c, err, "Failed to create package")
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// UpdatePackage godoc
// @Summary      Edit tier
// @Description  Change the given fields. Deactivate a tier instead of deleting it once it has been used.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Package ID"
// @Param        request body entity.PackageInput true "Fields to change"
// @Success      200  {object}  entity.Package
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /admin/packages/{id} [put]
func (h *BillingHandler) UpdatePackage(c *gin.Context) {
	var in entity.PackageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.billingUseCase.UpdatePackage(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writePackageError(c, err, "Failed to update package")
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// DeletePackage godoc
// @Summary      Delete tier
// @Description  Refused while any payment or listing references the package
// @Tags         admin
// @Produce      json
// @Security     BasicAuth
// @Param        id path string true "Package ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /admin/packages/{id} [delete]
func (h *BillingHandler) DeletePackage(c *gin.Context) {
	if err := h.billingUseCase.DeletePackage(c.Request.Context(), c.Param("id")); err != nil {
		writePackageError(c, err, "Failed to delete package")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Package deleted"})
}

func writePackageError(c *gin.Context, err error, message string) {
	var inUse *usecase.PackageInUseError
	switch {
	case errors.As(err, &inUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "payments": inUse.Payments, "listings": inUse.Listings})
	case errors.Is(err, usecase.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
