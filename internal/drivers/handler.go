package drivers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gurbanow/rideline/pkg/common"
	"github.com/gurbanow/rideline/pkg/middleware"
	"github.com/gurbanow/rideline/pkg/models"
)

// Handler handles HTTP requests for the driver directory
type Handler struct {
	service *Service
}

// NewHandler creates a new drivers handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetProfile handles GET /drivers/me
func (h *Handler) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	driver, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to get driver profile")
		return
	}

	common.SuccessResponse(c, driver)
}

// UpdateLocation handles POST /drivers/location
func (h *Handler) UpdateLocation(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid location payload")
		return
	}

	if err := h.service.UpdateLocation(c.Request.Context(), userID, req.Latitude, req.Longitude); err != nil {
		common.HandleServiceError(c, err, "failed to update location")
		return
	}

	common.SuccessResponse(c, gin.H{"updated": true})
}

// SetAvailability handles POST /drivers/availability
func (h *Handler) SetAvailability(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "is_available is required")
		return
	}

	if err := h.service.SetAvailability(c.Request.Context(), userID, *req.IsAvailable); err != nil {
		common.HandleServiceError(c, err, "failed to update availability")
		return
	}

	common.SuccessResponse(c, gin.H{"is_available": *req.IsAvailable})
}
