package rides

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurbanow/rideline/pkg/common"
	"github.com/gurbanow/rideline/pkg/geo"
	"github.com/gurbanow/rideline/pkg/middleware"
	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/pagination"
)

// Handler handles HTTP requests for rides
type Handler struct {
	service *Service
}

// NewHandler creates a new rides handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RequestRide handles POST /rides
func (h *Handler) RequestRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.RideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride request payload")
		return
	}

	outcome, err := h.service.RequestRide(c.Request.Context(), userID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to request ride")
		return
	}

	data := gin.H{
		"ride":     outcome.Ride,
		"distance": geo.FormatDistance(outcome.Ride.DistanceMeters),
		"duration": geo.FormatDuration(outcome.Ride.DurationSeconds),
	}
	if !outcome.Scheduled {
		data["candidates_found"] = outcome.CandidatesFound
	}

	if outcome.Ride.Status == models.RideStatusNoDriver {
		common.UnmatchedResponse(c, "no drivers available nearby", data)
		return
	}
	common.CreatedResponse(c, data)
}

// ListUserRides handles GET /rides/user
func (h *Handler) ListUserRides(c *gin.Context) {
	h.listRides(c, models.RolePassenger)
}

// ListDriverRides handles GET /rides/driver
func (h *Handler) ListDriverRides(c *gin.Context) {
	h.listRides(c, models.RoleDriver)
}

func (h *Handler) listRides(c *gin.Context, as models.UserRole) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := pagination.ParseParams(c)
	status := models.RideStatus(c.Query("status"))
	rides, total, err := h.service.ListRides(c.Request.Context(), userID, as, status, params)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list rides")
		return
	}

	common.SuccessResponseWithMeta(c, rides, pagination.BuildMeta(params, total))
}

// GetRide handles GET /rides/:id
func (h *Handler) GetRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	role, err := middleware.GetUserRole(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	ride, err := h.service.GetRide(c.Request.Context(), rideID, userID, role)
	if err != nil {
		common.HandleServiceError(c, err, "failed to get ride")
		return
	}

	common.SuccessResponse(c, ride)
}

// AcceptRide handles POST /rides/:id/accept
func (h *Handler) AcceptRide(c *gin.Context) {
	h.driverTransition(c, h.service.AcceptRide, "failed to accept ride")
}

// MarkArrived handles POST /rides/:id/arrived
func (h *Handler) MarkArrived(c *gin.Context) {
	h.driverTransition(c, h.service.MarkArrived, "failed to mark arrival")
}

// StartRide handles POST /rides/:id/start
func (h *Handler) StartRide(c *gin.Context) {
	h.driverTransition(c, h.service.StartRide, "failed to start ride")
}

// CompleteRide handles POST /rides/:id/complete
func (h *Handler) CompleteRide(c *gin.Context) {
	h.driverTransition(c, h.service.CompleteRide, "failed to complete ride")
}

// CancelRide handles POST /rides/:id/cancel
func (h *Handler) CancelRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	var req models.CancelRideRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid cancellation payload")
			return
		}
	}

	ride, err := h.service.CancelRide(c.Request.Context(), rideID, userID, req.Reason)
	if err != nil {
		common.HandleServiceError(c, err, "failed to cancel ride")
		return
	}

	common.SuccessResponse(c, ride)
}

// RateRide handles POST /rides/:id/rate
func (h *Handler) RateRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	var req models.RideRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	ride, err := h.service.RateRide(c.Request.Context(), rideID, userID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to rate ride")
		return
	}

	common.SuccessResponse(c, ride)
}

func (h *Handler) driverTransition(c *gin.Context, fn func(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error), fallback string) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	ride, err := fn(c.Request.Context(), rideID, userID)
	if err != nil {
		common.HandleServiceError(c, err, fallback)
		return
	}

	common.SuccessResponse(c, ride)
}

func parseRideID(c *gin.Context) (uuid.UUID, bool) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride id")
		return uuid.Nil, false
	}
	return rideID, true
}
