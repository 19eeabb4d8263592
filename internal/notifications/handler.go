package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurbanow/rideline/pkg/common"
	"github.com/gurbanow/rideline/pkg/middleware"
	"github.com/gurbanow/rideline/pkg/pagination"
)

// Handler handles HTTP requests for notifications
type Handler struct {
	service *Service
}

// NewHandler creates a new notifications handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /notifications
func (h *Handler) List(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := pagination.ParseParams(c)
	notifications, total, err := h.service.List(c.Request.Context(), userID, params)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list notifications")
		return
	}

	common.SuccessResponseWithMeta(c, notifications, pagination.BuildMeta(params, total))
}

// MarkRead handles POST /notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid notification ID")
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), notificationID, userID); err != nil {
		common.HandleServiceError(c, err, "failed to mark notification read")
		return
	}

	common.SuccessResponse(c, gin.H{"read": true})
}
