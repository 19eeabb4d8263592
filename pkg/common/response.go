package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/gurbanow/rideline/pkg/errors"
)

// Response represents the standard API envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Meta contains pagination metadata
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// SuccessResponse sends a 200 response with data
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessResponseWithMeta sends a 200 response with data and pagination metadata
func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// CreatedResponse sends a 201 response with data
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// UnmatchedResponse sends an HTTP-success response reporting a request that
// was persisted but could not be fulfilled (success is false, data carried).
func UnmatchedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: false,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    statusCode,
			Message: message,
		},
	})
}

// AppErrorResponse sends an AppError response
func AppErrorResponse(c *gin.Context, err *AppError) {
	c.JSON(err.Code, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    err.Code,
			Message: err.Message,
		},
	})
}

// HandleServiceError unwraps an AppError into the envelope, falling back to
// an opaque 500 for unanticipated errors. Server-side failures are reported
// to Sentry; client errors are not.
func HandleServiceError(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*AppError); ok {
		if appErr.Code >= http.StatusInternalServerError {
			pkgerrors.CaptureError(err)
		}
		AppErrorResponse(c, appErr)
		return
	}
	pkgerrors.CaptureError(err)
	ErrorResponse(c, http.StatusInternalServerError, fallback)
}
