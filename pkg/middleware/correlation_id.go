package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurbanow/rideline/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// CorrelationID attaches a request-scoped correlation ID to every request.
// An incoming X-Request-ID is honored when it is a valid UUID, otherwise a
// fresh one is generated. The ID is stored in the request context for
// structured logging and echoed back on the response.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		ctx := logger.ContextWithCorrelationID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("correlation_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
