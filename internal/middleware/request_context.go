package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/constants"
)

// RequestContext assigns the request-correlation id and snapshots the
// request into the request context for the activity log. A valid inbound
// X-Request-ID is reused.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		info := activitylog.NewRequestInfo(c.Request, c.ClientIP())
		info.RequestID = requestID

		ctx := activitylog.WithRequestID(c.Request.Context(), requestID)
		ctx = activitylog.WithRequest(ctx, info)
		c.Request = c.Request.WithContext(ctx)

		c.Header(constants.RequestIDHeader, requestID)

		c.Next()
	}
}
