package middleware

import (
	"github.com/gin-gonic/gin"

	"user-api/pkg/logger"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

const maxRequestIDLength = 128

// RequestID reuses the inbound X-Request-ID header or generates a new one,
// echoes it on the response and stores it in both the gin context and the
// request context so downstream logs carry it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = logger.NewRequestID()
		}

		c.Set(RequestIDKey, id)
		c.Header(logger.RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))

		c.Next()
	}
}
