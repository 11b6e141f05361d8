package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/google/uuid"
)

// requestIDMiddleware tags each request with an id, reusing the client's
// X-Request-ID when present, and threads it through the request context so
// context-aware log calls pick it up
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// recoveryMiddleware converts handler panics into a 500 response, logging
// them through the application logger with the request id
func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.AppLogger().WithFields(map[string]interface{}{
					"request_id": c.GetString("request_id"),
					"path":       c.Request.URL.Path,
					"panic":      fmt.Sprintf("%v", r),
				}).Error("panic recovered while handling request", nil)

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "internal server error",
					Message: "an unexpected error occurred",
				})
			}
		}()
		c.Next()
	}
}
