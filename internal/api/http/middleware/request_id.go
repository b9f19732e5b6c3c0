package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bugboard/bugboard/internal/auth"
	"github.com/bugboard/bugboard/internal/logging"
)

const RequestIDHeader = "X-Request-Id"

// RequestIDMiddleware ensures every request has a stable request ID.
// - Reads X-Request-Id header if present
// - Otherwise generates a new one
// - Stores it in the gin context and the request context
// - Echoes it back in the response header
// - Logs method, path, status, user and latency once the request is done
func RequestIDMiddleware() gin.HandlerFunc {
	log := logging.New("http")
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Set("request_id", rid)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), rid))
		c.Writer.Header().Set(RequestIDHeader, rid)

		start := time.Now()
		c.Next()

		log.Infow("request",
			"request_id", rid,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"user_id", auth.UserID(c),
			"latency", time.Since(start),
		)
	}
}
