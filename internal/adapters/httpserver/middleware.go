package httpserver

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"krakenWebhook/internal/ports"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-Id"
)

// RequestID assigns every request a uuid, echoed in the X-Request-Id header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header(requestIDHeader, requestID)
		c.Set(requestIDKey, requestID)
		c.Next()
	}
}

// Recovery turns a handler panic into a 500 instead of killing the process.
func Recovery(logger ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), fmt.Errorf("panic: %v", r), "Recovered from handler panic", map[string]interface{}{
					"requestID": c.GetString(requestIDKey),
					"path":      c.Request.URL.Path,
				})
				if !c.Writer.Written() {
					abortError(c, http.StatusInternalServerError, "internal_error", nil)
				} else {
					c.Abort()
				}
			}
		}()
		c.Next()
	}
}

// AccessLog logs one line per request after it completes.
func AccessLog(logger ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := map[string]interface{}{
			"requestID": c.GetString(requestIDKey),
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIP":  c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn(c.Request.Context(), "Request failed", fields)
			return
		}
		logger.Debug(c.Request.Context(), "Request handled", fields)
	}
}

// BearerAuth requires "Authorization: Bearer <token>". An empty token disables the check.
// The body is never read before the check passes.
func BearerAuth(token string, logger ports.Logger) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		if err := checkBearer(c.GetHeader("Authorization"), expected); err != nil {
			logger.Warn(c.Request.Context(), "Unauthorized request", map[string]interface{}{
				"requestID": c.GetString(requestIDKey),
				"path":      c.Request.URL.Path,
				"clientIP":  c.ClientIP(),
				"error":     err.Error(),
			})
			_ = c.Error(err)
			unauthorized(c)
			return
		}
		c.Next()
	}
}

// checkBearer returns an error wrapping ports.ErrUnauthorized unless header
// carries the expected bearer token.
func checkBearer(header string, expected []byte) error {
	scheme, credential, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return fmt.Errorf("%w: missing bearer credential", ports.ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(credential)), expected) != 1 {
		return fmt.Errorf("%w: token mismatch", ports.ErrUnauthorized)
	}
	return nil
}
