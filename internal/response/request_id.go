package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys set by RequestIDMiddleware.
const (
	ContextKeyRequestID = "request_id"
	ContextKeyStartedAt = "started_at"
)

// maxRequestIDLength bounds client-supplied IDs before they reach logs.
const maxRequestIDLength = 128

// RequestIDMiddleware tags every request with an ID, reusing a well-formed
// X-Request-ID from the client, and records when the request arrived.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyStartedAt, time.Now())
		reqID := c.GetHeader("X-Request-ID")
		if !validRequestID(reqID) {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

// RequestID returns the ID assigned by RequestIDMiddleware, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// StartedAt returns when RequestIDMiddleware first saw the request.
func StartedAt(c *gin.Context) (time.Time, bool) {
	v, ok := c.Get(ContextKeyStartedAt)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// validRequestID accepts printable ASCII only.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
