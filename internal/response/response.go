package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the envelope every HTTP endpoint answers with.
type Response struct {
	Data     any        `json:"data"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// ErrorBody carries a stable code, its message and, for validation
// failures, the offending fields.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Metadata ties a response to its request. DurationMS is the time spent
// since RequestIDMiddleware saw the request; it is zero without it.
type Metadata struct {
	RequestID  string  `json:"request_id"`
	Timestamp  string  `json:"timestamp"`
	DurationMS float64 `json:"duration_ms"`
}

// Success writes data under the given status.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Data: data, Metadata: newMetadata(c)})
}

// Fail writes an error envelope for code.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, errorResponse(c, code, nil))
}

// FailWithFields writes an error envelope with per-field messages.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, errorResponse(c, code, fields))
}

// AbortFail stops the handler chain and writes an error envelope.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, errorResponse(c, code, nil))
}

func errorResponse(c *gin.Context, code ErrCode, fields map[string]string) Response {
	return Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields},
		Metadata: newMetadata(c),
	}
}

func newMetadata(c *gin.Context) Metadata {
	now := time.Now()
	m := Metadata{
		RequestID: RequestID(c),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if m.RequestID == "" {
		m.RequestID = uuid.NewString()
	}
	if started, ok := StartedAt(c); ok {
		m.DurationMS = float64(now.Sub(started).Microseconds()) / 1000
	}
	return m
}
