package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ok", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"ok": true}) })
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(5 * time.Millisecond)
		Success(c, http.StatusOK, nil)
	})
	r.GET("/fail", func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"points": "points must be 0 or greater"})
	})
	return r
}

func TestRequestIDReusesClientHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{name: "valid", header: "abc-123", reuse: true},
		{name: "missing", header: ""},
		{name: "control characters", header: "abc\x01def"},
		{name: "too long", header: strings.Repeat("a", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			newEngine().ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			require.NotEmpty(t, got)
			if tt.reuse {
				require.Equal(t, tt.header, got)
			} else {
				require.NotEqual(t, tt.header, got)
			}
		})
	}
}

func TestFailWithFieldsEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Nil(t, body.Data)
	require.NotNil(t, body.Error)
	require.Equal(t, ErrValidation, body.Error.Code)
	require.Equal(t, GetMessage(ErrValidation), body.Error.Message)
	require.Contains(t, body.Error.Fields, "points")
	require.Equal(t, w.Header().Get("X-Request-ID"), body.Metadata.RequestID)
}

func TestMetadataDuration(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.GreaterOrEqual(t, body.Metadata.DurationMS, 5.0)
	require.Contains(t, w.Body.String(), `"duration_ms":`)
}

func TestMetadataWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/bare", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bare", nil))

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Metadata.RequestID)
	require.Zero(t, body.Metadata.DurationMS)
	require.Equal(t, ErrNotFound, body.Error.Code)
}
