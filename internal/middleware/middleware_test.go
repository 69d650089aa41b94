package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusNoContent, do().Code)
	require.Equal(t, http.StatusNoContent, do().Code)

	w := do()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")

	clock = clock.Add(time.Minute)
	require.Equal(t, http.StatusNoContent, do().Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(NewRateLimiter(ctx, 0, time.Minute).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestBrotli(t *testing.T) {
	large := strings.Repeat("listening ", 300)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) {
		// the trailing short write lands after compression has started
		c.String(http.StatusOK, large)
		_, _ = c.Writer.WriteString("tail")
	})
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	t.Run("compresses large bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/large", nil)
		req.Header.Set("Accept-Encoding", "gzip, br")
		r.ServeHTTP(w, req)

		require.Equal(t, "br", w.Header().Get("Content-Encoding"))
		body, err := io.ReadAll(brotli.NewReader(w.Body))
		require.NoError(t, err)
		require.Equal(t, large+"tail", string(body))
	})

	t.Run("passes small bodies through", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/small", nil)
		req.Header.Set("Accept-Encoding", "br")
		r.ServeHTTP(w, req)

		require.Empty(t, w.Header().Get("Content-Encoding"))
		require.Equal(t, "ok", w.Body.String())
	})

	t.Run("skips websocket upgrades", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/large", nil)
		req.Header.Set("Accept-Encoding", "br")
		req.Header.Set("Upgrade", "websocket")
		r.ServeHTTP(w, req)

		require.Empty(t, w.Header().Get("Content-Encoding"))
		require.Equal(t, large+"tail", w.Body.String())
	})
}

func TestCacheControl(t *testing.T) {
	r := gin.New()
	r.GET("/", CacheControl(300), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
