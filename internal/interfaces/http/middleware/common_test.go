package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMiddlewareRouter(t *testing.T, handlers ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(handlers...)
	return g
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	g := newMiddlewareRouter(t, RequestID())
	var seen string
	g.GET("/ping", func(c *gin.Context) {
		seen = c.GetString(requestIDHeader)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(requestIDHeader))
}

func TestRequestID_PreservesIncomingID(t *testing.T) {
	g := newMiddlewareRouter(t, RequestID())
	g.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-upstream-1")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	assert.Equal(t, "req-upstream-1", w.Header().Get(requestIDHeader))
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	g := newMiddlewareRouter(t, RequestID())
	g.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	ids := make(map[string]bool)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		ids[w.Header().Get(requestIDHeader)] = true
	}
	assert.Len(t, ids, 5)
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	g := newMiddlewareRouter(t, RequestID(), RequestLogger(zaptest.NewLogger(t)))
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusTeapot, "short and stout") })

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", w.Body.String())
}

func TestRecovery_ConvertsPanicToInternalError(t *testing.T) {
	g := newMiddlewareRouter(t, RequestID(), Recovery(zaptest.NewLogger(t)))
	g.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	g.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ERR_INTERNAL", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "kaboom")

	// The router stays usable after a recovered panic.
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
