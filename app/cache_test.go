package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedBody struct {
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
	RequestID string         `json:"requestId"`
}

// cacheEngine serves one hideable item through the page cache
func cacheEngine(t *testing.T) (*gin.Engine, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pages := newPageCache(t.Context())
	hits := 0
	hidden := false

	r := gin.New()
	r.Use(middleware.NewRequestIDMiddleware(), middleware.ErrorHandler(false))

	g := r.Group("/api/recipes", pages.Purge("/api/recipes"))
	g.GET("/:id", pages.For(time.Minute), with(nil, func(c *gin.Context, _ *internal.Deps) {
		hits++

		if hidden {
			c.Error(apperr.New(http.StatusNotFound, "NOT_FOUND", "Recipe not found"))
			return
		}

		response.Success(c, gin.H{"id": c.Param("id"), "note": `"timestamp":"x"`}, "")
	}))
	g.PUT("/:id/hide", func(c *gin.Context) {
		hidden = true
		response.Success(c, nil, "Recipe hidden")
	})
	g.PUT("/:id/fail", func(c *gin.Context) {
		c.Error(apperr.New(http.StatusForbidden, "FORBIDDEN", "Nope"))
	})

	return r, &hits
}

func send(r *gin.Engine, method, path, requestID string) (*httptest.ResponseRecorder, cachedBody) {
	req := httptest.NewRequest(method, path, nil)
	if requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body cachedBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestPageCache_ReplayKeepsLiveRequestID(t *testing.T) {
	r, hits := cacheEngine(t)

	w, first := send(r, http.MethodGet, "/api/recipes/abc", "req-A")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-A", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "req-A", first.RequestID)

	w, second := send(r, http.MethodGet, "/api/recipes/abc", "req-B")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *hits)

	assert.Equal(t, "req-B", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "req-B", second.RequestID)
	assert.NotEmpty(t, second.Timestamp)
	assert.Equal(t, "abc", second.Data["id"])
	assert.Equal(t, `"timestamp":"x"`, second.Data["note"])
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	// The stored copy isn't rewritten by a replay
	_, third := send(r, http.MethodGet, "/api/recipes/abc", "req-C")
	assert.Equal(t, "req-C", third.RequestID)
	assert.Equal(t, 1, *hits)
}

func TestPageCache_WritePurges(t *testing.T) {
	r, hits := cacheEngine(t)

	w, _ := send(r, http.MethodGet, "/api/recipes/abc", "")
	require.Equal(t, http.StatusOK, w.Code)

	// Failed writes leave the cache alone
	w, _ = send(r, http.MethodPut, "/api/recipes/abc/fail", "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = send(r, http.MethodGet, "/api/recipes/abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *hits)

	w, _ = send(r, http.MethodPut, "/api/recipes/abc/hide", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = send(r, http.MethodGet, "/api/recipes/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 2, *hits)

	// Errors are never cached
	w, _ = send(r, http.MethodGet, "/api/recipes/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 3, *hits)
}

func TestRestamp(t *testing.T) {
	body := []byte(`{"success":true,"data":{"timestamp":"old","requestId":"old"},"timestamp":"old","requestId":"old"}`)

	out := response.Restamp(body, "fresh")

	var got struct {
		Data struct {
			Timestamp string `json:"timestamp"`
			RequestID string `json:"requestId"`
		} `json:"data"`
		Timestamp string `json:"timestamp"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(out, &got))

	assert.Equal(t, "old", got.Data.Timestamp)
	assert.Equal(t, "old", got.Data.RequestID)
	assert.Equal(t, "fresh", got.RequestID)
	assert.NotEqual(t, "old", got.Timestamp)

	assert.Equal(t, []byte("plain text"), response.Restamp([]byte("plain text"), "fresh"))
}
