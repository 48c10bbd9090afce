package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// pageCache keeps public GET responses for a few seconds. Any successful
// write under a cached prefix drops every entry below it.
type pageCache struct {
	store *persist.MemoryStore
}

func newPageCache(ctx context.Context) *pageCache {
	p := &pageCache{store: persist.NewMemoryStore(time.Minute)}

	go func() {
		<-ctx.Done()
		p.store.Cache.Close()
	}()

	return p
}

// For caches the route by request URI. Per-request headers are not stored
// and the envelope is stamped with the live request id on replay.
func (p *pageCache) For(ttl time.Duration) gin.HandlerFunc {
	return cache.CacheByRequestURI(p.store, ttl,
		cache.WithDiscardHeaders(append(cache.CorsHeaders(), middleware.RequestIDHeader, "Content-Length")),
		cache.WithBeforeReplyWithCache(func(c *gin.Context, _ *cache.ResponseCache) {
			c.Writer = &restampWriter{ResponseWriter: c.Writer, requestID: c.GetString("requestID")}
		}),
	)
}

// Purge clears entries under prefix once a non-GET request succeeds
func (p *pageCache) Purge(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		p.purge(prefix)
	}
}

func (p *pageCache) purge(prefix string) {
	for _, key := range p.store.Cache.GetKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		if err := p.store.Delete(key); err != nil {
			zap.L().Warn("Failed to drop cached page", zap.String("key", key), zap.Error(err))
		}
	}
}

// restampWriter rewrites the stored envelope on its way out. The cached
// bytes themselves are shared and stay untouched.
type restampWriter struct {
	gin.ResponseWriter
	requestID string
}

func (w *restampWriter) Write(b []byte) (int, error) {
	if _, err := w.ResponseWriter.Write(response.Restamp(b, w.requestID)); err != nil {
		return 0, err
	}

	return len(b), nil
}
