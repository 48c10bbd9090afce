package middleware

import (
	"net/http"

	"bitwise74/recipe-api/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps the request body at maxBytes. Reads past the limit fail
// with *http.MaxBytesError which the error handler turns into a 413.
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for honest clients
		if c.Request.ContentLength > maxBytes {
			c.Error(apperr.ErrPayloadTooLarge)
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
