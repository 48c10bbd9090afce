package root

import (
	"context"
	"net/http"
	"time"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

var ErrNotReady = apperr.New(http.StatusServiceUnavailable, "NOT_READY", "Database is not reachable")

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

func Health(c *gin.Context, d *internal.Deps) {
	response.Success(c, gin.H{
		"status": "ok",
		"uptime": time.Since(d.StartedAt).Round(time.Second).String(),
	}, "")
}

// Ready pings the primary. Load balancers should only route here once it
// passes.
func Ready(c *gin.Context, d *internal.Deps) {
	if d.Mongo == nil {
		c.Error(ErrNotReady)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := d.Mongo.Ping(ctx, readpref.Primary()); err != nil {
		c.Error(ErrNotReady.Wrap(err))
		return
	}

	response.Success(c, gin.H{"status": "ready"}, "")
}
