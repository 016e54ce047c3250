package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 25 * time.Second

// Events streams the signed-in user's change events as server-sent events.
func (h *APIHandler) Events(c *gin.Context) {
	if h.changes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "change feed unavailable"})
		return
	}
	ctx := c.Request.Context()
	sess := session(c)
	events, err := h.changes.SubscribeChanges(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.UserID == sess.UserID {
				c.SSEvent("change", ev)
			}
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
