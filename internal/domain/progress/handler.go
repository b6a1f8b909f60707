package progress

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the live progress feed.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Watch upgrades to WebSocket and streams BatchProgress events for a batch.
// Clients connect before submitting the upload (the batch ID is chosen
// client-side or fetched from the upload response of a previous attempt).
func (h *Handler) Watch(c *gin.Context) {
	batchID := c.Param("batchID")
	if batchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "batch id required"})
		return
	}
	if err := h.hub.ServeWS(c.Writer, c.Request, batchID); err != nil {
		// Upgrade failure already wrote the response.
		return
	}
}

// RegisterRoutes mounts the progress feed.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/uploads/:batchID/progress", h.Watch)
}
