package handlers

import (
	"net/http"

	"wifi_tracker/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      Ingest counters
// @Description  Lines read, events applied and per-line failures since start.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "stats"
// @Router       /stats [get]
func (h *Handler) getStats(c *gin.Context) {
	var st models.IngestStats
	if h.services.Ingest != nil {
		st = h.services.Ingest.Stats()
	}
	c.JSON(http.StatusOK, gin.H{"stats": st})
}
