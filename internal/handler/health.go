package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Liveness probe. Does not depend on Airtable or the cached prices.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Status godoc
// @Summary      Service status
// @Description  Reports the last refresh time and how many symbols are cached
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /status [get]
func (h *Handler) Status(c *gin.Context) {
	snap := h.priceService.GetSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":      "running",
		"lastUpdate":  snap.LastUpdateISO(),
		"recordCount": snap.RecordCount(),
	})
}
