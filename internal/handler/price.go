package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetPrices godoc
// @Summary      Get the cached price table
// @Description  Returns the price mapping from the last successful refresh. lastUpdate is null until the first refresh succeeds.
// @Tags         prices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	snap := h.priceService.GetSnapshot(ctx)
	span.SetAttributes(attribute.Int("prices.count", snap.RecordCount()))

	c.JSON(http.StatusOK, snap)
}

// TriggerUpdate godoc
// @Summary      Refresh prices now
// @Description  Fetches the price table from Airtable synchronously and replaces the cached mapping
// @Tags         prices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/update [post]
func (h *Handler) TriggerUpdate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-update")
	defer span.End()

	err := h.priceService.RefreshPrices(ctx)
	success := err == nil
	message := "Prices updated successfully"
	if !success {
		span.RecordError(err)
		message = "Failed to update prices"
	}
	span.SetAttributes(attribute.Bool("success", success))

	c.JSON(http.StatusOK, gin.H{
		"success":    success,
		"message":    message,
		"lastUpdate": h.priceService.GetSnapshot(ctx).LastUpdateISO(),
	})
}
