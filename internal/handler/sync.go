package handler

import (
	"errors"
	"fmt"
	"net/http"

	"dashboard-sync/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// MaxSyncBodyBytes caps a proxied body. Airtable accepts at most 10 records
// per write, which fits well inside this.
const MaxSyncBodyBytes = 1 << 20

// Sync godoc
// @Summary      Proxy a table to Airtable
// @Description  GET reads the table, POST creates and PATCH updates records from a {"records": [...]} body, DELETE removes the records listed in {"ids": [...]}. The Airtable response is relayed unchanged.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        table  query  string  true  "Logical table name, resolved through AIRTABLE_TABLE_<NAME>"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      405  {object}  map[string]string
// @Failure      413  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/sync [get]
// @Router       /api/sync [post]
// @Router       /api/sync [patch]
// @Router       /api/sync [delete]
func (h *Handler) Sync(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sync")
	defer span.End()

	table := c.Query("table")
	span.SetAttributes(attribute.String("table", table), attribute.String("method", c.Request.Method))

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxSyncBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	resp, err := h.proxyService.Forward(ctx, c.Request.Method, table, body)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingTable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing table name. Use ?table=TABLE_NAME"})
		return
	case errors.Is(err, service.ErrTableNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Table '%s' not found.", table)})
		return
	case errors.Is(err, service.ErrInvalidRecords):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'records' array in body."})
		return
	case errors.Is(err, service.ErrInvalidIDs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'ids' array in body."})
		return
	case errors.Is(err, service.ErrMethodNotAllowed):
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed."})
		return
	default:
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error", "details": err.Error()})
		return
	}

	span.SetAttributes(attribute.Int("airtable.status", resp.StatusCode))
	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}
