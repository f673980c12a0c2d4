package handler

import (
	"context"

	"dashboard-sync/internal/airtable"
	"dashboard-sync/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type PriceService interface {
	GetSnapshot(ctx context.Context) domain.Snapshot
	RefreshPrices(ctx context.Context) error
}

type ProxyService interface {
	Forward(ctx context.Context, method, table string, body []byte) (*airtable.Response, error)
}

type Handler struct {
	tracer           trace.Tracer
	priceService     PriceService
	proxyService     ProxyService
	updateIntervalMS int
	syncAPIKey       string
}

func New(
	tracer trace.Tracer,
	priceService PriceService,
	proxyService ProxyService,
	updateIntervalMS int,
	syncAPIKey string,
) *Handler {
	return &Handler{
		tracer:           tracer,
		priceService:     priceService,
		proxyService:     proxyService,
		updateIntervalMS: updateIntervalMS,
		syncAPIKey:       syncAPIKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/status", h.Status)
	r.GET("/api/prices", h.GetPrices)
	r.POST("/api/update", h.TriggerUpdate)
	r.GET("/dashboard-sync.js", h.DashboardScript)
	r.Any("/api/sync", APIKeyAuth(h.syncAPIKey), h.Sync)
}
