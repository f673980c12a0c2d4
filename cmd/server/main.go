package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard-sync/internal/airtable"
	"dashboard-sync/internal/bot"
	"dashboard-sync/internal/cache"
	"dashboard-sync/internal/config"
	"dashboard-sync/internal/handler"
	"dashboard-sync/internal/job"
	"dashboard-sync/internal/service"
	"dashboard-sync/internal/store"
	"dashboard-sync/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "dashboard-sync/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newAirtableClientFunc  = airtable.NewClient
	newPriceServiceFunc    = service.NewPriceService
	newProxyServiceFunc    = service.NewProxyService
	newPricePollerFunc     = job.NewPricePoller
	startPollerFunc        = func(p *job.PricePoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Dashboard Sync API
// @version         1.0
// @description     Serves cached crypto prices from Airtable and proxies table CRUD for the dashboard.

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Redis mirror
	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	airtableClient := newAirtableClientFunc(tracer, cfg.AirtableBaseID, cfg.AirtableToken)

	// Snapshot store and its persistence targets
	snapshots := store.NewSnapshotStore()
	writers := []service.SnapshotWriter{store.NewFileWriter(cfg.DataDir)}
	if cache.Client != nil {
		writers = append(writers, cache.NewSnapshotMirror(cache.Client))
	}

	priceTableID, _ := cfg.TableID(cfg.PriceTable)
	refreshTimeout := time.Duration(cfg.RefreshTimeoutSecs) * time.Second
	priceService := newPriceServiceFunc(tracer, airtableClient, priceTableID, snapshots, refreshTimeout, writers...)
	proxyService := newProxyServiceFunc(tracer, cfg, airtableClient)

	// Start price poller (initial refresh plus schedule, stopped by ctx cancel)
	poller := newPricePollerFunc(tracer, priceService, cfg.UpdateIntervalMS, cfg.RefreshCron)
	startPollerFunc(poller, ctx)

	startTelegramBotFunc(cfg.TelegramBotToken, priceService)

	h := newHandlerFunc(tracer, priceService, proxyService, cfg.UpdateIntervalMS, cfg.SyncAPIKey)

	r := newRouterFunc()
	r.Use(cors.New(corsConfig()))
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		log.Printf("Server running on port %d", cfg.Port)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// corsConfig opens the API to any dashboard origin, including clients that
// authenticate /api/sync with X-API-Key.
func corsConfig() cors.Config {
	c := cors.DefaultConfig()
	c.AllowAllOrigins = true
	c.AddAllowHeaders("X-API-Key")
	return c
}
