package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"dashboard-sync/internal/bot"
	"dashboard-sync/internal/config"
	"dashboard-sync/internal/job"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps(t)
	defer restore()

	var redisAddr string
	initRedisFunc = func(_ context.Context, addr string) { redisAddr = addr }
	t.Setenv("REDIS_URL", "from-env:6379")

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}

	if redisAddr != "redis:6379" {
		t.Fatalf("expected Redis address from config, got %q", redisAddr)
	}
}

func TestCORSConfigAllowsAPIKeyHeader(t *testing.T) {
	c := corsConfig()
	if !c.AllowAllOrigins {
		t.Fatal("expected all origins to be allowed")
	}
	found := false
	for _, h := range c.AllowHeaders {
		if h == "X-API-Key" {
			found = true
		}
	}
	if !found {
		t.Fatalf("X-API-Key missing from allowed headers: %v", c.AllowHeaders)
	}
}

func stubServerDeps(t *testing.T) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origStartPoller := startPollerFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	dataDir := t.TempDir()

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			Tables:             map[string]string{"PRICES": "tblPrices"},
			PriceTable:         "prices",
			Port:               3000,
			UpdateIntervalMS:   1000,
			RefreshTimeoutSecs: 1,
			DataDir:            dataDir,
			RedisURL:           "redis:6379",
		}
	}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startPollerFunc = func(*job.PricePoller, context.Context) {}
	startTelegramBotFunc = func(string, bot.SnapshotReader) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		startPollerFunc = origStartPoller
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
