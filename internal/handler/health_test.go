package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

var errTestRefresh = errors.New("airtable unreachable")

// Health must not depend on the price table being reachable.
func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := New(testTracer, &fakePriceService{refreshErr: errTestRefresh}, &fakeProxy{}, 300000, "")
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"status":"healthy"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestStatusBeforeFirstRefresh(t *testing.T) {
	r := newTestRouter(New(testTracer, &fakePriceService{}, &fakeProxy{}, 300000, ""))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/status", nil)
	r.ServeHTTP(w, req)

	if body := strings.TrimSpace(w.Body.String()); body != `{"lastUpdate":null,"recordCount":0,"status":"running"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", APIKeyAuth(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", w.Code)
	}
}
