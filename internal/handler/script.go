package handler

import (
	_ "embed"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed assets/dashboard-sync.js
var dashboardScriptTemplate string

// DashboardScript godoc
// @Summary      Browser sync script
// @Description  Returns the dashboard script with this server's URL and the refresh interval filled in
// @Tags         dashboard
// @Produce      application/javascript
// @Success      200  {string}  string
// @Router       /dashboard-sync.js [get]
func (h *Handler) DashboardScript(c *gin.Context) {
	script := RenderDashboardScript(requestBaseURL(c.Request), h.updateIntervalMS)
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(script))
}

// RenderDashboardScript fills the script placeholders.
func RenderDashboardScript(serverURL string, updateIntervalMS int) string {
	return strings.NewReplacer(
		"__SERVER_URL__", serverURL,
		"__UPDATE_INTERVAL__", strconv.Itoa(updateIntervalMS),
	).Replace(dashboardScriptTemplate)
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}
