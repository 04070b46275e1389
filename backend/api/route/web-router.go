package route

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"formbase/backend/api/middleware"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// setWebRouter serves the built form-builder frontend when its directory is
// present. API-only deployments simply get a 404 fallback.
func setWebRouter(route *gin.Engine, frontendDir string) {
	route.Use(middleware.GlobalWebRateLimit())

	if frontendDir == "" {
		return
	}
	if _, err := os.Stat(frontendDir); err != nil {
		return
	}
	route.Use(static.Serve("/", static.LocalFile(frontendDir, false)))

	indexPage := filepath.Join(frontendDir, "index.html")
	route.NoRoute(func(c *gin.Context) {
		// SPA fallback: unknown non-API paths get the builder shell.
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(indexPage)
	})
}
