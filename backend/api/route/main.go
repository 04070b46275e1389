package route

import (
	"formbase/backend/api/middleware"
	"formbase/backend/common"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetRouter wires middleware and both route groups onto the engine.
func SetRouter(route *gin.Engine, frontendDir string) {
	route.Use(middleware.CORS())

	store := cookie.NewStore([]byte(common.SessionSecret))
	route.Use(sessions.Sessions("formbase_session", store))

	if common.GetEnableGzip() {
		route.Use(middleware.GzipDecodeMiddleware())
		route.Use(middleware.GzipEncodeMiddleware())
	}

	SetApiRouter(route)
	setWebRouter(route, frontendDir)
}
