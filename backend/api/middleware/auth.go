package middleware

import (
	"net/http"
	"strings"

	"formbase/backend/common"
	"formbase/backend/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// resolveIdentity extracts the caller's identity from the cookie session or
// a Bearer token, in that order. Returns false when neither is present and
// valid.
func resolveIdentity(c *gin.Context) (userID int64, username string, role int, ok bool) {
	session := sessions.Default(c)
	if id := session.Get("id"); id != nil {
		userID, _ = id.(int64)
		username, _ = session.Get("username").(string)
		role, _ = session.Get("role").(int)
		if userID != 0 {
			return userID, username, role, true
		}
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			claims, err := service.ValidateToken(parts[1])
			if err == nil {
				return claims.UserID, claims.Username, claims.Role, true
			}
		}
	}
	return 0, "", 0, false
}

func authHelper(c *gin.Context, minRole int) {
	userID, username, role, ok := resolveIdentity(c)
	if !ok {
		common.RespErrorStr(c, http.StatusUnauthorized, "unauthorized: missing or invalid credentials")
		c.Abort()
		return
	}
	if role < minRole {
		common.RespErrorStr(c, http.StatusForbidden, "unauthorized: insufficient permissions")
		c.Abort()
		return
	}
	c.Set("id", userID)
	c.Set("username", username)
	c.Set("role", role)
	c.Next()
}

// JWTAuth requires an authenticated user.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHelper(c, common.RoleCommonUser)
	}
}

// AdminAuth requires an admin user.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHelper(c, common.RoleAdminUser)
	}
}

// RootAuth requires the root user.
func RootAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHelper(c, common.RoleRootUser)
	}
}

// TryAuth attaches identity when credentials are present but lets anonymous
// requests through. Public submission endpoints use it so rate limiting and
// file ownership can still see logged-in users.
func TryAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, username, role, ok := resolveIdentity(c); ok {
			c.Set("id", userID)
			c.Set("username", username)
			c.Set("role", role)
		}
		c.Next()
	}
}
