package handler

import (
	"net/http"

	"formbase/backend/common"
	"formbase/backend/model"
	"formbase/backend/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=30"`
	Password    string `json:"password" binding:"required,min=8"`
	Email       string `json:"email" binding:"omitempty,email"`
	DisplayName string `json:"display_name"`
}

type tokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
}

// Register creates a new account. The first registered user becomes root.
func Register(c *gin.Context) {
	if !common.GetRegisterEnabled() {
		common.RespErrorStr(c, http.StatusForbidden, "registration is disabled")
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if _, err := model.GetUserByUsername(req.Username); err == nil {
		common.RespErrorStr(c, http.StatusConflict, "username already taken")
		return
	}
	role := common.RoleCommonUser
	if model.GetMaxUserId() == 0 {
		role = common.RoleRootUser
	}
	user := &model.User{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        role,
		Status:      common.UserStatusEnabled,
	}
	if err := user.Insert(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to create user", err)
		return
	}
	common.RespSuccessStr(c, "registered")
}

// Login verifies credentials and issues a JWT pair plus a cookie session.
func Login(c *gin.Context) {
	if !common.PasswordLoginEnabled {
		common.RespErrorStr(c, http.StatusForbidden, "password login is disabled")
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	user := &model.User{Username: req.Username, Password: req.Password}
	if err := user.ValidateAndFill(); err != nil {
		common.RespError(c, http.StatusUnauthorized, "login failed", err)
		return
	}

	accessToken, err := service.GenerateToken(user)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to generate token", err)
		return
	}
	refreshToken, err := service.GenerateRefreshToken(user)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to generate refresh token", err)
		return
	}

	session := sessions.Default(c)
	session.Set("id", user.ID)
	session.Set("username", user.Username)
	session.Set("role", user.Role)
	if err := session.Save(); err != nil {
		common.SysError("failed to save session: " + err.Error())
	}

	user.Password = ""
	common.RespSuccess(c, tokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// RefreshToken exchanges a refresh token for a fresh access token.
func RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	accessToken, err := service.RefreshToken(req.RefreshToken)
	if err != nil {
		common.RespError(c, http.StatusUnauthorized, "invalid refresh token", err)
		return
	}
	common.RespSuccess(c, gin.H{"access_token": accessToken})
}

// Logout clears the cookie session. JWTs simply expire.
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		common.SysError("failed to clear session: " + err.Error())
	}
	common.RespSuccessStr(c, "logged out")
}

// GetSelf returns the authenticated user's profile.
func GetSelf(c *gin.Context) {
	user, err := model.GetUserById(c.GetInt64("id"))
	if err != nil {
		common.RespError(c, http.StatusNotFound, "user not found", err)
		return
	}
	user.Password = ""
	common.RespSuccess(c, user)
}
