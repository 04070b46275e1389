package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"formbase/backend/common"
	"formbase/backend/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupAuthTest(t *testing.T) *gin.Engine {
	t.Helper()
	originalPath := common.SQLitePath
	common.SQLitePath = ":memory:"
	t.Cleanup(func() { common.SQLitePath = originalPath })
	assert.NoError(t, model.InitDB())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := cookie.NewStore([]byte("test-session-secret"))
	r.Use(sessions.Sessions("formbase_session", store))
	r.POST("/api/auth/register", Register)
	r.POST("/api/auth/login", Login)
	r.POST("/api/auth/refresh", RefreshToken)
	r.POST("/api/auth/logout", Logout)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, url string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	req, _ := http.NewRequest("POST", url, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterFirstUserBecomesRoot(t *testing.T) {
	r := setupAuthTest(t)

	w := postJSON(t, r, "/api/auth/register", gin.H{
		"username": "alice",
		"password": "supersecret1",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user, err := model.GetUserByUsername("alice")
	assert.NoError(t, err)
	assert.Equal(t, common.RoleRootUser, user.Role)

	w = postJSON(t, r, "/api/auth/register", gin.H{
		"username": "bob",
		"password": "supersecret2",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	user, err = model.GetUserByUsername("bob")
	assert.NoError(t, err)
	assert.Equal(t, common.RoleCommonUser, user.Role)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := setupAuthTest(t)

	w := postJSON(t, r, "/api/auth/register", gin.H{"username": "alice", "password": "supersecret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/api/auth/register", gin.H{"username": "alice", "password": "othersecret9"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterWeakPasswordRejected(t *testing.T) {
	r := setupAuthTest(t)
	w := postJSON(t, r, "/api/auth/register", gin.H{"username": "alice", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginHappyPath(t *testing.T) {
	r := setupAuthTest(t)
	w := postJSON(t, r, "/api/auth/register", gin.H{"username": "alice", "password": "supersecret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/api/auth/login", gin.H{"username": "alice", "password": "supersecret1"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			User         struct {
				Username string `json:"username"`
				Password string `json:"password"`
			} `json:"user"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.AccessToken)
	assert.NotEmpty(t, resp.Data.RefreshToken)
	assert.Equal(t, "alice", resp.Data.User.Username)
	assert.Empty(t, resp.Data.User.Password, "password hash must not leak")
	assert.NotEmpty(t, w.Result().Cookies(), "login should set a session cookie")
}

func TestLoginWrongPassword(t *testing.T) {
	r := setupAuthTest(t)
	w := postJSON(t, r, "/api/auth/register", gin.H{"username": "alice", "password": "supersecret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/api/auth/login", gin.H{"username": "alice", "password": "wrongpassword"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	r := setupAuthTest(t)
	w := postJSON(t, r, "/api/auth/login", gin.H{"username": "nobody", "password": "whatever12"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	r := setupAuthTest(t)
	w := postJSON(t, r, "/api/auth/register", gin.H{"username": "alice", "password": "supersecret1"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, r, "/api/auth/login", gin.H{"username": "alice", "password": "supersecret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Data struct {
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	w = postJSON(t, r, "/api/auth/refresh", gin.H{"refresh_token": loginResp.Data.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var refreshResp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshResp))
	assert.NotEmpty(t, refreshResp.Data.AccessToken)
}

func TestRefreshWithAccessTokenRejected(t *testing.T) {
	r := setupAuthTest(t)
	w := postJSON(t, r, "/api/auth/register", gin.H{"username": "alice", "password": "supersecret1"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, r, "/api/auth/login", gin.H{"username": "alice", "password": "supersecret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	w = postJSON(t, r, "/api/auth/refresh", gin.H{"refresh_token": loginResp.Data.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "access tokens must not pass as refresh tokens")
}
