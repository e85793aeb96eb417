package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/armour-nexus/nexus-api/internal/constants"
	"github.com/armour-nexus/nexus-api/internal/dto"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Signup(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":     "Coach@Acme.gg",
		"full_name": "Casey Coach",
		"password":  testPassword,
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	response := decode[dto.UserDTO](t, w)
	assert.Equal(t, "coach@acme.gg", response.Email)
	assert.Equal(t, "Casey Coach", response.FullName)
}

func TestAuthHandler_SignupRejections(t *testing.T) {
	env := newTestEnv(t)
	env.signup("taken@acme.gg")

	w := env.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "short@acme.gg",
		"password": "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "not-an-email",
		"password": testPassword,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "taken@acme.gg",
		"password": testPassword,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_LoginSessionAndLogout(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup("existing@acme.gg")

	w := env.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "existing@acme.gg",
		"password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[dto.LoginResponse](t, w)
	assert.Equal(t, user.ID, login.ID)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.NotEmpty(t, login.AccessToken)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")

	// the session cookie alone authenticates follow-up requests
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	env.router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	current := decode[dto.CurrentUserResponse](t, me)
	assert.Equal(t, "existing@acme.gg", current.Email)
	assert.Equal(t, "session", current.AuthMethod)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	env.router.ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)

	// the access token from login authenticates on its own
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	me = httptest.NewRecorder()
	env.router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	assert.Equal(t, "bearer", decode[dto.CurrentUserResponse](t, me).AuthMethod)
}

func TestAuthHandler_LoginWithoutTokenSecret(t *testing.T) {
	env := newTestEnv(t)
	env.signup("existing@acme.gg")

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.POST("/login", NewAuthHandler(env.authService, nil).Login)

	raw, err := json.Marshal(map[string]string{"email": "existing@acme.gg", "password": testPassword})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.NotContains(t, body, "access_token")
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestAuthHandler_DeletedAccountSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup("gone@acme.gg")

	w := env.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "gone@acme.gg",
		"password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	require.NoError(t, env.db.Delete(&models.User{}, "id = ?", user.ID).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	env.router.ServeHTTP(me, req)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, me))

	// a bearer token for the deleted account is refused the same way
	w = env.request(http.MethodGet, "/api/auth/me", nil, user)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.signup("existing@acme.gg")

	w := env.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "existing@acme.gg",
		"password": "wrong-password",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup("current@acme.gg")

	w := env.request(http.MethodGet, "/api/auth/me", nil, user)
	require.Equal(t, http.StatusOK, w.Code)
	current := decode[dto.CurrentUserResponse](t, w)
	assert.Equal(t, user.ID, current.ID)
	assert.Equal(t, "bearer", current.AuthMethod)

	w = env.request(http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GetCurrentUserFromContext(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup("context@acme.gg")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", bytes.NewReader(nil))
	c.Set(constants.ContextKeyUserID, user.ID)

	NewAuthHandler(env.authService, nil).GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)
	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, user.Email, response.Email)
}
