package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/armour-nexus/nexus-api/internal/auth"
	"github.com/armour-nexus/nexus-api/internal/constants"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user_id": ""})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID.String()})
}

func sessionRouter(tokens *auth.TokenVerifier, handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.POST("/login/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(constants.ContextKeyUserID, c.Param("id"))
		_ = s.Save()
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", append(handlers, whoami)...)
	return r
}

func login(t *testing.T, r *gin.Engine, userID uuid.UUID) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login/"+userID.String(), nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	return w.Result().Cookies()
}

func TestRequireAuth_Session(t *testing.T) {
	tokens := auth.NewTokenVerifier("secret")
	r := sessionRouter(tokens, RequireAuth(tokens))
	userID := uuid.New()
	cookies := login(t, r, userID)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestRequireAuth_Bearer(t *testing.T) {
	tokens := auth.NewTokenVerifier("secret")
	r := sessionRouter(tokens, RequireAuth(tokens))
	userID := uuid.New()

	token, err := tokens.Sign(userID, "player@acme.gg", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestRequireAuth_InvalidBearerDoesNotFallBackToSession(t *testing.T) {
	tokens := auth.NewTokenVerifier("secret")
	r := sessionRouter(tokens, RequireAuth(tokens))
	cookies := login(t, r, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_NoCredentials(t *testing.T) {
	r := sessionRouter(nil, RequireAuth(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "bearer tokens are refused without a secret")
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokenVerifier("secret")
	r := sessionRouter(tokens, OptionalAuth(tokens))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":""}`, w.Body.String())

	userID := uuid.New()
	token, err := tokens.Sign(userID, "", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role models.Role
		min  models.Role
		want int
	}{
		{models.RolePlayer, models.RolePlayer, http.StatusOK},
		{models.RoleCoach, models.RoleManager, http.StatusForbidden},
		{models.RoleManager, models.RoleManager, http.StatusOK},
		{models.RoleOwner, models.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_"+string(tt.min), func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) {
				c.Set(constants.ContextKeyMembership, &models.Membership{Role: tt.role, Status: models.MembershipActive})
				c.Next()
			}, RequireRole(tt.min), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRole_WithoutMembership(t *testing.T) {
	r := gin.New()
	r.GET("/", RequireRole(models.RolePlayer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserRateLimiter(t *testing.T) {
	rl := NewUserRateLimiter(2)
	now := time.Date(2025, time.November, 14, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	alice := uuid.New()
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, alice)
		c.Next()
	}, rl.Handler(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w
	}

	assert.Equal(t, http.StatusOK, call().Code)
	assert.Equal(t, http.StatusOK, call().Code)

	w := call()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// one token refills every 30s at 2 per minute
	now = now.Add(31 * time.Second)
	assert.Equal(t, http.StatusOK, call().Code)

	now = now.Add(time.Hour)
	rl.Cleanup(10 * time.Minute)
	assert.Empty(t, rl.limiters)
}

func TestUserRateLimiter_Disabled(t *testing.T) {
	rl := NewUserRateLimiter(0)
	r := gin.New()
	r.GET("/", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.GET("/ping", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get("X-Trace-ID"))
	out := buf.String()
	assert.Contains(t, out, `"trace_id":"trace-123"`)
	assert.Contains(t, out, `"message":"inside handler"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"level":"warn"`)
}
