package middleware

import (
	"strings"

	"github.com/armour-nexus/nexus-api/internal/auth"
	"github.com/armour-nexus/nexus-api/internal/constants"
	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequireAuth accepts a bearer token or the session cookie. A bearer token
// that fails verification is rejected without falling back to the session.
func RequireAuth(tokens *auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			if tokens == nil || !tokens.Enabled() {
				apierrors.Unauthorized(c, "Bearer tokens are not accepted")
				c.Abort()
				return
			}
			userID, _, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("bearer token rejected")
				apierrors.Unauthorized(c, "Invalid or expired token")
				c.Abort()
				return
			}
			setUser(c, userID, constants.AuthMethodBearer)
			c.Next()
			return
		}

		session := sessions.Default(c)
		raw, ok := session.Get(constants.ContextKeyUserID).(string)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		setUser(c, userID, constants.AuthMethodSession)
		c.Next()
	}
}

func setUser(c *gin.Context, userID uuid.UUID, method string) {
	c.Set(constants.ContextKeyUserID, userID)
	c.Set(constants.ContextKeyAuthMethod, method)
	logger := zerolog.Ctx(c.Request.Context()).With().Str("user_id", userID.String()).Logger()
	c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetAuthMethod reports whether the caller used a bearer token or the session cookie.
func GetAuthMethod(c *gin.Context) string {
	if method := c.GetString(constants.ContextKeyAuthMethod); method != "" {
		return method
	}
	return constants.AuthMethodSession
}

// OptionalAuth identifies the caller when credentials are present and valid and
// otherwise continues anonymously.
func OptionalAuth(tokens *auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			if tokens != nil && tokens.Enabled() {
				if userID, _, err := tokens.Verify(strings.TrimPrefix(header, "Bearer ")); err == nil {
					setUser(c, userID, constants.AuthMethodBearer)
				}
			}
			c.Next()
			return
		}

		if raw, ok := sessions.Default(c).Get(constants.ContextKeyUserID).(string); ok {
			if userID, err := uuid.Parse(raw); err == nil {
				setUser(c, userID, constants.AuthMethodSession)
			}
		}
		c.Next()
	}
}
