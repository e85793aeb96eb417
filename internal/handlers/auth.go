package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/armour-nexus/nexus-api/internal/auth"
	"github.com/armour-nexus/nexus-api/internal/constants"
	"github.com/armour-nexus/nexus-api/internal/dto"
	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthHandler serves signup, login and the current-user endpoints. Callers
// authenticate with the session cookie or with a bearer token.
type AuthHandler struct {
	authService *services.AuthService
	tokens      *auth.TokenVerifier
}

// NewAuthHandler creates an AuthHandler. With a nil or disabled verifier login
// only sets the session cookie.
func NewAuthHandler(authService *services.AuthService, tokens *auth.TokenVerifier) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email,max=255"`
		FullName string `json:"full_name" binding:"max=255"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Signup(services.SignupInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	zerolog.Ctx(c.Request.Context()).Info().Str("user_id", user.ID.String()).Msg("user signed up")
	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login checks the credentials, starts a fresh session and, when bearer tokens
// are enabled, returns a short lived access token as well.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	// drop whatever the previous session carried before binding the user
	session := sessions.Default(c)
	session.Clear()
	session.Set(constants.ContextKeyUserID, user.ID.String())
	if err := session.Save(); err != nil {
		respondAuthError(c, fmt.Errorf("save session: %w", err))
		return
	}

	resp := dto.LoginResponse{UserDTO: dto.ToUserDTO(*user)}
	if h.tokens.Enabled() {
		token, err := h.tokens.Sign(user.ID, user.Email, constants.AccessTokenTTL)
		if err != nil {
			respondAuthError(c, fmt.Errorf("sign access token: %w", err))
			return
		}
		resp.AccessToken = token
		resp.TokenType = "Bearer"
		resp.ExpiresIn = int(constants.AccessTokenTTL.Seconds())
	}

	c.JSON(http.StatusOK, resp)
}

// Logout ends the cookie session. Bearer tokens are stateless and stay valid
// until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondAuthError(c, fmt.Errorf("clear session: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user and how they authenticated.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	method := middleware.GetAuthMethod(c)

	user, err := h.authService.GetUser(userID)
	if errors.Is(err, services.ErrUserNotFound) {
		// the account is gone; a leftover session must not keep working
		if method == constants.AuthMethodSession {
			session := sessions.Default(c)
			session.Clear()
			_ = session.Save()
		}
		apierrors.Unauthorized(c, "Account no longer exists")
		return
	}
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CurrentUserResponse{
		UserDTO:    dto.ToUserDTO(*user),
		AuthMethod: method,
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidEmail):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("auth request failed")
		apierrors.InternalError(c, "")
	}
}
