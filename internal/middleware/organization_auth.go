package middleware

import (
	"errors"

	"github.com/armour-nexus/nexus-api/internal/constants"
	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RequireOrganizationAccess loads the organization in the :id parameter and
// the caller's active membership in it.
func RequireOrganizationAccess(orgRepo repository.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		org, err := orgRepo.FindByID(orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Organization not found")
			} else {
				zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to load organization")
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		membership, err := orgRepo.FindActiveMembership(orgID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 404 rather than 403 so non-members cannot discover organizations
				apierrors.NotFound(c, "Organization not found")
			} else {
				zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to load membership")
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyOrganization, org)
		c.Set(constants.ContextKeyMembership, membership)
		c.Next()
	}
}

// RequireRole rejects members ranked below min. It must run after RequireOrganizationAccess.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		membership, ok := GetMembership(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}
		if !gate.CheckRole(membership.Role, min) {
			apierrors.Forbidden(c, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetMembership returns the membership stored by RequireOrganizationAccess.
func GetMembership(c *gin.Context) (*models.Membership, bool) {
	v, exists := c.Get(constants.ContextKeyMembership)
	if !exists {
		return nil, false
	}
	m, ok := v.(*models.Membership)
	return m, ok
}

// GetOrganization returns the organization stored by RequireOrganizationAccess.
func GetOrganization(c *gin.Context) (*models.Organization, bool) {
	v, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		return nil, false
	}
	org, ok := v.(*models.Organization)
	return org, ok
}
