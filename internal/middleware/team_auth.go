package middleware

import (
	"errors"

	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const contextKeyTeam = "team"

// RequireTeamAccess loads the team in the :teamId parameter. The team must
// belong to the organization loaded by RequireOrganizationAccess.
func RequireTeamAccess(teamRepo repository.TeamRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := GetOrganization(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}

		teamID, err := uuid.Parse(c.Param("teamId"))
		if err != nil {
			apierrors.BadRequest(c, "Invalid team ID")
			c.Abort()
			return
		}

		team, err := teamRepo.FindByID(org.ID, teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Team not found")
			} else {
				zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to load team")
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(contextKeyTeam, team)
		c.Next()
	}
}

// GetTeam returns the team stored by RequireTeamAccess.
func GetTeam(c *gin.Context) (*models.Team, bool) {
	v, exists := c.Get(contextKeyTeam)
	if !exists {
		return nil, false
	}
	team, ok := v.(*models.Team)
	return team, ok
}
