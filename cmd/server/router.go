package main

import (
	"net/http"

	"github.com/armour-nexus/nexus-api/internal/auth"
	"github.com/armour-nexus/nexus-api/internal/config"
	"github.com/armour-nexus/nexus-api/internal/constants"
	"github.com/armour-nexus/nexus-api/internal/handlers"
	"github.com/armour-nexus/nexus-api/internal/metrics"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type routerParams struct {
	fx.In

	Config       *config.Config
	Log          zerolog.Logger
	Sessions     sessions.Store
	Tokens       *auth.TokenVerifier
	Limiter      *middleware.UserRateLimiter
	Organization repository.OrganizationRepository
	Teams        repository.TeamRepository

	Auth *handlers.AuthHandler
	Orgs *handlers.OrganizationHandler
	Team *handlers.TeamHandler
	AI   *handlers.AIHandler
	Bill *handlers.BillingHandler
	Gate *handlers.GateHandler
}

func newRouter(p routerParams) *gin.Engine {
	gin.SetMode(p.Config.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(p.Log))
	r.Use(metrics.GinMiddleware())
	r.Use(sessions.Sessions(constants.SessionCookieName, p.Sessions))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Armour Nexus API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if p.Config.SupabaseURL == "" {
		r.Static(assetsRoute, p.Config.StorageDir)
	}

	requireAuth := middleware.RequireAuth(p.Tokens)
	orgAccess := middleware.RequireOrganizationAccess(p.Organization)
	teamAccess := middleware.RequireTeamAccess(p.Teams)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", p.Auth.Signup)
			authGroup.POST("/login", p.Auth.Login)
			authGroup.POST("/logout", p.Auth.Logout)
			authGroup.GET("/me", requireAuth, p.Auth.GetCurrentUser)
		}

		api.POST("/invitations/accept", requireAuth, p.Orgs.AcceptInvitation)
		api.POST("/gate/authorize", middleware.OptionalAuth(p.Tokens), p.Gate.Authorize)
		api.POST("/webhooks/stripe", p.Bill.StripeWebhook)

		orgs := api.Group("/organizations")
		orgs.Use(requireAuth)
		{
			orgs.POST("", p.Orgs.CreateOrganization)
			orgs.GET("", p.Orgs.ListOrganizations)

			org := orgs.Group("/:id")
			org.Use(orgAccess)
			{
				org.GET("", p.Orgs.GetOrganization)
				org.POST("/members/invite", middleware.RequireRole(models.RoleAdmin), p.Orgs.InviteMember)
				org.DELETE("/members/:memberId", middleware.RequireRole(models.RoleAdmin), p.Orgs.RemoveMember)

				org.POST("/teams", middleware.RequireRole(models.RoleManager), p.Team.CreateTeam)
				org.GET("/teams", p.Team.ListTeams)
				org.POST("/teams/:teamId/members", teamAccess, middleware.RequireRole(models.RoleManager), p.Team.AddTeamMember)
				org.GET("/teams/:teamId/members", teamAccess, p.Team.ListTeamMembers)

				org.POST("/events", middleware.RequireRole(models.RoleManager), p.Team.CreateEvent)
				org.GET("/events", p.Team.ListEvents)

				ai := org.Group("/ai")
				ai.Use(p.Limiter.Handler())
				{
					ai.POST("/chat", p.AI.Chat)
					ai.POST("/images", p.AI.GenerateImage)
				}

				org.POST("/billing/checkout", p.Bill.Checkout)
				org.GET("/usage", p.Gate.Usage)
			}
		}
	}

	return r
}
