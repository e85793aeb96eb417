package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/armour-nexus/nexus-api/internal/auth"
	"github.com/armour-nexus/nexus-api/internal/billing"
	"github.com/armour-nexus/nexus-api/internal/constants"
	"github.com/armour-nexus/nexus-api/internal/database"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/armour-nexus/nexus-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret     = "handler-test-secret"
	testWebhookSecret = "whsec_handlers"
	testPassword      = "supersecret"
)

type stubChat struct {
	calls int
	err   error
}

func (s *stubChat) Chat(context.Context, string, string) (*services.ChatResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &services.ChatResult{Content: "Scrim at 7pm, bring your headsets.", TotalTokens: 42}, nil
}

type stubImages struct {
	err error
}

func (s *stubImages) GenerateImage(context.Context, string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("png"), nil
}

type stubStore struct{}

func (stubStore) Upload(_ context.Context, path, _ string, _ []byte) (string, error) {
	return "https://cdn.example.com/" + path, nil
}

type stubProvider struct {
	customers int
}

func (p *stubProvider) CreateCustomer(context.Context, billing.CustomerParams) (string, error) {
	p.customers++
	return fmt.Sprintf("cus_%d", p.customers), nil
}

func (p *stubProvider) CreateCheckoutSession(context.Context, billing.CheckoutParams) (string, error) {
	return "https://checkout.stripe.com/c/pay/cs_test", nil
}

type testEnv struct {
	t           *testing.T
	db          *gorm.DB
	tokens      *auth.TokenVerifier
	router      *gin.Engine
	authService *services.AuthService
	orgService  *services.OrganizationService
	chat        *stubChat
	images      *stubImages
	provider    *stubProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedPlanLimits(db))

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	eventRepo := repository.NewEventRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	g := gate.New(gate.NewGormStore(db))

	env := &testEnv{
		t:        t,
		db:       db,
		tokens:   auth.NewTokenVerifier(testJWTSecret),
		chat:     &stubChat{},
		images:   &stubImages{},
		provider: &stubProvider{},
	}
	env.authService = services.NewAuthService(userRepo)
	env.orgService = services.NewOrganizationService(orgRepo, userRepo, g)
	teamService := services.NewTeamService(teamRepo, g)
	eventService := services.NewEventService(eventRepo, teamService)
	assistant := services.NewAssistantService(g, env.chat, orgRepo, teamRepo, eventRepo)
	imageService := services.NewImageService(g, env.images, stubStore{})
	prices := func(plan string) string {
		if plan == string(models.PlanArmoured) {
			return "price_armoured"
		}
		return ""
	}
	billingService := services.NewBillingService(g, env.provider, prices, orgRepo, userRepo, subRepo)

	authHandler := NewAuthHandler(env.authService, env.tokens)
	orgHandler := NewOrganizationHandler(env.orgService)
	teamHandler := NewTeamHandler(teamService, eventService)
	aiHandler := NewAIHandler(assistant, imageService)
	billingHandler := NewBillingHandler(billingService, billing.NewStripeWebhook(testWebhookSecret))
	gateHandler := NewGateHandler(g)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))

	requireAuth := middleware.RequireAuth(env.tokens)
	api := r.Group("/api")
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", requireAuth, authHandler.GetCurrentUser)
	api.POST("/invitations/accept", requireAuth, orgHandler.AcceptInvitation)
	api.POST("/gate/authorize", middleware.OptionalAuth(env.tokens), gateHandler.Authorize)
	api.POST("/webhooks/stripe", billingHandler.StripeWebhook)

	orgs := api.Group("/organizations", requireAuth)
	orgs.POST("", orgHandler.CreateOrganization)
	orgs.GET("", orgHandler.ListOrganizations)

	org := orgs.Group("/:id", middleware.RequireOrganizationAccess(orgRepo))
	org.GET("", orgHandler.GetOrganization)
	org.POST("/members/invite", middleware.RequireRole(models.RoleAdmin), orgHandler.InviteMember)
	org.DELETE("/members/:memberId", middleware.RequireRole(models.RoleAdmin), orgHandler.RemoveMember)
	org.POST("/teams", middleware.RequireRole(models.RoleManager), teamHandler.CreateTeam)
	org.GET("/teams", teamHandler.ListTeams)
	teamAccess := middleware.RequireTeamAccess(teamRepo)
	org.POST("/teams/:teamId/members", teamAccess, middleware.RequireRole(models.RoleManager), teamHandler.AddTeamMember)
	org.GET("/teams/:teamId/members", teamAccess, teamHandler.ListTeamMembers)
	org.POST("/events", middleware.RequireRole(models.RoleManager), teamHandler.CreateEvent)
	org.GET("/events", teamHandler.ListEvents)
	org.POST("/ai/chat", aiHandler.Chat)
	org.POST("/ai/images", aiHandler.GenerateImage)
	org.POST("/billing/checkout", billingHandler.Checkout)
	org.GET("/usage", gateHandler.Usage)

	env.router = r
	return env
}

func (e *testEnv) signup(email string) *models.User {
	e.t.Helper()
	user, err := e.authService.Signup(services.SignupInput{
		Email:    email,
		FullName: "Test " + email,
		Password: testPassword,
	})
	require.NoError(e.t, err)
	return user
}

func (e *testEnv) organization(owner *models.User, slug string) *models.Organization {
	e.t.Helper()
	org, err := e.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:    "Org " + slug,
		Slug:    slug,
		OwnerID: owner.ID,
	})
	require.NoError(e.t, err)
	return org
}

// member adds an active member with the given role.
func (e *testEnv) member(org *models.Organization, role models.Role) *models.User {
	e.t.Helper()
	user := e.signup(uuid.NewString()[:8] + "@acme.gg")
	joined := time.Now()
	require.NoError(e.t, e.db.Create(&models.Membership{
		OrganizationID: org.ID,
		UserID:         &user.ID,
		Role:           role,
		Status:         models.MembershipActive,
		JoinedAt:       &joined,
	}).Error)
	return user
}

// request sends a JSON request, authenticated with a bearer token when user is set.
func (e *testEnv) request(method, path string, body any, user *models.User) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := e.tokens.Sign(user.ID, user.Email, time.Hour)
		require.NoError(e.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func orgPath(org *models.Organization, suffix string) string {
	return "/api/organizations/" + org.ID.String() + suffix
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["code"].(string)
}
