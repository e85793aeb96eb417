package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/armour-nexus/nexus-api/internal/auth"
	"github.com/armour-nexus/nexus-api/internal/billing"
	"github.com/armour-nexus/nexus-api/internal/config"
	"github.com/armour-nexus/nexus-api/internal/database"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/handlers"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/armour-nexus/nexus-api/internal/services"
	"github.com/armour-nexus/nexus-api/internal/storage"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const assetsRoute = "/assets"

func newApp(cfg *config.Config, log zerolog.Logger, autoMigrate bool) *fx.App {
	return fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log),

		fx.Provide(
			provideDB,
			repository.NewUserRepository,
			repository.NewOrganizationRepository,
			repository.NewTeamRepository,
			repository.NewEventRepository,
			repository.NewSubscriptionRepository,
		),

		fx.Provide(
			provideGate,
			func(g *gate.Gate) services.PlanResolver { return g },
			func(g *gate.Gate) services.Metering { return g },
			func(cfg *config.Config) *auth.TokenVerifier { return auth.NewTokenVerifier(cfg.JWTSecret) },
		),

		fx.Provide(
			provideAIService,
			func(ai *services.AIService) services.ChatModel { return ai },
			func(ai *services.AIService) services.ImageModel { return ai },
			provideAssetStore,
			provideBillingProvider,
			func(cfg *config.Config) billing.WebhookVerifier { return billing.NewStripeWebhook(cfg.StripeWebhookSecret) },
			func(cfg *config.Config) services.PriceCatalog { return cfg.StripePriceID },
		),

		fx.Provide(
			services.NewAuthService,
			services.NewOrganizationService,
			services.NewTeamService,
			services.NewEventService,
			services.NewAssistantService,
			services.NewImageService,
			services.NewBillingService,
		),

		fx.Provide(
			handlers.NewAuthHandler,
			handlers.NewOrganizationHandler,
			handlers.NewTeamHandler,
			handlers.NewAIHandler,
			handlers.NewBillingHandler,
			handlers.NewGateHandler,
			provideRateLimiter,
			provideSessionStore,
			newRouter,
		),

		fx.Invoke(func(db *gorm.DB, log zerolog.Logger) error {
			if !autoMigrate {
				return nil
			}
			return database.MigrateDatabase(db, log)
		}),
		fx.Invoke(startServer),
	)
}

func provideDB(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func provideGate(db *gorm.DB, cfg *config.Config) *gate.Gate {
	return gate.New(gate.NewGormStore(db),
		gate.WithLocation(cfg.UsageLocation()),
		gate.WithDefaultPlan(models.Plan(cfg.DefaultPlan)),
	)
}

func provideAIService(cfg *config.Config, log zerolog.Logger) *services.AIService {
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set, AI features are disabled")
	}
	return services.NewAIService(cfg.OpenAIAPIKey, cfg.AIChatModel,
		services.WithAIHTTPClient(&http.Client{Timeout: cfg.AIRequestTimeout}),
	)
}

// provideAssetStore uses Supabase storage when configured and the local disk otherwise.
func provideAssetStore(cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	if cfg.SupabaseURL == "" {
		log.Info().Str("dir", cfg.StorageDir).Msg("storing generated assets on local disk")
		return storage.NewDiskStore(cfg.StorageDir, assetsRoute), nil
	}
	return storage.NewSupabaseStore(storage.SupabaseConfig{
		ProjectURL: cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Bucket:     cfg.StorageBucket,
	})
}

func provideBillingProvider(cfg *config.Config, log zerolog.Logger) billing.Provider {
	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is not set, checkout is disabled")
		return nil
	}
	return billing.NewStripeProvider(cfg.StripeSecretKey)
}

func provideRateLimiter(lc fx.Lifecycle, cfg *config.Config) *middleware.UserRateLimiter {
	rl := middleware.NewUserRateLimiter(cfg.AIRateLimitPerMinute)
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(5 * time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						rl.Cleanup(10 * time.Minute)
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(done)
			return nil
		},
	})
	return rl
}

func provideSessionStore(cfg *config.Config) (sessions.Store, error) {
	store, err := redisStore.NewStore(
		10,
		"tcp",
		net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		"",
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, err
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func startServer(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    8 * 1024,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server stopped")
				}
			}()
			log.Info().Str("addr", srv.Addr).Msg("http server listening")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})
}
