package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/armour-nexus/nexus-api/internal/config"
	"github.com/armour-nexus/nexus-api/internal/database"
	"github.com/armour-nexus/nexus-api/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool             `help:"Enable debug logging."`
		Version kong.VersionFlag `help:"Print the version and exit."`
		Serve   ServeCmd         `cmd:"" default:"1" help:"Start the API server."`
		Migrate MigrateCmd       `cmd:"" help:"Run database migrations and seed plan limits."`
	}
)

// Globals are shared by every command.
type Globals struct {
	Debug   bool
	Version string
}

// ServeCmd runs the HTTP API until interrupted.
type ServeCmd struct {
	AutoMigrate bool `help:"Run migrations before serving." default:"true" env:"AUTO_MIGRATE" negatable:""`
}

func (s *ServeCmd) Run(globals *Globals) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Setup(globals.Debug || !cfg.IsProduction(), cfg.LogLevel)
	log.Info().Str("version", globals.Version).Str("addr", cfg.HTTPAddr).Msg("starting Armour Nexus API")

	app := newApp(cfg, log, s.AutoMigrate)
	app.Run()
	return app.Err()
}

// MigrateCmd applies the schema and exits.
type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Setup(globals.Debug, cfg.LogLevel)

	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.MigrateDatabase(db.WithContext(ctx), log)
}

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("nexus-api"),
		kong.Description("Armour Nexus organization, team and metered AI API."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
