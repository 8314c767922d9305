package bootstrap

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"pokedex/app/internal/config"
	"pokedex/app/internal/db"
	apphttp "pokedex/app/internal/http"
	"pokedex/app/internal/pokeapi"
	"pokedex/app/internal/pokemon"
)

// Dependencies are the process-wide services Build composes the application from.
type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	// Fetcher overrides the PokeAPI client, mainly for tests.
	Fetcher pokeapi.Fetcher
}

// Result holds the composed application. Cleanup releases the database and server resources.
type Result struct {
	Service    pokemon.Service
	HTTPServer *apphttp.Server
	Database   *gorm.DB
	Cleanup    func() error
}

// Build composes the Pokédex application layers and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config

	gormDB, err := db.Open(db.Options{Path: cfg.DBPath, Logger: deps.Logger})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := db.Close(gormDB); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := pokemon.Migrate(ctx, gormDB, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running pokemon migrations"))
	}

	repo, err := pokemon.NewRepository(gormDB, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating pokemon repository"))
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		client, err := pokeapi.NewClient(pokeapi.ClientOptions{
			BaseURL:   cfg.PokeAPI.BaseURL,
			Timeout:   cfg.PokeAPI.Timeout,
			CacheTTL:  cfg.PokeAPI.CacheTTL,
			RateLimit: cfg.PokeAPI.RateLimit,
			RateBurst: cfg.PokeAPI.RateBurst,
			Logger:    deps.Logger,
		})
		if err != nil {
			return closeOnError(eris.Wrap(err, "creating pokeapi client"))
		}
		fetcher = client
	}

	service, err := pokemon.NewService(repo, fetcher, deps.Logger, deps.SentryHub, pokemon.Settings{
		BatchWorkers: cfg.Batch.Workers,
		ItemTimeout:  cfg.Batch.ItemTimeout,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating pokemon service"))
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		Service:     service,
		Database:    gormDB,
		Logger:      deps.Logger,
		SentryHub:   deps.SentryHub,
		AdminSecret: cfg.AdminJWTSecret,
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             cfg.RateLimit.Burst,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return db.Close(gormDB)
	}

	return Result{
		Service:    service,
		HTTPServer: httpServer,
		Database:   gormDB,
		Cleanup:    cleanup,
	}, nil
}
