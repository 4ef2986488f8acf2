package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/voyplan/itinerary-api/app/db"
	"github.com/voyplan/itinerary-api/config"
	"github.com/voyplan/itinerary-api/internal/api/auth"
	"github.com/voyplan/itinerary-api/internal/api/itinerary"
	"github.com/voyplan/itinerary-api/internal/api/search"
	"github.com/voyplan/itinerary-api/internal/provider/geoapify"
	"github.com/voyplan/itinerary-api/internal/provider/openweather"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	SearchHandler    *search.Handler
	ItineraryHandler *itinerary.Handler
	AuthHandler      *auth.Handler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	// Initialize database
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	// Upstream provider clients
	geoClient := geoapify.NewClient(cfg.Providers.Geoapify, logger)
	weatherClient := openweather.NewClient(cfg.Providers.OpenWeather, logger)

	// Search
	searchService := search.NewServiceImpl(geoClient, geoClient, weatherClient, cfg.Cache.SearchTTL, logger)
	searchHandler := search.NewHandler(searchService, logger)

	// Itineraries and per-user sessions
	sessions := itinerary.NewSessionManager()
	itineraryRepo := itinerary.NewRepository(pool, logger)
	itineraryService := itinerary.NewServiceImpl(itineraryRepo, sessions, logger)
	itineraryHandler := itinerary.NewHandler(itineraryService, logger)

	// Auth
	authRepo := auth.NewPostgresRepository(pool, logger)
	authService := auth.NewServiceImpl(authRepo, cfg.JWT, logger)
	authHandler := auth.NewHandler(authService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		SearchHandler:    searchHandler,
		ItineraryHandler: itineraryHandler,
		AuthHandler:      authHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
