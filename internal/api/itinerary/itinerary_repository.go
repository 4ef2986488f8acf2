package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/voyplan/itinerary-api/app/observability/metrics"
	"github.com/voyplan/itinerary-api/internal/types"
)

// PGXPool is the subset of pgxpool.Pool the repository needs. Tests back it
// with pgxmock.
type PGXPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the persistence gateway for itinerary snapshots.
type Repository interface {
	CreateItinerary(ctx context.Context, userID uuid.UUID, cityName string, coords types.Coordinates, places, restaurants []types.Place) (*types.Itinerary, error)
	ListForOwner(ctx context.Context, userID uuid.UUID) ([]types.Itinerary, error)
	GetByID(ctx context.Context, userID, itineraryID uuid.UUID) (*types.Itinerary, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewRepository(pgpool PGXPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

// CreateItinerary always inserts a new record; repeated saves for the same
// city produce independent records. There is no update/merge path.
func (r *RepositoryImpl) CreateItinerary(ctx context.Context, userID uuid.UUID, cityName string, coords types.Coordinates, places, restaurants []types.Place) (*types.Itinerary, error) {
	placesJSON, err := json.Marshal(placesOrEmpty(places))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal places: %w", err)
	}
	restaurantsJSON, err := json.Marshal(placesOrEmpty(restaurants))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal restaurants: %w", err)
	}

	query := `
        INSERT INTO itineraries (user_id, city_name, city_lat, city_lon, places, restaurants)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	start := time.Now()
	it := &types.Itinerary{
		UserID:          userID,
		CityName:        cityName,
		CityCoordinates: coords,
		Places:          placesOrEmpty(places),
		Restaurants:     placesOrEmpty(restaurants),
	}
	err = r.pgpool.QueryRow(ctx, query,
		userID, cityName, coords.Lat, coords.Lon, placesJSON, restaurantsJSON,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert itinerary", slog.Any("error", err))
		return nil, fmt.Errorf("failed to insert itinerary: %w", err)
	}

	return it, nil
}

// ListForOwner returns all itineraries of a user, newest first. No
// pagination.
func (r *RepositoryImpl) ListForOwner(ctx context.Context, userID uuid.UUID) ([]types.Itinerary, error) {
	query := `
        SELECT id, user_id, city_name, city_lat, city_lon, places, restaurants, created_at, updated_at
        FROM itineraries
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, userID)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to query itineraries: %w", err)
	}
	defer rows.Close()

	var itineraries []types.Itinerary
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, err
		}
		itineraries = append(itineraries, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading itinerary rows: %w", err)
	}
	return itineraries, nil
}

// GetByID returns one itinerary, scoped to its owner.
func (r *RepositoryImpl) GetByID(ctx context.Context, userID, itineraryID uuid.UUID) (*types.Itinerary, error) {
	query := `
        SELECT id, user_id, city_name, city_lat, city_lon, places, restaurants, created_at, updated_at
        FROM itineraries
        WHERE id = $1 AND user_id = $2
    `
	it, err := scanItinerary(r.pgpool.QueryRow(ctx, query, itineraryID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("itinerary not found")
		}
		return nil, err
	}
	return it, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItinerary(row rowScanner) (*types.Itinerary, error) {
	var it types.Itinerary
	var placesJSON, restaurantsJSON []byte

	err := row.Scan(&it.ID, &it.UserID, &it.CityName,
		&it.CityCoordinates.Lat, &it.CityCoordinates.Lon,
		&placesJSON, &restaurantsJSON, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan itinerary: %w", err)
	}

	if err := json.Unmarshal(placesJSON, &it.Places); err != nil {
		return nil, fmt.Errorf("failed to unmarshal places: %w", err)
	}
	if err := json.Unmarshal(restaurantsJSON, &it.Restaurants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal restaurants: %w", err)
	}
	return &it, nil
}

// placesOrEmpty keeps snapshots as [] rather than null in both JSONB and API
// responses.
func placesOrEmpty(places []types.Place) []types.Place {
	if places == nil {
		return []types.Place{}
	}
	return places
}
