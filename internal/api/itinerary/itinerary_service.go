package itinerary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyplan/itinerary-api/app/observability/metrics"
	"github.com/voyplan/itinerary-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for itinerary persistence and
// the per-owner session state.
type Service interface {
	Save(ctx context.Context, userID uuid.UUID, req types.SaveItineraryRequest) (*types.Itinerary, error)
	ListForOwner(ctx context.Context, userID uuid.UUID) ([]types.Itinerary, error)
	Load(ctx context.Context, userID uuid.UUID, itineraryID uuid.UUID) (*types.Itinerary, error)
	Sessions() *SessionManager
}

type ServiceImpl struct {
	logger   *slog.Logger
	repo     Repository
	sessions *SessionManager
}

func NewServiceImpl(repo Repository, sessions *SessionManager, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		sessions: sessions,
	}
}

// Sessions exposes the per-owner state store.
func (s *ServiceImpl) Sessions() *SessionManager {
	return s.sessions
}

// Save persists a snapshot of the given lists as a brand-new record. A save
// with both lists empty is rejected with types.ErrEmptySelection before any
// durable write.
func (s *ServiceImpl) Save(ctx context.Context, userID uuid.UUID, req types.SaveItineraryRequest) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Save", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("city.name", req.CityName),
	))
	defer span.End()

	if req.CityName == "" {
		return nil, fmt.Errorf("city name is required")
	}
	if len(req.Places) == 0 && len(req.Restaurants) == 0 {
		span.AddEvent("empty selection rejected")
		return nil, types.ErrEmptySelection
	}

	it, err := s.repo.CreateItinerary(ctx, userID, req.CityName, req.CityCoordinates, req.Places, req.Restaurants)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to create itinerary", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to save itinerary: %w", err)
	}

	metrics.Get().ItinerarySavesTotal.Add(ctx, 1)
	span.SetStatus(codes.Ok, "Itinerary saved")
	return it, nil
}

// ListForOwner returns all itineraries of a user, newest first.
func (s *ServiceImpl) ListForOwner(ctx context.Context, userID uuid.UUID) ([]types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ListForOwner", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	itineraries, err := s.repo.ListForOwner(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to list itineraries", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to retrieve itineraries: %w", err)
	}

	span.SetAttributes(attribute.Int("itineraries.count", len(itineraries)))
	span.SetStatus(codes.Ok, "Itineraries retrieved")
	return itineraries, nil
}

// Load fetches a persisted itinerary and replaces the owner's session state
// with it wholesale: both lists and the active city context. Nothing is
// merged with the previous session contents.
func (s *ServiceImpl) Load(ctx context.Context, userID uuid.UUID, itineraryID uuid.UUID) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Load", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("itinerary.id", itineraryID.String()),
	))
	defer span.End()

	it, err := s.repo.GetByID(ctx, userID, itineraryID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to get itinerary", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load itinerary: %w", err)
	}

	s.sessions.Get(userID.String()).Load(it)
	span.SetStatus(codes.Ok, "Itinerary loaded into session")
	return it, nil
}
