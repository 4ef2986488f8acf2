package itinerary

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voyplan/itinerary-api/app/observability/metrics"
	"github.com/voyplan/itinerary-api/internal/types"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateItinerary(ctx context.Context, userID uuid.UUID, cityName string, coords types.Coordinates, places, restaurants []types.Place) (*types.Itinerary, error) {
	args := m.Called(ctx, userID, cityName, coords, places, restaurants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Itinerary), args.Error(1)
}

func (m *MockRepository) ListForOwner(ctx context.Context, userID uuid.UUID) ([]types.Itinerary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Itinerary), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, userID, itineraryID uuid.UUID) (*types.Itinerary, error) {
	args := m.Called(ctx, userID, itineraryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Itinerary), args.Error(1)
}

func newItineraryService(t *testing.T) (*ServiceImpl, *MockRepository) {
	t.Helper()
	metrics.InitAppMetrics()

	repo := new(MockRepository)
	service := NewServiceImpl(repo, NewSessionManager(), slog.Default())
	return service, repo
}

func TestSave(t *testing.T) {
	userID := uuid.New()
	lisbon := types.Coordinates{Lat: 38.72, Lon: -9.14}
	places := []types.Place{{ID: "p1", Name: "Castle", Category: types.CategoryAttraction}}

	t.Run("Success", func(t *testing.T) {
		service, repo := newItineraryService(t)
		ctx := context.Background()

		req := types.SaveItineraryRequest{
			CityName:        "Lisbon",
			CityCoordinates: lisbon,
			Places:          places,
		}
		saved := &types.Itinerary{
			ID:              uuid.New(),
			UserID:          userID,
			CityName:        "Lisbon",
			CityCoordinates: lisbon,
			Places:          places,
			Restaurants:     []types.Place{},
			CreatedAt:       time.Now(),
		}

		repo.On("CreateItinerary", ctx, userID, "Lisbon", lisbon, places, []types.Place(nil)).Return(saved, nil).Once()

		it, err := service.Save(ctx, userID, req)

		require.NoError(t, err)
		assert.Equal(t, saved.ID, it.ID)
		repo.AssertExpectations(t)
	})

	t.Run("EmptySelectionRejectedBeforeWrite", func(t *testing.T) {
		service, repo := newItineraryService(t)
		ctx := context.Background()

		req := types.SaveItineraryRequest{CityName: "Lisbon", CityCoordinates: lisbon}

		it, err := service.Save(ctx, userID, req)

		assert.Nil(t, it)
		assert.ErrorIs(t, err, types.ErrEmptySelection)
		repo.AssertNumberOfCalls(t, "CreateItinerary", 0)
	})

	t.Run("MissingCityName", func(t *testing.T) {
		service, repo := newItineraryService(t)
		ctx := context.Background()

		req := types.SaveItineraryRequest{Places: places}

		it, err := service.Save(ctx, userID, req)

		assert.Nil(t, it)
		assert.Error(t, err)
		repo.AssertNumberOfCalls(t, "CreateItinerary", 0)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		service, repo := newItineraryService(t)
		ctx := context.Background()

		req := types.SaveItineraryRequest{CityName: "Lisbon", CityCoordinates: lisbon, Places: places}
		repo.On("CreateItinerary", ctx, userID, "Lisbon", lisbon, places, []types.Place(nil)).Return(nil, errors.New("connection refused")).Once()

		it, err := service.Save(ctx, userID, req)

		assert.Nil(t, it)
		assert.Error(t, err)
	})
}

func TestListForOwner(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		service, repo := newItineraryService(t)
		ctx := context.Background()

		newest := types.Itinerary{ID: uuid.New(), CityName: "Porto", CreatedAt: time.Now()}
		oldest := types.Itinerary{ID: uuid.New(), CityName: "Lisbon", CreatedAt: time.Now().Add(-time.Hour)}
		repo.On("ListForOwner", ctx, userID).Return([]types.Itinerary{newest, oldest}, nil).Once()

		itineraries, err := service.ListForOwner(ctx, userID)

		require.NoError(t, err)
		require.Len(t, itineraries, 2)
		assert.Equal(t, "Porto", itineraries[0].CityName)
		repo.AssertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		service, repo := newItineraryService(t)
		ctx := context.Background()

		repo.On("ListForOwner", ctx, userID).Return(nil, errors.New("connection refused")).Once()

		itineraries, err := service.ListForOwner(ctx, userID)

		assert.Nil(t, itineraries)
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	userID := uuid.New()
	itineraryID := uuid.New()

	t.Run("ReplacesSessionWholesale", func(t *testing.T) {
		service, repo := newItineraryService(t)
		ctx := context.Background()

		// Pre-existing session content that must not survive the load.
		session := service.Sessions().Get(userID.String())
		session.SetCity("Porto", types.Coordinates{Lat: 41.15, Lon: -8.61})
		session.Add(types.Place{ID: "stale", Name: "Old", Category: types.CategoryAttraction}, types.CategoryAttraction)

		stored := &types.Itinerary{
			ID:              itineraryID,
			UserID:          userID,
			CityName:        "Lisbon",
			CityCoordinates: types.Coordinates{Lat: 38.72, Lon: -9.14},
			Places:          []types.Place{{ID: "p1", Name: "Castle", Category: types.CategoryAttraction}},
			Restaurants:     []types.Place{{ID: "r1", Name: "Bistro", Category: types.CategoryRestaurant}},
		}
		repo.On("GetByID", ctx, userID, itineraryID).Return(stored, nil).Once()

		it, err := service.Load(ctx, userID, itineraryID)

		require.NoError(t, err)
		assert.Equal(t, itineraryID, it.ID)

		state := session.Snapshot()
		assert.Equal(t, "Lisbon", state.CityName)
		require.Len(t, state.Places, 1)
		assert.Equal(t, "p1", state.Places[0].ID)
		require.Len(t, state.Restaurants, 1)
		repo.AssertExpectations(t)
	})

	t.Run("NotFoundLeavesSessionUntouched", func(t *testing.T) {
		service, repo := newItineraryService(t)
		ctx := context.Background()

		session := service.Sessions().Get(userID.String())
		session.Add(types.Place{ID: "keep", Name: "Keep", Category: types.CategoryAttraction}, types.CategoryAttraction)

		repo.On("GetByID", ctx, userID, itineraryID).Return(nil, errors.New("itinerary not found")).Once()

		it, err := service.Load(ctx, userID, itineraryID)

		assert.Nil(t, it)
		assert.Error(t, err)
		assert.Equal(t, 1, session.Len())
	})
}
