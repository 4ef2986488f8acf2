package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/voyplan/itinerary-api/config"
	"github.com/voyplan/itinerary-api/internal/types"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, username, email, passwordHash string) (string, error) {
	args := m.Called(ctx, username, email, passwordHash)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*UserAuth, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserAuth), args.Error(1)
}

func (m *MockRepository) GetUserByID(ctx context.Context, userID string) (*UserAuth, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserAuth), args.Error(1)
}

func (m *MockRepository) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockRepository) GetRefreshToken(ctx context.Context, token string) (*RefreshTokenInfo, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RefreshTokenInfo), args.Error(1)
}

func (m *MockRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

var testJWTConfig = config.JWTConfig{
	SecretKey:  "test-access-secret",
	Issuer:     "test-issuer",
	Audience:   "test-audience",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 7 * 24 * time.Hour,
}

func TestRegister(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewServiceImpl(mockRepo, testJWTConfig, slog.Default())

	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()

		mockRepo.On("CreateUser", ctx, "testuser", "test@example.com", mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("password123")) == nil
		})).Return("user123", nil).Once()

		userID, err := service.Register(ctx, "testuser", "test@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, "user123", userID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		ctx := context.Background()

		userID, err := service.Register(ctx, "testuser", "test@example.com", "short")

		assert.Error(t, err)
		assert.Empty(t, userID)
		mockRepo.AssertNumberOfCalls(t, "CreateUser", 1)
	})

	t.Run("MissingFields", func(t *testing.T) {
		ctx := context.Background()

		_, err := service.Register(ctx, "", "test@example.com", "password123")
		assert.Error(t, err)

		_, err = service.Register(ctx, "testuser", "", "password123")
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewServiceImpl(mockRepo, testJWTConfig, slog.Default())
		ctx := context.Background()

		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user := &UserAuth{
			ID:           "user123",
			Username:     "testuser",
			Email:        "test@example.com",
			PasswordHash: string(hashed),
		}

		mockRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

		accessToken, refreshToken, err := service.Login(ctx, user.Email, "password123")

		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)

		// The access token carries the expected claims and verifies against
		// the configured secret.
		claims := &types.Claims{}
		parsed, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(testJWTConfig.SecretKey), nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, "user123", claims.UserID)
		assert.Equal(t, "test-issuer", claims.Issuer)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewServiceImpl(mockRepo, testJWTConfig, slog.Default())
		ctx := context.Background()

		mockRepo.On("GetUserByEmail", ctx, "nobody@example.com").Return(nil, ErrUserNotFound).Once()

		accessToken, refreshToken, err := service.Login(ctx, "nobody@example.com", "password123")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Empty(t, accessToken)
		assert.Empty(t, refreshToken)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewServiceImpl(mockRepo, testJWTConfig, slog.Default())
		ctx := context.Background()

		hashed, _ := bcrypt.GenerateFromPassword([]byte("correctpassword"), bcrypt.DefaultCost)
		user := &UserAuth{ID: "user123", Email: "test@example.com", PasswordHash: string(hashed)}

		mockRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()

		_, _, err := service.Login(ctx, user.Email, "wrongpassword")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		mockRepo.AssertNumberOfCalls(t, "StoreRefreshToken", 0)
	})
}

func TestRefreshSession(t *testing.T) {
	t.Run("RotatesToken", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewServiceImpl(mockRepo, testJWTConfig, slog.Default())
		ctx := context.Background()

		oldToken := "old-refresh-token"
		user := &UserAuth{ID: "user123", Username: "testuser", Email: "test@example.com"}

		mockRepo.On("GetRefreshToken", ctx, oldToken).Return(&RefreshTokenInfo{
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil).Once()
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil).Once()
		mockRepo.On("RevokeRefreshToken", ctx, oldToken).Return(nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

		accessToken, newRefreshToken, err := service.RefreshSession(ctx, oldToken)

		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, newRefreshToken)
		assert.NotEqual(t, oldToken, newRefreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewServiceImpl(mockRepo, testJWTConfig, slog.Default())
		ctx := context.Background()

		mockRepo.On("GetRefreshToken", ctx, "expired-token").Return(&RefreshTokenInfo{
			UserID:    "user123",
			ExpiresAt: time.Now().Add(-time.Hour),
		}, nil).Once()

		_, _, err := service.RefreshSession(ctx, "expired-token")

		assert.Error(t, err)
		mockRepo.AssertNumberOfCalls(t, "StoreRefreshToken", 0)
	})

	t.Run("RevokedToken", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := NewServiceImpl(mockRepo, testJWTConfig, slog.Default())
		ctx := context.Background()

		revokedAt := time.Now().Add(-time.Minute)
		mockRepo.On("GetRefreshToken", ctx, "revoked-token").Return(&RefreshTokenInfo{
			UserID:    "user123",
			ExpiresAt: time.Now().Add(time.Hour),
			RevokedAt: &revokedAt,
		}, nil).Once()

		_, _, err := service.RefreshSession(ctx, "revoked-token")

		assert.Error(t, err)
	})
}

func TestLogout(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewServiceImpl(mockRepo, testJWTConfig, slog.Default())
	ctx := context.Background()

	mockRepo.On("RevokeRefreshToken", ctx, "some-token").Return(nil).Once()

	err := service.Logout(ctx, "some-token")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
