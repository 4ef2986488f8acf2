package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/voyplan/itinerary-api/config"
	"github.com/voyplan/itinerary-api/internal/types"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

var _ Service = (*ServiceImpl)(nil)

// Service is the identity provider: it authenticates users and issues the
// opaque owner identity the rest of the system trusts.
type Service interface {
	Register(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, string, error)
	RefreshSession(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	jwtCfg config.JWTConfig
}

func NewServiceImpl(repo Repository, jwtCfg config.JWTConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: jwtCfg,
	}
}

// Register creates a new account and returns its ID.
func (s *ServiceImpl) Register(ctx context.Context, username, email, password string) (string, error) {
	if username == "" || email == "" {
		return "", errors.New("username and email are required")
	}
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.repo.CreateUser(ctx, username, email, string(hashed))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		return "", fmt.Errorf("failed to register user: %w", err)
	}
	return userID, nil
}

// Login verifies the credentials and returns an access token plus a rotating
// refresh token.
func (s *ServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// RefreshSession rotates the refresh token and issues a fresh access token.
func (s *ServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	info, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	if time.Now().After(info.ExpiresAt) || info.RevokedAt != nil {
		return "", "", errors.New("refresh token expired or invalidated")
	}

	user, err := s.repo.GetUserByID(ctx, info.UserID)
	if err != nil {
		return "", "", err
	}

	if err := s.repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "Failed to revoke old refresh token", slog.Any("error", err))
	}

	return s.issueTokens(ctx, user)
}

// Logout invalidates the presented refresh token.
func (s *ServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *ServiceImpl) issueTokens(ctx context.Context, user *UserAuth) (string, string, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := uuid.NewString()
	refreshTTL := s.jwtCfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, time.Now().Add(refreshTTL)); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *ServiceImpl) generateAccessToken(user *UserAuth) (string, error) {
	accessTTL := s.jwtCfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}

	now := time.Now()
	claims := types.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{s.jwtCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.SecretKey))
}
