package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest represents the expected JSON body for user login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the successful JSON response after login.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Message      string `json:"message"`
}

// RegisterRequest represents the expected JSON body for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenRequest represents the expected JSON body for refreshing tokens.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents the successful JSON response after refreshing tokens.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest represents the expected JSON body for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Claims represents the custom claims included in the JWT access token.
type Claims struct {
	UserID               string `json:"uid"`
	Username             string `json:"usr,omitempty"`
	Email                string `json:"eml"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, Issuer, Audience, ...
}
