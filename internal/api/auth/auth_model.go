package auth

import "time"

// UserAuth is the credentials row for one account.
type UserAuth struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshTokenInfo is the state of one refresh token.
type RefreshTokenInfo struct {
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
}
