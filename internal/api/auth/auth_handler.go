package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/voyplan/itinerary-api/internal/api"
	"github.com/voyplan/itinerary-api/internal/types"
)

type Handler struct {
	authService Service
	logger      *slog.Logger
}

func NewHandler(authService Service, logger *slog.Logger) *Handler {
	return &Handler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := h.authService.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", userID))
	api.WriteJSONResponse(w, r, http.StatusCreated, map[string]string{"id": userID, "message": "Registration successful"})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Message:      "Login successful",
	})
}

// RefreshSession handles POST /auth/refresh.
func (h *Handler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req types.RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, err := h.authService.RefreshSession(ctx, req.RefreshToken)
	if err != nil {
		h.logger.WarnContext(ctx, "Session refresh failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req types.LogoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.Logout(ctx, req.RefreshToken); err != nil {
		h.logger.ErrorContext(ctx, "Logout failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Logout failed")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "Logged out"})
}
