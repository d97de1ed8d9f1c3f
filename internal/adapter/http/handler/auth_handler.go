package handler

import (
	"context"
	"net/http"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// AuthService defines the behavior needed by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthResult, error)
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.AuthResult, error)
	Logout(ctx context.Context, principal domain.Principal) error
	Me(ctx context.Context, actorID string) (*usecase.Profile, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUC AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUC AuthService) *AuthHandler {
	return &AuthHandler{authUC: authUC}
}

// Register signs up a user and opens their default wallet.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authUC.Register(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to register", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AuthFromResult(result))
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authUC.Login(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to login", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuthFromResult(result))
}

// Logout revokes the session of the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.authUC.Logout(r.Context(), p); err != nil {
		writeDomainError(w, r, "failed to logout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current authenticated user with their wallets.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	profile, err := h.authUC.Me(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, r, "failed to load profile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProfileFromResult(profile))
}
