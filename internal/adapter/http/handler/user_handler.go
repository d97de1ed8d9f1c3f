package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// UserService defines the administrative user operations.
type UserService interface {
	ListUsers(ctx context.Context, actorID string, limit, offset int) ([]*usecase.UserSnapshot, error)
	Promote(ctx context.Context, actorID, userID string) (*usecase.UserSnapshot, error)
	SetUserStatus(ctx context.Context, actorID, userID string, status domain.UserStatus) (*usecase.UserSnapshot, error)
}

// UserHandler handles admin user management.
type UserHandler struct {
	userUC UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userUC UserService) *UserHandler {
	return &UserHandler{userUC: userUC}
}

// List returns a page of users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	limit, offset := parsePage(r)

	users, err := h.userUC.ListUsers(r.Context(), p.UserID, limit, offset)
	if err != nil {
		writeDomainError(w, r, "failed to list users", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListUsersResponse{
		Users:  dto.UsersFromSnapshots(users),
		Limit:  limit,
		Offset: offset,
	})
}

// Promote grants the employee role.
func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	user, err := h.userUC.Promote(r.Context(), p.UserID, id)
	if err != nil {
		writeDomainError(w, r, "failed to promote user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromSnapshot(user))
}

// Deactivate blocks a user and revokes their sessions.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.UserStatusDeactivated)
}

// Activate re-enables a deactivated user.
func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.UserStatusActive)
}

func (h *UserHandler) setStatus(w http.ResponseWriter, r *http.Request, status domain.UserStatus) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	user, err := h.userUC.SetUserStatus(r.Context(), p.UserID, id, status)
	if err != nil {
		writeDomainError(w, r, "failed to change user status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromSnapshot(user))
}
