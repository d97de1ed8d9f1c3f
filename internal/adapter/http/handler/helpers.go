package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

var domainStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInsufficientBalance, http.StatusConflict},
	{domain.ErrWalletExists, http.StatusConflict},
	{domain.ErrUserExists, http.StatusConflict},
	{domain.ErrCurrencyExists, http.StatusConflict},
	{domain.ErrAlreadyInState, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrIdempotencyKeyReused, http.StatusConflict},
	{domain.ErrDuplicateTransaction, http.StatusConflict},

	{domain.ErrWalletNotActive, http.StatusForbidden},
	{domain.ErrUserNotActive, http.StatusForbidden},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},

	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrInvalidToken, http.StatusUnauthorized},
	{domain.ErrExpiredToken, http.StatusUnauthorized},
	{domain.ErrSessionRevoked, http.StatusUnauthorized},

	{domain.ErrWalletNotFound, http.StatusNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrCurrencyNotFound, http.StatusNotFound},
	{domain.ErrTransactionNotFound, http.StatusNotFound},
	{domain.ErrReceiverNotFound, http.StatusNotFound},
	{domain.ErrReceiverWalletNotFound, http.StatusNotFound},

	{domain.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{domain.ErrInvalidDecimalPlaces, http.StatusUnprocessableEntity},
	{domain.ErrCurrencyMismatch, http.StatusUnprocessableEntity},
	{domain.ErrSameWalletTransfer, http.StatusUnprocessableEntity},
	{domain.ErrValidation, http.StatusUnprocessableEntity},
	{domain.ErrInvalidStatus, http.StatusBadRequest},
	{domain.ErrInvalidTransaction, http.StatusBadRequest},

	{domain.ErrLockTimeout, http.StatusServiceUnavailable},
	{domain.ErrPersistenceFailure, http.StatusInternalServerError},
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	for _, s := range domainStatuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// writeDomainError writes err with its mapped status. Server side failures
// are logged and their details withheld from the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)

	resp := dto.ErrorResponse{
		Error: message,
		Code:  domain.Kind(err),
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Msg(message)
	} else {
		resp.Message = err.Error()
	}

	writeJSON(w, status, resp)
}

// decodeJSON decodes the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// principal returns the authenticated caller or writes a 401.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok || p.UserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return domain.Principal{}, false
	}
	return p, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parsePage reads limit and offset, clamping them to sane bounds.
func parsePage(r *http.Request) (limit, offset int) {
	limit = parseIntQuery(r, "limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset = parseIntQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
