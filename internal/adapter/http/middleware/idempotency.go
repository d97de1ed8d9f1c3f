package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	defaultIdempotencyTTL = 24 * time.Hour
	// processingMarker matches the value the store writes on a nil claim.
	processingMarker = "processing"
)

// cachedResponse is what gets stored under a completed key.
type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware handles request idempotency using Redis. Keys are
// scoped to the authenticated user so two callers cannot collide.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A
// non-positive ttl uses 24h.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if p, ok := domain.PrincipalFromContext(r.Context()); ok {
			key = p.UserID + ":" + key
		}

		log := zerolog.Ctx(r.Context())

		exists, stored, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			log.Error().Err(err).Msg("idempotency check failed")
			writeJSONError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			if string(stored) == processingMarker {
				writeJSONError(w, http.StatusConflict, "request with this idempotency key is in progress")
				return
			}
			replay(w, stored)
			return
		}

		// The key outlives the request context, so release or store it
		// without cancellation.
		ctx := context.WithoutCancel(r.Context())

		// Released unless a successful response was stored, which covers
		// a panicking handler as well as error statuses.
		saved := false
		defer func() {
			if saved {
				return
			}
			if err := m.store.Delete(ctx, key); err != nil {
				log.Warn().Err(err).Msg("failed to release idempotency key")
			}
		}()

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			return
		}

		encoded, err := json.Marshal(cachedResponse{Status: recorder.statusCode, Body: recorder.body.Bytes()})
		if err != nil {
			log.Warn().Err(err).Msg("failed to encode idempotent response")
			return
		}
		if err := m.store.Update(ctx, key, encoded, m.ttl); err != nil {
			log.Warn().Err(err).Msg("failed to store idempotent response")
			return
		}
		saved = true
	})
}

func replay(w http.ResponseWriter, stored []byte) {
	var cached cachedResponse
	if err := json.Unmarshal(stored, &cached); err != nil || cached.Status == 0 {
		cached = cachedResponse{Status: http.StatusOK, Body: stored}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}
