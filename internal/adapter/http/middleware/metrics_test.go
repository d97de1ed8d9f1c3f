package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		pattern    string
		statusCode int
	}{
		{
			name:       "labels wallet path with pattern",
			method:     http.MethodGet,
			path:       "/wallets/01ABC123",
			pattern:    "/wallets/{id}",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "static path",
			method:     http.MethodPost,
			path:       "/health",
			pattern:    "/health",
			statusCode: http.StatusCreated,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			mw := NewMetricsMiddleware(m)

			r := chi.NewRouter()
			r.Use(mw.Wrap)
			r.MethodFunc(tc.method, tc.pattern, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Fatalf("expected status %d, got %d", tc.statusCode, rr.Code)
			}

			got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(tc.method, tc.pattern, strconv.Itoa(tc.statusCode)))
			if got != 1 {
				t.Fatalf("expected one request recorded for %s, got %v", tc.pattern, got)
			}

			if inflight := testutil.ToFloat64(m.HTTPInFlight); inflight != 0 {
				t.Fatalf("expected in-flight gauge back at 0, got %v", inflight)
			}

			if n := testutil.CollectAndCount(m.HTTPDuration); n != 1 {
				t.Fatalf("expected one duration series, got %d", n)
			}
		})
	}
}

func TestRoutePatternUnmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	if got := routePattern(req); got != "unmatched" {
		t.Fatalf("expected unmatched, got %q", got)
	}
}
