package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Handler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	testCases := []struct {
		name       string
		method     string
		path       string
		checks     map[string]Checker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthy without checks",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
			wantBody:   "ok\n",
		},
		{
			name:   "healthy store",
			method: http.MethodGet,
			path:   "/health",
			checks: map[string]Checker{
				"store": func(ctx context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantBody:   "ok\n",
		},
		{
			name:   "failing checks are listed in order",
			method: http.MethodGet,
			path:   "/health",
			checks: map[string]Checker{
				"store":    func(ctx context.Context) error { return errors.New("down") },
				"ok":       func(ctx context.Context) error { return nil },
				"upstream": func(ctx context.Context) error { return errors.New("down") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "store: unavailable\nupstream: unavailable\n",
		},
		{
			name:       "other paths fall through",
			method:     http.MethodGet,
			path:       "/metrics",
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "post is not a health request",
			method:     http.MethodPost,
			path:       "/health",
			wantStatus: http.StatusTeapot,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hc := New(time.Second)
			for name, check := range tc.checks {
				hc.Register(name, check)
			}

			rec := httptest.NewRecorder()
			hc.Handler(next).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}
