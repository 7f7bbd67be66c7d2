package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// HealthCheck answers GET /health. It replies "ok" when every registered
// check passes and 503 listing the failing checks otherwise.
type HealthCheck struct {
	checks  map[string]Checker
	timeout time.Duration
}

// New creates a HealthCheck where every check is bounded by timeout.
func New(timeout time.Duration) *HealthCheck {
	return &HealthCheck{
		checks:  make(map[string]Checker),
		timeout: timeout,
	}
}

// Register adds a named dependency check.
func (hc *HealthCheck) Register(name string, check Checker) {
	hc.checks[name] = check
}

// Handler is used to control the flow of GET /health endpoint
func (hc *HealthCheck) Handler(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if IsHealthCheckRequest(r) {
			hc.ServeHTTP(w, r)

			return
		}

		h.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

// ServeHTTP serve http request for health check
func (hc *HealthCheck) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	failed := hc.run(r.Context())
	if len(failed) == 0 {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	for _, name := range failed {
		fmt.Fprintf(w, "%s: unavailable\n", name)
	}
}

// run executes every check and returns the sorted names of the failing ones.
func (hc *HealthCheck) run(ctx context.Context) []string {
	var failed []string
	for name, check := range hc.checks {
		checkCtx, cancel := context.WithTimeout(ctx, hc.timeout)
		err := check(checkCtx)
		cancel()
		if err != nil {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}

// IsHealthCheckRequest is used to check if the request is a health check request
func IsHealthCheckRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && r.URL.Path == "/health"
}
