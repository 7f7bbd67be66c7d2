package bootstrap

import (
	"net/http"
	"time"

	"github.com/muhammadchandra19/price-rollup/pkg/httplib/healthcheck"
)

const healthTimeout = 2 * time.Second

// HTTPHandler serves /metrics, and /health backed by a store ping.
func (b *Bootstrap) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", b.Metrics.Handler())

	health := healthcheck.New(healthTimeout)
	health.Register("series_store", b.Repository.Series.Ping)

	return health.Handler(mux)
}
