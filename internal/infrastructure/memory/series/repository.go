package series

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
)

type timeline struct {
	retention time.Duration
	samples   []series.Sample // ascending by timestamp, unique timestamps
}

// Repository is an in-memory implementation of series.Repository. Series
// behave like their RedisTimeSeries counterparts: last write wins per
// timestamp and samples older than the retention window, measured back from
// the newest sample, are evicted.
type Repository struct {
	mu     sync.RWMutex
	series map[string]*timeline
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		series: make(map[string]*timeline),
	}
}

var _ series.Repository = (*Repository)(nil)

// Append writes sample, creating the series without retention when it was
// never ensured.
func (r *Repository) Append(_ context.Context, name string, sample series.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tl, ok := r.series[name]
	if !ok {
		tl = &timeline{}
		r.series[name] = tl
	}

	i := sort.Search(len(tl.samples), func(i int) bool {
		return tl.samples[i].Timestamp >= sample.Timestamp
	})
	switch {
	case i < len(tl.samples) && tl.samples[i].Timestamp == sample.Timestamp:
		tl.samples[i] = sample
	case i == len(tl.samples):
		tl.samples = append(tl.samples, sample)
	default:
		tl.samples = append(tl.samples, series.Sample{})
		copy(tl.samples[i+1:], tl.samples[i:])
		tl.samples[i] = sample
	}

	tl.evict()
	return nil
}

// LastN returns up to n most recent samples, oldest first.
func (r *Repository) LastN(_ context.Context, name string, n int) ([]series.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tl, ok := r.series[name]
	if !ok || n <= 0 {
		return []series.Sample{}, nil
	}

	start := max(len(tl.samples)-n, 0)
	out := make([]series.Sample, len(tl.samples)-start)
	copy(out, tl.samples[start:])
	return out, nil
}

// Ensure creates the missing series.
func (r *Repository) Ensure(_ context.Context, defs []series.Definition) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var created []string
	for _, def := range defs {
		if _, ok := r.series[def.Name]; ok {
			continue
		}
		r.series[def.Name] = &timeline{retention: def.Retention}
		created = append(created, def.Name)
	}
	return created, nil
}

// Purge drops every series whose name starts with prefix.
func (r *Repository) Purge(_ context.Context, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for name := range r.series {
		if strings.HasPrefix(name, prefix) {
			delete(r.series, name)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (r *Repository) Ping(context.Context) error {
	return nil
}

func (tl *timeline) evict() {
	if tl.retention <= 0 || len(tl.samples) == 0 {
		return
	}

	cutoff := tl.samples[len(tl.samples)-1].Timestamp - tl.retention.Milliseconds()
	i := sort.Search(len(tl.samples), func(i int) bool {
		return tl.samples[i].Timestamp >= cutoff
	})
	if i > 0 {
		tl.samples = append(tl.samples[:0], tl.samples[i:]...)
	}
}
