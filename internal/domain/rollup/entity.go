package rollup

import "github.com/muhammadchandra19/price-rollup/internal/resolution"

// Status tells whether an aggregation attempt produced a rollup.
type Status string

const (
	// StatusComputed means the window was full and the triple was written.
	StatusComputed Status = "computed"
	// StatusInsufficientData means the window held fewer samples than the
	// resolution needs. Nothing was written.
	StatusInsufficientData Status = "insufficient_data"
)

// Rollup is one close/min/max triple at an aligned timestamp.
type Rollup struct {
	Resolution resolution.Resolution
	Timestamp  int64
	Close      float64
	Min        float64
	Max        float64
}

// Result is the outcome of one aggregation attempt.
type Result struct {
	Resolution resolution.Resolution
	Status     Status
	Need       int
	Got        int
	// Rollup is set when Status is StatusComputed.
	Rollup *Rollup
}

// Counters is the cascade state. Every counter starts at 1.
type Counters struct {
	Minute     int
	FiveMin    int
	FifteenMin int
}

// InitialCounters is the cascade state of a fresh engine.
func InitialCounters() Counters {
	return Counters{Minute: 1, FiveMin: 1, FifteenMin: 1}
}

// Report lists what one tick did, in cascade order.
type Report struct {
	Before  Counters
	After   Counters
	Results []Result
}

// Computed returns the rollups computed during the tick.
func (r Report) Computed() []Rollup {
	var out []Rollup
	for _, res := range r.Results {
		if res.Status == StatusComputed && res.Rollup != nil {
			out = append(out, *res.Rollup)
		}
	}
	return out
}
