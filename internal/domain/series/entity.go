package series

import (
	"time"
)

// Sample is one point of a series.
type Sample struct {
	// Timestamp in milliseconds since the Unix epoch.
	Timestamp int64
	Value     float64
}

// Time returns the sample timestamp as UTC time.
func (s Sample) Time() time.Time {
	return time.UnixMilli(s.Timestamp).UTC()
}

// Definition is a series name together with how long it keeps samples,
// measured back from its newest sample.
type Definition struct {
	Name      string
	Retention time.Duration
}
