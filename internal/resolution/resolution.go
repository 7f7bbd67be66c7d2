package resolution

import (
	"fmt"
	"strings"
	"time"

	"github.com/muhammadchandra19/price-rollup/pkg/errors"
)

// Resolution names a level of the rollup hierarchy.
type Resolution string

// Supported resolutions.
const (
	Minute     Resolution = "minute"
	FiveMin    Resolution = "5min"
	FifteenMin Resolution = "15min"
	Hour       Resolution = "1h"

	// hourAlias is the name hourly series were created under by earlier deployments.
	hourAlias = "hour"
)

// Level describes one resolution: its alignment interval, how many minute
// samples a rollup consumes, and how long its series keep data.
type Level struct {
	Resolution Resolution
	Interval   time.Duration
	Samples    int
	Retention  time.Duration
	Format     string
}

// Catalog of supported levels, finest first.
var (
	LevelMinute     = Level{Resolution: Minute, Interval: time.Minute, Samples: 1, Retention: 2 * time.Hour, Format: "2006-01-02 15:04:05"}
	LevelFiveMin    = Level{Resolution: FiveMin, Interval: 5 * time.Minute, Samples: 5, Retention: 2 * time.Hour, Format: "2006-01-02 15:04:05"}
	LevelFifteenMin = Level{Resolution: FifteenMin, Interval: 15 * time.Minute, Samples: 15, Retention: 2 * time.Hour, Format: "2006-01-02 15:04:05"}
	LevelHour       = Level{Resolution: Hour, Interval: time.Hour, Samples: 60, Retention: 24 * time.Hour, Format: "2006-01-02 15:04:05"}
)

// AllLevels lists every level, finest first.
var AllLevels = []Level{LevelMinute, LevelFiveMin, LevelFifteenMin, LevelHour}

// RollupLevels lists the levels computed from the minute stream.
var RollupLevels = []Level{LevelFiveMin, LevelFifteenMin, LevelHour}

var registry = make(map[Resolution]Level)

func init() {
	for _, level := range AllLevels {
		registry[level.Resolution] = level
	}
}

// Parse resolves a user supplied name, accepting the legacy "hour" alias.
func Parse(name string) (Resolution, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == hourAlias {
		return Hour, nil
	}

	r := Resolution(normalized)
	if _, ok := registry[r]; !ok {
		return "", invalid(name)
	}
	return r, nil
}

// Lookup returns the catalog entry for r.
func Lookup(r Resolution) (Level, error) {
	if string(r) == hourAlias {
		r = Hour
	}

	level, ok := registry[r]
	if !ok {
		return Level{}, invalid(string(r))
	}
	return level, nil
}

// IntervalMillis returns the alignment interval of r in milliseconds.
func IntervalMillis(r Resolution) (int64, error) {
	level, err := Lookup(r)
	if err != nil {
		return 0, err
	}
	return level.Interval.Milliseconds(), nil
}

// SampleCount returns how many minute samples a rollup at r consumes.
func SampleCount(r Resolution) (int, error) {
	level, err := Lookup(r)
	if err != nil {
		return 0, err
	}
	if level.Resolution == Minute {
		return 0, invalid(string(r))
	}
	return level.Samples, nil
}

// Align truncates ts, in milliseconds since epoch, down to the interval
// boundary of r.
func Align(ts int64, r Resolution) (int64, error) {
	interval, err := IntervalMillis(r)
	if err != nil {
		return 0, err
	}
	return floorDiv(ts, interval) * interval, nil
}

// Names returns every resolution name, finest first.
func Names() []string {
	names := make([]string, 0, len(AllLevels))
	for _, level := range AllLevels {
		names = append(names, string(level.Resolution))
	}
	return names
}

func (r Resolution) String() string {
	return string(r)
}

// IsRollup reports whether r is computed from the minute stream.
func (r Resolution) IsRollup() bool {
	level, err := Lookup(r)
	return err == nil && level.Resolution != Minute
}

// floorDiv rounds towards negative infinity so pre-epoch timestamps align down too.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func invalid(name string) error {
	return errors.NewErrorDetails(fmt.Sprintf("unknown resolution %q", name), errors.InvalidResolution.String(), "resolution")
}
