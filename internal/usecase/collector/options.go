package collector

import "time"

// Options represents configuration options for the Collector.
type Options struct {
	Interval       time.Duration `env:"INTERVAL" envDefault:"1m"`
	Align          bool          `env:"ALIGN" envDefault:"true"`
	CollectOnStart bool          `env:"COLLECT_ON_START" envDefault:"true"`
}

// DefaultOptions returns the default collector options.
func DefaultOptions() Options {
	return Options{
		Interval:       time.Minute,
		Align:          true,
		CollectOnStart: true,
	}
}

// Clock is the time source of the scheduling loop.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// nextFire returns when the tick after now is due. Aligned schedules fire on
// the next multiple of interval since the epoch, which for a one minute
// interval is second zero of the next minute.
func nextFire(now time.Time, interval time.Duration, align bool) time.Time {
	if !align {
		return now.Add(interval)
	}
	return now.Truncate(interval).Add(interval)
}
