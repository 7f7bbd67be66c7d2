package series

import (
	"strings"

	"github.com/muhammadchandra19/price-rollup/internal/resolution"
)

// DefaultPrefix is the key prefix of every series of the BTC/USD metric.
const DefaultPrefix = "btc:price"

const (
	minSuffix = "min"
	maxSuffix = "max"
)

// Keys derives series names from a metric prefix.
//
//	{prefix}:minute              raw samples
//	{prefix}:{res}               rollup close
//	{prefix}:{res}:min|max       rollup extrema
type Keys struct {
	prefix string
}

// NewKeys returns Keys for prefix, falling back to DefaultPrefix when empty.
func NewKeys(prefix string) Keys {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Keys{prefix: prefix}
}

// Prefix returns the metric prefix.
func (k Keys) Prefix() string {
	return k.prefix
}

// Base returns the minute series the collector appends to.
func (k Keys) Base() string {
	return k.join(string(resolution.Minute))
}

// Close returns the close series of r. The minute level has a single series
// which is returned as is.
func (k Keys) Close(r resolution.Resolution) string {
	return k.join(canonical(r))
}

// Min returns the min series of rollup r.
func (k Keys) Min(r resolution.Resolution) string {
	return k.join(canonical(r), minSuffix)
}

// Max returns the max series of rollup r.
func (k Keys) Max(r resolution.Resolution) string {
	return k.join(canonical(r), maxSuffix)
}

// Triple returns the close, min and max series of rollup r.
func (k Keys) Triple(r resolution.Resolution) (closeKey, minKey, maxKey string) {
	return k.Close(r), k.Min(r), k.Max(r)
}

// Pattern returns a glob matching every series of the metric.
func (k Keys) Pattern() string {
	return k.prefix + ":*"
}

// Definitions lists every series the collector writes, with its retention.
func (k Keys) Definitions() []Definition {
	defs := []Definition{{Name: k.Base(), Retention: resolution.LevelMinute.Retention}}
	for _, level := range resolution.RollupLevels {
		closeKey, minKey, maxKey := k.Triple(level.Resolution)
		defs = append(defs,
			Definition{Name: closeKey, Retention: level.Retention},
			Definition{Name: minKey, Retention: level.Retention},
			Definition{Name: maxKey, Retention: level.Retention},
		)
	}
	return defs
}

func (k Keys) join(parts ...string) string {
	return k.prefix + ":" + strings.Join(parts, ":")
}

// canonical maps the legacy hour alias to its current series name.
func canonical(r resolution.Resolution) string {
	if level, err := resolution.Lookup(r); err == nil {
		return string(level.Resolution)
	}
	return string(r)
}
