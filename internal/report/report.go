// Package report renders stored series as plain text tables.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/internal/resolution"
	"github.com/shopspring/decimal"
)

const (
	timeLayout  = "2006-01-02 15:04:05"
	noData      = "No data available"
	tableHeader = "Timestamp                 | Price (USD)"
)

var defaultCounts = map[resolution.Resolution]int{
	resolution.Minute:     60,
	resolution.FiveMin:    12,
	resolution.FifteenMin: 4,
	resolution.Hour:       24,
}

// DefaultCount is how many rows are shown for r when no count is given.
func DefaultCount(r resolution.Resolution) int {
	if level, err := resolution.Lookup(r); err == nil {
		return defaultCounts[level.Resolution]
	}
	return 10
}

// Stats summarizes the last rollup period.
type Stats struct {
	Min      decimal.Decimal
	Max      decimal.Decimal
	Close    decimal.Decimal
	HasClose bool
}

// Range is Max minus Min.
func (s Stats) Range() decimal.Decimal {
	return s.Max.Sub(s.Min)
}

// RangePercent is Range relative to Min. ok is false when Min is zero.
func (s Stats) RangePercent() (pct decimal.Decimal, ok bool) {
	if s.Min.IsZero() {
		return decimal.Zero, false
	}
	return s.Range().Div(s.Min).Mul(decimal.NewFromInt(100)), true
}

// Viewer reads series and writes them to out. It never creates series.
type Viewer struct {
	store series.Store
	keys  series.Keys
	out   io.Writer
	loc   *time.Location
	now   func() time.Time
}

// NewViewer creates a viewer printing timestamps in loc.
func NewViewer(store series.Store, keys series.Keys, out io.Writer, loc *time.Location) *Viewer {
	if loc == nil {
		loc = time.Local
	}
	return &Viewer{
		store: store,
		keys:  keys,
		out:   out,
		loc:   loc,
		now:   time.Now,
	}
}

// Show prints the newest count samples of r, and the last period's
// statistics for rollup levels. count <= 0 uses DefaultCount.
func (v *Viewer) Show(ctx context.Context, r resolution.Resolution, count int) error {
	level, err := resolution.Lookup(r)
	if err != nil {
		return err
	}
	if count <= 0 {
		count = DefaultCount(level.Resolution)
	}

	name := v.keys.Base()
	if level.Resolution.IsRollup() {
		name = v.keys.Close(level.Resolution)
	}

	entries, err := v.store.LastN(ctx, name, count)
	if err != nil {
		return err
	}

	fmt.Fprintf(v.out, "\n%s Resolution Data:\n", strings.ToUpper(level.Resolution.String()))
	fmt.Fprintln(v.out, strings.Repeat("-", 50))
	fmt.Fprintln(v.out, FormatTable(entries, v.loc))

	if len(entries) > 0 {
		last := entries[len(entries)-1].Time()
		fmt.Fprintf(v.out, "Latest sample %s\n", humanize.RelTime(last, v.now(), "ago", "from now"))
	}

	if !level.Resolution.IsRollup() {
		return nil
	}

	stats, ok, err := v.lastPeriod(ctx, level.Resolution, entries)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(v.out)
		fmt.Fprint(v.out, FormatStats(stats))
	}
	return nil
}

// ShowAll prints every level with its default count.
func (v *Viewer) ShowAll(ctx context.Context) error {
	for _, level := range resolution.AllLevels {
		if err := v.Show(ctx, level.Resolution, 0); err != nil {
			return err
		}
	}
	return nil
}

func (v *Viewer) lastPeriod(ctx context.Context, r resolution.Resolution, closes []series.Sample) (Stats, bool, error) {
	mins, err := v.store.LastN(ctx, v.keys.Min(r), 1)
	if err != nil {
		return Stats{}, false, err
	}
	maxs, err := v.store.LastN(ctx, v.keys.Max(r), 1)
	if err != nil {
		return Stats{}, false, err
	}
	if len(mins) == 0 || len(maxs) == 0 {
		return Stats{}, false, nil
	}

	stats := Stats{
		Min: decimal.NewFromFloat(mins[0].Value),
		Max: decimal.NewFromFloat(maxs[0].Value),
	}
	if len(closes) > 0 {
		stats.Close = decimal.NewFromFloat(closes[len(closes)-1].Value)
		stats.HasClose = true
	}
	return stats, true, nil
}

// FormatTable renders samples oldest first, or a no data notice.
func FormatTable(samples []series.Sample, loc *time.Location) string {
	if len(samples) == 0 {
		return noData
	}

	var b strings.Builder
	b.WriteString(tableHeader)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 40))
	for _, s := range samples {
		b.WriteString("\n")
		b.WriteString(s.Time().In(loc).Format(timeLayout))
		b.WriteString(" | ")
		b.WriteString(FormatUSD(decimal.NewFromFloat(s.Value)))
	}
	return b.String()
}

// FormatStats renders the last period block.
func FormatStats(s Stats) string {
	var b strings.Builder
	b.WriteString("Last Period Statistics:\n")
	fmt.Fprintf(&b, "Min Price: %s\n", FormatUSD(s.Min))
	fmt.Fprintf(&b, "Max Price: %s\n", FormatUSD(s.Max))
	if !s.HasClose {
		return b.String()
	}

	fmt.Fprintf(&b, "Close Price: %s\n", FormatUSD(s.Close))
	if pct, ok := s.RangePercent(); ok {
		fmt.Fprintf(&b, "Price Range: %s (%s%%)\n", FormatUSD(s.Range()), pct.StringFixed(2))
	} else {
		fmt.Fprintf(&b, "Price Range: %s\n", FormatUSD(s.Range()))
	}
	return b.String()
}

// FormatUSD renders d with thousands separators and two decimals.
func FormatUSD(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	if f < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -f)
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}
