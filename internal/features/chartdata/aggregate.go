package chartdata

import (
	"time"

	"go-insight/internal/features/query"
)

const dayKeyFormat = "2006-01-02"

// DailyAggregator buckets timestamped records into UTC calendar days across
// a fixed window. The full bucket set is built up front, so the output
// cardinality is independent of the input data: one point per day in
// [from, to] inclusive, zero-filled, ascending.
type DailyAggregator struct {
	from   time.Time
	to     time.Time
	days   []time.Time
	counts map[string]int
}

// NewDailyAggregator builds every day bucket before any record is inspected.
// from > to yields an aggregator with zero buckets.
func NewDailyAggregator(from, to time.Time) *DailyAggregator {
	a := &DailyAggregator{
		from:   from.UTC(),
		to:     to.UTC(),
		counts: make(map[string]int),
	}

	if a.from.After(a.to) {
		return a
	}

	start := dayOf(a.from)
	end := dayOf(a.to)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		a.days = append(a.days, d)
		a.counts[d.Format(dayKeyFormat)] = 0
	}
	return a
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Add counts one record. Timestamps outside [from, to] (inclusive on both
// ends) are discarded; this defends against executors that ignore range
// filters. Returns whether the record was counted.
func (a *DailyAggregator) Add(ts time.Time) bool {
	ts = ts.UTC()
	if ts.Before(a.from) || ts.After(a.to) {
		return false
	}
	a.counts[dayOf(ts).Format(dayKeyFormat)]++
	return true
}

// AddRow extracts the record timestamp and counts it.
func (a *DailyAggregator) AddRow(row query.Row) bool {
	ts, ok := RecordTimestamp(row)
	if !ok {
		return false
	}
	return a.Add(ts)
}

// Series returns one point per day in range, ascending, gap-free.
func (a *DailyAggregator) Series() []DailyCount {
	out := make([]DailyCount, 0, len(a.days))
	for _, d := range a.days {
		out = append(out, DailyCount{
			Ts:    d.UnixMilli(),
			Date:  d.Format("01-02"),
			Value: a.counts[d.Format(dayKeyFormat)],
		})
	}
	return out
}

// Total is the number of in-range records counted so far.
func (a *DailyAggregator) Total() int {
	total := 0
	for _, d := range a.days {
		total += a.counts[d.Format(dayKeyFormat)]
	}
	return total
}

var timestampKeys = []string{"timestamp", "startTime", "createdAt", "start_time", "started_at"}

// RecordTimestamp finds the record's timestamp under the field names the
// analytics backends use, in precedence order.
func RecordTimestamp(row query.Row) (time.Time, bool) {
	for _, k := range timestampKeys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		if ts, ok := parseTime(v); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	default:
		return time.Time{}, false
	}
}
