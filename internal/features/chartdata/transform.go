package chartdata

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go-insight/internal/features/query"
)

const (
	barListLimit   = 10
	usageLimit     = 8
	costTableLimit = 20
)

var chartColors = []string{
	"#3b82f6", "#10b981", "#f59e0b", "#ef4444",
	"#8b5cf6", "#14b8a6", "#f97316", "#6366f1",
}

// Transformer maps raw query results into chart-ready payloads. Every branch
// returns structurally valid output even on malformed or partial input;
// defects surface through the shape validator, never as errors. Randomness
// is confined to placeholder branches, which always set Synthetic.
type Transformer struct {
	rng *rand.Rand
	now func() time.Time
}

func NewTransformer() *Transformer {
	return &Transformer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Transform dispatches on the widget's visualization kind.
func (t *Transformer) Transform(kind query.VisualizationKind, rows []query.Row) *WidgetPayload {
	if len(rows) == 0 {
		zero := 0.0
		return &WidgetPayload{Value: &zero}
	}

	switch kind {
	case query.VisNumber:
		return t.transformNumber(rows)
	case query.VisTimeSeries:
		return t.transformTimeSeries(rows)
	case query.VisBarList:
		return t.transformBarList(rows)
	case query.VisUsage:
		return t.transformUsage(rows)
	case query.VisLatency:
		return t.transformLatency(rows)
	case query.VisCostTable:
		return t.transformCostTable(rows)
	default:
		v, _ := firstNumeric(rows[0])
		return &WidgetPayload{Value: &v}
	}
}

// transformNumber extracts the first column whose name contains "count"
// (case-sensitive). The executor's column naming embeds the aggregation in
// the name (count_count), so the substring match is the extraction rule.
func (t *Transformer) transformNumber(rows []query.Row) *WidgetPayload {
	first := rows[0]
	value := 0.0
	for _, k := range sortedKeys(first) {
		if strings.Contains(k, "count") {
			if v, ok := query.ToFloat(first[k]); ok {
				value = math.Trunc(v)
			}
			break
		}
	}
	return &WidgetPayload{Value: &value}
}

func (t *Transformer) transformTimeSeries(rows []query.Row) *WidgetPayload {
	if len(rows) > 1 || hasTimeMarker(rows[0]) {
		points := make([]TimeSeriesPoint, 0, len(rows))
		for _, row := range rows {
			ts := t.rowTime(row)
			values := make([]SeriesValue, 0, len(row))
			for _, k := range sortedKeys(row) {
				if k == "time_dimension" || k == "date" {
					continue
				}
				if v, ok := query.ToFloat(row[k]); ok {
					values = append(values, SeriesValue{
						Label: strings.Replace(k, "_count", "", 1), // count_count -> count
						Value: v,
					})
				}
			}
			if len(values) == 0 {
				v, _ := firstNumeric(row)
				values = append(values, SeriesValue{Label: "count", Value: v})
			}
			points = append(points, TimeSeriesPoint{Ts: ts.UnixMilli(), Values: values})
		}
		return &WidgetPayload{Series: points}
	}

	// Single row without a time marker: synthesize a 7-point placeholder
	// seeded from the row's first numeric value. Synthetic distinguishes it
	// from genuine series data.
	base, _ := firstNumeric(rows[0])
	now := t.now()
	points := make([]TimeSeriesPoint, 0, 7)
	for i := 0; i < 7; i++ {
		jitter := (t.rng.Float64() - 0.5) * base * 0.3
		points = append(points, TimeSeriesPoint{
			Ts: now.AddDate(0, 0, i-6).UnixMilli(),
			Values: []SeriesValue{{
				Label: "count",
				Value: math.Max(0, math.Floor(base+jitter)),
			}},
		})
	}
	return &WidgetPayload{Series: points, Synthetic: true}
}

func (t *Transformer) transformBarList(rows []query.Row) *WidgetPayload {
	if len(rows) > 1 {
		limit := len(rows)
		if limit > barListLimit {
			limit = barListLimit
		}
		entries := make([]BarListEntry, 0, limit)
		total := 0.0
		for _, row := range rows[:limit] {
			v, _ := firstNumeric(row)
			total += v
		}
		for i, row := range rows[:limit] {
			v, _ := firstNumeric(row)
			pct := 0
			if total > 0 {
				pct = int(math.Round(v / total * 100))
			}
			entries = append(entries, BarListEntry{
				Name:       nameField(row, i, "name", "group", "environment"),
				Value:      v,
				Percentage: pct,
			})
		}
		return &WidgetPayload{Bars: entries}
	}

	// Single row means no real grouping: synthesize a fixed placeholder set.
	base, _ := firstNumeric(rows[0])
	entries := make([]BarListEntry, 0, 5)
	for i := 0; i < 5; i++ {
		entries = append(entries, BarListEntry{
			Name:       fmt.Sprintf("Group %d", i+1),
			Value:      math.Floor(base/5) + float64(t.rng.Intn(200)),
			Percentage: t.rng.Intn(100),
		})
	}
	return &WidgetPayload{Bars: entries, Synthetic: true}
}

func (t *Transformer) transformUsage(rows []query.Row) *WidgetPayload {
	if len(rows) > 1 {
		limit := len(rows)
		if limit > usageLimit {
			limit = usageLimit
		}
		slices := make([]UsageSlice, 0, limit)
		for i, row := range rows[:limit] {
			v, _ := firstNumeric(row)
			slices = append(slices, UsageSlice{
				Name:  nameField(row, i, "name", "model", "user"),
				Value: v,
				Color: chartColors[i%len(chartColors)],
			})
		}
		return &WidgetPayload{Usage: slices}
	}

	base, _ := firstNumeric(rows[0])
	slices := make([]UsageSlice, 0, 6)
	for i := 0; i < 6; i++ {
		slices = append(slices, UsageSlice{
			Name:  fmt.Sprintf("Item %d", i+1),
			Value: math.Floor(base/6) + float64(t.rng.Intn(200)),
			Color: chartColors[i%len(chartColors)],
		})
	}
	return &WidgetPayload{Usage: slices, Synthetic: true}
}

func (t *Transformer) transformLatency(rows []query.Row) *WidgetPayload {
	if len(rows) > 1 || hasTimeMarker(rows[0]) {
		points := make([]LatencyPoint, 0, len(rows))
		synthetic := false
		for _, row := range rows {
			date := stringField(row, "time_dimension", "date")
			if date == "" {
				date = "Unknown"
			}
			p95, ok95 := query.ToFloat(row["p95"])
			if !ok95 {
				p95 = float64(t.rng.Intn(2000) + 500)
				synthetic = true
			}
			p50, ok50 := query.ToFloat(row["p50"])
			if !ok50 {
				p50 = float64(t.rng.Intn(1000) + 200)
				synthetic = true
			}
			points = append(points, LatencyPoint{Date: date, P95: &p95, P50: &p50})
		}
		return &WidgetPayload{Latency: points, Synthetic: synthetic}
	}

	now := t.now()
	points := make([]LatencyPoint, 0, 7)
	for i := 0; i < 7; i++ {
		p95 := float64(t.rng.Intn(2000) + 500)
		p50 := float64(t.rng.Intn(1000) + 200)
		points = append(points, LatencyPoint{
			Date: now.AddDate(0, 0, i-6).Format("1/2/06"),
			P95:  &p95,
			P50:  &p50,
		})
	}
	return &WidgetPayload{Latency: points, Synthetic: true}
}

func (t *Transformer) transformCostTable(rows []query.Row) *WidgetPayload {
	limit := len(rows)
	if limit > costTableLimit {
		limit = costTableLimit
	}

	costs := make([]float64, limit)
	totalCost := 0.0
	synthetic := false
	for i, row := range rows[:limit] {
		c, ok := query.ToFloat(row["cost"])
		if !ok {
			c = t.rng.Float64()*100 + 10
			synthetic = true
		}
		costs[i] = c
		totalCost += c
	}

	out := make([]CostRow, 0, limit)
	for i, row := range rows[:limit] {
		model := stringField(row, "model")
		if model == "" {
			model = fmt.Sprintf("Model %d", i+1)
		}
		usage, ok := query.ToFloat(row["usage"])
		if !ok {
			usage = float64(t.rng.Intn(10000))
			synthetic = true
		}
		pct := 0
		if totalCost > 0 {
			pct = int(math.Round(costs[i] / totalCost * 100))
		}
		out = append(out, CostRow{
			Model:      model,
			Usage:      int(usage),
			Cost:       costs[i],
			Percentage: pct,
		})
	}
	return &WidgetPayload{CostRows: out, Synthetic: synthetic}
}

func (t *Transformer) rowTime(row query.Row) time.Time {
	for _, k := range []string{"time_dimension", "date"} {
		if v, ok := row[k]; ok && v != nil {
			if ts, ok := parseTime(v); ok {
				return ts
			}
		}
	}
	return t.now()
}

func hasTimeMarker(row query.Row) bool {
	v, ok := row["time_dimension"]
	return ok && v != nil
}

func sortedKeys(row query.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// firstNumeric returns the first parseable numeric value in sorted key
// order, the deterministic analog of "the first numeric column".
func firstNumeric(row query.Row) (float64, bool) {
	for _, k := range sortedKeys(row) {
		if v, ok := query.ToFloat(row[k]); ok {
			return v, true
		}
	}
	return 0, false
}

func nameField(row query.Row, index int, keys ...string) string {
	if s := stringField(row, keys...); s != "" {
		return s
	}
	return fmt.Sprintf("Item %d", index+1)
}

func stringField(row query.Row, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
