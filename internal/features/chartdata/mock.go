package chartdata

import (
	"fmt"
	"math/rand"
	"time"

	"go-insight/internal/features/query"
)

// WidgetContext carries the widget fields the generator labels data with.
type WidgetContext struct {
	Target string // the queried view, used as the label seed
}

// MockGenerator produces schema-correct randomized payloads for every
// visualization kind. Output is always Synthetic; callers tag the render
// state "mock" (unwired widget) or "failed" (executor failure).
type MockGenerator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

func (g *MockGenerator) Generate(kind query.VisualizationKind, wctx WidgetContext) *WidgetPayload {
	label := wctx.Target
	if label == "" {
		label = "Item"
	}

	switch kind {
	case query.VisNumber:
		v := float64(g.rng.Intn(10000) + 100)
		return &WidgetPayload{Value: &v, Synthetic: true}

	case query.VisTimeSeries:
		now := g.now()
		points := make([]TimeSeriesPoint, 0, 7)
		for i := 0; i < 7; i++ {
			points = append(points, TimeSeriesPoint{
				Ts: now.AddDate(0, 0, i-6).UnixMilli(),
				Values: []SeriesValue{{
					Label: "count",
					Value: float64(g.rng.Intn(500) + 50),
				}},
			})
		}
		return &WidgetPayload{Series: points, Synthetic: true}

	case query.VisBarList:
		entries := make([]BarListEntry, 0, 5)
		for i := 0; i < 5; i++ {
			entries = append(entries, BarListEntry{
				Name:       fmt.Sprintf("%s %d", label, i+1),
				Value:      float64(g.rng.Intn(1000) + 100),
				Percentage: g.rng.Intn(100),
			})
		}
		return &WidgetPayload{Bars: entries, Synthetic: true}

	case query.VisUsage:
		slices := make([]UsageSlice, 0, 6)
		for i := 0; i < 6; i++ {
			slices = append(slices, UsageSlice{
				Name:  fmt.Sprintf("%s %d", label, i+1),
				Value: float64(g.rng.Intn(1000) + 50),
				Color: chartColors[i%len(chartColors)],
			})
		}
		return &WidgetPayload{Usage: slices, Synthetic: true}

	case query.VisLatency:
		now := g.now()
		points := make([]LatencyPoint, 0, 7)
		for i := 0; i < 7; i++ {
			p95 := float64(g.rng.Intn(2000) + 500)
			p50 := float64(g.rng.Intn(1000) + 200)
			points = append(points, LatencyPoint{
				Date: now.AddDate(0, 0, i-6).Format("1/2/06"),
				P95:  &p95,
				P50:  &p50,
			})
		}
		return &WidgetPayload{Latency: points, Synthetic: true}

	case query.VisCostTable:
		rows := make([]CostRow, 0, 10)
		for i := 0; i < 10; i++ {
			rows = append(rows, CostRow{
				Model:      fmt.Sprintf("Model-%d", i+1),
				Usage:      g.rng.Intn(10000) + 1000,
				Cost:       g.rng.Float64()*100 + 10,
				Percentage: g.rng.Intn(100),
			})
		}
		return &WidgetPayload{CostRows: rows, Synthetic: true}

	default:
		v := float64(g.rng.Intn(1000))
		return &WidgetPayload{Value: &v, Synthetic: true}
	}
}
