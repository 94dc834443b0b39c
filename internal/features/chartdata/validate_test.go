package chartdata

import (
	"testing"

	"go-insight/internal/features/query"
)

func f(v float64) *float64 { return &v }

func succeeded(p *WidgetPayload) *WidgetRenderState {
	s := NewLoadingState("w1", 1)
	s.Succeed(p)
	return s
}

func TestIsValidBypassStates(t *testing.T) {
	loading := NewLoadingState("w1", 1)
	if !IsValid(query.VisNumber, loading) {
		t.Error("loading state must bypass validation")
	}

	failed := NewLoadingState("w1", 1)
	failed.Fail("executor down", nil)
	if !IsValid(query.VisTimeSeries, failed) {
		t.Error("failed state must bypass validation")
	}

	empty := NewLoadingState("w1", 1)
	empty.Empty()
	if !IsValid(query.VisBarList, empty) {
		t.Error("empty state must bypass validation")
	}
}

func TestIsValidNilPayload(t *testing.T) {
	s := NewLoadingState("w1", 1)
	s.IsLoading = false
	if IsValid(query.VisNumber, s) {
		t.Error("terminal state with nil payload must be invalid")
	}
}

func TestIsValidPerKind(t *testing.T) {
	tests := []struct {
		name    string
		kind    query.VisualizationKind
		payload *WidgetPayload
		want    bool
	}{
		{"number with value", query.VisNumber, &WidgetPayload{Value: f(5)}, true},
		{"number without value", query.VisNumber, &WidgetPayload{}, false},

		{"series with labeled values", query.VisTimeSeries, &WidgetPayload{
			Series: []TimeSeriesPoint{{Ts: 1, Values: []SeriesValue{{Label: "count", Value: 3}}}},
		}, true},
		{"series empty", query.VisTimeSeries, &WidgetPayload{Series: []TimeSeriesPoint{}}, false},
		{"series point without values", query.VisTimeSeries, &WidgetPayload{
			Series: []TimeSeriesPoint{{Ts: 1}},
		}, false},
		{"series value missing label", query.VisTimeSeries, &WidgetPayload{
			Series: []TimeSeriesPoint{{Ts: 1, Values: []SeriesValue{{Value: 3}}}},
		}, false},

		{"bar list named", query.VisBarList, &WidgetPayload{
			Bars: []BarListEntry{{Name: "prod", Value: 1}},
		}, true},
		{"bar list empty", query.VisBarList, &WidgetPayload{Bars: []BarListEntry{}}, false},
		{"bar list unnamed entry", query.VisBarList, &WidgetPayload{
			Bars: []BarListEntry{{Value: 1}},
		}, false},

		{"usage named", query.VisUsage, &WidgetPayload{
			Usage: []UsageSlice{{Name: "gpt-4o", Value: 1}},
		}, true},
		{"usage empty", query.VisUsage, &WidgetPayload{Usage: []UsageSlice{}}, false},

		{"latency with one percentile", query.VisLatency, &WidgetPayload{
			Latency: []LatencyPoint{{Date: "06-08", P95: f(1200)}},
		}, true},
		{"latency missing both percentiles", query.VisLatency, &WidgetPayload{
			Latency: []LatencyPoint{{Date: "06-08"}},
		}, false},
		{"latency missing date", query.VisLatency, &WidgetPayload{
			Latency: []LatencyPoint{{P95: f(1200), P50: f(340)}},
		}, false},
		{"latency empty", query.VisLatency, &WidgetPayload{Latency: []LatencyPoint{}}, false},

		{"cost table rows", query.VisCostTable, &WidgetPayload{
			CostRows: []CostRow{{Model: "gpt-4o", Usage: 100, Cost: 1.5}},
		}, true},
		{"cost table empty is valid", query.VisCostTable, &WidgetPayload{CostRows: []CostRow{}}, true},
		{"cost table unnamed model", query.VisCostTable, &WidgetPayload{
			CostRows: []CostRow{{Usage: 100}},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.kind, succeeded(tt.payload)); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMockPayloadsPassValidation(t *testing.T) {
	gen := NewMockGenerator()
	kinds := []query.VisualizationKind{
		query.VisNumber, query.VisTimeSeries, query.VisBarList,
		query.VisUsage, query.VisLatency, query.VisCostTable,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			payload := gen.Generate(kind, WidgetContext{Target: "traces"})
			if !payload.Synthetic {
				t.Error("generated payload must be synthetic")
			}
			s := NewLoadingState("w1", 1)
			s.Mock(payload)
			if s.ApiStatus != ApiStatusMock {
				t.Errorf("apiStatus = %q, want mock", s.ApiStatus)
			}
			if !IsValid(kind, s) {
				t.Errorf("generated %s payload failed shape validation", kind)
			}
		})
	}
}

func TestRenderStateTransitions(t *testing.T) {
	s := NewLoadingState("w1", 3)
	if !s.IsLoading || s.Terminal() {
		t.Error("new state must be loading and non-terminal")
	}
	if s.Cycle != 3 {
		t.Errorf("cycle = %d, want 3", s.Cycle)
	}

	s.Succeed(&WidgetPayload{Value: f(1)})
	if s.IsLoading || !s.Terminal() || s.ApiStatus != ApiStatusSuccess {
		t.Error("succeed did not produce a terminal success state")
	}

	s2 := NewLoadingState("w2", 1)
	s2.Empty()
	if s2.Error != "" || !s2.IsEmpty || s2.ApiStatus != ApiStatusSuccess {
		t.Error("empty result must not look like a failure")
	}

	s3 := NewLoadingState("w3", 1)
	s3.Fail("boom", nil)
	if s3.Error != "boom" || s3.IsEmpty || s3.ApiStatus != ApiStatusFailed {
		t.Error("fail did not record the cause")
	}

	s4 := NewLoadingState("w4", 1)
	s4.Succeed(&WidgetPayload{})
	s4.Invalidate()
	if s4.ApiStatus != ApiStatusInvalid {
		t.Errorf("apiStatus = %q, want invalid", s4.ApiStatus)
	}
}
