package chartdata

import (
	"encoding/json"
	"time"
)

// ApiStatus records where a payload came from. It is a required discriminant:
// consumers must branch on it and must never treat synthetic data as
// authoritative.
type ApiStatus string

const (
	ApiStatusSuccess ApiStatus = "success"
	ApiStatusFailed  ApiStatus = "failed"
	ApiStatusMock    ApiStatus = "mock"
	ApiStatusPending ApiStatus = "pending"
	ApiStatusInvalid ApiStatus = "invalid"
)

type SeriesValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type TimeSeriesPoint struct {
	Ts     int64         `json:"ts"` // epoch milliseconds, a daily bucket boundary
	Values []SeriesValue `json:"values"`
}

type BarListEntry struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage int     `json:"percentage"`
}

type UsageSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

type LatencyPoint struct {
	Date string   `json:"date"`
	P95  *float64 `json:"p95,omitempty"`
	P50  *float64 `json:"p50,omitempty"`
}

type CostRow struct {
	Model      string  `json:"model"`
	Usage      int     `json:"usage"`
	Cost       float64 `json:"cost"`
	Percentage int     `json:"percentage"`
}

type DailyCount struct {
	Ts    int64  `json:"ts"`   // UTC midnight of the bucket, epoch milliseconds
	Date  string `json:"date"` // MM-DD label
	Value int    `json:"value"`
}

// WidgetPayload is the transformed, chart-ready data for one widget. At most
// one of the chart slices is set, matching the widget's visualization kind.
// Synthetic marks payloads that contain generated values (placeholder series,
// filled-in percentiles, mock fallbacks).
type WidgetPayload struct {
	Value     *float64
	Series    []TimeSeriesPoint
	Bars      []BarListEntry
	Usage     []UsageSlice
	Latency   []LatencyPoint
	CostRows  []CostRow
	Synthetic bool
}

func (p *WidgetPayload) chartData() interface{} {
	switch {
	case p.Series != nil:
		return p.Series
	case p.Bars != nil:
		return p.Bars
	case p.Usage != nil:
		return p.Usage
	case p.Latency != nil:
		return p.Latency
	case p.CostRows != nil:
		return p.CostRows
	default:
		return []interface{}{}
	}
}

// WidgetRenderState is the per-widget, per-refresh-cycle render state.
// Exactly one of {IsLoading, Error, IsEmpty, valid payload} selects the
// render branch at rest.
type WidgetRenderState struct {
	WidgetID  string
	Cycle     uint64
	IsLoading bool
	Error     string
	IsEmpty   bool
	ApiStatus ApiStatus
	Payload   *WidgetPayload
	UpdatedAt time.Time
}

// NewLoadingState is the initial state of every refresh cycle.
func NewLoadingState(widgetID string, cycle uint64) *WidgetRenderState {
	return &WidgetRenderState{
		WidgetID:  widgetID,
		Cycle:     cycle,
		IsLoading: true,
		ApiStatus: ApiStatusPending,
		UpdatedAt: time.Now(),
	}
}

// Succeed transitions to the terminal success branch.
func (s *WidgetRenderState) Succeed(p *WidgetPayload) {
	s.IsLoading = false
	s.Error = ""
	s.IsEmpty = false
	s.ApiStatus = ApiStatusSuccess
	s.Payload = p
	s.UpdatedAt = time.Now()
}

// Fail transitions to the terminal failure branch: a fallback payload plus
// the underlying cause, kept for diagnostics only.
func (s *WidgetRenderState) Fail(cause string, fallback *WidgetPayload) {
	s.IsLoading = false
	s.Error = cause
	s.IsEmpty = false
	s.ApiStatus = ApiStatusFailed
	s.Payload = fallback
	s.UpdatedAt = time.Now()
}

// Empty transitions to the terminal empty branch: the executor succeeded but
// returned zero rows. Never confused with failure.
func (s *WidgetRenderState) Empty() {
	s.IsLoading = false
	s.Error = ""
	s.IsEmpty = true
	s.ApiStatus = ApiStatusSuccess
	s.Payload = nil
	s.UpdatedAt = time.Now()
}

// Mock transitions to the terminal mock branch, used for widgets not yet
// wired to a live executor.
func (s *WidgetRenderState) Mock(p *WidgetPayload) {
	s.IsLoading = false
	s.Error = ""
	s.IsEmpty = false
	s.ApiStatus = ApiStatusMock
	s.Payload = p
	s.UpdatedAt = time.Now()
}

// Invalidate marks a transformed payload that failed shape validation. This
// is a distinct terminal state from both Error and Empty: it signals a
// transformer/executor contract mismatch needing a code fix, not a retry.
func (s *WidgetRenderState) Invalidate() {
	s.IsLoading = false
	s.IsEmpty = false
	s.ApiStatus = ApiStatusInvalid
	s.UpdatedAt = time.Now()
}

// Terminal reports whether the state has left the loading branch.
func (s *WidgetRenderState) Terminal() bool {
	return !s.IsLoading
}

// MarshalJSON flattens the payload into the state object so consumers see
// {value, chartData, isLoading, error, isEmpty, apiStatus}.
func (s *WidgetRenderState) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"widgetId":  s.WidgetID,
		"isLoading": s.IsLoading,
		"isEmpty":   s.IsEmpty,
		"apiStatus": s.ApiStatus,
		"updatedAt": s.UpdatedAt,
	}
	if s.Error != "" {
		out["error"] = s.Error
	} else {
		out["error"] = nil
	}
	if s.Payload != nil {
		if s.Payload.Value != nil {
			out["value"] = *s.Payload.Value
		}
		out["chartData"] = s.Payload.chartData()
		out["synthetic"] = s.Payload.Synthetic
	}
	return json.Marshal(out)
}
