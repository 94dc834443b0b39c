package query

import (
	"fmt"
	"time"
)

// Row is one flat record returned by a query executor.
type Row map[string]interface{}

type ViewKind string

const (
	ViewTraces            ViewKind = "traces"
	ViewObservations      ViewKind = "observations"
	ViewScoresNumeric     ViewKind = "scores-numeric"
	ViewScoresCategorical ViewKind = "scores-categorical"
)

type Aggregation string

const (
	AggCount Aggregation = "count"
	AggSum   Aggregation = "sum"
	AggAvg   Aggregation = "avg"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
	AggP50   Aggregation = "p50"
	AggP90   Aggregation = "p90"
	AggP95   Aggregation = "p95"
	AggP99   Aggregation = "p99"
)

type Operator string

const (
	OpIs                 Operator = "is"
	OpIsNot              Operator = "isNot"
	OpContains           Operator = "contains"
	OpDoesNotContain     Operator = "doesNotContain"
	OpStartsWith         Operator = "startsWith"
	OpEndsWith           Operator = "endsWith"
	OpIsEmpty            Operator = "isEmpty"
	OpIsNotEmpty         Operator = "isNotEmpty"
	OpGreaterThan        Operator = "greaterThan"
	OpLessThan           Operator = "lessThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
)

type VisualizationKind string

const (
	VisNumber     VisualizationKind = "NUMBER"
	VisTimeSeries VisualizationKind = "TIME_SERIES"
	VisBarList    VisualizationKind = "BAR_LIST"
	VisLatency    VisualizationKind = "LATENCY_SERIES"
	VisUsage      VisualizationKind = "USAGE_CHART"
	VisCostTable  VisualizationKind = "COST_TABLE"
)

type Metric struct {
	Measure     string      `json:"measure" bson:"measure"`
	Aggregation Aggregation `json:"aggregation" bson:"aggregation"`
}

type Filter struct {
	Column   string      `json:"column" bson:"column"`
	Operator Operator    `json:"operator" bson:"operator"`
	Value    interface{} `json:"value" bson:"value"`
}

// TimeRange is inclusive on both ends: a record matches when
// from <= t && t <= to.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type Order struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

type TimeDimension struct {
	Field       string `json:"field"`
	Granularity string `json:"granularity"` // only "day" is used
}

// QueryDescriptor is the declarative description of what data a widget needs.
type QueryDescriptor struct {
	View          ViewKind          `json:"view"`
	Dimensions    []string          `json:"dimensions,omitempty"`
	Metrics       []Metric          `json:"metrics"`
	Filters       []Filter          `json:"filters,omitempty"`
	TimeRange     TimeRange         `json:"timeRange"`
	Visualization VisualizationKind `json:"visualization"`
	OrderBy       []Order           `json:"orderBy,omitempty"`
	Limit         int               `json:"limit,omitempty"`
	TimeDimension *TimeDimension    `json:"timeDimension,omitempty"`
}

var validViews = map[ViewKind]bool{
	ViewTraces:            true,
	ViewObservations:      true,
	ViewScoresNumeric:     true,
	ViewScoresCategorical: true,
}

var validAggregations = map[Aggregation]bool{
	AggCount: true, AggSum: true, AggAvg: true, AggMin: true, AggMax: true,
	AggP50: true, AggP90: true, AggP95: true, AggP99: true,
}

var validOperators = map[Operator]bool{
	OpIs: true, OpIsNot: true, OpContains: true, OpDoesNotContain: true,
	OpStartsWith: true, OpEndsWith: true, OpIsEmpty: true, OpIsNotEmpty: true,
	OpGreaterThan: true, OpLessThan: true,
	OpGreaterThanOrEqual: true, OpLessThanOrEqual: true,
}

var validVisualizations = map[VisualizationKind]bool{
	VisNumber: true, VisTimeSeries: true, VisBarList: true,
	VisLatency: true, VisUsage: true, VisCostTable: true,
}

// Validate rejects a descriptor before it ever reaches an executor.
// A descriptor with zero metrics is never executed.
func (q *QueryDescriptor) Validate() error {
	if !validViews[q.View] {
		return fmt.Errorf("unknown view %q", q.View)
	}
	if len(q.Metrics) == 0 {
		return fmt.Errorf("query requires at least one metric")
	}
	for _, m := range q.Metrics {
		if m.Measure == "" {
			return fmt.Errorf("metric measure is required")
		}
		if !validAggregations[m.Aggregation] {
			return fmt.Errorf("unknown aggregation %q", m.Aggregation)
		}
	}
	for _, f := range q.Filters {
		if f.Column == "" {
			return fmt.Errorf("filter column is required")
		}
		if !validOperators[f.Operator] {
			return fmt.Errorf("unknown filter operator %q", f.Operator)
		}
	}
	if !validVisualizations[q.Visualization] {
		return fmt.Errorf("unknown visualization %q", q.Visualization)
	}
	return nil
}
