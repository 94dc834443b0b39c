package query

import "fmt"

// WidgetQuerySpec is the widget-side query configuration a descriptor is
// derived from.
type WidgetQuerySpec struct {
	QueryType     string // count, timeseries, group-by, percentile-timeseries, top-n
	View          ViewKind
	Measure       string
	GroupBy       string
	Percentile    int
	Limit         int
	Visualization VisualizationKind
}

const (
	QueryTypeCount                = "count"
	QueryTypeTimeseries           = "timeseries"
	QueryTypeGroupBy              = "group-by"
	QueryTypePercentileTimeseries = "percentile-timeseries"
	QueryTypeTopN                 = "top-n"
)

// BuildWidgetQuery derives a query descriptor from a widget configuration.
func BuildWidgetQuery(spec WidgetQuerySpec, tr TimeRange, filters []Filter) QueryDescriptor {
	base := QueryDescriptor{
		View:          spec.View,
		Filters:       filters,
		TimeRange:     tr,
		Visualization: spec.Visualization,
	}

	measure := spec.Measure
	if measure == "" {
		measure = "count"
	}

	switch spec.QueryType {
	case QueryTypeTimeseries:
		base.Metrics = []Metric{{Measure: measure, Aggregation: AggCount}}
		base.TimeDimension = &TimeDimension{Field: "createdAt", Granularity: "day"}

	case QueryTypeGroupBy:
		base.Dimensions = []string{spec.GroupBy}
		base.Metrics = []Metric{{Measure: measure, Aggregation: AggSum}}
		base.OrderBy = []Order{{Field: measure, Direction: "desc"}}
		base.Limit = spec.Limit
		if base.Limit == 0 {
			base.Limit = 10
		}

	case QueryTypePercentileTimeseries:
		base.Metrics = []Metric{{Measure: measure, Aggregation: Aggregation(fmt.Sprintf("p%d", spec.Percentile))}}
		base.TimeDimension = &TimeDimension{Field: "createdAt", Granularity: "day"}

	case QueryTypeTopN:
		base.Dimensions = []string{spec.GroupBy}
		base.Metrics = []Metric{{Measure: measure, Aggregation: AggSum}}
		base.OrderBy = []Order{{Field: measure, Direction: "desc"}}
		base.Limit = spec.Limit
		if base.Limit == 0 {
			base.Limit = 20
		}

	default: // count
		base.Metrics = []Metric{{Measure: "count", Aggregation: AggCount}}
	}

	return base
}
