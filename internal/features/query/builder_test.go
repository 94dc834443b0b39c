package query

import (
	"testing"
	"time"
)

func TestBuildWidgetQuery(t *testing.T) {
	tr := TimeRange{
		From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
	}
	filters := []Filter{{Column: "environment", Operator: OpIs, Value: "prod"}}

	t.Run("count", func(t *testing.T) {
		q := BuildWidgetQuery(WidgetQuerySpec{
			QueryType:     QueryTypeCount,
			View:          ViewTraces,
			Visualization: VisNumber,
		}, tr, filters)

		if len(q.Metrics) != 1 || q.Metrics[0].Aggregation != AggCount {
			t.Errorf("unexpected metrics %+v", q.Metrics)
		}
		if q.TimeDimension != nil {
			t.Error("count query must not have a time dimension")
		}
		if len(q.Filters) != 1 {
			t.Error("filters not carried through")
		}
		if err := q.Validate(); err != nil {
			t.Errorf("built descriptor invalid: %v", err)
		}
	})

	t.Run("timeseries", func(t *testing.T) {
		q := BuildWidgetQuery(WidgetQuerySpec{
			QueryType:     QueryTypeTimeseries,
			View:          ViewTraces,
			Visualization: VisTimeSeries,
		}, tr, nil)

		if q.TimeDimension == nil || q.TimeDimension.Granularity != "day" {
			t.Errorf("timeseries query missing daily time dimension: %+v", q.TimeDimension)
		}
		if q.Metrics[0].Aggregation != AggCount {
			t.Errorf("aggregation = %q, want count", q.Metrics[0].Aggregation)
		}
	})

	t.Run("group-by defaults limit", func(t *testing.T) {
		q := BuildWidgetQuery(WidgetQuerySpec{
			QueryType:     QueryTypeGroupBy,
			View:          ViewObservations,
			Measure:       "totalTokens",
			GroupBy:       "model",
			Visualization: VisBarList,
		}, tr, nil)

		if len(q.Dimensions) != 1 || q.Dimensions[0] != "model" {
			t.Errorf("dimensions = %v", q.Dimensions)
		}
		if q.Metrics[0].Aggregation != AggSum || q.Metrics[0].Measure != "totalTokens" {
			t.Errorf("unexpected metric %+v", q.Metrics[0])
		}
		if q.Limit != 10 {
			t.Errorf("limit = %d, want default 10", q.Limit)
		}
		if len(q.OrderBy) != 1 || q.OrderBy[0].Direction != "desc" {
			t.Errorf("orderBy = %+v", q.OrderBy)
		}
	})

	t.Run("percentile-timeseries", func(t *testing.T) {
		q := BuildWidgetQuery(WidgetQuerySpec{
			QueryType:     QueryTypePercentileTimeseries,
			View:          ViewObservations,
			Measure:       "latency",
			Percentile:    95,
			Visualization: VisLatency,
		}, tr, nil)

		if q.Metrics[0].Aggregation != AggP95 {
			t.Errorf("aggregation = %q, want p95", q.Metrics[0].Aggregation)
		}
		if q.TimeDimension == nil {
			t.Error("percentile timeseries must bucket by day")
		}
		if err := q.Validate(); err != nil {
			t.Errorf("built descriptor invalid: %v", err)
		}
	})

	t.Run("top-n keeps explicit limit", func(t *testing.T) {
		q := BuildWidgetQuery(WidgetQuerySpec{
			QueryType:     QueryTypeTopN,
			View:          ViewObservations,
			Measure:       "cost",
			GroupBy:       "model",
			Limit:         5,
			Visualization: VisCostTable,
		}, tr, nil)

		if q.Limit != 5 {
			t.Errorf("limit = %d, want 5", q.Limit)
		}
	})

	t.Run("top-n defaults limit", func(t *testing.T) {
		q := BuildWidgetQuery(WidgetQuerySpec{
			QueryType:     QueryTypeTopN,
			View:          ViewObservations,
			Measure:       "cost",
			GroupBy:       "model",
			Visualization: VisCostTable,
		}, tr, nil)

		if q.Limit != 20 {
			t.Errorf("limit = %d, want default 20", q.Limit)
		}
	})

	t.Run("empty measure defaults to count", func(t *testing.T) {
		q := BuildWidgetQuery(WidgetQuerySpec{
			QueryType:     QueryTypeTimeseries,
			View:          ViewTraces,
			Visualization: VisTimeSeries,
		}, tr, nil)
		if q.Metrics[0].Measure != "count" {
			t.Errorf("measure = %q, want count", q.Metrics[0].Measure)
		}
	})
}
