package connectors

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-insight/internal/features/query"
)

func testRange() query.TimeRange {
	return query.TimeRange{
		From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildSQLCount(t *testing.T) {
	c := NewSQLConnector("postgres")
	stmt, args, err := c.buildSQL(query.QueryDescriptor{
		View:      query.ViewTraces,
		Metrics:   []query.Metric{{Measure: "count", Aggregation: query.AggCount}},
		TimeRange: testRange(),
	})
	if err != nil {
		t.Fatalf("buildSQL() error = %v", err)
	}

	want := "SELECT COUNT(*) AS count_count FROM traces WHERE timestamp >= $1 AND timestamp <= $2"
	if stmt != want {
		t.Errorf("stmt = %q, want %q", stmt, want)
	}
	if len(args) != 2 {
		t.Errorf("args = %v, want the two range bounds", args)
	}
}

func TestBuildSQLTimeseries(t *testing.T) {
	c := NewSQLConnector("postgres")
	stmt, _, err := c.buildSQL(query.QueryDescriptor{
		View:          query.ViewTraces,
		Metrics:       []query.Metric{{Measure: "count", Aggregation: query.AggCount}},
		TimeRange:     testRange(),
		TimeDimension: &query.TimeDimension{Field: "createdAt", Granularity: "day"},
	})
	if err != nil {
		t.Fatalf("buildSQL() error = %v", err)
	}

	for _, frag := range []string{
		"TO_CHAR(timestamp, 'YYYY-MM-DD') AS time_dimension",
		"GROUP BY TO_CHAR(timestamp, 'YYYY-MM-DD')",
		"ORDER BY time_dimension ASC",
	} {
		if !strings.Contains(stmt, frag) {
			t.Errorf("stmt missing %q:\n%s", frag, stmt)
		}
	}
}

func TestBuildSQLGroupBy(t *testing.T) {
	c := NewSQLConnector("postgres")
	stmt, args, err := c.buildSQL(query.QueryDescriptor{
		View:       query.ViewObservations,
		Dimensions: []string{"model"},
		Metrics:    []query.Metric{{Measure: "totalTokens", Aggregation: query.AggSum}},
		Filters: []query.Filter{
			{Column: "environment", Operator: query.OpIs, Value: "prod"},
		},
		TimeRange: testRange(),
		OrderBy:   []query.Order{{Field: "totalTokens", Direction: "desc"}},
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("buildSQL() error = %v", err)
	}

	for _, frag := range []string{
		"SELECT model, SUM(totalTokens) AS sum_totalTokens FROM observations",
		"environment = $3",
		"GROUP BY model",
		"ORDER BY totalTokens DESC",
		"LIMIT 10",
	} {
		if !strings.Contains(stmt, frag) {
			t.Errorf("stmt missing %q:\n%s", frag, stmt)
		}
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want range bounds plus filter value", args)
	}
	if args[2] != "prod" {
		t.Errorf("filter arg = %v, want prod", args[2])
	}
}

func TestBuildSQLPercentiles(t *testing.T) {
	desc := query.QueryDescriptor{
		View:      query.ViewObservations,
		Metrics:   []query.Metric{{Measure: "latency", Aggregation: query.AggP95}},
		TimeRange: testRange(),
	}

	pg, _, err := NewSQLConnector("postgres").buildSQL(desc)
	if err != nil {
		t.Fatalf("buildSQL() error = %v", err)
	}
	if !strings.Contains(pg, "PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY latency)") {
		t.Errorf("postgres percentile missing:\n%s", pg)
	}

	my, _, err := NewSQLConnector("mysql").buildSQL(desc)
	if err != nil {
		t.Fatalf("buildSQL() error = %v", err)
	}
	if !strings.Contains(my, "MAX(latency)") {
		t.Errorf("mysql percentile fallback missing:\n%s", my)
	}
	if !strings.Contains(my, "timestamp >= ?") {
		t.Errorf("mysql must use ? placeholders:\n%s", my)
	}
}

func TestBuildSQLUnknownView(t *testing.T) {
	c := NewSQLConnector("postgres")
	_, _, err := c.buildSQL(query.QueryDescriptor{
		View:      "sessions",
		Metrics:   []query.Metric{{Measure: "count", Aggregation: query.AggCount}},
		TimeRange: testRange(),
	})
	if err == nil {
		t.Error("unknown view must fail SQL compilation")
	}
}

func TestFilterExpr(t *testing.T) {
	c := NewSQLConnector("postgres")

	tests := []struct {
		name     string
		filter   query.Filter
		wantCond string
		wantArg  interface{}
	}{
		{"is", query.Filter{Column: "environment", Operator: query.OpIs, Value: "prod"},
			"environment = $3", "prod"},
		{"isNot", query.Filter{Column: "environment", Operator: query.OpIsNot, Value: "prod"},
			"environment <> $3", "prod"},
		{"contains lowercases pattern", query.Filter{Column: "name", Operator: query.OpContains, Value: "Chat"},
			"LOWER(name) LIKE $3", "%chat%"},
		{"startsWith", query.Filter{Column: "name", Operator: query.OpStartsWith, Value: "chat"},
			"LOWER(name) LIKE $3", "chat%"},
		{"endsWith", query.Filter{Column: "name", Operator: query.OpEndsWith, Value: "completion"},
			"LOWER(name) LIKE $3", "%completion"},
		{"isEmpty has no arg", query.Filter{Column: "userId", Operator: query.OpIsEmpty},
			"(userId IS NULL OR userId = '')", nil},
		{"isNotEmpty has no arg", query.Filter{Column: "userId", Operator: query.OpIsNotEmpty},
			"(userId IS NOT NULL AND userId <> '')", nil},
		{"greaterThan", query.Filter{Column: "latency", Operator: query.OpGreaterThan, Value: 100.0},
			"latency > $3", 100.0},
		{"lessThanOrEqual", query.Filter{Column: "latency", Operator: query.OpLessThanOrEqual, Value: 100.0},
			"latency <= $3", 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, arg, err := c.filterExpr(tt.filter, 3)
			if err != nil {
				t.Fatalf("filterExpr() error = %v", err)
			}
			if cond != tt.wantCond {
				t.Errorf("cond = %q, want %q", cond, tt.wantCond)
			}
			if arg != tt.wantArg {
				t.Errorf("arg = %v, want %v", arg, tt.wantArg)
			}
		})
	}

	if _, _, err := c.filterExpr(query.Filter{Column: "a", Operator: "matches", Value: "x"}, 3); err == nil {
		t.Error("unknown operator must fail")
	}
}

func TestQuoteIdentStripsUnsafeRunes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"model", "model"},
		{"metadata.user_id", "metadata.user_id"},
		{"name; DROP TABLE traces", "nameDROPTABLEtraces"},
		{`col"umn`, "column"},
	}
	for _, tt := range tests {
		if got := quoteIdent(tt.in); got != tt.want {
			t.Errorf("quoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetricAlias(t *testing.T) {
	got := metricAlias(query.Metric{Measure: "usage.totalTokens", Aggregation: query.AggSum})
	if got != "sum_usage_totalTokens" {
		t.Errorf("metricAlias = %q", got)
	}
}

func TestSQLConnectorRequiresConnection(t *testing.T) {
	c := NewSQLConnector("postgres")
	ctx := context.Background()

	if _, err := c.Execute(ctx, query.QueryDescriptor{View: query.ViewTraces, TimeRange: testRange()}); err == nil {
		t.Error("Execute without Connect must fail")
	}
	if _, err := c.ListTraces(ctx, 1, 10, nil); err == nil {
		t.Error("ListTraces without Connect must fail")
	}
	if err := c.Ping(ctx); err == nil {
		t.Error("Ping without Connect must fail")
	}
}
