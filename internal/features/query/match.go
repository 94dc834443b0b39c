package query

import (
	"fmt"
	"strconv"
	"strings"
)

// RowPredicate reports whether a raw row matches a compiled filter set.
type RowPredicate func(Row) bool

// CompileFilters builds an in-memory predicate for a filter set. It is used
// to re-apply filters client-side, defending against executors that ignore
// them.
func CompileFilters(filters []Filter) (RowPredicate, error) {
	preds := make([]RowPredicate, 0, len(filters))
	for _, f := range filters {
		p, err := compileFilter(f)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	return func(row Row) bool {
		for _, p := range preds {
			if !p(row) {
				return false
			}
		}
		return true
	}, nil
}

func compileFilter(f Filter) (RowPredicate, error) {
	col := f.Column
	want := stringify(f.Value)
	wantLower := strings.ToLower(want)

	switch f.Operator {
	case OpIs:
		return func(row Row) bool {
			return strings.EqualFold(stringify(row[col]), want)
		}, nil
	case OpIsNot:
		return func(row Row) bool {
			return !strings.EqualFold(stringify(row[col]), want)
		}, nil
	case OpContains:
		return func(row Row) bool {
			return strings.Contains(strings.ToLower(stringify(row[col])), wantLower)
		}, nil
	case OpDoesNotContain:
		return func(row Row) bool {
			return !strings.Contains(strings.ToLower(stringify(row[col])), wantLower)
		}, nil
	case OpStartsWith:
		return func(row Row) bool {
			return strings.HasPrefix(strings.ToLower(stringify(row[col])), wantLower)
		}, nil
	case OpEndsWith:
		return func(row Row) bool {
			return strings.HasSuffix(strings.ToLower(stringify(row[col])), wantLower)
		}, nil
	case OpIsEmpty:
		return func(row Row) bool {
			v, ok := row[col]
			return !ok || v == nil || stringify(v) == ""
		}, nil
	case OpIsNotEmpty:
		return func(row Row) bool {
			v, ok := row[col]
			return ok && v != nil && stringify(v) != ""
		}, nil
	case OpGreaterThan:
		return numericPred(col, f.Value, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return numericPred(col, f.Value, func(a, b float64) bool { return a < b })
	case OpGreaterThanOrEqual:
		return numericPred(col, f.Value, func(a, b float64) bool { return a >= b })
	case OpLessThanOrEqual:
		return numericPred(col, f.Value, func(a, b float64) bool { return a <= b })
	default:
		return nil, fmt.Errorf("unknown filter operator %q", f.Operator)
	}
}

func numericPred(col string, value interface{}, cmp func(a, b float64) bool) (RowPredicate, error) {
	want, ok := ToFloat(value)
	if !ok {
		return nil, fmt.Errorf("operator requires numeric value for column %q", col)
	}
	return func(row Row) bool {
		got, ok := ToFloat(row[col])
		return ok && cmp(got, want)
	}, nil
}

// ToFloat parses numbers and numeric strings the way the executor emits
// them (metrics endpoints return counts as strings).
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
