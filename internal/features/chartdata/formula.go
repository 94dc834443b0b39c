package chartdata

import (
	"fmt"

	"go-insight/internal/features/query"

	"github.com/d5/tengo/v2"
)

// ApplyFormula runs a widget's post-processing script against the extracted
// scalar value. The script sees `value` (float) and `rows` (the raw result)
// and reassigns `value` to transform it.
func ApplyFormula(script string, value float64, rows []query.Row) (float64, error) {
	if script == "" {
		return value, nil
	}

	s := tengo.NewScript([]byte(script))
	if err := s.Add("value", value); err != nil {
		return value, fmt.Errorf("failed to bind value: %w", err)
	}
	if err := s.Add("rows", sanitizeRows(rows)); err != nil {
		return value, fmt.Errorf("failed to bind rows: %w", err)
	}

	compiled, err := s.Compile()
	if err != nil {
		return value, fmt.Errorf("failed to compile formula: %w", err)
	}
	if err := compiled.Run(); err != nil {
		return value, fmt.Errorf("failed to run formula: %w", err)
	}

	return compiled.Get("value").Float(), nil
}

// sanitizeRows keeps only scalar fields tengo can hold.
func sanitizeRows(rows []query.Row) []interface{} {
	out := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]interface{}, len(row))
		for k, v := range row {
			switch v.(type) {
			case string, bool, int, int64, float64:
				m[k] = v
			}
		}
		out = append(out, m)
	}
	return out
}
