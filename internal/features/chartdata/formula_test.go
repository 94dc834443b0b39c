package chartdata

import (
	"testing"

	"go-insight/internal/features/query"
)

func TestApplyFormula(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		value   float64
		rows    []query.Row
		want    float64
		wantErr bool
	}{
		{"empty script passthrough", "", 42, nil, 42, false},
		{"scale", `value = value * 2`, 21, nil, 42, false},
		{"round to percent", `value = value * 100`, 0.857, nil, 85.7, false},
		{"reads rows", `value = len(rows)`, 0, []query.Row{{"a": 1}, {"a": 2}}, 2, false},
		{"compile error", `value = = 1`, 10, nil, 10, true},
		{"runtime error", `value = value / undefined_fn()`, 10, nil, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyFormula(tt.script, tt.value, tt.rows)
			if (err != nil) != tt.wantErr {
				t.Errorf("ApplyFormula() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ApplyFormula() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFormulaErrorKeepsOriginalValue(t *testing.T) {
	got, err := ApplyFormula(`nonsense(`, 7, nil)
	if err == nil {
		t.Fatal("expected compile error")
	}
	if got != 7 {
		t.Errorf("value after error = %v, want original 7", got)
	}
}
