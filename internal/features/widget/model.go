package widget

import (
	"time"

	"go-insight/internal/features/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Widget is a stored widget definition. Query fields mirror the builder
// vocabulary; Formula is an optional tengo expression applied to the
// transformed scalar value.
type Widget struct {
	ID            primitive.ObjectID      `json:"id" bson:"_id,omitempty"`
	Slug          string                  `json:"slug" bson:"slug"`
	Name          string                  `json:"name" bson:"name"`
	Description   string                  `json:"description,omitempty" bson:"description,omitempty"`
	View          query.ViewKind          `json:"view" bson:"view"`
	Visualization query.VisualizationKind `json:"visualization" bson:"visualization"`
	ChartType     string                  `json:"chart_type,omitempty" bson:"chart_type,omitempty"`
	QueryType     string                  `json:"query_type" bson:"query_type"`
	Measure       string                  `json:"measure,omitempty" bson:"measure,omitempty"`
	GroupBy       string                  `json:"group_by,omitempty" bson:"group_by,omitempty"`
	Percentile    int                     `json:"percentile,omitempty" bson:"percentile,omitempty"`
	Limit         int                     `json:"limit,omitempty" bson:"limit,omitempty"`
	Formula       string                  `json:"formula,omitempty" bson:"formula,omitempty"`
	Filters       []query.Filter          `json:"filters,omitempty" bson:"filters,omitempty"`
	CreatedAt     time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at" bson:"updated_at"`
}

// QuerySpec maps the stored definition onto the query builder input.
func (w *Widget) QuerySpec() query.WidgetQuerySpec {
	return query.WidgetQuerySpec{
		QueryType:     w.QueryType,
		View:          w.View,
		Measure:       w.Measure,
		GroupBy:       w.GroupBy,
		Percentile:    w.Percentile,
		Limit:         w.Limit,
		Visualization: w.Visualization,
	}
}

// ListedWidget is one entry of the merged widget list: either a stored
// definition or a row derived from recent traces.
type ListedWidget struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"` // "stored" or "traces"
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// PreviewResult is the day-bucketed trace count preview.
type PreviewResult struct {
	Count     int         `json:"count"`
	ChartData interface{} `json:"chartData"`
	Truncated bool        `json:"truncated"`
}
