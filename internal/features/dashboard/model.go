package dashboard

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardWidgetRef places a stored widget on a dashboard grid.
type DashboardWidgetRef struct {
	WidgetID string         `json:"widget_id" bson:"widget_id"`
	Title    string         `json:"title" bson:"title"`
	Position WidgetPosition `json:"position" bson:"position"`
}

type WidgetPosition struct {
	X      int `json:"x" bson:"x"`
	Y      int `json:"y" bson:"y"`
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`
}

type DashboardConfig struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID   `json:"user_id" bson:"user_id"`
	Name        string               `json:"name" bson:"name"`
	Description string               `json:"description,omitempty" bson:"description,omitempty"`
	IsDefault   bool                 `json:"is_default" bson:"is_default"`
	IsShared    bool                 `json:"is_shared" bson:"is_shared"`
	Widgets     []DashboardWidgetRef `json:"widgets" bson:"widgets"`
	Layout      string               `json:"layout" bson:"layout"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" bson:"updated_at"`
}
