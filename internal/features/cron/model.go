package cron_feature

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshJob schedules a recurring refresh of one dashboard.
type RefreshJob struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Schedule    string             `json:"schedule" bson:"schedule"`
	DashboardID string             `json:"dashboard_id" bson:"dashboard_id"`
	RangeDays   int                `json:"range_days" bson:"range_days"`
	Active      bool               `json:"active" bson:"active"`
	LastRun     *time.Time         `json:"last_run,omitempty" bson:"last_run,omitempty"`
	NextRun     *time.Time         `json:"next_run,omitempty" bson:"next_run,omitempty"`
	CreatedBy   primitive.ObjectID `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// RefreshJobLog records a single execution of a refresh job.
type RefreshJobLog struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	JobID     primitive.ObjectID `json:"job_id" bson:"job_id"`
	JobName   string             `json:"job_name" bson:"job_name"`
	StartTime time.Time          `json:"start_time" bson:"start_time"`
	EndTime   *time.Time         `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Status    string             `json:"status" bson:"status"` // "success", "failed", "running"
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
