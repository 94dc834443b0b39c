package cron_feature

import (
	"context"
	"time"

	"go-insight/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CronRepository interface {
	Create(ctx context.Context, job *RefreshJob) error
	GetByID(ctx context.Context, id string) (*RefreshJob, error)
	List(ctx context.Context, filter map[string]interface{}) ([]RefreshJob, error)
	Update(ctx context.Context, job *RefreshJob) error
	Delete(ctx context.Context, id string) error
	GetActive(ctx context.Context) ([]RefreshJob, error)
	UpdateLastRun(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time) error

	// Log operations
	CreateLog(ctx context.Context, log *RefreshJobLog) error
	GetLogs(ctx context.Context, jobID string, limit int) ([]RefreshJobLog, error)
	UpdateLog(ctx context.Context, log *RefreshJobLog) error
}

type CronRepositoryImpl struct {
	collection    *mongo.Collection
	logCollection *mongo.Collection
}

func NewCronRepository(db *database.MongodbDB) CronRepository {
	return &CronRepositoryImpl{
		collection:    db.DB.Collection("refresh_jobs"),
		logCollection: db.DB.Collection("refresh_job_logs"),
	}
}

func (r *CronRepositoryImpl) Create(ctx context.Context, job *RefreshJob) error {
	job.ID = primitive.NewObjectID()
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, job)
	return err
}

func (r *CronRepositoryImpl) GetByID(ctx context.Context, id string) (*RefreshJob, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var job RefreshJob
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&job)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &job, nil
}

func (r *CronRepositoryImpl) List(ctx context.Context, filter map[string]interface{}) ([]RefreshJob, error) {
	var jobs []RefreshJob

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}

	if jobs == nil {
		jobs = []RefreshJob{}
	}

	return jobs, nil
}

func (r *CronRepositoryImpl) Update(ctx context.Context, job *RefreshJob) error {
	job.UpdatedAt = time.Now()
	filter := bson.M{"_id": job.ID}
	update := bson.M{"$set": job}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *CronRepositoryImpl) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	return err
}

func (r *CronRepositoryImpl) GetActive(ctx context.Context) ([]RefreshJob, error) {
	filter := bson.M{"active": true}
	return r.List(ctx, filter)
}

func (r *CronRepositoryImpl) UpdateLastRun(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"last_run":   lastRun,
			"next_run":   nextRun,
			"updated_at": time.Now(),
		},
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	return err
}

func (r *CronRepositoryImpl) CreateLog(ctx context.Context, log *RefreshJobLog) error {
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now()

	_, err := r.logCollection.InsertOne(ctx, log)
	return err
}

func (r *CronRepositoryImpl) GetLogs(ctx context.Context, jobID string, limit int) ([]RefreshJobLog, error) {
	objectID, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return nil, err
	}

	var logs []RefreshJobLog

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.logCollection.Find(ctx, bson.M{"job_id": objectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	if logs == nil {
		logs = []RefreshJobLog{}
	}

	return logs, nil
}

func (r *CronRepositoryImpl) UpdateLog(ctx context.Context, log *RefreshJobLog) error {
	filter := bson.M{"_id": log.ID}
	update := bson.M{"$set": log}

	_, err := r.logCollection.UpdateOne(ctx, filter, update)
	return err
}
