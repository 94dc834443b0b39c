package widget

import (
	"context"

	"go-insight/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type WidgetRepository interface {
	Create(ctx context.Context, w *Widget) error
	Get(ctx context.Context, id string) (*Widget, error)
	GetBySlug(ctx context.Context, slug string) (*Widget, error)
	List(ctx context.Context) ([]Widget, error)
	Update(ctx context.Context, id string, w *Widget) error
	Delete(ctx context.Context, id string) error
}

type WidgetRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewWidgetRepository(mongodb *database.MongodbDB) WidgetRepository {
	return &WidgetRepositoryImpl{
		Collection: mongodb.DB.Collection("widgets"),
	}
}

func (r *WidgetRepositoryImpl) Create(ctx context.Context, w *Widget) error {
	w.ID = primitive.NewObjectID()
	_, err := r.Collection.InsertOne(ctx, w)
	return err
}

func (r *WidgetRepositoryImpl) Get(ctx context.Context, id string) (*Widget, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var w Widget
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WidgetRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*Widget, error) {
	var w Widget
	err := r.Collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WidgetRepositoryImpl) List(ctx context.Context) ([]Widget, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var widgets []Widget
	if err := cursor.All(ctx, &widgets); err != nil {
		return nil, err
	}
	return widgets, nil
}

func (r *WidgetRepositoryImpl) Update(ctx context.Context, id string, w *Widget) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": w,
	}

	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *WidgetRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
