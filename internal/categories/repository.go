package categories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"offerapp-backend/internal/wire"
)

type Repository interface {
	Create(ctx context.Context, item Category) error
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id wire.ID) (Category, error)
	Exists(ctx context.Context, id wire.ID) (bool, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, item Category) error {
	_, err := r.col.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) List(ctx context.Context) ([]Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	items := make([]Category, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Get(ctx context.Context, id wire.ID) (Category, error) {
	var item Category
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return Category{}, err
	}
	return item, nil
}

func (r *MongoRepository) Exists(ctx context.Context, id wire.ID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
