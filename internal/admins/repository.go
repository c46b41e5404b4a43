package admins

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Upsert(ctx context.Context, networkID, name, role string) (Admin, error)
	FindByNetworkID(ctx context.Context, networkID string) (Admin, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

// Upsert renames an existing admin or creates one with the given role. The
// unique networkId index makes concurrent registrations converge.
func (r *MongoRepository) Upsert(ctx context.Context, networkID, name, role string) (Admin, error) {
	update := bson.M{
		"$set": bson.M{"name": name},
		"$setOnInsert": bson.M{
			"_id":  primitive.NewObjectID().Hex(),
			"role": role,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var admin Admin
	err := r.col.FindOneAndUpdate(ctx, bson.M{"networkId": networkID}, update, opts).Decode(&admin)
	if mongo.IsDuplicateKeyError(err) {
		// lost an insert race; the winner's document now exists
		err = r.col.FindOneAndUpdate(ctx, bson.M{"networkId": networkID}, update, opts).Decode(&admin)
	}
	if err != nil {
		return Admin{}, err
	}
	return admin, nil
}

func (r *MongoRepository) FindByNetworkID(ctx context.Context, networkID string) (Admin, error) {
	var admin Admin
	if err := r.col.FindOne(ctx, bson.M{"networkId": networkID}).Decode(&admin); err != nil {
		return Admin{}, err
	}
	return admin, nil
}
