package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Vendors         *mongo.Collection
	VendorLocations *mongo.Collection
	Offers          *mongo.Collection
	Categories      *mongo.Collection
	Admins          *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	return client, NewCollections(client.Database(dbName)), nil
}

func NewCollections(db *mongo.Database) *Collections {
	return &Collections{
		Vendors:         db.Collection("vendors"),
		VendorLocations: db.Collection("vendor_locations"),
		Offers:          db.Collection("offers"),
		Categories:      db.Collection("categories"),
		Admins:          db.Collection("admins"),
	}
}

func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Admins.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "networkId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.VendorLocations.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "vendorId", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Vendors.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "offers", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "isActive", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Offers.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "vendor._id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "category._id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "isFeatured", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Categories.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "order", Value: 1}},
		},
	})
	return err
}
