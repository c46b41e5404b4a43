package relations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"offerapp-backend/internal/wire"
)

// Store is the persistence the relation code needs: single-document
// add/pull on a vendor's offers array plus the scans reconciliation runs.
type Store interface {
	AddOffer(ctx context.Context, vendorID, offerID wire.ID) (bool, error)
	PullOffers(ctx context.Context, vendorID wire.ID, offerIDs ...wire.ID) (bool, error)
	AddOffers(ctx context.Context, vendorID wire.ID, offerIDs ...wire.ID) (bool, error)
	VendorOffers(ctx context.Context) (map[wire.ID][]wire.ID, error)
	OffersByVendor(ctx context.Context) (map[wire.ID][]wire.ID, error)
}

type MongoStore struct {
	vendors *mongo.Collection
	offers  *mongo.Collection
}

func NewMongoStore(vendors, offers *mongo.Collection) *MongoStore {
	return &MongoStore{vendors: vendors, offers: offers}
}

func (s *MongoStore) AddOffer(ctx context.Context, vendorID, offerID wire.ID) (bool, error) {
	return s.AddOffers(ctx, vendorID, offerID)
}

func (s *MongoStore) AddOffers(ctx context.Context, vendorID wire.ID, offerIDs ...wire.ID) (bool, error) {
	update := bson.M{
		"$addToSet": bson.M{"offers": bson.M{"$each": offerIDs}},
		"$set":      bson.M{"updatedAt": wire.Now()},
	}
	res, err := s.vendors.UpdateOne(ctx, bson.M{"_id": vendorID}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoStore) PullOffers(ctx context.Context, vendorID wire.ID, offerIDs ...wire.ID) (bool, error) {
	update := bson.M{
		"$pull": bson.M{"offers": bson.M{"$in": offerIDs}},
		"$set":  bson.M{"updatedAt": wire.Now()},
	}
	res, err := s.vendors.UpdateOne(ctx, bson.M{"_id": vendorID}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoStore) VendorOffers(ctx context.Context) (map[wire.ID][]wire.ID, error) {
	opts := options.Find().SetProjection(bson.M{"offers": 1})
	cursor, err := s.vendors.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make(map[wire.ID][]wire.ID)
	for cursor.Next(ctx) {
		var doc struct {
			ID     wire.ID   `bson:"_id"`
			Offers []wire.ID `bson:"offers"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out[doc.ID] = doc.Offers
	}
	return out, cursor.Err()
}

func (s *MongoStore) OffersByVendor(ctx context.Context) (map[wire.ID][]wire.ID, error) {
	opts := options.Find().SetProjection(bson.M{"vendor._id": 1})
	cursor, err := s.offers.Find(ctx, bson.M{"vendor._id": bson.M{"$exists": true}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make(map[wire.ID][]wire.ID)
	for cursor.Next(ctx) {
		var doc struct {
			ID     wire.ID `bson:"_id"`
			Vendor struct {
				ID wire.ID `bson:"_id"`
			} `bson:"vendor"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.Vendor.ID != "" {
			out[doc.Vendor.ID] = append(out[doc.Vendor.ID], doc.ID)
		}
	}
	return out, cursor.Err()
}
