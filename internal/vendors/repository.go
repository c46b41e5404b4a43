package vendors

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"offerapp-backend/internal/wire"
)

// Change is one entry of a bulk update: the fields to $set on a vendor.
type Change struct {
	ID  wire.ID
	Set bson.M
}

type Repository interface {
	Create(ctx context.Context, item Vendor) error
	Get(ctx context.Context, id wire.ID) (Vendor, error)
	Exists(ctx context.Context, id wire.ID) (bool, error)
	List(ctx context.Context, isActive *bool, ids []wire.ID) ([]Vendor, error)
	Search(ctx context.Context, term string) ([]Vendor, error)
	FindByOffer(ctx context.Context, offerID wire.ID) ([]Vendor, error)
	Update(ctx context.Context, id wire.ID, set bson.M) (Vendor, error)
	BulkUpdate(ctx context.Context, changes []Change) error

	CreateLocations(ctx context.Context, items []Location) error
	ListLocations(ctx context.Context, vendorIDs []wire.ID) ([]Location, error)
	UpdateLocation(ctx context.Context, vendorID, locationID wire.ID, set bson.M) (bool, error)
	DeleteLocation(ctx context.Context, vendorID, locationID wire.ID) (bool, error)
	DeleteLocations(ctx context.Context, vendorID wire.ID) error
	VendorIDsByLocation(ctx context.Context, term string) ([]wire.ID, error)
}

type MongoRepository struct {
	col       *mongo.Collection
	locations *mongo.Collection
}

func NewRepository(col, locations *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col, locations: locations}
}

func (r *MongoRepository) Create(ctx context.Context, item Vendor) error {
	_, err := r.col.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id wire.ID) (Vendor, error) {
	var item Vendor
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return Vendor{}, err
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

// List returns vendors in creation order. A nil ids slice means no id filter;
// an empty one matches nothing.
func (r *MongoRepository) List(ctx context.Context, isActive *bool, ids []wire.ID) ([]Vendor, error) {
	return r.find(ctx, listFilter(isActive, ids))
}

func listFilter(isActive *bool, ids []wire.ID) bson.M {
	filter := bson.M{}
	if isActive != nil {
		filter["isActive"] = *isActive
	}
	if ids != nil {
		filter["_id"] = bson.M{"$in": ids}
	}
	return filter
}

func (r *MongoRepository) Search(ctx context.Context, term string) ([]Vendor, error) {
	pattern := containsPattern(term)
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"name_ar": pattern},
		bson.M{"searchKeywords": pattern},
	}}
	return r.find(ctx, filter)
}

func (r *MongoRepository) FindByOffer(ctx context.Context, offerID wire.ID) ([]Vendor, error) {
	return r.find(ctx, bson.M{"offers": offerID})
}

// Update applies set, bumps the write counter and returns the stored document.
func (r *MongoRepository) Update(ctx context.Context, id wire.ID, set bson.M) (Vendor, error) {
	var item Vendor
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, updateDoc(set),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if err != nil {
		return Vendor{}, err
	}
	return item, nil
}

// BulkUpdate writes all changes in one unordered batch. Unknown ids match
// nothing and are skipped by the database.
func (r *MongoRepository) BulkUpdate(ctx context.Context, changes []Change) error {
	models := make([]mongo.WriteModel, 0, len(changes))
	for _, c := range changes {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": c.ID}).
			SetUpdate(updateDoc(c.Set)))
	}
	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (r *MongoRepository) CreateLocations(ctx context.Context, items []Location) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		docs = append(docs, item)
	}
	_, err := r.locations.InsertMany(ctx, docs)
	return err
}

func (r *MongoRepository) ListLocations(ctx context.Context, vendorIDs []wire.ID) ([]Location, error) {
	items := make([]Location, 0)
	if len(vendorIDs) == 0 {
		return items, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.locations.Find(ctx, bson.M{"vendorId": bson.M{"$in": vendorIDs}}, opts)
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) UpdateLocation(ctx context.Context, vendorID, locationID wire.ID, set bson.M) (bool, error) {
	res, err := r.locations.UpdateOne(ctx, bson.M{"_id": locationID, "vendorId": vendorID}, updateDoc(set))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoRepository) DeleteLocation(ctx context.Context, vendorID, locationID wire.ID) (bool, error) {
	res, err := r.locations.DeleteOne(ctx, bson.M{"_id": locationID, "vendorId": vendorID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) DeleteLocations(ctx context.Context, vendorID wire.ID) error {
	_, err := r.locations.DeleteMany(ctx, bson.M{"vendorId": vendorID})
	return err
}

// VendorIDsByLocation returns the vendors with a branch whose city equals term
// or whose address contains it, ignoring case.
func (r *MongoRepository) VendorIDsByLocation(ctx context.Context, term string) ([]wire.ID, error) {
	filter := locationFilter(term)
	raw, err := r.locations.Distinct(ctx, "vendorId", filter)
	if err != nil {
		return nil, err
	}
	ids := make([]wire.ID, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			ids = append(ids, wire.ID(s))
		}
	}
	return ids, nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]Vendor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	items := make([]Vendor, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func updateDoc(set bson.M) bson.M {
	fields := bson.M{"updatedAt": wire.Now()}
	for k, v := range set {
		fields[k] = v
	}
	return bson.M{
		"$set": fields,
		"$inc": bson.M{"__v": 1},
	}
}

func locationFilter(term string) bson.M {
	quoted := regexp.QuoteMeta(term)
	return bson.M{"$or": bson.A{
		bson.M{"city": bson.M{"$regex": "^" + quoted + "$", "$options": "i"}},
		bson.M{"address": bson.M{"$regex": quoted, "$options": "i"}},
	}}
}

func containsPattern(term string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
}
