package offers

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"offerapp-backend/internal/wire"
)

// Query is the database side of a listing. Nil id slices mean no filter on
// that key; empty ones match nothing.
type Query struct {
	IDs          []wire.ID
	VendorIDs    []wire.ID
	CategoryID   wire.ID
	IsActive     *bool
	IsFeatured   *bool
	DiscountType string
	OfferType    string
	Tag          string
}

// Change is one entry of a bulk update.
type Change struct {
	ID  wire.ID
	Set bson.M
}

type Repository interface {
	Create(ctx context.Context, item Offer) error
	Get(ctx context.Context, id wire.ID) (Offer, error)
	List(ctx context.Context, q Query) ([]Offer, error)
	Search(ctx context.Context, term string) ([]Offer, error)
	Update(ctx context.Context, id wire.ID, set bson.M) (Offer, error)
	Delete(ctx context.Context, id wire.ID) (bool, error)
	BulkUpdate(ctx context.Context, changes []Change) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, item Offer) error {
	_, err := r.col.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id wire.ID) (Offer, error) {
	var item Offer
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return Offer{}, err
	}
	return item, nil
}

func (r *MongoRepository) List(ctx context.Context, q Query) ([]Offer, error) {
	return r.find(ctx, q.filter())
}

func (q Query) filter() bson.M {
	filter := bson.M{}
	if q.IDs != nil {
		filter["_id"] = bson.M{"$in": q.IDs}
	}
	if q.VendorIDs != nil {
		filter["vendor._id"] = bson.M{"$in": q.VendorIDs}
	}
	if q.CategoryID != "" {
		filter["category._id"] = q.CategoryID
	}
	if q.IsActive != nil {
		filter["isActive"] = *q.IsActive
	}
	if q.IsFeatured != nil {
		filter["isFeatured"] = *q.IsFeatured
	}
	if q.DiscountType != "" {
		filter["discountType"] = q.DiscountType
	}
	if q.OfferType != "" {
		filter["offerType"] = q.OfferType
	}
	if q.Tag != "" {
		filter["tags"] = q.Tag
	}
	return filter
}

func (r *MongoRepository) Search(ctx context.Context, term string) ([]Offer, error) {
	return r.find(ctx, searchFilter(term))
}

// searchFilter matches term as a literal, case-insensitive substring.
func searchFilter(term string) bson.M {
	pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
	return bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"title_ar": pattern},
		bson.M{"description": pattern},
		bson.M{"description_ar": pattern},
		bson.M{"searchKeywords": pattern},
		bson.M{"tags": pattern},
	}}
}

func (r *MongoRepository) Update(ctx context.Context, id wire.ID, set bson.M) (Offer, error) {
	var item Offer
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, updateDoc(set),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if err != nil {
		return Offer{}, err
	}
	return item, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id wire.ID) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

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

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]Offer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	items := make([]Offer, 0)
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
