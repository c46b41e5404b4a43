package offers

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/categories"
	"offerapp-backend/internal/storage"
	"offerapp-backend/internal/vendors"
	"offerapp-backend/internal/wire"
)

type fakeRepo struct {
	mu     sync.Mutex
	offers map[wire.ID]Offer
	order  []wire.ID
	writes int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{offers: map[wire.ID]Offer{}}
}

func (r *fakeRepo) stored(id wire.ID) (Offer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.offers[id]
	return item, ok
}

func (r *fakeRepo) Create(ctx context.Context, item Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers[item.ID] = item
	r.order = append(r.order, item.ID)
	r.writes++
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id wire.ID) (Offer, error) {
	item, ok := r.stored(id)
	if !ok {
		return Offer{}, mongo.ErrNoDocuments
	}
	return item, nil
}

func (r *fakeRepo) List(ctx context.Context, q Query) ([]Offer, error) {
	return r.filter(func(o Offer) bool {
		switch {
		case q.IDs != nil && !slices.Contains(q.IDs, o.ID):
			return false
		case q.VendorIDs != nil && !slices.Contains(q.VendorIDs, o.Vendor.ID):
			return false
		case q.CategoryID != "" && (o.Category == nil || o.Category.ID != q.CategoryID):
			return false
		case q.IsActive != nil && o.IsActive != *q.IsActive:
			return false
		case q.IsFeatured != nil && o.IsFeatured != *q.IsFeatured:
			return false
		case q.DiscountType != "" && o.DiscountType != q.DiscountType:
			return false
		case q.OfferType != "" && o.OfferType != q.OfferType:
			return false
		case q.Tag != "" && !slices.Contains(o.Tags, q.Tag):
			return false
		}
		return true
	}), nil
}

func (r *fakeRepo) Search(ctx context.Context, term string) ([]Offer, error) {
	term = strings.ToLower(term)
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), term) }
	return r.filter(func(o Offer) bool {
		return contains(o.Title) || contains(o.TitleAr) || contains(o.Description) || contains(o.DescriptionAr) ||
			slices.ContainsFunc(o.SearchKeywords, contains) || slices.ContainsFunc(o.Tags, contains)
	}), nil
}

func (r *fakeRepo) Update(ctx context.Context, id wire.ID, set bson.M) (Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.offers[id]
	if !ok {
		return Offer{}, mongo.ErrNoDocuments
	}
	out := applyUpdate(item, set)
	r.offers[id] = out
	r.writes++
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id wire.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offers[id]; !ok {
		return false, nil
	}
	delete(r.offers, id)
	r.order = slices.DeleteFunc(r.order, func(o wire.ID) bool { return o == id })
	return true, nil
}

func (r *fakeRepo) BulkUpdate(ctx context.Context, changes []Change) error {
	for _, c := range changes {
		if _, err := r.Update(ctx, c.ID, c.Set); err != nil && err != mongo.ErrNoDocuments {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) filter(keep func(Offer) bool) []Offer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Offer, 0)
	for _, id := range r.order {
		if o := r.offers[id]; keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// applyUpdate mimics {$set: set, $inc: {__v: 1}} through a BSON round trip.
func applyUpdate(item Offer, set bson.M) Offer {
	raw, err := bson.Marshal(item)
	if err != nil {
		panic(err)
	}
	fields := bson.M{}
	if err := bson.Unmarshal(raw, &fields); err != nil {
		panic(err)
	}
	for k, v := range set {
		fields[k] = v
	}
	fields["updatedAt"] = wire.Now()
	fields["__v"] = item.Version + 1
	raw, err = bson.Marshal(fields)
	if err != nil {
		panic(err)
	}
	var out Offer
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

// fakeVendors holds vendors and the places each one has a branch in.
type fakeVendors struct {
	vendors map[wire.ID]vendors.Vendor
	places  map[wire.ID][]string
}

func newFakeVendors() *fakeVendors {
	return &fakeVendors{vendors: map[wire.ID]vendors.Vendor{}, places: map[wire.ID][]string{}}
}

func (f *fakeVendors) add(id wire.ID, name string, places ...string) {
	f.vendors[id] = vendors.Vendor{ID: id, Name: name, Email: []string{"info@" + id.String() + ".test"}, Mobile: []string{"+97312345678"}}
	f.places[id] = places
}

func (f *fakeVendors) Get(ctx context.Context, id wire.ID) (vendors.Vendor, error) {
	v, ok := f.vendors[id]
	if !ok {
		return vendors.Vendor{}, apperr.NotFound("vendor %s", id)
	}
	return v, nil
}

func (f *fakeVendors) VendorIDsByLocation(ctx context.Context, term string) ([]wire.ID, error) {
	var ids []wire.ID
	for id, places := range f.places {
		if slices.ContainsFunc(places, func(p string) bool { return strings.EqualFold(p, term) }) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

type fakeCategories map[wire.ID]categories.Category

func (f fakeCategories) Lookup(ctx context.Context, id wire.ID) (*categories.Category, error) {
	c, ok := f[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	folders []string
}

func (u *fakeUploader) Upload(ctx context.Context, folder string, file storage.File) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.folders = append(u.folders, folder)
	return "https://cdn.test/" + folder + "/" + file.Name, nil
}

// fakeRelations keeps each vendor's offers list and fails for unknown vendors.
type fakeRelations struct {
	mu      sync.Mutex
	vendors *fakeVendors
	offers  map[wire.ID][]wire.ID
}

func (f *fakeRelations) Attach(ctx context.Context, vendorID, offerID wire.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vendors.vendors[vendorID]; !ok {
		return apperr.NotFound("vendor %s", vendorID)
	}
	if !slices.Contains(f.offers[vendorID], offerID) {
		f.offers[vendorID] = append(f.offers[vendorID], offerID)
	}
	return nil
}

func (f *fakeRelations) Detach(ctx context.Context, vendorID, offerID wire.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vendors.vendors[vendorID]; !ok {
		return apperr.NotFound("vendor %s", vendorID)
	}
	f.offers[vendorID] = slices.DeleteFunc(f.offers[vendorID], func(id wire.ID) bool { return id == offerID })
	return nil
}

func (f *fakeRelations) Move(ctx context.Context, offerID, from, to wire.ID) error {
	if err := f.Attach(ctx, to, offerID); err != nil {
		return err
	}
	if err := f.Detach(ctx, from, offerID); err != nil && !apperr.IsNotFound(err) {
		return err
	}
	return nil
}

func (f *fakeRelations) of(vendorID wire.ID) []wire.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.offers[vendorID])
}
