package vendors

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/storage"
	"offerapp-backend/internal/wire"
)

// fakeRepo keeps vendors and locations in memory. Updates go through a BSON
// round trip so $set keys behave like they do against Mongo.
type fakeRepo struct {
	mu        sync.Mutex
	vendors   map[wire.ID]Vendor
	order     []wire.ID
	locations []Location
	writes    int

	failCreate    error
	failLocations error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{vendors: map[wire.ID]Vendor{}}
}

func (r *fakeRepo) put(item Vendor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vendors[item.ID]; !ok {
		r.order = append(r.order, item.ID)
	}
	r.vendors[item.ID] = item
}

func (r *fakeRepo) stored(id wire.ID) (Vendor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.vendors[id]
	return item, ok
}

func (r *fakeRepo) Create(ctx context.Context, item Vendor) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	r.put(item)
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id wire.ID) (Vendor, error) {
	item, ok := r.stored(id)
	if !ok {
		return Vendor{}, mongo.ErrNoDocuments
	}
	return item, nil
}

func (r *fakeRepo) Exists(ctx context.Context, id wire.ID) (bool, error) {
	_, ok := r.stored(id)
	return ok, nil
}

func (r *fakeRepo) List(ctx context.Context, isActive *bool, ids []wire.ID) ([]Vendor, error) {
	return r.filter(func(v Vendor) bool {
		if isActive != nil && v.IsActive != *isActive {
			return false
		}
		return ids == nil || slices.Contains(ids, v.ID)
	}), nil
}

func (r *fakeRepo) Search(ctx context.Context, term string) ([]Vendor, error) {
	term = strings.ToLower(term)
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), term) }
	return r.filter(func(v Vendor) bool {
		return contains(v.Name) || contains(v.NameAr) || slices.ContainsFunc(v.SearchKeywords, contains)
	}), nil
}

func (r *fakeRepo) FindByOffer(ctx context.Context, offerID wire.ID) ([]Vendor, error) {
	return r.filter(func(v Vendor) bool {
		return slices.Contains(v.Offers, offerID.String())
	}), nil
}

func (r *fakeRepo) Update(ctx context.Context, id wire.ID, set bson.M) (Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.vendors[id]
	if !ok {
		return Vendor{}, mongo.ErrNoDocuments
	}
	var out Vendor
	applyUpdate(item, set, item.Version, &out)
	r.vendors[id] = out
	r.writes++
	return out, nil
}

func (r *fakeRepo) BulkUpdate(ctx context.Context, changes []Change) error {
	for _, c := range changes {
		if _, err := r.Update(ctx, c.ID, c.Set); err != nil && err != mongo.ErrNoDocuments {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) CreateLocations(ctx context.Context, items []Location) error {
	if r.failLocations != nil {
		return r.failLocations
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations = append(r.locations, items...)
	return nil
}

func (r *fakeRepo) ListLocations(ctx context.Context, vendorIDs []wire.ID) ([]Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Location, 0)
	for _, loc := range r.locations {
		if slices.Contains(vendorIDs, loc.VendorID) {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateLocation(ctx context.Context, vendorID, locationID wire.ID, set bson.M) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, loc := range r.locations {
		if loc.ID == locationID && loc.VendorID == vendorID {
			var out Location
			applyUpdate(loc, set, loc.Version, &out)
			r.locations[i] = out
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) DeleteLocation(ctx context.Context, vendorID, locationID wire.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, loc := range r.locations {
		if loc.ID == locationID && loc.VendorID == vendorID {
			r.locations = slices.Delete(r.locations, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) DeleteLocations(ctx context.Context, vendorID wire.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations = slices.DeleteFunc(r.locations, func(loc Location) bool { return loc.VendorID == vendorID })
	return nil
}

func (r *fakeRepo) VendorIDsByLocation(ctx context.Context, term string) ([]wire.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term = strings.ToLower(term)
	ids := make([]wire.ID, 0)
	for _, loc := range r.locations {
		match := strings.EqualFold(loc.City, term) || strings.Contains(strings.ToLower(loc.Address), term)
		if match && !slices.Contains(ids, loc.VendorID) {
			ids = append(ids, loc.VendorID)
		}
	}
	return ids, nil
}

func (r *fakeRepo) filter(keep func(Vendor) bool) []Vendor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Vendor, 0)
	for _, id := range r.order {
		if v := r.vendors[id]; keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// applyUpdate mimics {$set: set, $inc: {__v: 1}} on a document.
func applyUpdate(doc any, set bson.M, version int, out any) {
	raw, err := bson.Marshal(doc)
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
	fields["__v"] = version + 1
	raw, err = bson.Marshal(fields)
	if err != nil {
		panic(err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		panic(err)
	}
}

type fakeCategories struct {
	known map[wire.ID]bool
}

func (c fakeCategories) MissingIDs(ctx context.Context, ids []wire.ID) ([]wire.ID, error) {
	missing := make([]wire.ID, 0)
	for _, id := range ids {
		if !c.known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type fakeUploader struct {
	folders []string
}

func (u *fakeUploader) Upload(ctx context.Context, folder string, file storage.File) (string, error) {
	u.folders = append(u.folders, folder)
	return "https://cdn.test/" + folder + "/" + file.Name, nil
}

// fakeLinker applies $addToSet / $pull to the fake repo's offers arrays.
type fakeLinker struct {
	repo *fakeRepo
}

func (l fakeLinker) Attach(ctx context.Context, vendorID, offerID wire.ID) error {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	v, ok := l.repo.vendors[vendorID]
	if !ok {
		return apperr.NotFound("vendor %s", vendorID)
	}
	if !slices.Contains(v.Offers, offerID.String()) {
		v.Offers = append(slices.Clone(v.Offers), offerID.String())
	}
	l.repo.vendors[vendorID] = v
	return nil
}

func (l fakeLinker) Detach(ctx context.Context, vendorID, offerID wire.ID) error {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	v, ok := l.repo.vendors[vendorID]
	if !ok {
		return apperr.NotFound("vendor %s", vendorID)
	}
	v.Offers = slices.DeleteFunc(slices.Clone(v.Offers), func(id string) bool { return id == offerID.String() })
	l.repo.vendors[vendorID] = v
	return nil
}
