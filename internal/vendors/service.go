package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/storage"
	"offerapp-backend/internal/wire"
)

// CategoryChecker reports which category ids do not exist.
type CategoryChecker interface {
	MissingIDs(ctx context.Context, ids []wire.ID) ([]wire.ID, error)
}

// OfferLinker maintains the vendor offers back-reference.
type OfferLinker interface {
	Attach(ctx context.Context, vendorID, offerID wire.ID) error
	Detach(ctx context.Context, vendorID, offerID wire.ID) error
}

type Service struct {
	repo       Repository
	categories CategoryChecker
	uploader   storage.Uploader
	links      OfferLinker
	coords     *CoordinateResolver
}

func NewService(repo Repository, categories CategoryChecker, uploader storage.Uploader, links OfferLinker, coords *CoordinateResolver) *Service {
	if coords == nil {
		coords = NewCoordinateResolver(nil)
	}
	return &Service{
		repo:       repo,
		categories: categories,
		uploader:   uploader,
		links:      links,
		coords:     coords,
	}
}

// BulkChange is one decoded entry of a bulk update.
type BulkChange struct {
	ID     wire.ID
	Update UpdateRequest
}

func (s *Service) Create(ctx context.Context, req CreateRequest, actor wire.Actor, logo *storage.File) (Vendor, error) {
	categories := wire.StringList(req.Categories)
	if err := s.checkCategories(ctx, categories); err != nil {
		return Vendor{}, err
	}

	logoURL := strings.TrimSpace(req.Logo)
	if logo != nil {
		url, err := s.uploader.Upload(ctx, storage.FolderVendorLogos, *logo)
		if err != nil {
			return Vendor{}, err
		}
		logoURL = url
	}

	now := wire.Now()
	item := Vendor{
		ID:             wire.NewID(),
		Name:           strings.TrimSpace(req.Name),
		NameAr:         strings.TrimSpace(req.NameAr),
		Description:    req.Description,
		DescriptionAr:  req.DescriptionAr,
		Logo:           logoURL,
		CRNNo:          strings.TrimSpace(req.CRNNo),
		Website:        wire.StringList(req.Website),
		Email:          wire.StringList(req.Email),
		Mobile:         wire.StringList(req.Mobile),
		Telephone:      wire.StringList(req.Telephone),
		Links:          wire.StringList(req.Links),
		Categories:     categories,
		Offers:         []string{},
		SearchKeywords: wire.StringList(req.SearchKeywords),
		SMEName:        req.SMEName,
		SMEEmail:       req.SMEEmail,
		SMEPhone:       req.SMEPhone,
		IsActive:       true,
		IsDeleted:      false,
		CreatedBy:      actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// a vendor is only stored once its branches are
	locations := make([]Location, 0, len(req.Locations))
	for _, in := range req.Locations {
		locations = append(locations, newLocation(item.ID, in, now))
	}
	if err := s.repo.CreateLocations(ctx, locations); err != nil {
		return Vendor{}, fmt.Errorf("create vendor locations: %w", err)
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if len(locations) > 0 {
			_ = s.repo.DeleteLocations(ctx, item.ID)
		}
		return Vendor{}, fmt.Errorf("create vendor: %w", err)
	}
	item.Locations = locations
	return item, nil
}

// List filters on isActive in the database; country keeps vendors with a
// branch in that city or address.
func (s *Service) List(ctx context.Context, f Filter) ([]Vendor, error) {
	var ids []wire.ID
	if country := strings.TrimSpace(f.Country); country != "" {
		found, err := s.repo.VendorIDsByLocation(ctx, country)
		if err != nil {
			return nil, fmt.Errorf("list vendors: %w", err)
		}
		ids = found
		if len(ids) == 0 {
			return []Vendor{}, nil
		}
	}

	items, err := s.repo.List(ctx, f.IsActive, ids)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return s.withLocations(ctx, items)
}

func (s *Service) Get(ctx context.Context, id wire.ID) (Vendor, error) {
	item, err := s.repo.Get(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Vendor{}, apperr.NotFound("vendor %s", id)
	}
	if err != nil {
		return Vendor{}, fmt.Errorf("get vendor: %w", err)
	}
	items, err := s.withLocations(ctx, []Vendor{item})
	if err != nil {
		return Vendor{}, err
	}
	return items[0], nil
}

func (s *Service) Search(ctx context.Context, term string) ([]Vendor, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.Validation("searchTerm is required")
	}
	items, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search vendors: %w", err)
	}
	return s.withLocations(ctx, items)
}

func (s *Service) FindByOffer(ctx context.Context, offerID wire.ID) ([]Vendor, error) {
	items, err := s.repo.FindByOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("find vendors by offer: %w", err)
	}
	return s.withLocations(ctx, items)
}

// Update applies a partial update. A categories field that is present, even
// empty, replaces the stored list once every id has been checked.
func (s *Service) Update(ctx context.Context, id wire.ID, req UpdateRequest, logo *storage.File) (Vendor, error) {
	if err := s.mustExist(ctx, id); err != nil {
		return Vendor{}, err
	}

	set, err := s.updateFields(ctx, req)
	if err != nil {
		return Vendor{}, err
	}
	if logo != nil {
		url, err := s.uploader.Upload(ctx, storage.FolderVendorLogos, *logo)
		if err != nil {
			return Vendor{}, err
		}
		set["logo"] = url
	}
	return s.write(ctx, id, set)
}

// Remove is a soft delete; vendors are never purged.
func (s *Service) Remove(ctx context.Context, id wire.ID) error {
	_, err := s.write(ctx, id, bson.M{"isActive": false, "isDeleted": true})
	return err
}

func (s *Service) Deactivate(ctx context.Context, id wire.ID) (Vendor, error) {
	return s.write(ctx, id, bson.M{"isActive": false})
}

// Activate also clears a previous soft delete.
func (s *Service) Activate(ctx context.Context, id wire.ID) (Vendor, error) {
	return s.write(ctx, id, bson.M{"isActive": true, "isDeleted": false})
}

func (s *Service) AddOffer(ctx context.Context, vendorID, offerID wire.ID) (Vendor, error) {
	if err := s.links.Attach(ctx, vendorID, offerID); err != nil {
		return Vendor{}, err
	}
	return s.Get(ctx, vendorID)
}

func (s *Service) RemoveOffer(ctx context.Context, vendorID, offerID wire.ID) (Vendor, error) {
	if err := s.links.Detach(ctx, vendorID, offerID); err != nil {
		return Vendor{}, err
	}
	return s.Get(ctx, vendorID)
}

func (s *Service) Locations(ctx context.Context, vendorID wire.ID) ([]Location, error) {
	if err := s.mustExist(ctx, vendorID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListLocations(ctx, []wire.ID{vendorID})
	if err != nil {
		return nil, fmt.Errorf("list vendor locations: %w", err)
	}
	return items, nil
}

func (s *Service) AddLocation(ctx context.Context, vendorID wire.ID, in NewLocationInput) (Vendor, error) {
	if err := s.mustExist(ctx, vendorID); err != nil {
		return Vendor{}, err
	}
	loc := newLocation(vendorID, in, wire.Now())
	if err := s.repo.CreateLocations(ctx, []Location{loc}); err != nil {
		return Vendor{}, fmt.Errorf("add vendor location: %w", err)
	}
	return s.Get(ctx, vendorID)
}

// UpdateLocation changes only the fields present in the input.
func (s *Service) UpdateLocation(ctx context.Context, vendorID, locationID wire.ID, in LocationInput) (Vendor, error) {
	set := bson.M{}
	setString(set, "branch_name", in.BranchName)
	setString(set, "branch_name_ar", in.BranchNameAr)
	setString(set, "city", in.City)
	setString(set, "link", in.Link)
	setString(set, "address", in.Address)
	if in.Latitude != nil {
		set["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		set["longitude"] = *in.Longitude
	}

	ok, err := s.repo.UpdateLocation(ctx, vendorID, locationID, set)
	if err != nil {
		return Vendor{}, fmt.Errorf("update vendor location: %w", err)
	}
	if !ok {
		return Vendor{}, apperr.NotFound("location %s of vendor %s", locationID, vendorID)
	}
	return s.Get(ctx, vendorID)
}

func (s *Service) RemoveLocation(ctx context.Context, vendorID, locationID wire.ID) (Vendor, error) {
	ok, err := s.repo.DeleteLocation(ctx, vendorID, locationID)
	if err != nil {
		return Vendor{}, fmt.Errorf("remove vendor location: %w", err)
	}
	if !ok {
		return Vendor{}, apperr.NotFound("location %s of vendor %s", locationID, vendorID)
	}
	return s.Get(ctx, vendorID)
}

// BulkUpdate writes every change in one batch and returns the updated
// vendors in request order. Ids that match no vendor are skipped by the write
// and then reported as not found.
func (s *Service) BulkUpdate(ctx context.Context, changes []BulkChange) ([]Vendor, error) {
	writes := make([]Change, 0, len(changes))
	for _, c := range changes {
		set, err := s.updateFields(ctx, c.Update)
		if err != nil {
			return nil, fmt.Errorf("vendor %s: %w", c.ID, err)
		}
		writes = append(writes, Change{ID: c.ID, Set: set})
	}
	if err := s.repo.BulkUpdate(ctx, writes); err != nil {
		return nil, fmt.Errorf("bulk update vendors: %w", err)
	}

	ids := make([]wire.ID, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.ID)
	}

	var (
		items     []Vendor
		locations []Location
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, nil, ids)
		return err
	})
	g.Go(func() error {
		var err error
		locations, err = s.repo.ListLocations(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reload vendors: %w", err)
	}

	byID := make(map[wire.ID]Vendor, len(items))
	for _, item := range assignLocations(items, locations) {
		byID[item.ID] = item
	}
	out := make([]Vendor, 0, len(ids))
	var missing []string
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			missing = append(missing, id.String())
			continue
		}
		out = append(out, item)
	}
	if len(missing) > 0 {
		return nil, apperr.NotFound("vendors %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// VendorIDsByLocation is used by offer listing to filter on country or city.
func (s *Service) VendorIDsByLocation(ctx context.Context, term string) ([]wire.ID, error) {
	ids, err := s.repo.VendorIDsByLocation(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, fmt.Errorf("vendors by location: %w", err)
	}
	return ids, nil
}

// Coordinates resolves a map link. A nil result means the link held no
// coordinates.
func (s *Service) Coordinates(ctx context.Context, rawURL string) (*Coordinates, error) {
	return s.coords.Resolve(ctx, rawURL)
}

func (s *Service) updateFields(ctx context.Context, req UpdateRequest) (bson.M, error) {
	set := bson.M{}
	setString(set, "name", req.Name)
	setString(set, "name_ar", req.NameAr)
	setString(set, "description", req.Description)
	setString(set, "description_ar", req.DescriptionAr)
	setString(set, "logo", req.Logo)
	setString(set, "crn_no", req.CRNNo)
	setString(set, "smeName", req.SMEName)
	setString(set, "smeEmail", req.SMEEmail)
	setString(set, "smePhone", req.SMEPhone)
	setList(set, "website", req.Website)
	setList(set, "email", req.Email)
	setList(set, "mobile", req.Mobile)
	setList(set, "telephone", req.Telephone)
	setList(set, "links", req.Links)
	setList(set, "searchKeywords", req.SearchKeywords)
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}
	if req.Categories != nil {
		categories := wire.StringList(*req.Categories)
		if err := s.checkCategories(ctx, categories); err != nil {
			return nil, err
		}
		set["categories"] = categories
	}
	return set, nil
}

func (s *Service) write(ctx context.Context, id wire.ID, set bson.M) (Vendor, error) {
	item, err := s.repo.Update(ctx, id, set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Vendor{}, apperr.NotFound("vendor %s", id)
	}
	if err != nil {
		return Vendor{}, fmt.Errorf("update vendor: %w", err)
	}
	items, err := s.withLocations(ctx, []Vendor{item})
	if err != nil {
		return Vendor{}, err
	}
	return items[0], nil
}

func (s *Service) mustExist(ctx context.Context, id wire.ID) error {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("get vendor: %w", err)
	}
	if !ok {
		return apperr.NotFound("vendor %s", id)
	}
	return nil
}

func (s *Service) checkCategories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.categories.MissingIDs(ctx, wire.IDs(ids))
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for _, id := range missing {
		names = append(names, id.String())
	}
	return apperr.Fields("invalid category ids", map[string]string{
		"categories": "unknown: " + strings.Join(names, ", "),
	})
}

func (s *Service) withLocations(ctx context.Context, items []Vendor) ([]Vendor, error) {
	if len(items) == 0 {
		return items, nil
	}
	ids := make([]wire.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	locations, err := s.repo.ListLocations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load vendor locations: %w", err)
	}
	return assignLocations(items, locations), nil
}

func assignLocations(items []Vendor, locations []Location) []Vendor {
	byVendor := make(map[wire.ID][]Location, len(items))
	for _, loc := range locations {
		byVendor[loc.VendorID] = append(byVendor[loc.VendorID], loc)
	}
	for i := range items {
		items[i].Locations = byVendor[items[i].ID]
		if items[i].Locations == nil {
			items[i].Locations = []Location{}
		}
		items[i].Links = wire.StringList(items[i].Links)
	}
	return items
}

func newLocation(vendorID wire.ID, in NewLocationInput, now wire.Date) Location {
	return Location{
		ID:           wire.NewID(),
		VendorID:     vendorID,
		BranchName:   deref(in.BranchName),
		BranchNameAr: deref(in.BranchNameAr),
		City:         deref(in.City),
		Link:         deref(in.Link),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Address:      deref(in.Address),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func setString(set bson.M, key string, v *string) {
	if v != nil {
		set[key] = strings.TrimSpace(*v)
	}
}

func setList(set bson.M, key string, v *[]string) {
	if v != nil {
		set[key] = wire.StringList(*v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
