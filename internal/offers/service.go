package offers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/categories"
	"offerapp-backend/internal/storage"
	"offerapp-backend/internal/vendors"
	"offerapp-backend/internal/wire"
)

// VendorDirectory resolves the vendor an offer belongs to and the vendors
// with a branch in a given place.
type VendorDirectory interface {
	Get(ctx context.Context, id wire.ID) (vendors.Vendor, error)
	VendorIDsByLocation(ctx context.Context, term string) ([]wire.ID, error)
}

// CategoryLookup returns nil for a category that does not exist.
type CategoryLookup interface {
	Lookup(ctx context.Context, id wire.ID) (*categories.Category, error)
}

// Relations keeps vendor.offers in step with the offers collection.
type Relations interface {
	Attach(ctx context.Context, vendorID, offerID wire.ID) error
	Detach(ctx context.Context, vendorID, offerID wire.ID) error
	Move(ctx context.Context, offerID, from, to wire.ID) error
}

type Service struct {
	repo       Repository
	vendors    VendorDirectory
	categories CategoryLookup
	uploader   storage.Uploader
	relations  Relations
	log        *slog.Logger
}

func NewService(repo Repository, vendors VendorDirectory, categories CategoryLookup, uploader storage.Uploader, relations Relations, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:       repo,
		vendors:    vendors,
		categories: categories,
		uploader:   uploader,
		relations:  relations,
		log:        log,
	}
}

// Uploads holds the optional image files of a create or update request.
type Uploads struct {
	Image         *storage.File
	FeaturedImage *storage.File
}

// BulkChange is one decoded entry of a bulk update.
type BulkChange struct {
	ID     wire.ID
	Update UpdateRequest
}

// Create snapshots the vendor and category onto the offer and attaches it
// to the vendor. Nothing is written when the vendor does not exist.
func (s *Service) Create(ctx context.Context, req CreateRequest, files Uploads) (Offer, error) {
	if err := checkDates(req.StartDate, req.ExpiryDate); err != nil {
		return Offer{}, err
	}

	vendor, err := s.vendors.Get(ctx, req.VendorID)
	if err != nil {
		return Offer{}, err
	}
	category, err := s.categorySnapshot(ctx, req.CategoryID)
	if err != nil {
		return Offer{}, err
	}

	image, featured, err := s.upload(ctx, files)
	if err != nil {
		return Offer{}, err
	}
	if image == "" {
		image = strings.TrimSpace(req.Image)
	}
	if featured == "" {
		featured = strings.TrimSpace(req.FeaturedImage)
	}

	role := strings.TrimSpace(req.CreatedByRole)
	if role == "" {
		role = defaultCreatedByRole
	}

	now := wire.Now()
	item := Offer{
		ID:              wire.NewID(),
		Vendor:          vendorSnapshot(vendor),
		Category:        category,
		Title:           strings.TrimSpace(req.Title),
		TitleAr:         strings.TrimSpace(req.TitleAr),
		Description:     req.Description,
		DescriptionAr:   req.DescriptionAr,
		Highlights:      req.Highlights,
		HighlightsAr:    req.HighlightsAr,
		HowToAvail:      req.HowToAvail,
		HowToAvailAr:    req.HowToAvailAr,
		DiscountType:    req.DiscountType,
		DiscountCode:    strings.TrimSpace(req.DiscountCode),
		DiscountURL:     strings.TrimSpace(req.DiscountURL),
		OfferType:       req.OfferType,
		StartDate:       req.StartDate,
		ExpiryDate:      req.ExpiryDate,
		Image:           image,
		FeaturedImage:   featured,
		IsActive:        req.IsActive == nil || *req.IsActive,
		IsFeatured:      req.IsFeatured,
		IsOccasional:    req.IsOccasional,
		IsPartnerHotel:  req.IsPartnerHotel,
		HotelStarRating: req.HotelStarRating,
		HotelAmenities:  wire.StringList(req.HotelAmenities),
		Rooms:           req.Rooms,
		Currency:        strings.TrimSpace(req.Currency),
		CurrencyAr:      req.CurrencyAr,
		TaxValue:        strings.TrimSpace(req.TaxValue),
		TaxValueAr:      strings.TrimSpace(req.TaxValueAr),
		Website:         strings.TrimSpace(req.Website),
		Email:           wire.StringList(req.Email),
		Mobile:          wire.StringList(req.Mobile),
		Telephone:       wire.StringList(req.Telephone),
		Contacts:        wire.StringList(req.Contacts),
		EnableMapSearch: req.EnableMapSearch == nil || *req.EnableMapSearch,
		SearchKeywords:  wire.StringList(req.SearchKeywords),
		Tags:            wire.StringList(req.Tags),
		CreatedByRole:   role,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return Offer{}, fmt.Errorf("create offer: %w", err)
	}
	// the offer is stored; a missing back-reference is repaired by reconcile
	if err := s.relations.Attach(ctx, vendor.ID, item.ID); err != nil {
		s.log.Warn("offer create: attach failed",
			slog.String("offer_id", item.ID.String()),
			slog.String("vendor_id", vendor.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return item, nil
}

// List applies the equality filters in the database. vendorId, country and
// city narrow the set of vendors; an empty set yields no offers.
func (s *Service) List(ctx context.Context, f Filter) ([]Offer, error) {
	q := Query{
		CategoryID:   f.CategoryID,
		IsActive:     f.IsActive,
		IsFeatured:   f.IsFeatured,
		DiscountType: f.DiscountType,
		OfferType:    f.OfferType,
		Tag:          strings.TrimSpace(f.Tag),
	}
	if f.VendorID != "" {
		q.VendorIDs = []wire.ID{f.VendorID}
	}
	for _, place := range []string{f.Country, f.City} {
		place = strings.TrimSpace(place)
		if place == "" {
			continue
		}
		ids, err := s.vendors.VendorIDsByLocation(ctx, place)
		if err != nil {
			return nil, fmt.Errorf("list offers: %w", err)
		}
		if ids == nil {
			ids = []wire.ID{}
		}
		if q.VendorIDs == nil {
			q.VendorIDs = ids
		} else {
			q.VendorIDs = intersect(q.VendorIDs, ids)
		}
	}
	if q.VendorIDs != nil && len(q.VendorIDs) == 0 {
		return []Offer{}, nil
	}

	items, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id wire.ID) (Offer, error) {
	item, err := s.repo.Get(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Offer{}, apperr.NotFound("offer %s", id)
	}
	if err != nil {
		return Offer{}, fmt.Errorf("get offer: %w", err)
	}
	return item, nil
}

func (s *Service) Search(ctx context.Context, term string) ([]Offer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.Validation("searchTerm is required")
	}
	items, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search offers: %w", err)
	}
	return items, nil
}

func (s *Service) ByVendor(ctx context.Context, vendorID wire.ID) ([]Offer, error) {
	items, err := s.repo.List(ctx, Query{VendorIDs: []wire.ID{vendorID}})
	if err != nil {
		return nil, fmt.Errorf("offers by vendor: %w", err)
	}
	return items, nil
}

func (s *Service) ByCategory(ctx context.Context, categoryID wire.ID) ([]Offer, error) {
	if categoryID == "" {
		return []Offer{}, nil
	}
	items, err := s.repo.List(ctx, Query{CategoryID: categoryID})
	if err != nil {
		return nil, fmt.Errorf("offers by category: %w", err)
	}
	return items, nil
}

// Update applies a partial update. A new vendorId re-snapshots the vendor and
// moves the back-reference; a categoryId naming a stored category
// re-snapshots it, anything else leaves the category as it was.
func (s *Service) Update(ctx context.Context, id wire.ID, req UpdateRequest, files Uploads) (Offer, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Offer{}, err
	}

	start, expiry := current.StartDate, current.ExpiryDate
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.ExpiryDate != nil {
		expiry = *req.ExpiryDate
	}
	if err := checkDates(start, expiry); err != nil {
		return Offer{}, err
	}

	set := updateFields(req)

	var moveTo wire.ID
	if req.VendorID != nil && *req.VendorID != "" && *req.VendorID != current.Vendor.ID {
		vendor, err := s.vendors.Get(ctx, *req.VendorID)
		if err != nil {
			return Offer{}, err
		}
		set["vendor"] = vendorSnapshot(vendor)
		moveTo = vendor.ID
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		category, err := s.categorySnapshot(ctx, *req.CategoryID)
		if err != nil {
			return Offer{}, err
		}
		if category != nil {
			set["category"] = category
		}
	}

	image, featured, err := s.upload(ctx, files)
	if err != nil {
		return Offer{}, err
	}
	if image != "" {
		set["image"] = image
	}
	if featured != "" {
		set["featuredImage"] = featured
	}

	item, err := s.write(ctx, id, set)
	if err != nil {
		return Offer{}, err
	}
	if moveTo != "" {
		if err := s.relations.Move(ctx, id, current.Vendor.ID, moveTo); err != nil {
			return Offer{}, fmt.Errorf("update offer %s: %w", id, err)
		}
	}
	return item, nil
}

// Remove deletes the offer and pulls it from its vendor. A vendor that no
// longer exists is not an error.
func (s *Service) Remove(ctx context.Context, id wire.ID) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	if !ok {
		return apperr.NotFound("offer %s", id)
	}
	if current.Vendor.ID == "" {
		return nil
	}
	if err := s.relations.Detach(ctx, current.Vendor.ID, id); err != nil && !apperr.IsNotFound(err) {
		return fmt.Errorf("delete offer %s: %w", id, err)
	}
	return nil
}

func (s *Service) Activate(ctx context.Context, id wire.ID) (Offer, error) {
	return s.write(ctx, id, bson.M{"isActive": true})
}

func (s *Service) Deactivate(ctx context.Context, id wire.ID) (Offer, error) {
	return s.write(ctx, id, bson.M{"isActive": false})
}

// BulkUpdate writes every change in one batch and returns the updated offers
// in request order. Relation fields are refused and dates are checked against
// the stored offer; ids that match no offer are reported as not found after
// the write.
func (s *Service) BulkUpdate(ctx context.Context, changes []BulkChange) ([]Offer, error) {
	ids := make([]wire.ID, 0, len(changes))
	for i, c := range changes {
		if c.Update.VendorID != nil || c.Update.CategoryID != nil {
			return nil, apperr.Fields("relation fields are not accepted in bulk updates", map[string]string{
				fmt.Sprintf("[%d].data", i): "vendorId and categoryId must be changed one offer at a time",
			})
		}
		ids = append(ids, c.ID)
	}

	stored, err := s.repo.List(ctx, Query{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load offers: %w", err)
	}
	current := make(map[wire.ID]Offer, len(stored))
	for _, item := range stored {
		current[item.ID] = item
	}

	writes := make([]Change, 0, len(changes))
	for _, c := range changes {
		if c.Update.StartDate != nil || c.Update.ExpiryDate != nil {
			item, ok := current[c.ID]
			start, expiry := item.StartDate, item.ExpiryDate
			if c.Update.StartDate != nil {
				start = *c.Update.StartDate
			}
			if c.Update.ExpiryDate != nil {
				expiry = *c.Update.ExpiryDate
			}
			if ok || (c.Update.StartDate != nil && c.Update.ExpiryDate != nil) {
				if err := checkDates(start, expiry); err != nil {
					return nil, fmt.Errorf("offer %s: %w", c.ID, err)
				}
			}
		}
		writes = append(writes, Change{ID: c.ID, Set: updateFields(c.Update)})
	}
	if err := s.repo.BulkUpdate(ctx, writes); err != nil {
		return nil, fmt.Errorf("bulk update offers: %w", err)
	}

	items, err := s.repo.List(ctx, Query{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("reload offers: %w", err)
	}
	byID := make(map[wire.ID]Offer, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]Offer, 0, len(ids))
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
		return nil, apperr.NotFound("offers %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func (s *Service) write(ctx context.Context, id wire.ID, set bson.M) (Offer, error) {
	item, err := s.repo.Update(ctx, id, set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Offer{}, apperr.NotFound("offer %s", id)
	}
	if err != nil {
		return Offer{}, fmt.Errorf("update offer: %w", err)
	}
	return item, nil
}

func (s *Service) categorySnapshot(ctx context.Context, id wire.ID) (*CategorySnapshot, error) {
	if id == "" {
		return nil, nil
	}
	category, err := s.categories.Lookup(ctx, id)
	if err != nil || category == nil {
		return nil, err
	}
	return &CategorySnapshot{
		ID:        category.ID,
		Icon:      category.Icon,
		Image:     category.Image,
		Name:      category.Name,
		NameAr:    category.NameAr,
		Order:     category.Order,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}, nil
}

// upload stores both images concurrently and returns their URLs; a missing
// file yields an empty URL.
func (s *Service) upload(ctx context.Context, files Uploads) (image, featured string, err error) {
	g, gctx := errgroup.WithContext(ctx)
	if files.Image != nil {
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, storage.FolderOfferImages, *files.Image)
			image = url
			return err
		})
	}
	if files.FeaturedImage != nil {
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, storage.FolderOfferFeatured, *files.FeaturedImage)
			featured = url
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return image, featured, nil
}

func vendorSnapshot(v vendors.Vendor) VendorSnapshot {
	return VendorSnapshot{
		ID:     v.ID,
		Name:   v.Name,
		Email:  wire.StringList(v.Email),
		Mobile: wire.StringList(v.Mobile),
	}
}

func checkDates(start, expiry wire.Date) error {
	fields := map[string]string{}
	if start.IsZero() {
		fields["startDate"] = "required"
	}
	if expiry.IsZero() {
		fields["expiryDate"] = "required"
	}
	if len(fields) == 0 && expiry.Before(start.Time) {
		fields["expiryDate"] = "must not be before startDate"
	}
	if len(fields) > 0 {
		return apperr.Fields("invalid offer dates", fields)
	}
	return nil
}

func updateFields(req UpdateRequest) bson.M {
	set := bson.M{}
	setString(set, "title", req.Title)
	setString(set, "title_ar", req.TitleAr)
	setString(set, "description", req.Description)
	setString(set, "description_ar", req.DescriptionAr)
	setString(set, "highlights", req.Highlights)
	setString(set, "highlights_ar", req.HighlightsAr)
	setString(set, "howToAvail", req.HowToAvail)
	setString(set, "howToAvail_ar", req.HowToAvailAr)
	setString(set, "discountType", req.DiscountType)
	setString(set, "discountCode", req.DiscountCode)
	setString(set, "discount_url", req.DiscountURL)
	setString(set, "offerType", req.OfferType)
	setString(set, "image", req.Image)
	setString(set, "featuredImage", req.FeaturedImage)
	setString(set, "currency", req.Currency)
	setString(set, "currency_ar", req.CurrencyAr)
	setString(set, "taxValue", req.TaxValue)
	setString(set, "taxValue_ar", req.TaxValueAr)
	setString(set, "website", req.Website)
	setString(set, "createdByRole", req.CreatedByRole)
	setBool(set, "isActive", req.IsActive)
	setBool(set, "isFeatured", req.IsFeatured)
	setBool(set, "isOccasional", req.IsOccasional)
	setBool(set, "isPartnerHotel", req.IsPartnerHotel)
	setBool(set, "hotelStarRating", req.HotelStarRating)
	setBool(set, "enableMapSearch", req.EnableMapSearch)
	setList(set, "hotelAmenitites", req.HotelAmenities)
	setList(set, "email", req.Email)
	setList(set, "mobile", req.Mobile)
	setList(set, "telephone", req.Telephone)
	setList(set, "contacts", req.Contacts)
	setList(set, "searchKeywords", req.SearchKeywords)
	setList(set, "tags", req.Tags)
	if req.Rooms != nil {
		set["rooms"] = *req.Rooms
	}
	if req.StartDate != nil {
		set["startDate"] = *req.StartDate
	}
	if req.ExpiryDate != nil {
		set["expiryDate"] = *req.ExpiryDate
	}
	return set
}

func setString(set bson.M, key string, v *string) {
	if v != nil {
		set[key] = strings.TrimSpace(*v)
	}
}

func setBool(set bson.M, key string, v *bool) {
	if v != nil {
		set[key] = *v
	}
}

func setList(set bson.M, key string, v *[]string) {
	if v != nil {
		set[key] = wire.StringList(*v)
	}
}

func intersect(a, b []wire.ID) []wire.ID {
	out := make([]wire.ID, 0, len(a))
	for _, id := range a {
		if slices.Contains(b, id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
