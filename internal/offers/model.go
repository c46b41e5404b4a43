package offers

import "offerapp-backend/internal/wire"

// VendorSnapshot is the part of the vendor copied onto each offer.
type VendorSnapshot struct {
	ID     wire.ID  `bson:"_id" json:"_id"`
	Name   string   `bson:"name" json:"name"`
	Email  []string `bson:"email" json:"email"`
	Mobile []string `bson:"mobile" json:"mobile"`
}

type CategorySnapshot struct {
	ID        wire.ID   `bson:"_id" json:"_id"`
	Icon      string    `bson:"icon" json:"icon"`
	Image     string    `bson:"image" json:"image"`
	Name      string    `bson:"name" json:"name"`
	NameAr    string    `bson:"name_ar" json:"name_ar"`
	Order     int       `bson:"order" json:"order"`
	CreatedAt wire.Date `bson:"createdAt" json:"createdAt"`
	UpdatedAt wire.Date `bson:"updatedAt" json:"updatedAt"`
}

type Offer struct {
	ID              wire.ID           `bson:"_id" json:"_id"`
	Vendor          VendorSnapshot    `bson:"vendor" json:"vendor"`
	Category        *CategorySnapshot `bson:"category" json:"category"`
	Title           string            `bson:"title" json:"title"`
	TitleAr         string            `bson:"title_ar" json:"title_ar"`
	Description     string            `bson:"description" json:"description"`
	DescriptionAr   string            `bson:"description_ar" json:"description_ar"`
	Highlights      string            `bson:"highlights" json:"highlights"`
	HighlightsAr    string            `bson:"highlights_ar" json:"highlights_ar"`
	HowToAvail      string            `bson:"howToAvail" json:"howToAvail"`
	HowToAvailAr    string            `bson:"howToAvail_ar" json:"howToAvail_ar"`
	DiscountType    string            `bson:"discountType" json:"discountType"`
	DiscountCode    string            `bson:"discountCode" json:"discountCode"`
	DiscountURL     string            `bson:"discount_url" json:"discount_url"`
	OfferType       string            `bson:"offerType" json:"offerType"`
	StartDate       wire.Date         `bson:"startDate" json:"startDate"`
	ExpiryDate      wire.Date         `bson:"expiryDate" json:"expiryDate"`
	Image           string            `bson:"image" json:"image"`
	FeaturedImage   string            `bson:"featuredImage" json:"featuredImage"`
	IsActive        bool              `bson:"isActive" json:"isActive"`
	IsFeatured      bool              `bson:"isFeatured" json:"isFeatured"`
	IsOccasional    bool              `bson:"isOccasional" json:"isOccasional"`
	IsPartnerHotel  bool              `bson:"isPartnerHotel" json:"isPartnerHotel"`
	HotelStarRating bool              `bson:"hotelStarRating" json:"hotelStarRating"`
	HotelAmenities  []string          `bson:"hotelAmenitites" json:"hotelAmenitites"`
	Rooms           *int              `bson:"rooms" json:"rooms"`
	Currency        string            `bson:"currency" json:"currency"`
	CurrencyAr      *string           `bson:"currency_ar" json:"currency_ar"`
	TaxValue        string            `bson:"taxValue" json:"taxValue"`
	TaxValueAr      string            `bson:"taxValue_ar" json:"taxValue_ar"`
	Website         string            `bson:"website" json:"website"`
	Email           []string          `bson:"email" json:"email"`
	Mobile          []string          `bson:"mobile" json:"mobile"`
	Telephone       []string          `bson:"telephone" json:"telephone"`
	Contacts        []string          `bson:"contacts" json:"contacts"`
	EnableMapSearch bool              `bson:"enableMapSearch" json:"enableMapSearch"`
	SearchKeywords  []string          `bson:"searchKeywords" json:"searchKeywords"`
	Tags            []string          `bson:"tags" json:"tags"`
	CreatedByRole   string            `bson:"createdByRole" json:"createdByRole"`
	CreatedAt       wire.Date         `bson:"createdAt" json:"createdAt"`
	UpdatedAt       wire.Date         `bson:"updatedAt" json:"updatedAt"`
	Version         int               `bson:"__v" json:"__v"`
}

const defaultCreatedByRole = "Personnel"

// CreateRequest carries image and featuredImage as URLs; uploaded files
// replace them. startDate and expiryDate are checked by the service.
type CreateRequest struct {
	VendorID        wire.ID   `json:"vendorId" validate:"required"`
	CategoryID      wire.ID   `json:"categoryId"`
	Title           string    `json:"title" validate:"required"`
	TitleAr         string    `json:"title_ar"`
	Description     string    `json:"description" validate:"required"`
	DescriptionAr   string    `json:"description_ar"`
	Highlights      string    `json:"highlights"`
	HighlightsAr    string    `json:"highlights_ar"`
	HowToAvail      string    `json:"howToAvail" validate:"required"`
	HowToAvailAr    string    `json:"howToAvail_ar"`
	DiscountType    string    `json:"discountType" validate:"required,discounttype"`
	DiscountCode    string    `json:"discountCode"`
	DiscountURL     string    `json:"discount_url"`
	OfferType       string    `json:"offerType" validate:"required,offertype"`
	StartDate       wire.Date `json:"startDate"`
	ExpiryDate      wire.Date `json:"expiryDate"`
	Image           string    `json:"image" validate:"omitempty,url"`
	FeaturedImage   string    `json:"featuredImage" validate:"omitempty,url"`
	IsActive        *bool     `json:"isActive"`
	IsFeatured      bool      `json:"isFeatured"`
	IsOccasional    bool      `json:"isOccasional"`
	IsPartnerHotel  bool      `json:"isPartnerHotel"`
	HotelStarRating bool      `json:"hotelStarRating"`
	HotelAmenities  []string  `json:"hotelAmenitites"`
	Rooms           *int      `json:"rooms" validate:"omitnil,gte=0"`
	Currency        string    `json:"currency"`
	CurrencyAr      *string   `json:"currency_ar"`
	TaxValue        string    `json:"taxValue"`
	TaxValueAr      string    `json:"taxValue_ar"`
	Website         string    `json:"website"`
	Email           []string  `json:"email" validate:"dive,email"`
	Mobile          []string  `json:"mobile" validate:"dive,phone"`
	Telephone       []string  `json:"telephone" validate:"dive,phone"`
	Contacts        []string  `json:"contacts"`
	EnableMapSearch *bool     `json:"enableMapSearch"`
	SearchKeywords  []string  `json:"searchKeywords"`
	Tags            []string  `json:"tags"`
	CreatedByRole   string    `json:"createdByRole"`
}

// UpdateRequest is a partial update; nil fields keep their stored value.
type UpdateRequest struct {
	VendorID        *wire.ID   `json:"vendorId"`
	CategoryID      *wire.ID   `json:"categoryId"`
	Title           *string    `json:"title" validate:"omitnil,min=1"`
	TitleAr         *string    `json:"title_ar"`
	Description     *string    `json:"description" validate:"omitnil,min=1"`
	DescriptionAr   *string    `json:"description_ar"`
	Highlights      *string    `json:"highlights"`
	HighlightsAr    *string    `json:"highlights_ar"`
	HowToAvail      *string    `json:"howToAvail" validate:"omitnil,min=1"`
	HowToAvailAr    *string    `json:"howToAvail_ar"`
	DiscountType    *string    `json:"discountType" validate:"omitnil,discounttype"`
	DiscountCode    *string    `json:"discountCode"`
	DiscountURL     *string    `json:"discount_url"`
	OfferType       *string    `json:"offerType" validate:"omitnil,offertype"`
	StartDate       *wire.Date `json:"startDate"`
	ExpiryDate      *wire.Date `json:"expiryDate"`
	Image           *string    `json:"image" validate:"omitempty,url"`
	FeaturedImage   *string    `json:"featuredImage" validate:"omitempty,url"`
	IsActive        *bool      `json:"isActive"`
	IsFeatured      *bool      `json:"isFeatured"`
	IsOccasional    *bool      `json:"isOccasional"`
	IsPartnerHotel  *bool      `json:"isPartnerHotel"`
	HotelStarRating *bool      `json:"hotelStarRating"`
	HotelAmenities  *[]string  `json:"hotelAmenitites"`
	Rooms           *int       `json:"rooms" validate:"omitnil,gte=0"`
	Currency        *string    `json:"currency"`
	CurrencyAr      *string    `json:"currency_ar"`
	TaxValue        *string    `json:"taxValue"`
	TaxValueAr      *string    `json:"taxValue_ar"`
	Website         *string    `json:"website"`
	Email           *[]string  `json:"email" validate:"omitempty,dive,email"`
	Mobile          *[]string  `json:"mobile" validate:"omitempty,dive,phone"`
	Telephone       *[]string  `json:"telephone" validate:"omitempty,dive,phone"`
	Contacts        *[]string  `json:"contacts"`
	EnableMapSearch *bool      `json:"enableMapSearch"`
	SearchKeywords  *[]string  `json:"searchKeywords"`
	Tags            *[]string  `json:"tags"`
	CreatedByRole   *string    `json:"createdByRole"`
}

// Filter holds the query parameters of GET /offer. Country and city each keep
// offers whose vendor has a branch there; both must match when both are set.
type Filter struct {
	IsActive     *bool
	IsFeatured   *bool
	VendorID     wire.ID
	CategoryID   wire.ID
	Country      string
	City         string
	DiscountType string `json:"discountType" validate:"omitempty,discounttype"`
	OfferType    string `json:"offerType" validate:"omitempty,offertype"`
	Tag          string
}
