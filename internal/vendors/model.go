package vendors

import "offerapp-backend/internal/wire"

type Vendor struct {
	ID             wire.ID    `bson:"_id" json:"_id"`
	Name           string     `bson:"name" json:"name"`
	NameAr         string     `bson:"name_ar" json:"name_ar"`
	Description    string     `bson:"description" json:"description"`
	DescriptionAr  string     `bson:"description_ar" json:"description_ar"`
	Logo           string     `bson:"logo" json:"logo"`
	CRNNo          string     `bson:"crn_no" json:"crn_no"`
	Website        []string   `bson:"website" json:"website"`
	Email          []string   `bson:"email" json:"email"`
	Mobile         []string   `bson:"mobile" json:"mobile"`
	Telephone      []string   `bson:"telephone" json:"telephone"`
	Links          []string   `bson:"links" json:"links"`
	Categories     []string   `bson:"categories" json:"categories"`
	Offers         []string   `bson:"offers" json:"offers"`
	SearchKeywords []string   `bson:"searchKeywords" json:"searchKeywords"`
	SMEName        string     `bson:"smeName" json:"smeName"`
	SMEEmail       string     `bson:"smeEmail" json:"smeEmail"`
	SMEPhone       string     `bson:"smePhone" json:"smePhone"`
	IsActive       bool       `bson:"isActive" json:"isActive"`
	IsDeleted      bool       `bson:"isDeleted" json:"isDeleted"`
	CreatedBy      wire.Actor `bson:"createdBy" json:"createdBy"`
	CreatedAt      wire.Date  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      wire.Date  `bson:"updatedAt" json:"updatedAt"`
	Version        int        `bson:"__v" json:"__v"`

	// Locations live in their own collection and are attached on read.
	Locations []Location `bson:"-" json:"locations"`
}

// Location is a vendor branch stored in the vendor_locations collection.
type Location struct {
	ID           wire.ID   `bson:"_id" json:"__id__"`
	VendorID     wire.ID   `bson:"vendorId" json:"-"`
	BranchName   string    `bson:"branch_name" json:"branch_name"`
	BranchNameAr string    `bson:"branch_name_ar" json:"branch_name_ar"`
	City         string    `bson:"city" json:"city"`
	Link         string    `bson:"link" json:"link"`
	Latitude     *float64  `bson:"latitude" json:"latitude"`
	Longitude    *float64  `bson:"longitude" json:"longitude"`
	Address      string    `bson:"address" json:"address"`
	CreatedAt    wire.Date `bson:"createdAt" json:"createdAt"`
	UpdatedAt    wire.Date `bson:"updatedAt" json:"updatedAt"`
	Version      int       `bson:"__v" json:"__v"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationInput is a partial location update; nil fields are left untouched.
type LocationInput struct {
	BranchName   *string  `json:"branch_name"`
	BranchNameAr *string  `json:"branch_name_ar"`
	City         *string  `json:"city"`
	Link         *string  `json:"link"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address      *string  `json:"address"`
}

// NewLocationInput is a branch being added; it needs a name and a city.
type NewLocationInput struct {
	BranchName   *string  `json:"branch_name" validate:"required,min=1"`
	BranchNameAr *string  `json:"branch_name_ar"`
	City         *string  `json:"city" validate:"required,min=1"`
	Link         *string  `json:"link"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address      *string  `json:"address"`
}

type CreateRequest struct {
	Name           string             `json:"name" validate:"required"`
	NameAr         string             `json:"name_ar"`
	Description    string             `json:"description"`
	DescriptionAr  string             `json:"description_ar"`
	Logo           string             `json:"logo" validate:"omitempty,url"`
	CRNNo          string             `json:"crn_no" validate:"required"`
	Website        []string           `json:"website"`
	Email          []string           `json:"email" validate:"dive,email"`
	Mobile         []string           `json:"mobile" validate:"dive,phone"`
	Telephone      []string           `json:"telephone" validate:"dive,phone"`
	Links          []string           `json:"links"`
	Categories     []string           `json:"categories"`
	SearchKeywords []string           `json:"searchKeywords"`
	SMEName        string             `json:"smeName"`
	SMEEmail       string             `json:"smeEmail" validate:"omitempty,email"`
	SMEPhone       string             `json:"smePhone" validate:"omitempty,phone"`
	Locations      []NewLocationInput `json:"locations" validate:"dive"`
}

// UpdateRequest is a partial update. offers is managed through the offer
// association routes and locations through the location routes, so neither
// is accepted here.
type UpdateRequest struct {
	Name           *string   `json:"name" validate:"omitnil,min=1"`
	NameAr         *string   `json:"name_ar"`
	Description    *string   `json:"description"`
	DescriptionAr  *string   `json:"description_ar"`
	Logo           *string   `json:"logo" validate:"omitempty,url"`
	CRNNo          *string   `json:"crn_no" validate:"omitnil,min=1"`
	Website        *[]string `json:"website"`
	Email          *[]string `json:"email" validate:"omitempty,dive,email"`
	Mobile         *[]string `json:"mobile" validate:"omitempty,dive,phone"`
	Telephone      *[]string `json:"telephone" validate:"omitempty,dive,phone"`
	Links          *[]string `json:"links"`
	Categories     *[]string `json:"categories"`
	SearchKeywords *[]string `json:"searchKeywords"`
	SMEName        *string   `json:"smeName"`
	SMEEmail       *string   `json:"smeEmail" validate:"omitempty,email"`
	SMEPhone       *string   `json:"smePhone" validate:"omitempty,phone"`
	IsActive       *bool     `json:"isActive"`
}

type Filter struct {
	IsActive *bool
	Country  string
}
