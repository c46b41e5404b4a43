package categories

import "offerapp-backend/internal/wire"

type Category struct {
	ID        wire.ID    `bson:"_id" json:"_id"`
	Name      string     `bson:"name" json:"name"`
	NameAr    string     `bson:"name_ar" json:"name_ar"`
	Icon      string     `bson:"icon" json:"icon"`
	Image     string     `bson:"image" json:"image"`
	Order     int        `bson:"order" json:"order"`
	IsActive  bool       `bson:"isActive" json:"isActive"`
	CreatedBy wire.Actor `bson:"createdBy" json:"createdBy"`
	UpdatedBy wire.Actor `bson:"updatedBy" json:"updatedBy"`
	CreatedAt wire.Date  `bson:"createdAt" json:"createdAt"`
	UpdatedAt wire.Date  `bson:"updatedAt" json:"updatedAt"`
	Version   int        `bson:"__v" json:"__v"`
}

// CreateRequest accepts icon and image as URLs; uploaded files replace them.
type CreateRequest struct {
	Name   string `json:"name" validate:"required"`
	NameAr string `json:"name_ar"`
	Icon   string `json:"icon" validate:"omitempty,url"`
	Image  string `json:"image" validate:"omitempty,url"`
	Order  *int   `json:"order" validate:"omitempty,gte=0"`
}
