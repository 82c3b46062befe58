// internal/domain/ad/dto.go
package ad

import (
	"github.com/shopspring/decimal"
)

type ImageInput struct {
	URL       string  `json:"url" binding:"required,url"`
	ObjectKey *string `json:"object_key"`
	IsPrimary bool    `json:"is_primary"`
}

type AttributeInput struct {
	AttributeID int64  `json:"attribute_id" binding:"required,min=1"`
	Value       string `json:"value" binding:"required,max=255"`
}

type DetailsInput struct {
	Year           *int              `json:"year" binding:"omitempty,min=1900,max=2100"`
	Mileage        *int              `json:"mileage" binding:"omitempty,min=0"`
	FuelType       *FuelType         `json:"fuel_type" binding:"omitempty,oneof=petrol diesel electric hybrid"`
	Transmission   *TransmissionType `json:"transmission" binding:"omitempty,oneof=manual automatic"`
	BodyType       *string           `json:"body_type" binding:"omitempty,max=50"`
	Color          *string           `json:"color" binding:"omitempty,max=50"`
	EngineCapacity *int              `json:"engine_capacity" binding:"omitempty,min=0"`
	Condition      *string           `json:"condition" binding:"omitempty,oneof=new used reconditioned"`
}

type CreateAdRequest struct {
	VehicleTypeID int64            `json:"vehicle_type_id" binding:"required,min=1"`
	BrandID       *int64           `json:"brand_id" binding:"omitempty,min=1"`
	ModelID       *int64           `json:"model_id" binding:"omitempty,min=1"`
	Title         string           `json:"title" binding:"required,min=5,max=150"`
	Description   string           `json:"description" binding:"max=5000"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	Currency      string           `json:"currency" binding:"omitempty,len=3"`
	Location      string           `json:"location" binding:"required,max=120"`
	ContactPhone  *string          `json:"contact_phone" binding:"omitempty,max=20"`
	IsNegotiable  bool             `json:"is_negotiable"`
	Details       DetailsInput     `json:"details"`
	Images        []ImageInput     `json:"images" binding:"max=20,dive"`
	Attributes    []AttributeInput `json:"attributes" binding:"dive"`
}

type UpdateAdRequest struct {
	BrandID      *int64           `json:"brand_id" binding:"omitempty,min=1"`
	ModelID      *int64           `json:"model_id" binding:"omitempty,min=1"`
	Title        *string          `json:"title" binding:"omitempty,min=5,max=150"`
	Description  *string          `json:"description" binding:"omitempty,max=5000"`
	Price        *decimal.Decimal `json:"price"`
	Location     *string          `json:"location" binding:"omitempty,max=120"`
	ContactPhone *string          `json:"contact_phone" binding:"omitempty,max=20"`
	IsNegotiable *bool            `json:"is_negotiable"`
	Details      *DetailsInput    `json:"details"`
	Images       []ImageInput     `json:"images" binding:"omitempty,max=20,dive"`
	Attributes   []AttributeInput `json:"attributes" binding:"omitempty,dive"`
}

type RejectAdRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type PresignRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// ListFilters drives the public search as well as the owner and admin listings.
// Attributes maps attribute id to the exact value required.
type ListFilters struct {
	VehicleTypeID *int64           `form:"vehicle_type_id"`
	BrandID       *int64           `form:"brand_id"`
	ModelID       *int64           `form:"model_id"`
	MinPrice      *float64         `form:"min_price"`
	MaxPrice      *float64         `form:"max_price"`
	MinYear       *int             `form:"min_year"`
	MaxYear       *int             `form:"max_year"`
	Location      string           `form:"location"`
	Search        string           `form:"q"`
	Sort          SortOrder        `form:"sort"`
	Status        *Status          `form:"status"`
	UserID        *int64           `form:"-"`
	Attributes    map[int64]string `form:"-"`
	Page          int              `form:"page"`
	PageSize      int              `form:"page_size"`
}

// Normalize clamps paging and sort values.
func (f *ListFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	switch f.Sort {
	case SortNewest, SortPriceAsc, SortPriceDesc:
	default:
		f.Sort = SortNewest
	}
}

type AdListResponse struct {
	Ads        []AdInfo `json:"ads"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}
