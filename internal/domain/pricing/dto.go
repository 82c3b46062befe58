// internal/domain/pricing/dto.go
package pricing

import "github.com/shopspring/decimal"

type CreatePriceItemRequest struct {
	Code        string   `json:"code" binding:"required,max=50"`
	Name        string   `json:"name" binding:"required,max=150"`
	Description string   `json:"description"`
	ItemType    ItemType `json:"item_type" binding:"required,oneof=PACKAGE BOOST BOOST_PACKAGE BOOST_ITEM"`
}

type UpdatePriceItemRequest struct {
	Name        *string     `json:"name" binding:"omitempty,max=150"`
	Description *string     `json:"description"`
	Status      *ItemStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
}

type CreatePricingRuleRequest struct {
	PriceItemID   int64           `json:"price_item_id" binding:"required,min=1"`
	VehicleTypeID *int64          `json:"vehicle_type_id" binding:"omitempty,min=1"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	Currency      string          `json:"currency" binding:"omitempty,len=3"`
	MinQuantity   int             `json:"min_quantity" binding:"omitempty,min=1"`
	MaxQuantity   *int            `json:"max_quantity" binding:"omitempty,min=1"`
}

type UpdatePricingRuleRequest struct {
	Price       *decimal.Decimal `json:"price"`
	MinQuantity *int             `json:"min_quantity" binding:"omitempty,min=1"`
	MaxQuantity *int             `json:"max_quantity" binding:"omitempty,min=1"`
	IsActive    *bool            `json:"is_active"`
}

type SetFeatureRequest struct {
	Key   string `json:"key" binding:"required,max=60"`
	Value string `json:"value" binding:"required,max=255"`
}

type AddIncludedItemRequest struct {
	IncludedItemID int64 `json:"included_item_id" binding:"required,min=1"`
	Quantity       int   `json:"quantity" binding:"omitempty,min=1"`
	IsUnlimited    bool  `json:"is_unlimited"`
}

type SetAdLimitRequest struct {
	VehicleTypeID int64 `json:"vehicle_type_id" binding:"required,min=1"`
	Quantity      int   `json:"quantity" binding:"min=0"`
	IsUnlimited   bool  `json:"is_unlimited"`
}

// PriceQuote is the resolved price for a quantity of an item.
type PriceQuote struct {
	Item      *PriceItem      `json:"item"`
	Rule      *PricingRule    `json:"rule"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Currency  string          `json:"currency"`
}

// PackageDetails is a package with everything a buyer needs to compare offers.
type PackageDetails struct {
	PriceItem
	Rules         []*PricingRule         `json:"rules"`
	Features      []*PackageFeature      `json:"features"`
	AdLimits      []*PackageAdLimit      `json:"ad_limits"`
	IncludedItems []*PackageIncludedItem `json:"included_items"`
}

type PriceItemFilters struct {
	ItemType *ItemType   `form:"item_type"`
	Status   *ItemStatus `form:"status"`
}
