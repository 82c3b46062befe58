// internal/domain/discount/dto.go
package discount

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CreateDiscountRequest struct {
	Code           *string         `json:"code" binding:"omitempty,max=50"`
	Name           string          `json:"name" binding:"required,max=150"`
	DiscountType   Type            `json:"discount_type" binding:"required,oneof=PERCENTAGE FIXED"`
	Value          decimal.Decimal `json:"value" binding:"required"`
	ValidFrom      *time.Time      `json:"valid_from"`
	ValidTo        *time.Time      `json:"valid_to"`
	FirstTimeOnly  bool            `json:"first_time_only"`
	MinQuantity    int             `json:"min_quantity" binding:"omitempty,min=1"`
	VehicleTypeIDs []int64         `json:"vehicle_type_ids"`
	PackageIDs     []int64         `json:"package_ids"`
}

type UpdateDiscountRequest struct {
	Name           *string          `json:"name" binding:"omitempty,max=150"`
	Value          *decimal.Decimal `json:"value"`
	ValidFrom      *time.Time       `json:"valid_from"`
	ValidTo        *time.Time       `json:"valid_to"`
	FirstTimeOnly  *bool            `json:"first_time_only"`
	MinQuantity    *int             `json:"min_quantity" binding:"omitempty,min=1"`
	IsActive       *bool            `json:"is_active"`
	VehicleTypeIDs []int64          `json:"vehicle_type_ids"`
	PackageIDs     []int64          `json:"package_ids"`
}

type PreviewRequest struct {
	ItemID        int64   `form:"item_id" binding:"required,min=1"`
	VehicleTypeID *int64  `form:"vehicle_type_id"`
	Quantity      int     `form:"quantity"`
	Code          *string `form:"code"`
}

type Preview struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	Discount       *Discount       `json:"discount,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, d *Discount) error
	FindByID(ctx context.Context, id int64) (*Discount, error)
	Update(ctx context.Context, d *Discount) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Discount, error)
	// ListCandidates returns active discounts that are either automatic or match code.
	ListCandidates(ctx context.Context, code *string, at time.Time) ([]*Discount, error)
	HasPaidPurchase(ctx context.Context, userID int64) (bool, error)
}
