// internal/domain/discount/entity.go
package discount

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePercentage Type = "PERCENTAGE"
	TypeFixed      Type = "FIXED"
)

// Discount reduces the price of a purchase. Empty VehicleTypeIDs / PackageIDs mean "any".
type Discount struct {
	ID             int64           `json:"id" db:"id"`
	Code           *string         `json:"code,omitempty" db:"code"`
	Name           string          `json:"name" db:"name"`
	DiscountType   Type            `json:"discount_type" db:"discount_type"`
	Value          decimal.Decimal `json:"value" db:"value"`
	ValidFrom      *time.Time      `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo        *time.Time      `json:"valid_to,omitempty" db:"valid_to"`
	FirstTimeOnly  bool            `json:"first_time_only" db:"first_time_only"`
	MinQuantity    int             `json:"min_quantity" db:"min_quantity"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	VehicleTypeIDs []int64         `json:"vehicle_type_ids"`
	PackageIDs     []int64         `json:"package_ids"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// ValidAt reports whether the discount window contains t.
func (d *Discount) ValidAt(t time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ValidFrom != nil && t.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidTo != nil && t.After(*d.ValidTo) {
		return false
	}
	return true
}

// Covers reports whether the discount's scope includes the item and vehicle type.
func (d *Discount) Covers(itemID int64, vehicleTypeID *int64) bool {
	if len(d.PackageIDs) > 0 && !contains(d.PackageIDs, itemID) {
		return false
	}
	if len(d.VehicleTypeIDs) > 0 {
		if vehicleTypeID == nil || !contains(d.VehicleTypeIDs, *vehicleTypeID) {
			return false
		}
	}
	return true
}

// Amount returns how much the discount takes off amount, capped at amount.
func (d *Discount) Amount(amount decimal.Decimal) decimal.Decimal {
	var off decimal.Decimal
	switch d.DiscountType {
	case TypePercentage:
		off = amount.Mul(d.Value).Div(decimal.NewFromInt(100))
	case TypeFixed:
		off = d.Value
	}
	if off.GreaterThan(amount) {
		off = amount
	}
	if off.IsNegative() {
		off = decimal.Zero
	}
	return off.Round(2)
}

// Apply returns amount after the discount, never below zero, rounded to 2 dp.
func Apply(amount decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return amount.Round(2)
	}
	return amount.Sub(d.Amount(amount)).Round(2)
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
