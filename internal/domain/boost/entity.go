// internal/domain/boost/entity.go
package boost

import (
	"context"
	"time"

	"motormart-service/internal/domain/pricing"
)

type Type string
type Status string

const (
	TypeFeatured Type = "FEATURED"
	TypeHomepage Type = "HOMEPAGE"
	TypeUrgent   Type = "URGENT"

	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// ParseType maps a BOOST_TYPE feature value to a boost type, defaulting to FEATURED.
func ParseType(v string) Type {
	switch Type(v) {
	case TypeHomepage, TypeUrgent:
		return Type(v)
	}
	return TypeFeatured
}

type AdBoost struct {
	ID           int64      `json:"id" db:"id"`
	AdID         int64      `json:"ad_id" db:"ad_id"`
	UserID       int64      `json:"user_id" db:"user_id"`
	PriceItemID  int64      `json:"price_item_id" db:"price_item_id"`
	BoostType    Type       `json:"boost_type" db:"boost_type"`
	DurationDays int        `json:"duration_days" db:"duration_days"`
	StartsAt     *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt       *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	Status       Status     `json:"status" db:"status"`
	PaymentID    *int64     `json:"payment_id,omitempty" db:"payment_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// BoostOption is a purchasable boost item with its prices.
type BoostOption struct {
	Item         *pricing.PriceItem     `json:"item"`
	Rules        []*pricing.PricingRule `json:"rules"`
	BoostType    Type                   `json:"boost_type"`
	DurationDays int                    `json:"duration_days"`
}

type Repository interface {
	ListByAd(ctx context.Context, adID int64) ([]*AdBoost, error)
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}
