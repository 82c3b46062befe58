// internal/domain/pricing/entity.go
package pricing

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemPackage      ItemType = "PACKAGE"
	ItemBoost        ItemType = "BOOST"
	ItemBoostPackage ItemType = "BOOST_PACKAGE"
	ItemBoostItem    ItemType = "BOOST_ITEM"
)

// IsBoost reports whether the item is applied to a single ad.
func (t ItemType) IsBoost() bool {
	return t == ItemBoost || t == ItemBoostItem
}

type ItemStatus string

const (
	ItemActive   ItemStatus = "ACTIVE"
	ItemInactive ItemStatus = "INACTIVE"
	ItemArchived ItemStatus = "ARCHIVED"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Well-known package feature keys.
const (
	FeatureFreeAdsLimit = "FREE_ADS_LIMIT"
	FeatureUnlimitedAds = "IS_UNLIMITED_ADS"
	FeatureDurationDays = "DURATION_DAYS"
	FeatureBoostType    = "BOOST_TYPE"
	DefaultPackageDays  = 30
	DefaultBoostDays    = 7
	UnlimitedRemaining  = 9999
)

// PriceItem is anything sellable: a package, a boost, a bundle of boosts.
type PriceItem struct {
	ID          int64      `json:"id" db:"id"`
	Code        string     `json:"code" db:"code"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	ItemType    ItemType   `json:"item_type" db:"item_type"`
	Status      ItemStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// PricingRule quotes a price for an item, optionally per vehicle type and quantity band.
type PricingRule struct {
	ID            int64           `json:"id" db:"id"`
	PriceItemID   int64           `json:"price_item_id" db:"price_item_id"`
	VehicleTypeID *int64          `json:"vehicle_type_id,omitempty" db:"vehicle_type_id"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Currency      string          `json:"currency" db:"currency"`
	MinQuantity   int             `json:"min_quantity" db:"min_quantity"`
	MaxQuantity   *int            `json:"max_quantity,omitempty" db:"max_quantity"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Covers reports whether quantity falls inside the rule's bounds.
func (r *PricingRule) Covers(quantity int) bool {
	if quantity < r.MinQuantity {
		return false
	}
	return r.MaxQuantity == nil || quantity <= *r.MaxQuantity
}

type PackageFeature struct {
	ID        int64  `json:"id" db:"id"`
	PackageID int64  `json:"package_id" db:"package_id"`
	Key       string `json:"key" db:"key"`
	Value     string `json:"value" db:"value"`
}

// FeatureValue looks up a feature by key, case-insensitively.
func FeatureValue(features []*PackageFeature, key string) (string, bool) {
	for _, f := range features {
		if strings.EqualFold(f.Key, key) {
			return strings.TrimSpace(f.Value), true
		}
	}
	return "", false
}

// FeatureDays reads a positive day count, falling back when absent or malformed.
func FeatureDays(features []*PackageFeature, key string, fallback int) int {
	v, ok := FeatureValue(features, key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

type PackageIncludedItem struct {
	ID             int64  `json:"id" db:"id"`
	PackageID      int64  `json:"package_id" db:"package_id"`
	IncludedItemID int64  `json:"included_item_id" db:"included_item_id"`
	IncludedCode   string `json:"included_code,omitempty" db:"included_code"`
	IncludedName   string `json:"included_name,omitempty" db:"included_name"`
	Quantity       int    `json:"quantity" db:"quantity"`
	IsUnlimited    bool   `json:"is_unlimited" db:"is_unlimited"`
}

// PackageAdLimit caps postings per vehicle type; IsUnlimited overrides Quantity.
type PackageAdLimit struct {
	ID              int64  `json:"id" db:"id"`
	PackageID       int64  `json:"package_id" db:"package_id"`
	VehicleTypeID   int64  `json:"vehicle_type_id" db:"vehicle_type_id"`
	VehicleTypeName string `json:"vehicle_type_name,omitempty" db:"vehicle_type_name"`
	Quantity        int    `json:"quantity" db:"quantity"`
	IsUnlimited     bool   `json:"is_unlimited" db:"is_unlimited"`
}

type UserSubscription struct {
	ID          int64              `json:"id" db:"id"`
	UserID      int64              `json:"user_id" db:"user_id"`
	PackageID   int64              `json:"package_id" db:"package_id"`
	PackageName string             `json:"package_name,omitempty" db:"package_name"`
	PaymentID   *int64             `json:"payment_id,omitempty" db:"payment_id"`
	StartDate   time.Time          `json:"start_date" db:"start_date"`
	EndDate     time.Time          `json:"end_date" db:"end_date"`
	Status      SubscriptionStatus `json:"status" db:"status"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// ValidAt reports whether the subscription grants entitlements at t.
func (s *UserSubscription) ValidAt(t time.Time) bool {
	return s.Status == SubscriptionActive && !t.Before(s.StartDate) && !t.After(s.EndDate)
}
