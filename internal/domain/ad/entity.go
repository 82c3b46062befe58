// internal/domain/ad/entity.go
package ad

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string
type FuelType string
type TransmissionType string
type UsageReason string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusExpired  Status = "EXPIRED"
	StatusSold     Status = "SOLD"
	StatusRejected Status = "REJECTED"
	StatusDeleted  Status = "DELETED"

	FuelTypePetrol   FuelType = "petrol"
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"

	TransmissionManual    TransmissionType = "manual"
	TransmissionAutomatic TransmissionType = "automatic"

	UsagePost  UsageReason = "POST"
	UsageRenew UsageReason = "RENEW"
)

// CarAd is a classified listing.
type CarAd struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	VehicleTypeID   int64           `json:"vehicle_type_id" db:"vehicle_type_id"`
	BrandID         *int64          `json:"brand_id,omitempty" db:"brand_id"`
	ModelID         *int64          `json:"model_id,omitempty" db:"model_id"`
	Title           string          `json:"title" db:"title"`
	Description     string          `json:"description" db:"description"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Currency        string          `json:"currency" db:"currency"`
	Location        string          `json:"location" db:"location"`
	ContactPhone    *string         `json:"contact_phone,omitempty" db:"contact_phone"`
	IsNegotiable    bool            `json:"is_negotiable" db:"is_negotiable"`
	Status          Status          `json:"status" db:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ViewCount       int64           `json:"view_count" db:"view_count"`
	ExpiryDate      time.Time       `json:"expiry_date" db:"expiry_date"`
	ExpiryWarned    bool            `json:"-" db:"expiry_warned"`
	PublishedAt     *time.Time      `json:"published_at,omitempty" db:"published_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// CarDetails holds the structured vehicle fields of an ad.
type CarDetails struct {
	AdID           int64             `json:"-" db:"ad_id"`
	Year           *int              `json:"year,omitempty" db:"year"`
	Mileage        *int              `json:"mileage,omitempty" db:"mileage"`
	FuelType       *FuelType         `json:"fuel_type,omitempty" db:"fuel_type"`
	Transmission   *TransmissionType `json:"transmission,omitempty" db:"transmission"`
	BodyType       *string           `json:"body_type,omitempty" db:"body_type"`
	Color          *string           `json:"color,omitempty" db:"color"`
	EngineCapacity *int              `json:"engine_capacity,omitempty" db:"engine_capacity"`
	Condition      *string           `json:"condition,omitempty" db:"condition"`
}

type AdImage struct {
	ID        int64     `json:"id" db:"id"`
	AdID      int64     `json:"ad_id" db:"ad_id"`
	URL       string    `json:"url" db:"url"`
	ObjectKey *string   `json:"object_key,omitempty" db:"object_key"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type AdAttributeValue struct {
	AdID         int64  `json:"-" db:"ad_id"`
	AttributeID  int64  `json:"attribute_id" db:"attribute_id"`
	AttributeKey string `json:"attribute_key,omitempty" db:"attribute_key"`
	Value        string `json:"value" db:"value"`
}

// UsageEntry records one posting that consumed subscription quota.
type UsageEntry struct {
	ID             int64       `db:"id"`
	UserID         int64       `db:"user_id"`
	SubscriptionID *int64      `db:"subscription_id"`
	VehicleTypeID  int64       `db:"vehicle_type_id"`
	AdID           int64       `db:"ad_id"`
	Reason         UsageReason `db:"reason"`
	CreatedAt      time.Time   `db:"created_at"`
}

// AdInfo is the full view of an ad.
type AdInfo struct {
	CarAd
	VehicleTypeName string             `json:"vehicle_type_name" db:"vehicle_type_name"`
	BrandName       *string            `json:"brand_name,omitempty" db:"brand_name"`
	ModelName       *string            `json:"model_name,omitempty" db:"model_name"`
	SellerName      string             `json:"seller_name" db:"seller_name"`
	IsBoosted       bool               `json:"is_boosted" db:"is_boosted"`
	Details         *CarDetails        `json:"details,omitempty"`
	Images          []AdImage          `json:"images"`
	Attributes      []AdAttributeValue `json:"attributes"`
}

// PrimaryImage returns the primary image url, or the first one.
func (a *AdInfo) PrimaryImage() string {
	for _, img := range a.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(a.Images) > 0 {
		return a.Images[0].URL
	}
	return ""
}

// ExpiringAd is a row selected by the expiry warning sweep.
type ExpiringAd struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	Title      string    `db:"title"`
	ExpiryDate time.Time `db:"expiry_date"`
	Email      *string   `db:"email"`
	FirstName  string    `db:"first_name"`
}
