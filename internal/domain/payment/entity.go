// internal/domain/payment/entity.go
package payment

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string
type Purpose string

const (
	StatusPending     Status = "PENDING"
	StatusSuccess     Status = "SUCCESS"
	StatusFailed      Status = "FAILED"
	StatusCancelled   Status = "CANCELLED"
	StatusChargedback Status = "CHARGEDBACK"

	PurposePackage Purpose = "PACKAGE"
	PurposeBoost   Purpose = "BOOST"
	PurposeUsage   Purpose = "USAGE"

	// OrderPrefix starts every order id this service issues.
	OrderPrefix = "ORD-"
	// LegacyUsagePrefix starts historical pay-per-post order ids: V-<type name>[-<ref>].
	LegacyUsagePrefix = "V-"
)

// IsFinal reports whether the payment can no longer change state.
func (s Status) IsFinal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled || s == StatusChargedback
}

type Payment struct {
	ID                int64           `json:"id" db:"id"`
	OrderID           string          `json:"order_id" db:"order_id"`
	UserID            int64           `json:"user_id" db:"user_id"`
	Purpose           Purpose         `json:"purpose" db:"purpose"`
	PriceItemID       *int64          `json:"price_item_id,omitempty" db:"price_item_id"`
	PackageID         *int64          `json:"package_id,omitempty" db:"package_id"`
	VehicleTypeID     *int64          `json:"vehicle_type_id,omitempty" db:"vehicle_type_id"`
	AdID              *int64          `json:"ad_id,omitempty" db:"ad_id"`
	BoostID           *int64          `json:"boost_id,omitempty" db:"boost_id"`
	DiscountID        *int64          `json:"discount_id,omitempty" db:"discount_id"`
	Quantity          int             `json:"quantity" db:"quantity"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	DiscountAmount    decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	Currency          string          `json:"currency" db:"currency"`
	Status            Status          `json:"status" db:"status"`
	GatewayPaymentID  *string         `json:"gateway_payment_id,omitempty" db:"gateway_payment_id"`
	GatewayStatusCode *int            `json:"gateway_status_code,omitempty" db:"gateway_status_code"`
	RawNotification   json.RawMessage `json:"-" db:"raw_notification"`
	PaidAt            *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// LegacyTypeText returns what follows the V- prefix of a pay-per-post order id:
// a vehicle type name, optionally followed by -<ref>. Type names may contain
// dashes, so splitting the name from the reference needs the known type names.
func LegacyTypeText(orderID string) (string, bool) {
	if !strings.HasPrefix(orderID, LegacyUsagePrefix) {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(orderID, LegacyUsagePrefix))
	if rest == "" {
		return "", false
	}
	return rest, true
}
