// internal/domain/payment/dto.go
package payment

import (
	"context"
	"time"

	"motormart-service/internal/domain/boost"
	"motormart-service/internal/domain/pricing"
	"motormart-service/internal/pkg/gateway"
)

type InitiateRequest struct {
	ItemID        int64   `json:"item_id" binding:"required,min=1"`
	VehicleTypeID *int64  `json:"vehicle_type_id" binding:"omitempty,min=1"`
	AdID          *int64  `json:"ad_id" binding:"omitempty,min=1"`
	Quantity      int     `json:"quantity" binding:"omitempty,min=1,max=1000"`
	DiscountCode  *string `json:"discount_code" binding:"omitempty,max=50"`
}

type InitiateResponse struct {
	Payment  *Payment                `json:"payment"`
	Checkout *gateway.CheckoutParams `json:"checkout"`
}

type ListFilters struct {
	UserID   *int64   `form:"user_id"`
	Status   *Status  `form:"status"`
	Purpose  *Purpose `form:"purpose"`
	Page     int      `form:"page"`
	PageSize int      `form:"page_size"`
}

type ListResponse struct {
	Payments   []*Payment `json:"payments"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// Outcome is the state change a gateway notification applies.
type Outcome struct {
	Status           Status
	GatewayPaymentID string
	StatusCode       int
	Raw              []byte
	At               time.Time
}

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	// CreateBoostPayment inserts the PENDING boost and its payment together.
	CreateBoostPayment(ctx context.Context, p *Payment, b *boost.AdBoost) error
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
	List(ctx context.Context, filters *ListFilters) ([]*Payment, int64, error)

	// Settle records a non-success outcome; it is a no-op when the payment is already final.
	Settle(ctx context.Context, paymentID int64, o *Outcome) (bool, error)
	// SettleWithSubscription marks the payment SUCCESS and creates the subscription in one transaction.
	SettleWithSubscription(ctx context.Context, paymentID int64, o *Outcome, sub *pricing.UserSubscription) (bool, error)
	// SettleWithBoost marks the payment SUCCESS and activates the boost in one
	// transaction. A boost that is no longer PENDING does not block settlement;
	// activated reports whether it was switched on.
	SettleWithBoost(ctx context.Context, paymentID int64, o *Outcome, boostID int64, startsAt, endsAt time.Time) (changed, activated bool, err error)
}
