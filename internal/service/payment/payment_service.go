// internal/service/payment/payment_service.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/auth"
	"motormart-service/internal/domain/boost"
	"motormart-service/internal/domain/discount"
	"motormart-service/internal/domain/notification"
	"motormart-service/internal/domain/payment"
	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/gateway"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PriceResolver interface {
	ResolvePrice(ctx context.Context, itemID int64, vehicleTypeID *int64, quantity int) (*pricing.PriceQuote, error)
}

type DiscountPicker interface {
	Applicable(ctx context.Context, itemID int64, vehicleTypeID *int64, quantity int, userID int64, code *string, subtotal decimal.Decimal, at time.Time) (*discount.Discount, error)
}

type FeatureReader interface {
	ListFeatures(ctx context.Context, packageID int64) ([]*pricing.PackageFeature, error)
}

type AdReader interface {
	FindByID(ctx context.Context, id int64) (*ad.AdInfo, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id int64) (*auth.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, typ notification.NotificationType, title, message string, metadata map[string]interface{})
}

type StatusPusher interface {
	PushPaymentStatus(userID int64, orderID, status string)
}

type ReceiptMailer interface {
	SendPaymentReceipt(to, name, orderID, itemName string, amount decimal.Decimal, currency string, paidAt time.Time)
}

// Deps groups the collaborators of PaymentService.
type Deps struct {
	Repo      payment.Repository
	Prices    PriceResolver
	Discounts DiscountPicker
	Features  FeatureReader
	Ads       AdReader
	Users     UserReader
	Signer    *gateway.Signer
	Notifier  Notifier
	Pusher    StatusPusher
	Mailer    ReceiptMailer
}

type PaymentService struct {
	Deps
	logger *zap.Logger
	now    func() time.Time
}

func NewPaymentService(deps Deps, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		Deps:   deps,
		logger: logger,
		now:    time.Now,
	}
}

// ========== Checkout ==========

// Initiate prices the purchase, records a PENDING payment (and boost, for boost
// items) and returns the signed gateway parameters.
func (s *PaymentService) Initiate(ctx context.Context, userID int64, req *payment.InitiateRequest) (*payment.InitiateResponse, error) {
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != auth.StatusActive {
		return nil, fmt.Errorf("%w: account is not active", xerrors.ErrForbidden)
	}

	quote, err := s.Prices.ResolvePrice(ctx, req.ItemID, req.VehicleTypeID, req.Quantity)
	if err != nil {
		return nil, err
	}
	item := quote.Item

	now := s.now()
	d, err := s.Discounts.Applicable(ctx, item.ID, req.VehicleTypeID, req.Quantity, userID, req.DiscountCode, quote.Subtotal, now)
	if err != nil {
		return nil, err
	}
	total := discount.Apply(quote.Subtotal, d)
	if !total.IsPositive() {
		return nil, xerrors.Invalid("payable amount must be greater than zero")
	}

	p := &payment.Payment{
		OrderID:        payment.OrderPrefix + ulid.Make().String(),
		UserID:         userID,
		PriceItemID:    &item.ID,
		VehicleTypeID:  req.VehicleTypeID,
		Quantity:       req.Quantity,
		Amount:         total,
		DiscountAmount: quote.Subtotal.Sub(total),
		Currency:       quote.Currency,
		Status:         payment.StatusPending,
	}
	if d != nil {
		p.DiscountID = &d.ID
	}

	switch {
	case item.ItemType.IsBoost():
		if req.AdID == nil {
			return nil, xerrors.Invalid("ad_id is required for boosts")
		}
		b, err := s.pendingBoost(ctx, userID, *req.AdID, item)
		if err != nil {
			return nil, err
		}
		p.Purpose = payment.PurposeBoost
		p.AdID = req.AdID
		if err := s.Repo.CreateBoostPayment(ctx, p, b); err != nil {
			return nil, fmt.Errorf("failed to create boost payment: %w", err)
		}

	case item.ItemType == pricing.ItemPackage || item.ItemType == pricing.ItemBoostPackage:
		p.Purpose = payment.PurposePackage
		p.PackageID = &item.ID
		if err := s.Repo.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}

	default:
		return nil, xerrors.Invalid("item %s cannot be purchased", item.Code)
	}

	checkout := s.Signer.Checkout(p.OrderID, item.Name, p.Amount, p.Currency, gateway.Customer{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.EmailAddress(),
		Phone:     deref(user.Phone),
	})

	s.logger.Info("payment initiated",
		zap.String("order_id", p.OrderID),
		zap.Int64("user_id", userID),
		zap.Int64("item_id", item.ID),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("purpose", string(p.Purpose)),
	)

	return &payment.InitiateResponse{Payment: p, Checkout: &checkout}, nil
}

func (s *PaymentService) pendingBoost(ctx context.Context, userID, adID int64, item *pricing.PriceItem) (*boost.AdBoost, error) {
	info, err := s.Ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if info.UserID != userID {
		return nil, fmt.Errorf("%w: not the owner of this ad", xerrors.ErrForbidden)
	}
	if info.Status != ad.StatusActive {
		return nil, fmt.Errorf("%w: only active ads can be boosted", xerrors.ErrConflict)
	}

	features, err := s.Features.ListFeatures(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load boost features: %w", err)
	}
	boostType, _ := pricing.FeatureValue(features, pricing.FeatureBoostType)

	return &boost.AdBoost{
		AdID:         adID,
		UserID:       userID,
		PriceItemID:  item.ID,
		BoostType:    boost.ParseType(boostType),
		DurationDays: pricing.FeatureDays(features, pricing.FeatureDurationDays, pricing.DefaultBoostDays),
		Status:       boost.StatusPending,
	}, nil
}

// ========== Webhook ==========

// StatusFromCode maps a gateway status code to a payment status.
func StatusFromCode(code int) (payment.Status, bool) {
	switch code {
	case gateway.StatusSuccess:
		return payment.StatusSuccess, true
	case gateway.StatusPending:
		return payment.StatusPending, true
	case gateway.StatusCanceled:
		return payment.StatusCancelled, true
	case gateway.StatusFailed:
		return payment.StatusFailed, true
	case gateway.StatusChargedback:
		return payment.StatusChargedback, true
	}
	return "", false
}

// HandleWebhook applies a signed gateway notification. Notifications for payments
// that already reached a final state change nothing.
func (s *PaymentService) HandleWebhook(ctx context.Context, n gateway.Notification, raw []byte) (*payment.Payment, error) {
	if !s.Signer.VerifyNotification(n) {
		s.logger.Warn("payment notification with invalid signature", zap.String("order_id", n.OrderID))
		return nil, xerrors.ErrInvalidSignature
	}

	p, err := s.Repo.FindByOrderID(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(n.Amount))
	if err != nil || !amount.Equal(p.Amount) {
		return nil, xerrors.Invalid("amount does not match order")
	}
	if !strings.EqualFold(strings.TrimSpace(n.Currency), p.Currency) {
		return nil, xerrors.Invalid("currency does not match order")
	}

	if p.Status.IsFinal() {
		s.logger.Info("duplicate payment notification ignored",
			zap.String("order_id", p.OrderID),
			zap.String("status", string(p.Status)),
			zap.Int("status_code", n.StatusCode))
		return p, nil
	}

	status, ok := StatusFromCode(n.StatusCode)
	if !ok {
		return nil, xerrors.Invalid("unknown status code %d", n.StatusCode)
	}
	if status == payment.StatusPending {
		return p, nil
	}

	outcome := &payment.Outcome{
		Status:           status,
		GatewayPaymentID: n.PaymentID,
		StatusCode:       n.StatusCode,
		Raw:              raw,
		At:               s.now(),
	}

	var changed bool
	if status == payment.StatusSuccess {
		changed, err = s.settleSuccess(ctx, p, outcome)
	} else {
		changed, err = s.Repo.Settle(ctx, p.ID, outcome)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to settle payment: %w", err)
	}
	if !changed {
		return s.Repo.FindByOrderID(ctx, p.OrderID)
	}

	p.Status = status
	p.GatewayPaymentID = &outcome.GatewayPaymentID
	p.GatewayStatusCode = &outcome.StatusCode
	if status == payment.StatusSuccess {
		p.PaidAt = &outcome.At
	}

	s.logger.Info("payment settled",
		zap.String("order_id", p.OrderID),
		zap.String("status", string(status)),
		zap.String("purpose", string(p.Purpose)))
	s.announce(ctx, p)
	return p, nil
}

func (s *PaymentService) settleSuccess(ctx context.Context, p *payment.Payment, o *payment.Outcome) (bool, error) {
	switch p.Purpose {
	case payment.PurposePackage:
		if p.PackageID == nil {
			return false, errors.New("package payment without package")
		}
		features, err := s.Features.ListFeatures(ctx, *p.PackageID)
		if err != nil {
			return false, err
		}
		days := pricing.FeatureDays(features, pricing.FeatureDurationDays, pricing.DefaultPackageDays)
		sub := &pricing.UserSubscription{
			UserID:    p.UserID,
			PackageID: *p.PackageID,
			StartDate: o.At,
			EndDate:   o.At.AddDate(0, 0, days),
			Status:    pricing.SubscriptionActive,
		}
		return s.Repo.SettleWithSubscription(ctx, p.ID, o, sub)

	case payment.PurposeBoost:
		if p.BoostID == nil || p.PriceItemID == nil {
			return false, errors.New("boost payment without boost")
		}
		features, err := s.Features.ListFeatures(ctx, *p.PriceItemID)
		if err != nil {
			return false, err
		}
		days := pricing.FeatureDays(features, pricing.FeatureDurationDays, pricing.DefaultBoostDays)
		changed, activated, err := s.Repo.SettleWithBoost(ctx, p.ID, o, *p.BoostID, o.At, o.At.AddDate(0, 0, days))
		if changed && !activated {
			s.logger.Warn("paid boost was no longer pending, settled without activation",
				zap.String("order_id", p.OrderID),
				zap.Int64("boost_id", *p.BoostID),
				zap.Int64("user_id", p.UserID))
		}
		return changed, err

	default:
		return s.Repo.Settle(ctx, p.ID, o)
	}
}

// announce tells the buyer about a settled payment; failures only get logged.
func (s *PaymentService) announce(ctx context.Context, p *payment.Payment) {
	if s.Pusher != nil {
		s.Pusher.PushPaymentStatus(p.UserID, p.OrderID, string(p.Status))
	}

	meta := map[string]interface{}{"order_id": p.OrderID, "status": p.Status}
	amount := p.Amount.StringFixed(2) + " " + p.Currency

	if p.Status != payment.StatusSuccess {
		s.Notifier.Notify(ctx, p.UserID, notification.TypePayment,
			"Payment "+strings.ToLower(string(p.Status)),
			fmt.Sprintf("Your payment of %s for order %s was not completed.", amount, p.OrderID), meta)
		return
	}

	title, message := "Payment received", fmt.Sprintf("We received %s for order %s.", amount, p.OrderID)
	typ := notification.TypePayment
	switch p.Purpose {
	case payment.PurposePackage:
		typ = notification.TypeSubscription
		title, message = "Package activated", fmt.Sprintf("Your package is active. Paid %s (order %s).", amount, p.OrderID)
	case payment.PurposeBoost:
		title, message = "Boost activated", fmt.Sprintf("Your ad boost is live. Paid %s (order %s).", amount, p.OrderID)
	}
	s.Notifier.Notify(ctx, p.UserID, typ, title, message, meta)

	if s.Mailer == nil {
		return
	}
	user, err := s.Users.FindByID(ctx, p.UserID)
	if err != nil {
		s.logger.Warn("failed to load buyer for receipt", zap.Int64("user_id", p.UserID), zap.Error(err))
		return
	}
	if email := user.EmailAddress(); email != "" {
		s.Mailer.SendPaymentReceipt(email, user.FirstName, p.OrderID, title, p.Amount, p.Currency, *p.PaidAt)
	}
}

// ========== Reads ==========

// GetStatus returns one of the caller's payments.
func (s *PaymentService) GetStatus(ctx context.Context, userID int64, orderID string) (*payment.Payment, error) {
	p, err := s.Repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	return p, nil
}

func (s *PaymentService) ListMine(ctx context.Context, userID int64, filters *payment.ListFilters) (*payment.ListResponse, error) {
	filters.UserID = &userID
	return s.ListAll(ctx, filters)
}

func (s *PaymentService) ListAll(ctx context.Context, filters *payment.ListFilters) (*payment.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	payments, total, err := s.Repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}
	return &payment.ListResponse{
		Payments:   payments,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
