// internal/service/discount/discount_service.go
package discount

import (
	"context"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/discount"
	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type PriceResolver interface {
	ResolvePrice(ctx context.Context, itemID int64, vehicleTypeID *int64, quantity int) (*pricing.PriceQuote, error)
}

type DiscountService struct {
	repo   discount.Repository
	prices PriceResolver
	logger *zap.Logger
	now    func() time.Time
}

func NewDiscountService(repo discount.Repository, prices PriceResolver, logger *zap.Logger) *DiscountService {
	return &DiscountService{
		repo:   repo,
		prices: prices,
		logger: logger,
		now:    time.Now,
	}
}

// ========== Admin CRUD ==========

func validateValue(t discount.Type, v decimal.Decimal) error {
	if !v.IsPositive() {
		return xerrors.Invalid("discount value must be greater than zero")
	}
	if t == discount.TypePercentage && v.GreaterThan(hundred) {
		return xerrors.Invalid("percentage discount cannot exceed 100")
	}
	return nil
}

func validateWindow(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return xerrors.Invalid("valid_to must not be before valid_from")
	}
	return nil
}

func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	c := strings.ToUpper(strings.TrimSpace(*code))
	if c == "" {
		return nil
	}
	return &c
}

func (s *DiscountService) Create(ctx context.Context, req *discount.CreateDiscountRequest) (*discount.Discount, error) {
	if err := validateValue(req.DiscountType, req.Value); err != nil {
		return nil, err
	}
	if err := validateWindow(req.ValidFrom, req.ValidTo); err != nil {
		return nil, err
	}

	d := &discount.Discount{
		Code:           normalizeCode(req.Code),
		Name:           req.Name,
		DiscountType:   req.DiscountType,
		Value:          req.Value,
		ValidFrom:      req.ValidFrom,
		ValidTo:        req.ValidTo,
		FirstTimeOnly:  req.FirstTimeOnly,
		MinQuantity:    req.MinQuantity,
		IsActive:       true,
		VehicleTypeIDs: req.VehicleTypeIDs,
		PackageIDs:     req.PackageIDs,
	}
	if d.MinQuantity < 1 {
		d.MinQuantity = 1
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	s.logger.Info("discount created", zap.Int64("discount_id", d.ID), zap.String("name", d.Name))
	return d, nil
}

func (s *DiscountService) Update(ctx context.Context, id int64, req *discount.UpdateDiscountRequest) (*discount.Discount, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Value != nil {
		d.Value = *req.Value
	}
	if req.ValidFrom != nil {
		d.ValidFrom = req.ValidFrom
	}
	if req.ValidTo != nil {
		d.ValidTo = req.ValidTo
	}
	if req.FirstTimeOnly != nil {
		d.FirstTimeOnly = *req.FirstTimeOnly
	}
	if req.MinQuantity != nil {
		d.MinQuantity = *req.MinQuantity
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if req.VehicleTypeIDs != nil {
		d.VehicleTypeIDs = req.VehicleTypeIDs
	}
	if req.PackageIDs != nil {
		d.PackageIDs = req.PackageIDs
	}

	if err := validateValue(d.DiscountType, d.Value); err != nil {
		return nil, err
	}
	if err := validateWindow(d.ValidFrom, d.ValidTo); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update discount: %w", err)
	}
	return d, nil
}

func (s *DiscountService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *DiscountService) Get(ctx context.Context, id int64) (*discount.Discount, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *DiscountService) List(ctx context.Context) ([]*discount.Discount, error) {
	return s.repo.List(ctx)
}

// ========== Selection ==========

// Applicable returns the discount that takes the most off subtotal, or nil.
// A code, when given, makes its discount a candidate alongside automatic ones.
func (s *DiscountService) Applicable(ctx context.Context, itemID int64, vehicleTypeID *int64, quantity int, userID int64, code *string, subtotal decimal.Decimal, at time.Time) (*discount.Discount, error) {
	candidates, err := s.repo.ListCandidates(ctx, normalizeCode(code), at)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}

	var (
		best      *discount.Discount
		bestOff   decimal.Decimal
		firstTime *bool
	)
	for _, d := range candidates {
		if !d.ValidAt(at) || !d.Covers(itemID, vehicleTypeID) || quantity < d.MinQuantity {
			continue
		}
		if d.FirstTimeOnly {
			if firstTime == nil {
				paid, err := s.repo.HasPaidPurchase(ctx, userID)
				if err != nil {
					return nil, fmt.Errorf("failed to check purchase history: %w", err)
				}
				v := !paid
				firstTime = &v
			}
			if !*firstTime {
				continue
			}
		}

		off := d.Amount(subtotal)
		if best == nil || off.GreaterThan(bestOff) {
			best, bestOff = d, off
		}
	}
	return best, nil
}

// Preview prices a purchase with its best discount without recording anything.
func (s *DiscountService) Preview(ctx context.Context, userID int64, req *discount.PreviewRequest) (*discount.Preview, error) {
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	quote, err := s.prices.ResolvePrice(ctx, req.ItemID, req.VehicleTypeID, req.Quantity)
	if err != nil {
		return nil, err
	}

	d, err := s.Applicable(ctx, req.ItemID, req.VehicleTypeID, req.Quantity, userID, req.Code, quote.Subtotal, s.now())
	if err != nil {
		return nil, err
	}

	off := decimal.Zero
	if d != nil {
		off = d.Amount(quote.Subtotal)
	}
	return &discount.Preview{
		Subtotal:       quote.Subtotal,
		DiscountAmount: off,
		Total:          discount.Apply(quote.Subtotal, d),
		Currency:       quote.Currency,
		Discount:       d,
	}, nil
}
