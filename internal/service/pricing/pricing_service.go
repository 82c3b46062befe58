// internal/service/pricing/pricing_service.go
package pricing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/service/entitlement"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var itemCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{2,50}$`)

type PricingService struct {
	repo         pricing.Repository
	subs         pricing.SubscriptionRepository
	entitlements *entitlement.Service
	currency     string
	logger       *zap.Logger
	now          func() time.Time
}

func NewPricingService(
	repo pricing.Repository,
	subs pricing.SubscriptionRepository,
	entitlements *entitlement.Service,
	currency string,
	logger *zap.Logger,
) *PricingService {
	if currency == "" {
		currency = "LKR"
	}
	return &PricingService{
		repo:         repo,
		subs:         subs,
		entitlements: entitlements,
		currency:     currency,
		logger:       logger,
		now:          time.Now,
	}
}

// ========== Price Items ==========

func (s *PricingService) CreateItem(ctx context.Context, req *pricing.CreatePriceItemRequest) (*pricing.PriceItem, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !itemCodePattern.MatchString(code) {
		return nil, xerrors.Invalid("item code must be 2-50 characters of A-Z, 0-9, '_' or '-'")
	}

	item := &pricing.PriceItem{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ItemType:    req.ItemType,
		Status:      pricing.ItemActive,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("price item created",
		zap.Int64("item_id", item.ID),
		zap.String("code", item.Code),
		zap.String("type", string(item.ItemType)),
	)
	return item, nil
}

func (s *PricingService) UpdateItem(ctx context.Context, id int64, req *pricing.UpdatePriceItemRequest) (*pricing.PriceItem, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *PricingService) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.DeleteItem(ctx, id)
}

func (s *PricingService) GetItem(ctx context.Context, id int64) (*pricing.PriceItem, error) {
	return s.repo.FindItemByID(ctx, id)
}

func (s *PricingService) ListItems(ctx context.Context, filters *pricing.PriceItemFilters) ([]*pricing.PriceItem, error) {
	return s.repo.ListItems(ctx, filters)
}

// ========== Rules ==========

func (s *PricingService) CreateRule(ctx context.Context, req *pricing.CreatePricingRuleRequest) (*pricing.PricingRule, error) {
	if req.Price.IsNegative() {
		return nil, xerrors.Invalid("price must not be negative")
	}
	minQty := req.MinQuantity
	if minQty < 1 {
		minQty = 1
	}
	if req.MaxQuantity != nil && *req.MaxQuantity < minQty {
		return nil, xerrors.Invalid("max_quantity must be at least min_quantity")
	}
	if _, err := s.repo.FindItemByID(ctx, req.PriceItemID); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.currency
	}

	rule := &pricing.PricingRule{
		PriceItemID:   req.PriceItemID,
		VehicleTypeID: req.VehicleTypeID,
		Price:         req.Price.Round(2),
		Currency:      currency,
		MinQuantity:   minQty,
		MaxQuantity:   req.MaxQuantity,
		IsActive:      true,
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *PricingService) UpdateRule(ctx context.Context, id int64, req *pricing.UpdatePricingRuleRequest) (*pricing.PricingRule, error) {
	rule, err := s.repo.FindRuleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, xerrors.Invalid("price must not be negative")
		}
		rule.Price = req.Price.Round(2)
	}
	if req.MinQuantity != nil {
		rule.MinQuantity = *req.MinQuantity
	}
	if req.MaxQuantity != nil {
		rule.MaxQuantity = req.MaxQuantity
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if rule.MaxQuantity != nil && *rule.MaxQuantity < rule.MinQuantity {
		return nil, xerrors.Invalid("max_quantity must be at least min_quantity")
	}
	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *PricingService) DeleteRule(ctx context.Context, id int64) error {
	return s.repo.DeleteRule(ctx, id)
}

func (s *PricingService) ListRules(ctx context.Context, itemID int64) ([]*pricing.PricingRule, error) {
	return s.repo.ListRules(ctx, itemID, false)
}

// SelectRule picks the rule that prices quantity units of an item for a vehicle
// type. Among active rules whose bounds contain quantity, a rule for the exact
// vehicle type beats a generic one, then the highest min_quantity wins.
func SelectRule(rules []*pricing.PricingRule, vehicleTypeID *int64, quantity int) *pricing.PricingRule {
	var best *pricing.PricingRule
	bestSpecific := false
	for _, r := range rules {
		if !r.IsActive || !r.Covers(quantity) {
			continue
		}
		specific := r.VehicleTypeID != nil
		if specific && (vehicleTypeID == nil || *r.VehicleTypeID != *vehicleTypeID) {
			continue
		}
		switch {
		case best == nil,
			specific && !bestSpecific,
			specific == bestSpecific && r.MinQuantity > best.MinQuantity:
			best = r
			bestSpecific = specific
		}
	}
	return best
}

// ResolvePrice quotes quantity units of an active item.
func (s *PricingService) ResolvePrice(ctx context.Context, itemID int64, vehicleTypeID *int64, quantity int) (*pricing.PriceQuote, error) {
	if quantity < 1 {
		quantity = 1
	}
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != pricing.ItemActive {
		return nil, xerrors.Invalid("item %s is not available", item.Code)
	}

	rules, err := s.repo.ListRules(ctx, itemID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing rules: %w", err)
	}
	rule := SelectRule(rules, vehicleTypeID, quantity)
	if rule == nil {
		return nil, fmt.Errorf("%w: no price for %s at quantity %d", xerrors.ErrNotFound, item.Code, quantity)
	}

	return &pricing.PriceQuote{
		Item:      item,
		Rule:      rule,
		Quantity:  quantity,
		UnitPrice: rule.Price,
		Subtotal:  rule.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		Currency:  rule.Currency,
	}, nil
}

// ========== Package Composition ==========

func (s *PricingService) requirePackage(ctx context.Context, packageID int64) (*pricing.PriceItem, error) {
	item, err := s.repo.FindItemByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if item.ItemType != pricing.ItemPackage && item.ItemType != pricing.ItemBoostPackage {
		return nil, xerrors.Invalid("item %s is not a package", item.Code)
	}
	return item, nil
}

func (s *PricingService) SetFeature(ctx context.Context, packageID int64, req *pricing.SetFeatureRequest) (*pricing.PackageFeature, error) {
	if _, err := s.requirePackage(ctx, packageID); err != nil {
		return nil, err
	}
	f := &pricing.PackageFeature{
		PackageID: packageID,
		Key:       strings.ToUpper(strings.TrimSpace(req.Key)),
		Value:     strings.TrimSpace(req.Value),
	}
	if err := s.repo.UpsertFeature(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *PricingService) DeleteFeature(ctx context.Context, packageID int64, key string) error {
	return s.repo.DeleteFeature(ctx, packageID, strings.ToUpper(key))
}

func (s *PricingService) AddIncludedItem(ctx context.Context, packageID int64, req *pricing.AddIncludedItemRequest) (*pricing.PackageIncludedItem, error) {
	if req.IncludedItemID == packageID {
		return nil, xerrors.Invalid("a package cannot include itself")
	}
	if _, err := s.requirePackage(ctx, packageID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindItemByID(ctx, req.IncludedItemID); err != nil {
		return nil, err
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	item := &pricing.PackageIncludedItem{
		PackageID:      packageID,
		IncludedItemID: req.IncludedItemID,
		Quantity:       qty,
		IsUnlimited:    req.IsUnlimited,
	}
	if err := s.repo.AddIncludedItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *PricingService) RemoveIncludedItem(ctx context.Context, packageID, includedItemID int64) error {
	return s.repo.RemoveIncludedItem(ctx, packageID, includedItemID)
}

func (s *PricingService) SetAdLimit(ctx context.Context, packageID int64, req *pricing.SetAdLimitRequest) (*pricing.PackageAdLimit, error) {
	if _, err := s.requirePackage(ctx, packageID); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, xerrors.Invalid("quantity must not be negative")
	}
	limit := &pricing.PackageAdLimit{
		PackageID:     packageID,
		VehicleTypeID: req.VehicleTypeID,
		Quantity:      req.Quantity,
		IsUnlimited:   req.IsUnlimited,
	}
	if err := s.repo.UpsertAdLimit(ctx, limit); err != nil {
		return nil, err
	}
	return limit, nil
}

func (s *PricingService) DeleteAdLimit(ctx context.Context, packageID, vehicleTypeID int64) error {
	return s.repo.DeleteAdLimit(ctx, packageID, vehicleTypeID)
}

// PackageDetails loads a package with its rules, features, limits and included items.
func (s *PricingService) PackageDetails(ctx context.Context, item *pricing.PriceItem) (*pricing.PackageDetails, error) {
	details := &pricing.PackageDetails{PriceItem: *item}
	var err error
	if details.Rules, err = s.repo.ListRules(ctx, item.ID, true); err != nil {
		return nil, err
	}
	if details.Features, err = s.repo.ListFeatures(ctx, item.ID); err != nil {
		return nil, err
	}
	if details.AdLimits, err = s.repo.ListAdLimits(ctx, item.ID); err != nil {
		return nil, err
	}
	if details.IncludedItems, err = s.repo.ListIncludedItems(ctx, item.ID); err != nil {
		return nil, err
	}
	return details, nil
}

// ListPackages returns ACTIVE packages, cheapest first.
func (s *PricingService) ListPackages(ctx context.Context) ([]*pricing.PackageDetails, error) {
	itemType := pricing.ItemPackage
	status := pricing.ItemActive
	items, err := s.repo.ListItems(ctx, &pricing.PriceItemFilters{ItemType: &itemType, Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	out := make([]*pricing.PackageDetails, 0, len(items))
	for _, item := range items {
		d, err := s.PackageDetails(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("failed to load package %d: %w", item.ID, err)
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lowestPrice(out[i]).LessThan(lowestPrice(out[j]))
	})
	return out, nil
}

func lowestPrice(d *pricing.PackageDetails) decimal.Decimal {
	if len(d.Rules) == 0 {
		return decimal.NewFromInt(1 << 40)
	}
	min := d.Rules[0].Price
	for _, r := range d.Rules[1:] {
		if r.Price.LessThan(min) {
			min = r.Price
		}
	}
	return min
}

// ========== Subscriptions ==========

// GetUserActivePackage returns the entitlement snapshot for the user.
func (s *PricingService) GetUserActivePackage(ctx context.Context, userID int64) (*pricing.Entitlement, error) {
	return s.entitlements.ForUser(ctx, userID)
}

func (s *PricingService) ListMySubscriptions(ctx context.Context, userID int64) ([]*pricing.UserSubscription, error) {
	return s.subs.ListByUser(ctx, userID)
}

// Unsubscribe cancels one of the caller's ACTIVE subscriptions.
func (s *PricingService) Unsubscribe(ctx context.Context, userID, subscriptionID int64) (*pricing.UserSubscription, error) {
	sub, err := s.subs.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	if sub.Status != pricing.SubscriptionActive {
		return nil, fmt.Errorf("%w: subscription is already %s", xerrors.ErrConflict, strings.ToLower(string(sub.Status)))
	}

	now := s.now()
	if err := s.subs.Cancel(ctx, sub.ID, now); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: subscription is no longer active", xerrors.ErrConflict)
		}
		return nil, err
	}
	sub.Status = pricing.SubscriptionCancelled
	sub.CancelledAt = &now

	s.logger.Info("subscription cancelled",
		zap.Int64("user_id", userID),
		zap.Int64("subscription_id", sub.ID),
	)
	return sub, nil
}
