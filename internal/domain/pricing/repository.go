// internal/domain/pricing/repository.go
package pricing

import (
	"context"
	"time"
)

type Repository interface {
	// Price items
	CreateItem(ctx context.Context, item *PriceItem) error
	FindItemByID(ctx context.Context, id int64) (*PriceItem, error)
	UpdateItem(ctx context.Context, item *PriceItem) error
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context, filters *PriceItemFilters) ([]*PriceItem, error)

	// Rules
	CreateRule(ctx context.Context, rule *PricingRule) error
	FindRuleByID(ctx context.Context, id int64) (*PricingRule, error)
	UpdateRule(ctx context.Context, rule *PricingRule) error
	DeleteRule(ctx context.Context, id int64) error
	ListRules(ctx context.Context, itemID int64, activeOnly bool) ([]*PricingRule, error)

	// Package composition
	UpsertFeature(ctx context.Context, f *PackageFeature) error
	DeleteFeature(ctx context.Context, packageID int64, key string) error
	ListFeatures(ctx context.Context, packageID int64) ([]*PackageFeature, error)
	AddIncludedItem(ctx context.Context, item *PackageIncludedItem) error
	RemoveIncludedItem(ctx context.Context, packageID, includedItemID int64) error
	ListIncludedItems(ctx context.Context, packageID int64) ([]*PackageIncludedItem, error)
	UpsertAdLimit(ctx context.Context, limit *PackageAdLimit) error
	DeleteAdLimit(ctx context.Context, packageID, vehicleTypeID int64) error
	ListAdLimits(ctx context.Context, packageID int64) ([]*PackageAdLimit, error)
}

type SubscriptionRepository interface {
	FindActiveForUser(ctx context.Context, userID int64, at time.Time) (*UserSubscription, error)
	FindByID(ctx context.Context, id int64) (*UserSubscription, error)
	ListByUser(ctx context.Context, userID int64) ([]*UserSubscription, error)
	Cancel(ctx context.Context, id int64, at time.Time) error
	ListActiveUserIDs(ctx context.Context, at time.Time) ([]int64, error)
}

// UsageRepository reads quota consumption for the entitlement engine.
type UsageRepository interface {
	LedgerSince(ctx context.Context, userID int64, since time.Time) ([]UsageRecord, error)
	LegacyOrderIDsSince(ctx context.Context, userID int64, since time.Time) ([]string, error)
}
