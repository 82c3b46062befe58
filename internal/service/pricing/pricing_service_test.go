package pricing

import (
	"context"
	"testing"
	"time"

	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRepo keeps items and rules in memory; composition calls just record.
type fakeRepo struct {
	items    map[int64]*pricing.PriceItem
	rules    map[int64][]*pricing.PricingRule
	included []*pricing.PackageIncludedItem
	features []*pricing.PackageFeature
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		items: map[int64]*pricing.PriceItem{},
		rules: map[int64][]*pricing.PricingRule{},
	}
}

func (f *fakeRepo) CreateItem(_ context.Context, item *pricing.PriceItem) error {
	item.ID = int64(len(f.items) + 1)
	f.items[item.ID] = item
	return nil
}
func (f *fakeRepo) FindItemByID(_ context.Context, id int64) (*pricing.PriceItem, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, xerrors.ErrNotFound
}
func (f *fakeRepo) UpdateItem(context.Context, *pricing.PriceItem) error { return nil }
func (f *fakeRepo) DeleteItem(context.Context, int64) error              { return nil }
func (f *fakeRepo) ListItems(_ context.Context, filters *pricing.PriceItemFilters) ([]*pricing.PriceItem, error) {
	var out []*pricing.PriceItem
	for id := int64(1); id <= int64(len(f.items)); id++ {
		item, ok := f.items[id]
		if !ok {
			continue
		}
		if filters.ItemType != nil && item.ItemType != *filters.ItemType {
			continue
		}
		if filters.Status != nil && item.Status != *filters.Status {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
func (f *fakeRepo) CreateRule(_ context.Context, r *pricing.PricingRule) error {
	f.rules[r.PriceItemID] = append(f.rules[r.PriceItemID], r)
	return nil
}
func (f *fakeRepo) FindRuleByID(context.Context, int64) (*pricing.PricingRule, error) {
	return nil, xerrors.ErrNotFound
}
func (f *fakeRepo) UpdateRule(context.Context, *pricing.PricingRule) error { return nil }
func (f *fakeRepo) DeleteRule(context.Context, int64) error                { return nil }
func (f *fakeRepo) ListRules(_ context.Context, itemID int64, activeOnly bool) ([]*pricing.PricingRule, error) {
	var out []*pricing.PricingRule
	for _, r := range f.rules[itemID] {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
func (f *fakeRepo) UpsertFeature(_ context.Context, feat *pricing.PackageFeature) error {
	f.features = append(f.features, feat)
	return nil
}
func (f *fakeRepo) DeleteFeature(context.Context, int64, string) error { return nil }
func (f *fakeRepo) ListFeatures(context.Context, int64) ([]*pricing.PackageFeature, error) {
	return nil, nil
}
func (f *fakeRepo) AddIncludedItem(_ context.Context, item *pricing.PackageIncludedItem) error {
	f.included = append(f.included, item)
	return nil
}
func (f *fakeRepo) RemoveIncludedItem(context.Context, int64, int64) error { return nil }
func (f *fakeRepo) ListIncludedItems(context.Context, int64) ([]*pricing.PackageIncludedItem, error) {
	return nil, nil
}
func (f *fakeRepo) UpsertAdLimit(context.Context, *pricing.PackageAdLimit) error { return nil }
func (f *fakeRepo) DeleteAdLimit(context.Context, int64, int64) error            { return nil }
func (f *fakeRepo) ListAdLimits(context.Context, int64) ([]*pricing.PackageAdLimit, error) {
	return nil, nil
}

type fakeSubs struct {
	subs      map[int64]*pricing.UserSubscription
	cancelled []int64
}

func (f *fakeSubs) FindActiveForUser(context.Context, int64, time.Time) (*pricing.UserSubscription, error) {
	return nil, xerrors.ErrNotFound
}
func (f *fakeSubs) FindByID(_ context.Context, id int64) (*pricing.UserSubscription, error) {
	if s, ok := f.subs[id]; ok {
		return s, nil
	}
	return nil, xerrors.ErrNotFound
}
func (f *fakeSubs) ListByUser(context.Context, int64) ([]*pricing.UserSubscription, error) {
	return nil, nil
}
func (f *fakeSubs) Cancel(_ context.Context, id int64, _ time.Time) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}
func (f *fakeSubs) ListActiveUserIDs(context.Context, time.Time) ([]int64, error) {
	return nil, nil
}

func ptr[T any](v T) *T { return &v }

func rule(vt *int64, price string, minQty int, maxQty *int) *pricing.PricingRule {
	return &pricing.PricingRule{
		VehicleTypeID: vt,
		Price:         decimal.RequireFromString(price),
		Currency:      "LKR",
		MinQuantity:   minQty,
		MaxQuantity:   maxQty,
		IsActive:      true,
	}
}

func TestSelectRule(t *testing.T) {
	generic := rule(nil, "1000", 1, nil)
	bulk := rule(nil, "800", 5, nil)
	car := rule(ptr(int64(1)), "1200", 1, ptr(10))
	inactive := rule(ptr(int64(2)), "1", 1, nil)
	inactive.IsActive = false
	rules := []*pricing.PricingRule{generic, bulk, car, inactive}

	t.Run("type specific beats generic", func(t *testing.T) {
		assert.Same(t, car, SelectRule(rules, ptr(int64(1)), 6))
	})
	t.Run("highest min quantity among generic", func(t *testing.T) {
		assert.Same(t, bulk, SelectRule(rules, ptr(int64(3)), 6))
		assert.Same(t, generic, SelectRule(rules, nil, 2))
	})
	t.Run("out of bounds falls back to generic", func(t *testing.T) {
		assert.Same(t, bulk, SelectRule(rules, ptr(int64(1)), 11))
	})
	t.Run("inactive rules are skipped", func(t *testing.T) {
		assert.Same(t, generic, SelectRule(rules, ptr(int64(2)), 1))
	})
	t.Run("nothing matches", func(t *testing.T) {
		assert.Nil(t, SelectRule([]*pricing.PricingRule{car}, ptr(int64(2)), 1))
	})
}

func newTestService(repo *fakeRepo, subs *fakeSubs) *PricingService {
	return NewPricingService(repo, subs, nil, "LKR", zap.NewNop())
}

func TestResolvePrice(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSubs{})

	item, err := svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "gold", Name: "Gold", ItemType: pricing.ItemPackage})
	require.NoError(t, err)
	assert.Equal(t, "GOLD", item.Code)

	_, err = svc.CreateRule(ctx, &pricing.CreatePricingRuleRequest{PriceItemID: item.ID, Price: decimal.RequireFromString("2500.50")})
	require.NoError(t, err)

	quote, err := svc.ResolvePrice(ctx, item.ID, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, "5001", quote.Subtotal.String())
	assert.Equal(t, "LKR", quote.Currency)

	item.Status = pricing.ItemInactive
	_, err = svc.ResolvePrice(ctx, item.ID, nil, 1)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestResolvePrice_NoRule(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSubs{})

	item, err := svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "FEATURED", Name: "Featured", ItemType: pricing.ItemBoost})
	require.NoError(t, err)

	_, err = svc.ResolvePrice(ctx, item.ID, nil, 1)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestCreateRule_Validation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSubs{})
	item, _ := svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "SILVER", Name: "Silver", ItemType: pricing.ItemPackage})

	_, err := svc.CreateRule(ctx, &pricing.CreatePricingRuleRequest{PriceItemID: item.ID, Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.CreateRule(ctx, &pricing.CreatePricingRuleRequest{PriceItemID: item.ID, Price: decimal.NewFromInt(10), MinQuantity: 5, MaxQuantity: ptr(2)})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestAddIncludedItem_RejectsSelfInclusion(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSubs{})
	pkg, _ := svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "BUNDLE", Name: "Bundle", ItemType: pricing.ItemBoostPackage})
	boost, _ := svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "URGENT", Name: "Urgent", ItemType: pricing.ItemBoostItem})

	_, err := svc.AddIncludedItem(ctx, pkg.ID, &pricing.AddIncludedItemRequest{IncludedItemID: pkg.ID})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Empty(t, repo.included)

	inc, err := svc.AddIncludedItem(ctx, pkg.ID, &pricing.AddIncludedItemRequest{IncludedItemID: boost.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, inc.Quantity)

	_, err = svc.AddIncludedItem(ctx, boost.ID, &pricing.AddIncludedItemRequest{IncludedItemID: pkg.ID})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput, "boost items cannot carry included items")
}

func TestSetFeature_NormalizesKey(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSubs{})
	pkg, _ := svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "PRO", Name: "Pro", ItemType: pricing.ItemPackage})

	f, err := svc.SetFeature(ctx, pkg.ID, &pricing.SetFeatureRequest{Key: " free_ads_limit ", Value: "10"})
	require.NoError(t, err)
	assert.Equal(t, pricing.FeatureFreeAdsLimit, f.Key)
}

func TestListPackages_CheapestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSubs{})

	gold, _ := svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "GOLD", Name: "Gold", ItemType: pricing.ItemPackage})
	basic, _ := svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "BASIC", Name: "Basic", ItemType: pricing.ItemPackage})
	_, _ = svc.CreateItem(ctx, &pricing.CreatePriceItemRequest{Code: "TOP", Name: "Top", ItemType: pricing.ItemBoost})
	_, _ = svc.CreateRule(ctx, &pricing.CreatePricingRuleRequest{PriceItemID: gold.ID, Price: decimal.NewFromInt(5000)})
	_, _ = svc.CreateRule(ctx, &pricing.CreatePricingRuleRequest{PriceItemID: basic.ID, Price: decimal.NewFromInt(1000)})

	pkgs, err := svc.ListPackages(ctx)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "BASIC", pkgs[0].Code)
	assert.Equal(t, "GOLD", pkgs[1].Code)
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	subs := &fakeSubs{subs: map[int64]*pricing.UserSubscription{
		1: {ID: 1, UserID: 7, Status: pricing.SubscriptionActive},
		2: {ID: 2, UserID: 7, Status: pricing.SubscriptionCancelled},
	}}
	svc := newTestService(newFakeRepo(), subs)

	_, err := svc.Unsubscribe(ctx, 8, 1)
	assert.ErrorIs(t, err, xerrors.ErrNotFound, "other users' subscriptions are invisible")

	_, err = svc.Unsubscribe(ctx, 7, 2)
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	sub, err := svc.Unsubscribe(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, pricing.SubscriptionCancelled, sub.Status)
	assert.NotNil(t, sub.CancelledAt)
	assert.Equal(t, []int64{1}, subs.cancelled)
}
