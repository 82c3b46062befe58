package boost

import (
	"context"
	"testing"
	"time"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/boost"
	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPricing struct {
	mock.Mock
	pricing.Repository
}

func (m *mockPricing) ListItems(ctx context.Context, filters *pricing.PriceItemFilters) ([]*pricing.PriceItem, error) {
	args := m.Called(*filters.ItemType)
	return args.Get(0).([]*pricing.PriceItem), args.Error(1)
}

func (m *mockPricing) ListRules(ctx context.Context, itemID int64, activeOnly bool) ([]*pricing.PricingRule, error) {
	return []*pricing.PricingRule{{PriceItemID: itemID, MinQuantity: 1, IsActive: true}}, nil
}

func (m *mockPricing) ListFeatures(ctx context.Context, packageID int64) ([]*pricing.PackageFeature, error) {
	args := m.Called(packageID)
	return args.Get(0).([]*pricing.PackageFeature), nil
}

type memBoosts struct {
	byAd      map[int64][]*boost.AdBoost
	expiredAt time.Time
}

func (m *memBoosts) ListByAd(ctx context.Context, adID int64) ([]*boost.AdBoost, error) {
	return m.byAd[adID], nil
}

func (m *memBoosts) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	m.expiredAt = now
	return 2, nil
}

type stubAds map[int64]*ad.AdInfo

func (s stubAds) FindByID(ctx context.Context, id int64) (*ad.AdInfo, error) {
	a, ok := s[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return a, nil
}

func TestListBoostOptions(t *testing.T) {
	p := &mockPricing{}
	p.On("ListItems", pricing.ItemBoost).Return([]*pricing.PriceItem{{ID: 1, Code: "TOP_7"}}, nil)
	p.On("ListItems", pricing.ItemBoostItem).Return([]*pricing.PriceItem{{ID: 2, Code: "URGENT"}}, nil)
	p.On("ListFeatures", int64(1)).Return([]*pricing.PackageFeature{{Key: "DURATION_DAYS", Value: "14"}, {Key: "BOOST_TYPE", Value: "HOMEPAGE"}})
	p.On("ListFeatures", int64(2)).Return([]*pricing.PackageFeature{{Key: "BOOST_TYPE", Value: "URGENT"}})

	svc := NewBoostService(&memBoosts{}, p, stubAds{}, zap.NewNop())
	options, err := svc.ListBoostOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 2)

	assert.Equal(t, boost.TypeHomepage, options[0].BoostType)
	assert.Equal(t, 14, options[0].DurationDays)
	assert.Len(t, options[0].Rules, 1)

	assert.Equal(t, boost.TypeUrgent, options[1].BoostType)
	assert.Equal(t, DefaultDurationDays, options[1].DurationDays)
}

func TestListAdBoosts_Ownership(t *testing.T) {
	boosts := &memBoosts{byAd: map[int64][]*boost.AdBoost{5: {{ID: 1, AdID: 5}}}}
	ads := stubAds{5: {CarAd: ad.CarAd{ID: 5, UserID: 1}}}
	svc := NewBoostService(boosts, &mockPricing{}, ads, zap.NewNop())
	ctx := context.Background()

	got, err := svc.ListAdBoosts(ctx, 1, 5, false)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ListAdBoosts(ctx, 2, 5, false)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	_, err = svc.ListAdBoosts(ctx, 2, 5, true)
	assert.NoError(t, err)

	_, err = svc.ListAdBoosts(ctx, 1, 99, false)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestExpireEnded(t *testing.T) {
	boosts := &memBoosts{}
	svc := NewBoostService(boosts, &mockPricing{}, stubAds{}, zap.NewNop())
	now := time.Date(2026, 1, 1, 0, 30, 0, 0, time.UTC)

	n, err := svc.ExpireEnded(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, now, boosts.expiredAt)
}
