package scheduler

import (
	"context"
	"testing"
	"time"

	"motormart-service/internal/domain/notification"
	"motormart-service/internal/domain/pricing"
	adService "motormart-service/internal/service/ad"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSweeper) WarnExpiring(ctx context.Context, now time.Time, mailer adService.ExpiryMailer) (int, error) {
	args := m.Called(ctx, now, mailer)
	return args.Int(0), args.Error(1)
}

func (m *mockSweeper) LiftExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSweeper) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type stubSubscribers []int64

func (s stubSubscribers) ListActiveUserIDs(context.Context, time.Time) ([]int64, error) {
	return s, nil
}

type stubEntitlements map[int64]*pricing.Entitlement

func (s stubEntitlements) ForUser(_ context.Context, userID int64) (*pricing.Entitlement, error) {
	return s[userID], nil
}

type sent struct {
	userID int64
	typ    notification.NotificationType
	title  string
}

type recorder struct {
	sent []sent
}

func (r *recorder) Notify(_ context.Context, userID int64, typ notification.NotificationType, title, _ string, _ map[string]interface{}) {
	r.sent = append(r.sent, sent{userID, typ, title})
}

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSweepJobsPassTheClock(t *testing.T) {
	sw := &mockSweeper{}
	sw.On("ExpireDue", mock.Anything, fixedNow).Return(int64(3), nil)
	sw.On("LiftExpiredBans", mock.Anything, fixedNow).Return(int64(1), nil)
	sw.On("ExpireEnded", mock.Anything, fixedNow).Return(int64(2), nil)
	sw.On("WarnExpiring", mock.Anything, fixedNow, mock.Anything).Return(4, nil)

	j := &Jobs{Ads: sw, Bans: sw, Boosts: sw, Logger: zap.NewNop(), Now: func() time.Time { return fixedNow }}
	ctx := context.Background()

	n, err := j.ExpireAds(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = j.LiftBans(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = j.ExpireBoosts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = j.WarnExpiringAds(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	sw.AssertExpectations(t)
}

func TestWarnAdLimits_OncePerDay(t *testing.T) {
	mr, rdb := newRedis(t)
	rec := &recorder{}
	j := &Jobs{
		Subscribers: stubSubscribers{1, 2, 3, 4},
		Entitlements: stubEntitlements{
			1: {HasPackage: true, PerType: []pricing.TypeEntitlement{
				{VehicleTypeID: 1, VehicleTypeName: "Car", Limit: 5, Used: 4, Remaining: 1},
				{VehicleTypeID: 2, VehicleTypeName: "Van", Limit: 5, Used: 0, Remaining: 5},
			}},
			2: {HasPackage: true, PerType: []pricing.TypeEntitlement{
				{VehicleTypeID: 1, VehicleTypeName: "Car", IsUnlimited: true, Remaining: 9999},
			}},
			3: {HasPackage: true, Global: &pricing.GlobalQuota{Limit: 3, Used: 3, Remaining: 0}},
			4: {HasPackage: false},
		},
		Notifier: rec,
		Redis:    rdb,
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return fixedNow },
	}

	n, err := j.WarnAdLimits(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.Len(t, rec.sent, 2)
	assert.Equal(t, int64(1), rec.sent[0].userID)
	assert.Equal(t, notification.TypeSubscription, rec.sent[0].typ)
	assert.Equal(t, int64(3), rec.sent[1].userID)
	assert.True(t, mr.Exists("adlimit:warned:1:2026-03-14"))

	n, err = j.WarnAdLimits(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, rec.sent, 2)

	j.Now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	n, err = j.WarnAdLimits(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestLowQuotaTypes(t *testing.T) {
	assert.Nil(t, lowQuotaTypes(nil))
	assert.Nil(t, lowQuotaTypes(&pricing.Entitlement{HasPackage: false}))
	assert.Equal(t, []string{"Car"}, lowQuotaTypes(&pricing.Entitlement{HasPackage: true, PerType: []pricing.TypeEntitlement{
		{VehicleTypeName: "Car", Limit: 1, Remaining: 0},
		{VehicleTypeName: "Bike", Limit: 10, Remaining: 2},
	}}))
	assert.Nil(t, lowQuotaTypes(&pricing.Entitlement{HasPackage: true, Global: &pricing.GlobalQuota{IsUnlimited: true, Remaining: 9999}}))
}

func TestRedisLocker_SecondInstanceSkips(t *testing.T) {
	mr, rdb := newRedis(t)
	a := newRedisLocker(rdb, time.Minute)
	b := newRedisLocker(rdb, time.Minute)
	ctx := context.Background()

	lock, err := a.Lock(ctx, JobAdExpiry)
	require.NoError(t, err)
	require.NoError(t, lock.Unlock(ctx))

	_, err = b.Lock(ctx, JobAdExpiry)
	assert.ErrorIs(t, err, errLockHeld)

	mr.FastForward(2 * time.Minute)
	_, err = b.Lock(ctx, JobAdExpiry)
	assert.NoError(t, err)
}

func TestRegister_AddsAllJobs(t *testing.T) {
	s, err := New(Config{Timezone: "UTC"}, &Jobs{Logger: zap.NewNop()}, nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Register())

	assert.ElementsMatch(t,
		[]string{JobAdExpiry, JobBanExpiry, JobBoostExpiry, JobExpiryWarning, JobAdLimitWarning},
		s.JobNames())
	_ = s.Shutdown()
}

func TestNew_RejectsUnknownTimezone(t *testing.T) {
	_, err := New(Config{Timezone: "Mars/Olympus"}, &Jobs{}, nil, zap.NewNop())
	assert.Error(t, err)
}
