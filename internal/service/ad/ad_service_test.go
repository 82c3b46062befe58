package ad

import (
	"context"
	"errors"
	"testing"
	"time"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/auth"
	"motormart-service/internal/domain/notification"
	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ========== Fakes ==========

type memAds struct {
	nextID  int64
	ads     map[int64]*ad.AdInfo
	usage   []ad.UsageEntry
	views   int
	warned  []int64
	expired time.Time
}

func newMemAds() *memAds {
	return &memAds{ads: map[int64]*ad.AdInfo{}}
}

func (m *memAds) put(a ad.CarAd, images ...ad.AdImage) {
	info := &ad.AdInfo{CarAd: a, Images: images}
	m.ads[a.ID] = info
	if a.ID > m.nextID {
		m.nextID = a.ID
	}
}

func (m *memAds) CreateWithUsage(ctx context.Context, b *ad.Bundle, usage *ad.UsageEntry) error {
	m.nextID++
	b.Ad.ID = m.nextID
	m.ads[b.Ad.ID] = &ad.AdInfo{CarAd: *b.Ad, Details: b.Details, Images: b.Images, Attributes: b.Attributes}
	if usage != nil {
		usage.AdID = b.Ad.ID
		m.usage = append(m.usage, *usage)
	}
	return nil
}

func (m *memAds) FindByID(ctx context.Context, id int64) (*ad.AdInfo, error) {
	info, ok := m.ads[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *info
	return &cp, nil
}

func (m *memAds) Update(ctx context.Context, b *ad.Bundle, replaceImages, replaceAttributes bool) error {
	info := m.ads[b.Ad.ID]
	info.CarAd = *b.Ad
	if b.Details != nil {
		info.Details = b.Details
	}
	if replaceImages {
		info.Images = b.Images
	}
	if replaceAttributes {
		info.Attributes = b.Attributes
	}
	return nil
}

func (m *memAds) UpdateStatus(ctx context.Context, id int64, status ad.Status, reason *string) error {
	info, ok := m.ads[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	info.Status = status
	info.RejectionReason = reason
	return nil
}

func (m *memAds) Renew(ctx context.Context, id int64, expiry time.Time, usage *ad.UsageEntry) error {
	info := m.ads[id]
	if info.Status != ad.StatusExpired {
		return xerrors.ErrNotFound
	}
	info.Status = ad.StatusActive
	info.ExpiryDate = expiry
	usage.AdID = id
	m.usage = append(m.usage, *usage)
	return nil
}

func (m *memAds) IncrementViews(ctx context.Context, id int64) error {
	m.views++
	m.ads[id].ViewCount++
	return nil
}

func (m *memAds) List(ctx context.Context, filters *ad.ListFilters, activeOnly bool) ([]ad.AdInfo, int64, error) {
	var out []ad.AdInfo
	for _, info := range m.ads {
		if activeOnly && info.Status != ad.StatusActive {
			continue
		}
		if filters.UserID != nil && info.UserID != *filters.UserID {
			continue
		}
		out = append(out, *info)
	}
	return out, int64(len(out)), nil
}

func (m *memAds) ListFeatured(ctx context.Context, limit int) ([]ad.AdInfo, error) {
	return nil, nil
}

func (m *memAds) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.expired = cutoff
	var n int64
	for _, info := range m.ads {
		if info.Status == ad.StatusActive && info.ExpiryDate.Before(cutoff) {
			info.Status = ad.StatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memAds) ListExpiringUnwarned(ctx context.Context, from, to time.Time) ([]ad.ExpiringAd, error) {
	var out []ad.ExpiringAd
	for _, info := range m.ads {
		if info.Status == ad.StatusActive && !info.ExpiryWarned &&
			!info.ExpiryDate.Before(from) && info.ExpiryDate.Before(to) {
			email := "owner@example.com"
			out = append(out, ad.ExpiringAd{ID: info.ID, UserID: info.UserID, Title: info.Title, ExpiryDate: info.ExpiryDate, Email: &email, FirstName: "Ann"})
		}
	}
	return out, nil
}

func (m *memAds) MarkExpiryWarned(ctx context.Context, id int64) error {
	m.ads[id].ExpiryWarned = true
	m.warned = append(m.warned, id)
	return nil
}

type stubUsers map[int64]*auth.User

func (s stubUsers) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return u, nil
}

type stubEntitlements struct {
	allowed bool
	ent     *pricing.Entitlement
	calls   int
}

func (s *stubEntitlements) CanPost(ctx context.Context, userID, vehicleTypeID int64) (bool, *pricing.Entitlement, error) {
	s.calls++
	return s.allowed, s.ent, nil
}

type stubClassifier struct {
	err error
}

func (s stubClassifier) ValidateClassification(ctx context.Context, typeID int64, brandID, modelID *int64) error {
	return s.err
}

func (s stubClassifier) ValidateAttributeValues(ctx context.Context, typeID int64, values map[int64]string) error {
	return nil
}

type stubObjects struct {
	disabled bool
	deleted  []string
}

func (s *stubObjects) PresignPut(ctx context.Context, key, contentType string) (*storage.PresignedUpload, error) {
	if s.disabled {
		return nil, storage.ErrDisabled
	}
	return &storage.PresignedUpload{URL: "https://s3/" + key, Method: "PUT", ObjectKey: key}, nil
}

func (s *stubObjects) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

type sentNotice struct {
	userID int64
	title  string
}

type recordingNotifier struct {
	sent []sentNotice
}

func (r *recordingNotifier) Notify(ctx context.Context, userID int64, typ notification.NotificationType, title, message string, metadata map[string]interface{}) {
	r.sent = append(r.sent, sentNotice{userID: userID, title: title})
}

type fixture struct {
	svc      *AdService
	repo     *memAds
	ent      *stubEntitlements
	objects  *stubObjects
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(cfg Config) *fixture {
	sub := &pricing.UserSubscription{ID: 77}
	f := &fixture{
		repo:     newMemAds(),
		ent:      &stubEntitlements{allowed: true, ent: &pricing.Entitlement{HasPackage: true, Subscription: sub}},
		objects:  &stubObjects{},
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	users := stubUsers{
		1: {ID: 1, Status: auth.StatusActive},
		2: {ID: 2, Status: auth.StatusActive},
		3: {ID: 3, Status: auth.StatusBanned},
	}
	f.svc = NewAdService(f.repo, users, f.ent, stubClassifier{}, f.objects, f.notifier, cfg, zap.NewNop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func createRequest() *ad.CreateAdRequest {
	return &ad.CreateAdRequest{
		VehicleTypeID: 1,
		Title:         "Toyota Axio 2016",
		Price:         decimal.RequireFromString("5250000.499"),
		Location:      "Colombo",
		Images: []ad.ImageInput{
			{URL: "https://img/1.jpg"},
			{URL: "https://img/2.jpg", IsPrimary: true},
			{URL: "https://img/3.jpg", IsPrimary: true},
		},
		Attributes: []ad.AttributeInput{{AttributeID: 4, Value: "yes"}},
	}
}

func strPtr(s string) *string { return &s }

// ========== Tests ==========

func TestCreate(t *testing.T) {
	f := newFixture(Config{LifetimeDays: 30})

	info, err := f.svc.Create(context.Background(), 1, createRequest())
	require.NoError(t, err)

	assert.Equal(t, ad.StatusActive, info.Status)
	assert.Equal(t, "LKR", info.Currency)
	assert.Equal(t, "5250000.5", info.Price.String())
	assert.Equal(t, f.now.AddDate(0, 0, 30), info.ExpiryDate)
	require.NotNil(t, info.PublishedAt)

	require.Len(t, info.Images, 3)
	assert.False(t, info.Images[0].IsPrimary)
	assert.True(t, info.Images[1].IsPrimary)
	assert.False(t, info.Images[2].IsPrimary)

	require.Len(t, f.repo.usage, 1)
	assert.Equal(t, ad.UsagePost, f.repo.usage[0].Reason)
	assert.Equal(t, int64(77), *f.repo.usage[0].SubscriptionID)
	assert.Equal(t, info.ID, f.repo.usage[0].AdID)
}

func TestCreate_RequiresApproval(t *testing.T) {
	f := newFixture(Config{RequireApproval: true})

	info, err := f.svc.Create(context.Background(), 1, createRequest())
	require.NoError(t, err)
	assert.Equal(t, ad.StatusPending, info.Status)
	assert.Nil(t, info.PublishedAt)
}

func TestCreate_QuotaExhausted(t *testing.T) {
	f := newFixture(Config{})
	f.ent.allowed = false
	f.ent.ent = &pricing.Entitlement{HasPackage: false, Message: "no active package"}

	_, err := f.svc.Create(context.Background(), 1, createRequest())
	require.ErrorIs(t, err, xerrors.ErrQuotaExceeded)

	var quota *QuotaError
	require.True(t, errors.As(err, &quota))
	assert.Equal(t, "no active package", quota.Entitlement.Message)
	assert.Empty(t, f.repo.ads)
}

func TestCreate_Rejections(t *testing.T) {
	t.Run("banned user", func(t *testing.T) {
		f := newFixture(Config{})
		_, err := f.svc.Create(context.Background(), 3, createRequest())
		assert.ErrorIs(t, err, xerrors.ErrForbidden)
		assert.Zero(t, f.ent.calls)
	})

	t.Run("zero price", func(t *testing.T) {
		f := newFixture(Config{})
		req := createRequest()
		req.Price = decimal.Zero
		_, err := f.svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})

	t.Run("duplicate attribute", func(t *testing.T) {
		f := newFixture(Config{})
		req := createRequest()
		req.Attributes = append(req.Attributes, ad.AttributeInput{AttributeID: 4, Value: "no"})
		_, err := f.svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})

	t.Run("bad classification", func(t *testing.T) {
		f := newFixture(Config{})
		f.svc.classifier = stubClassifier{err: xerrors.Invalid("brand does not belong to vehicle type")}
		_, err := f.svc.Create(context.Background(), 1, createRequest())
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		assert.Zero(t, f.ent.calls)
	})
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(Config{})
	f.repo.put(ad.CarAd{ID: 1, UserID: 1, Status: ad.StatusActive})
	f.repo.put(ad.CarAd{ID: 2, UserID: 1, Status: ad.StatusPending})
	f.repo.put(ad.CarAd{ID: 3, UserID: 1, Status: ad.StatusDeleted})
	ctx := context.Background()

	// owner views are not counted
	_, err := f.svc.Get(ctx, 1, 1, false)
	require.NoError(t, err)
	assert.Zero(t, f.repo.views)

	info, err := f.svc.Get(ctx, 1, 2, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.ViewCount)

	_, err = f.svc.Get(ctx, 1, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.views)

	_, err = f.svc.Get(ctx, 2, 2, false)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	_, err = f.svc.Get(ctx, 2, 1, false)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, 2, 9, true)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, 3, 1, false)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.Equal(t, 2, f.repo.views)
}

func TestUpdate(t *testing.T) {
	f := newFixture(Config{})
	f.repo.put(ad.CarAd{ID: 1, UserID: 1, Status: ad.StatusRejected, Title: "Old title"},
		ad.AdImage{URL: "https://img/a.jpg", ObjectKey: strPtr("ads/1/a.jpg"), IsPrimary: true},
		ad.AdImage{URL: "https://img/b.jpg", ObjectKey: strPtr("ads/1/b.jpg")},
	)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, 2, 1, &ad.UpdateAdRequest{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	info, err := f.svc.Update(ctx, 1, 1, &ad.UpdateAdRequest{
		Title:  strPtr("New title"),
		Images: []ad.ImageInput{{URL: "https://img/b.jpg", ObjectKey: strPtr("ads/1/b.jpg")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", info.Title)
	assert.Equal(t, ad.StatusPending, info.Status)
	require.Len(t, info.Images, 1)
	assert.True(t, info.Images[0].IsPrimary)
	assert.Equal(t, []string{"ads/1/a.jpg"}, f.objects.deleted)
}

func TestMarkSold(t *testing.T) {
	f := newFixture(Config{})
	f.repo.put(ad.CarAd{ID: 1, UserID: 1, Status: ad.StatusActive})
	f.repo.put(ad.CarAd{ID: 2, UserID: 1, Status: ad.StatusExpired})
	ctx := context.Background()

	require.NoError(t, f.svc.MarkSold(ctx, 1, 1))
	assert.Equal(t, ad.StatusSold, f.repo.ads[1].Status)
	assert.ErrorIs(t, f.svc.MarkSold(ctx, 1, 2), xerrors.ErrConflict)
}

func TestRenew(t *testing.T) {
	f := newFixture(Config{LifetimeDays: 14})
	f.repo.put(ad.CarAd{ID: 1, UserID: 1, VehicleTypeID: 5, Status: ad.StatusExpired})
	f.repo.put(ad.CarAd{ID: 2, UserID: 1, Status: ad.StatusActive})
	ctx := context.Background()

	info, err := f.svc.Renew(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ad.StatusActive, info.Status)
	assert.Equal(t, f.now.AddDate(0, 0, 14), info.ExpiryDate)
	require.Len(t, f.repo.usage, 1)
	assert.Equal(t, ad.UsageRenew, f.repo.usage[0].Reason)
	assert.Equal(t, int64(5), f.repo.usage[0].VehicleTypeID)

	_, err = f.svc.Renew(ctx, 1, 2)
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	f.repo.put(ad.CarAd{ID: 3, UserID: 1, Status: ad.StatusExpired})
	f.ent.allowed = false
	_, err = f.svc.Renew(ctx, 1, 3)
	assert.ErrorIs(t, err, xerrors.ErrQuotaExceeded)
}

func TestDelete(t *testing.T) {
	f := newFixture(Config{})
	f.repo.put(ad.CarAd{ID: 1, UserID: 1, Status: ad.StatusActive},
		ad.AdImage{ObjectKey: strPtr("ads/1/a.jpg")}, ad.AdImage{URL: "https://external/x.jpg"})
	f.repo.put(ad.CarAd{ID: 2, UserID: 1, Status: ad.StatusActive})
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Delete(ctx, 2, 1, false), xerrors.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, 1, 1, false))
	assert.Equal(t, ad.StatusDeleted, f.repo.ads[1].Status)
	assert.Equal(t, []string{"ads/1/a.jpg"}, f.objects.deleted)
	assert.ErrorIs(t, f.svc.Delete(ctx, 1, 1, false), xerrors.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, 9, 2, true))
}

func TestApproveReject(t *testing.T) {
	f := newFixture(Config{})
	f.repo.put(ad.CarAd{ID: 1, UserID: 1, Status: ad.StatusPending, Title: "Bike"})
	ctx := context.Background()

	require.NoError(t, f.svc.Reject(ctx, 9, 1, "blurry photos"))
	assert.Equal(t, ad.StatusRejected, f.repo.ads[1].Status)
	assert.Equal(t, "blurry photos", *f.repo.ads[1].RejectionReason)

	require.NoError(t, f.svc.Approve(ctx, 9, 1))
	assert.Equal(t, ad.StatusActive, f.repo.ads[1].Status)
	assert.ErrorIs(t, f.svc.Approve(ctx, 9, 1), xerrors.ErrConflict)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, "Ad rejected", f.notifier.sent[0].title)
	assert.Equal(t, "Ad approved", f.notifier.sent[1].title)
}

func TestPresignImageUpload(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	upload, err := f.svc.PresignImageUpload(ctx, 1, &ad.PresignRequest{Filename: "car.jpg", ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Contains(t, upload.ObjectKey, "ads/1/")
	assert.Equal(t, "PUT", upload.Method)

	_, err = f.svc.PresignImageUpload(ctx, 1, &ad.PresignRequest{Filename: "car.gif", ContentType: "image/gif"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	f.objects.disabled = true
	_, err = f.svc.PresignImageUpload(ctx, 1, &ad.PresignRequest{Filename: "car.jpg", ContentType: "image/jpeg"})
	assert.ErrorIs(t, err, xerrors.ErrFeatureUnavailable)
}

func TestListMine_ScopesToOwner(t *testing.T) {
	f := newFixture(Config{})
	f.repo.put(ad.CarAd{ID: 1, UserID: 1, Status: ad.StatusExpired})
	f.repo.put(ad.CarAd{ID: 2, UserID: 2, Status: ad.StatusActive})

	res, err := f.svc.ListMine(context.Background(), 1, &ad.ListFilters{})
	require.NoError(t, err)
	require.Len(t, res.Ads, 1)
	assert.Equal(t, int64(1), res.Ads[0].ID)
	assert.Equal(t, 20, res.PageSize)

	public, err := f.svc.List(context.Background(), &ad.ListFilters{UserID: ptrInt64(1)})
	require.NoError(t, err)
	require.Len(t, public.Ads, 1)
	assert.Equal(t, int64(2), public.Ads[0].ID)
}

func ptrInt64(v int64) *int64 { return &v }

type recordingMailer struct {
	to []string
}

func (r *recordingMailer) SendAdExpiryWarning(to, name, adTitle string, expiry time.Time) {
	r.to = append(r.to, to)
}

func TestSweeps(t *testing.T) {
	f := newFixture(Config{})
	f.repo.put(ad.CarAd{ID: 1, UserID: 1, Status: ad.StatusActive, ExpiryDate: f.now.Add(-time.Minute)})
	f.repo.put(ad.CarAd{ID: 2, UserID: 1, Status: ad.StatusActive, ExpiryDate: f.now.Add(48 * time.Hour)})
	f.repo.put(ad.CarAd{ID: 3, UserID: 2, Status: ad.StatusActive, ExpiryDate: f.now.Add(10 * 24 * time.Hour)})
	ctx := context.Background()

	expired, err := f.svc.ExpireDue(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)
	assert.Equal(t, ad.StatusExpired, f.repo.ads[1].Status)
	assert.Equal(t, f.now, f.repo.expired)

	mailer := &recordingMailer{}
	warned, err := f.svc.WarnExpiring(ctx, f.now, mailer)
	require.NoError(t, err)
	assert.Equal(t, 1, warned)
	assert.Equal(t, []int64{2}, f.repo.warned)
	assert.Equal(t, []string{"owner@example.com"}, mailer.to)

	// second run finds nothing new
	warned, err = f.svc.WarnExpiring(ctx, f.now, mailer)
	require.NoError(t, err)
	assert.Zero(t, warned)
}
