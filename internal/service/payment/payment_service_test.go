package payment

import (
	"context"
	"sync"
	"testing"
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

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ========== fakes ==========

type memPayments struct {
	mu       sync.Mutex
	byOrder  map[string]*payment.Payment
	boosts   map[int64]*boost.AdBoost
	subs     []*pricing.UserSubscription
	settled  int
	nextID   int64
	nextBoID int64
}

func newMemPayments() *memPayments {
	return &memPayments{byOrder: map[string]*payment.Payment{}, boosts: map[int64]*boost.AdBoost{}}
}

func (m *memPayments) Create(_ context.Context, p *payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.byOrder[p.OrderID] = &cp
	return nil
}

func (m *memPayments) CreateBoostPayment(ctx context.Context, p *payment.Payment, b *boost.AdBoost) error {
	m.mu.Lock()
	m.nextBoID++
	b.ID = m.nextBoID
	m.boosts[b.ID] = b
	p.BoostID = &b.ID
	m.mu.Unlock()
	return m.Create(ctx, p)
}

func (m *memPayments) FindByOrderID(_ context.Context, orderID string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byOrder[orderID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPayments) List(_ context.Context, f *payment.ListFilters) ([]*payment.Payment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Payment
	for _, p := range m.byOrder {
		if f.UserID != nil && p.UserID != *f.UserID {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (m *memPayments) byID(id int64) *payment.Payment {
	for _, p := range m.byOrder {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *memPayments) apply(id int64, o *payment.Outcome) bool {
	p := m.byID(id)
	if p == nil || p.Status != payment.StatusPending {
		return false
	}
	p.Status = o.Status
	p.GatewayPaymentID = &o.GatewayPaymentID
	if o.Status == payment.StatusSuccess {
		at := o.At
		p.PaidAt = &at
	}
	m.settled++
	return true
}

func (m *memPayments) Settle(_ context.Context, id int64, o *payment.Outcome) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.apply(id, o)
	if ok {
		if p := m.byID(id); p.BoostID != nil {
			m.boosts[*p.BoostID].Status = boost.StatusCancelled
		}
	}
	return ok, nil
}

func (m *memPayments) SettleWithSubscription(_ context.Context, id int64, o *payment.Outcome, sub *pricing.UserSubscription) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.apply(id, o) {
		return false, nil
	}
	sub.PaymentID = &id
	m.subs = append(m.subs, sub)
	return true, nil
}

func (m *memPayments) SettleWithBoost(_ context.Context, id int64, o *payment.Outcome, boostID int64, startsAt, endsAt time.Time) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.apply(id, o) {
		return false, false, nil
	}
	b := m.boosts[boostID]
	if b == nil || b.Status != boost.StatusPending {
		return true, false, nil
	}
	b.Status = boost.StatusActive
	b.StartsAt, b.EndsAt = &startsAt, &endsAt
	return true, true, nil
}

type stubPrices struct{ items map[int64]*pricing.PriceItem }

func (s stubPrices) ResolvePrice(_ context.Context, itemID int64, _ *int64, quantity int) (*pricing.PriceQuote, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	unit := decimal.NewFromInt(1500)
	return &pricing.PriceQuote{
		Item:      item,
		Quantity:  quantity,
		UnitPrice: unit,
		Subtotal:  unit.Mul(decimal.NewFromInt(int64(quantity))),
		Currency:  "LKR",
	}, nil
}

type stubDiscounts struct{ d *discount.Discount }

func (s stubDiscounts) Applicable(context.Context, int64, *int64, int, int64, *string, decimal.Decimal, time.Time) (*discount.Discount, error) {
	return s.d, nil
}

type stubFeatures map[int64][]*pricing.PackageFeature

func (s stubFeatures) ListFeatures(_ context.Context, id int64) ([]*pricing.PackageFeature, error) {
	return s[id], nil
}

type stubAds map[int64]*ad.AdInfo

func (s stubAds) FindByID(_ context.Context, id int64) (*ad.AdInfo, error) {
	a, ok := s[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return a, nil
}

type stubUsers map[int64]*auth.User

func (s stubUsers) FindByID(_ context.Context, id int64) (*auth.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return u, nil
}

type recorder struct {
	mu       sync.Mutex
	notified []notification.NotificationType
	pushed   []string
	receipts []string
}

func (r *recorder) Notify(_ context.Context, _ int64, typ notification.NotificationType, _, _ string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, typ)
}

func (r *recorder) PushPaymentStatus(_ int64, _ string, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, status)
}

func (r *recorder) SendPaymentReceipt(to, _, orderID, _ string, _ decimal.Decimal, _ string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, to+":"+orderID)
}

// ========== fixtures ==========

const (
	packageItemID int64 = 10
	boostItemID   int64 = 20
	listingItemID int64 = 30
	buyerID       int64 = 7
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *PaymentService
	repo   *memPayments
	signer *gateway.Signer
	rec    *recorder
}

func newFixture(d *discount.Discount) *fixture {
	email := "buyer@example.com"
	signer := gateway.NewSigner(gateway.Config{
		MerchantID:     "1211149",
		MerchantSecret: "s3cret",
		Currency:       "LKR",
		CheckoutURL:    "https://sandbox.example/checkout",
	})
	repo := newMemPayments()
	rec := &recorder{}

	svc := NewPaymentService(Deps{
		Repo: repo,
		Prices: stubPrices{items: map[int64]*pricing.PriceItem{
			packageItemID: {ID: packageItemID, Code: "PRO", Name: "Pro", ItemType: pricing.ItemPackage},
			boostItemID:   {ID: boostItemID, Code: "TOP", Name: "Top spot", ItemType: pricing.ItemBoost},
			listingItemID: {ID: listingItemID, Code: "X", Name: "Odd", ItemType: pricing.ItemType("OTHER")},
		}},
		Discounts: stubDiscounts{d: d},
		Features: stubFeatures{
			packageItemID: {{Key: pricing.FeatureDurationDays, Value: "90"}},
			boostItemID: {
				{Key: pricing.FeatureBoostType, Value: "URGENT"},
				{Key: pricing.FeatureDurationDays, Value: "3"},
			},
		},
		Ads: stubAds{
			1: {CarAd: ad.CarAd{ID: 1, UserID: buyerID, Status: ad.StatusActive}},
			2: {CarAd: ad.CarAd{ID: 2, UserID: 99, Status: ad.StatusActive}},
			3: {CarAd: ad.CarAd{ID: 3, UserID: buyerID, Status: ad.StatusSold}},
		},
		Users: stubUsers{
			buyerID: {ID: buyerID, FirstName: "Nimal", LastName: "Perera", Email: &email, Status: auth.StatusActive},
		},
		Signer:   signer,
		Notifier: rec,
		Pusher:   rec,
		Mailer:   rec,
	}, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, repo: repo, signer: signer, rec: rec}
}

func (f *fixture) notification(p *payment.Payment, code int) gateway.Notification {
	amount := gateway.FormatAmount(p.Amount)
	return gateway.Notification{
		MerchantID: "1211149",
		OrderID:    p.OrderID,
		PaymentID:  "320025",
		Amount:     amount,
		Currency:   p.Currency,
		StatusCode: code,
		Signature:  f.signer.NotifySignature(p.OrderID, p.Amount, p.Currency, code),
	}
}

func ptr[T any](v T) *T { return &v }

// ========== Initiate ==========

func TestInitiate_Package(t *testing.T) {
	f := newFixture(nil)

	res, err := f.svc.Initiate(context.Background(), buyerID, &payment.InitiateRequest{ItemID: packageItemID})
	require.NoError(t, err)

	p := res.Payment
	assert.Regexp(t, `^ORD-[0-9A-Z]{26}$`, p.OrderID)
	assert.Equal(t, payment.PurposePackage, p.Purpose)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Equal(t, 1, p.Quantity)
	assert.Equal(t, packageItemID, *p.PackageID)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(1500)))

	require.NotNil(t, res.Checkout)
	assert.Equal(t, f.signer.Hash(p.OrderID, p.Amount, "LKR"), res.Checkout.Hash)
	assert.Equal(t, "1500.00", res.Checkout.Amount)
}

func TestInitiate_AppliesDiscount(t *testing.T) {
	f := newFixture(&discount.Discount{ID: 4, DiscountType: discount.TypePercentage, Value: decimal.NewFromInt(10)})

	res, err := f.svc.Initiate(context.Background(), buyerID, &payment.InitiateRequest{ItemID: packageItemID, Quantity: 2})
	require.NoError(t, err)

	assert.True(t, res.Payment.Amount.Equal(decimal.NewFromInt(2700)), res.Payment.Amount.String())
	assert.True(t, res.Payment.DiscountAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, int64(4), *res.Payment.DiscountID)
}

func TestInitiate_Boost(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: boostItemID})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: boostItemID, AdID: ptr(int64(2))})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	_, err = f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: boostItemID, AdID: ptr(int64(3))})
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	res, err := f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: boostItemID, AdID: ptr(int64(1))})
	require.NoError(t, err)
	assert.Equal(t, payment.PurposeBoost, res.Payment.Purpose)
	require.NotNil(t, res.Payment.BoostID)

	b := f.repo.boosts[*res.Payment.BoostID]
	assert.Equal(t, boost.StatusPending, b.Status)
	assert.Equal(t, boost.TypeUrgent, b.BoostType)
	assert.Equal(t, 3, b.DurationDays)
}

func TestInitiate_UnsupportedItem(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Initiate(context.Background(), buyerID, &payment.InitiateRequest{ItemID: listingItemID})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

// ========== Webhook ==========

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	f := newFixture(nil)
	res, err := f.svc.Initiate(context.Background(), buyerID, &payment.InitiateRequest{ItemID: packageItemID})
	require.NoError(t, err)

	n := f.notification(res.Payment, gateway.StatusSuccess)
	n.Signature = "DEADBEEF"

	_, err = f.svc.HandleWebhook(context.Background(), n, nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidSignature)
	assert.Zero(t, f.repo.settled)
}

func TestHandleWebhook_CheckoutHashIsNotASignature(t *testing.T) {
	f := newFixture(nil)
	res, err := f.svc.Initiate(context.Background(), buyerID, &payment.InitiateRequest{ItemID: packageItemID})
	require.NoError(t, err)

	n := f.notification(res.Payment, gateway.StatusSuccess)
	n.Signature = res.Checkout.Hash

	_, err = f.svc.HandleWebhook(context.Background(), n, nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidSignature)
	assert.Zero(t, f.repo.settled)
	assert.Empty(t, f.repo.subs)
	assert.Equal(t, payment.StatusPending, f.repo.byOrder[res.Payment.OrderID].Status)
}

func TestHandleWebhook_SignatureCoversStatusCode(t *testing.T) {
	f := newFixture(nil)
	res, err := f.svc.Initiate(context.Background(), buyerID, &payment.InitiateRequest{ItemID: packageItemID})
	require.NoError(t, err)

	n := f.notification(res.Payment, gateway.StatusFailed)
	n.StatusCode = gateway.StatusSuccess

	_, err = f.svc.HandleWebhook(context.Background(), n, nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidSignature)
	assert.Zero(t, f.repo.settled)
}

func TestHandleWebhook_UnknownOrder(t *testing.T) {
	f := newFixture(nil)
	p := &payment.Payment{OrderID: "ORD-MISSING", Amount: decimal.NewFromInt(100), Currency: "LKR"}

	_, err := f.svc.HandleWebhook(context.Background(), f.notification(p, gateway.StatusSuccess), nil)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestHandleWebhook_AmountMismatch(t *testing.T) {
	f := newFixture(nil)
	res, err := f.svc.Initiate(context.Background(), buyerID, &payment.InitiateRequest{ItemID: packageItemID})
	require.NoError(t, err)

	forged := *res.Payment
	forged.Amount = decimal.NewFromInt(1)

	_, err = f.svc.HandleWebhook(context.Background(), f.notification(&forged, gateway.StatusSuccess), nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Zero(t, f.repo.settled)
}

func TestHandleWebhook_PackageSuccessIsIdempotent(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	res, err := f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: packageItemID})
	require.NoError(t, err)

	n := f.notification(res.Payment, gateway.StatusSuccess)

	p, err := f.svc.HandleWebhook(ctx, n, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, p.Status)

	require.Len(t, f.repo.subs, 1)
	sub := f.repo.subs[0]
	assert.Equal(t, fixedNow, sub.StartDate)
	assert.Equal(t, fixedNow.AddDate(0, 0, 90), sub.EndDate)
	assert.Equal(t, packageItemID, sub.PackageID)

	assert.Equal(t, []notification.NotificationType{notification.TypeSubscription}, f.rec.notified)
	assert.Equal(t, []string{"SUCCESS"}, f.rec.pushed)
	assert.Equal(t, []string{"buyer@example.com:" + res.Payment.OrderID}, f.rec.receipts)

	// replay
	p, err = f.svc.HandleWebhook(ctx, n, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, p.Status)
	assert.Len(t, f.repo.subs, 1)
	assert.Equal(t, 1, f.repo.settled)
	assert.Len(t, f.rec.notified, 1)
}

func TestHandleWebhook_BoostSuccess(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	res, err := f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: boostItemID, AdID: ptr(int64(1))})
	require.NoError(t, err)

	_, err = f.svc.HandleWebhook(ctx, f.notification(res.Payment, gateway.StatusSuccess), nil)
	require.NoError(t, err)

	b := f.repo.boosts[*res.Payment.BoostID]
	assert.Equal(t, boost.StatusActive, b.Status)
	assert.Equal(t, fixedNow, *b.StartsAt)
	assert.Equal(t, fixedNow.AddDate(0, 0, 3), *b.EndsAt)
}

func TestHandleWebhook_BoostNoLongerPendingStillSettles(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	res, err := f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: boostItemID, AdID: ptr(int64(1))})
	require.NoError(t, err)

	b := f.repo.boosts[*res.Payment.BoostID]
	b.Status = boost.StatusCancelled

	p, err := f.svc.HandleWebhook(ctx, f.notification(res.Payment, gateway.StatusSuccess), nil)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, p.Status)
	assert.Equal(t, 1, f.repo.settled)
	assert.Equal(t, boost.StatusCancelled, b.Status, "a cancelled boost is not revived")
	assert.Nil(t, b.StartsAt)
}

func TestHandleWebhook_FailureAndPending(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	res, err := f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: boostItemID, AdID: ptr(int64(1))})
	require.NoError(t, err)

	p, err := f.svc.HandleWebhook(ctx, f.notification(res.Payment, gateway.StatusPending), nil)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Zero(t, f.repo.settled)

	_, err = f.svc.HandleWebhook(ctx, f.notification(res.Payment, 7), nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	p, err = f.svc.HandleWebhook(ctx, f.notification(res.Payment, gateway.StatusFailed), nil)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, boost.StatusCancelled, f.repo.boosts[*res.Payment.BoostID].Status)
	assert.Empty(t, f.rec.receipts)
	assert.Equal(t, []notification.NotificationType{notification.TypePayment}, f.rec.notified)
}

// ========== Reads ==========

func TestGetStatus_OwnerOnly(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	res, err := f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: packageItemID})
	require.NoError(t, err)

	p, err := f.svc.GetStatus(ctx, buyerID, res.Payment.OrderID)
	require.NoError(t, err)
	assert.Equal(t, res.Payment.OrderID, p.OrderID)

	_, err = f.svc.GetStatus(ctx, 99, res.Payment.OrderID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestListMine_Paginates(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Initiate(ctx, buyerID, &payment.InitiateRequest{ItemID: packageItemID})
		require.NoError(t, err)
	}

	res, err := f.svc.ListMine(ctx, buyerID, &payment.ListFilters{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 2, res.TotalPages)
}
