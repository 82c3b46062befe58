package discount

import (
	"context"
	"testing"
	"time"

	"motormart-service/internal/domain/discount"
	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepo struct {
	mock.Mock
	discount.Repository
}

func (m *mockRepo) Create(ctx context.Context, d *discount.Discount) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockRepo) ListCandidates(ctx context.Context, code *string, at time.Time) ([]*discount.Discount, error) {
	args := m.Called(ctx, code, at)
	return args.Get(0).([]*discount.Discount), args.Error(1)
}

func (m *mockRepo) HasPaidPurchase(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type stubPrices struct{}

func (stubPrices) ResolvePrice(ctx context.Context, itemID int64, vehicleTypeID *int64, quantity int) (*pricing.PriceQuote, error) {
	unit := decimal.NewFromInt(1000)
	return &pricing.PriceQuote{
		Quantity:  quantity,
		UnitPrice: unit,
		Subtotal:  unit.Mul(decimal.NewFromInt(int64(quantity))),
		Currency:  "LKR",
	}, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreate_Validation(t *testing.T) {
	repo := &mockRepo{}
	svc := NewDiscountService(repo, stubPrices{}, zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		name string
		req  discount.CreateDiscountRequest
	}{
		{"zero percentage", discount.CreateDiscountRequest{Name: "x", DiscountType: discount.TypePercentage, Value: dec("0")}},
		{"over 100 percent", discount.CreateDiscountRequest{Name: "x", DiscountType: discount.TypePercentage, Value: dec("100.01")}},
		{"negative fixed", discount.CreateDiscountRequest{Name: "x", DiscountType: discount.TypeFixed, Value: dec("-5")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &tc.req)
			assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		})
	}

	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	_, err := svc.Create(ctx, &discount.CreateDiscountRequest{Name: "x", DiscountType: discount.TypeFixed, Value: dec("10"), ValidFrom: &from, ValidTo: &to})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_NormalizesCode(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(d *discount.Discount) bool {
		return d.Code != nil && *d.Code == "SUMMER25" && d.MinQuantity == 1 && d.IsActive
	})).Return(nil)

	svc := NewDiscountService(repo, stubPrices{}, zap.NewNop())
	code := "  summer25 "
	_, err := svc.Create(context.Background(), &discount.CreateDiscountRequest{
		Code: &code, Name: "Summer", DiscountType: discount.TypePercentage, Value: dec("100"),
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestApplicable_PicksLargestReduction(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	vt := int64(2)

	tenPercent := &discount.Discount{ID: 1, DiscountType: discount.TypePercentage, Value: dec("10"), IsActive: true, MinQuantity: 1}
	fixed500 := &discount.Discount{ID: 2, DiscountType: discount.TypeFixed, Value: dec("500"), IsActive: true, MinQuantity: 1}
	bulkOnly := &discount.Discount{ID: 3, DiscountType: discount.TypePercentage, Value: dec("90"), IsActive: true, MinQuantity: 5}
	otherType := &discount.Discount{ID: 4, DiscountType: discount.TypePercentage, Value: dec("80"), IsActive: true, MinQuantity: 1, VehicleTypeIDs: []int64{9}}
	expired := &discount.Discount{ID: 5, DiscountType: discount.TypePercentage, Value: dec("70"), IsActive: true, MinQuantity: 1, ValidTo: ptrTime(at.Add(-time.Hour))}

	repo := &mockRepo{}
	repo.On("ListCandidates", mock.Anything, (*string)(nil), at).
		Return([]*discount.Discount{tenPercent, fixed500, bulkOnly, otherType, expired}, nil)

	svc := NewDiscountService(repo, stubPrices{}, zap.NewNop())

	best, err := svc.Applicable(context.Background(), 10, &vt, 2, 1, nil, dec("2000"), at)
	require.NoError(t, err)
	assert.Equal(t, int64(2), best.ID)

	best, err = svc.Applicable(context.Background(), 10, &vt, 2, 1, nil, dec("8000"), at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), best.ID)
}

func TestApplicable_FirstTimeOnly(t *testing.T) {
	at := time.Now()
	welcome := &discount.Discount{ID: 1, DiscountType: discount.TypeFixed, Value: dec("300"), IsActive: true, MinQuantity: 1, FirstTimeOnly: true}

	repo := &mockRepo{}
	repo.On("ListCandidates", mock.Anything, mock.Anything, at).Return([]*discount.Discount{welcome}, nil)
	repo.On("HasPaidPurchase", mock.Anything, int64(1)).Return(false, nil)
	repo.On("HasPaidPurchase", mock.Anything, int64(2)).Return(true, nil)

	svc := NewDiscountService(repo, stubPrices{}, zap.NewNop())

	best, err := svc.Applicable(context.Background(), 10, nil, 1, 1, nil, dec("1000"), at)
	require.NoError(t, err)
	require.NotNil(t, best)

	best, err = svc.Applicable(context.Background(), 10, nil, 1, 2, nil, dec("1000"), at)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestPreview(t *testing.T) {
	code := "HALF"
	half := &discount.Discount{ID: 1, Code: &code, DiscountType: discount.TypePercentage, Value: dec("50"), IsActive: true, MinQuantity: 1}

	repo := &mockRepo{}
	repo.On("ListCandidates", mock.Anything, &code, mock.Anything).Return([]*discount.Discount{half}, nil)

	svc := NewDiscountService(repo, stubPrices{}, zap.NewNop())
	lower := "half"
	preview, err := svc.Preview(context.Background(), 1, &discount.PreviewRequest{ItemID: 3, Quantity: 3, Code: &lower})
	require.NoError(t, err)

	assert.Equal(t, "3000", preview.Subtotal.String())
	assert.Equal(t, "1500", preview.DiscountAmount.String())
	assert.Equal(t, "1500", preview.Total.String())
	assert.Equal(t, "LKR", preview.Currency)
}

func ptrTime(t time.Time) *time.Time { return &t }
