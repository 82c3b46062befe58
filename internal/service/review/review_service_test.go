package review

import (
	"context"
	"testing"

	"motormart-service/internal/domain/auth"
	"motormart-service/internal/domain/review"
	xerrors "motormart-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepo struct {
	mock.Mock
	review.Repository
}

func (m *mockRepo) Create(ctx context.Context, r *review.Review) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil {
		r.ID = 1
	}
	return args.Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*review.Review, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*review.Review); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, r *review.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) ListBySeller(ctx context.Context, sellerID int64) ([]*review.Review, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).([]*review.Review), args.Error(1)
}

func (m *mockRepo) SellerRating(ctx context.Context, sellerID int64) (float64, int64, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).(float64), args.Get(1).(int64), args.Error(2)
}

type stubUsers map[int64]*auth.User

func (s stubUsers) FindByID(_ context.Context, id int64) (*auth.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, xerrors.ErrNotFound
}

func newService(repo *mockRepo) *ReviewService {
	users := stubUsers{
		1: {ID: 1, Status: auth.StatusActive},
		2: {ID: 2, Status: auth.StatusActive},
		3: {ID: 3, Status: auth.StatusDeleted},
	}
	return NewReviewService(repo, users, zap.NewNop())
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("self review", func(t *testing.T) {
		_, err := newService(&mockRepo{}).Create(ctx, 1, &review.CreateReviewRequest{SellerID: 1, Rating: 5})
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})

	t.Run("unknown or deleted seller", func(t *testing.T) {
		svc := newService(&mockRepo{})
		_, err := svc.Create(ctx, 1, &review.CreateReviewRequest{SellerID: 9, Rating: 5})
		assert.ErrorIs(t, err, xerrors.ErrNotFound)
		_, err = svc.Create(ctx, 1, &review.CreateReviewRequest{SellerID: 3, Rating: 5})
		assert.ErrorIs(t, err, xerrors.ErrNotFound)
	})

	t.Run("duplicate", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("Create", ctx, mock.Anything).Return(xerrors.ErrDuplicateEntry)

		_, err := newService(repo).Create(ctx, 1, &review.CreateReviewRequest{SellerID: 2, Rating: 4})
		assert.ErrorIs(t, err, xerrors.ErrConflict)
	})

	t.Run("ok", func(t *testing.T) {
		repo := &mockRepo{}
		repo.On("Create", ctx, mock.MatchedBy(func(r *review.Review) bool {
			return r.SellerID == 2 && r.ReviewerID == 1 && r.Comment == "great seller"
		})).Return(nil)

		r, err := newService(repo).Create(ctx, 1, &review.CreateReviewRequest{SellerID: 2, Rating: 5, Comment: "  great seller "})
		require.NoError(t, err)
		assert.Equal(t, int64(1), r.ID)
		repo.AssertExpectations(t)
	})
}

func TestUpdateAndDelete_OwnOnly(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	repo.On("FindByID", ctx, int64(5)).Return(&review.Review{ID: 5, SellerID: 2, ReviewerID: 1, Rating: 3}, nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)
	repo.On("Delete", ctx, int64(5)).Return(nil)
	svc := newService(repo)

	rating := 4
	_, err := svc.Update(ctx, 9, 5, &review.UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	bad := 6
	_, err = svc.Update(ctx, 1, 5, &review.UpdateReviewRequest{Rating: &bad})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	r, err := svc.Update(ctx, 1, 5, &review.UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Rating)

	assert.ErrorIs(t, svc.Delete(ctx, 9, 5, false), xerrors.ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, 9, 5, true))
	assert.NoError(t, svc.Delete(ctx, 1, 5, false))
}

func TestListBySeller(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	repo.On("ListBySeller", ctx, int64(2)).Return([]*review.Review(nil), nil)
	repo.On("SellerRating", ctx, int64(2)).Return(4.666666, int64(3), nil)

	res, err := newService(repo).ListBySeller(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.7, res.AverageRating)
	assert.Equal(t, int64(3), res.Count)
	assert.NotNil(t, res.Reviews)
}
