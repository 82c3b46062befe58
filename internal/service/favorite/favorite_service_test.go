package favorite

import (
	"context"
	"testing"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/favorite"
	xerrors "motormart-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memFavorites struct {
	saved map[[2]int64]bool
}

func (m *memFavorites) Add(_ context.Context, userID, adID int64) error {
	m.saved[[2]int64{userID, adID}] = true
	return nil
}

func (m *memFavorites) Remove(_ context.Context, userID, adID int64) error {
	key := [2]int64{userID, adID}
	if !m.saved[key] {
		return xerrors.ErrNotFound
	}
	delete(m.saved, key)
	return nil
}

func (m *memFavorites) Exists(_ context.Context, userID, adID int64) (bool, error) {
	return m.saved[[2]int64{userID, adID}], nil
}

func (m *memFavorites) List(_ context.Context, userID int64) ([]*favorite.Favorite, error) {
	var out []*favorite.Favorite
	for k := range m.saved {
		if k[0] == userID {
			out = append(out, &favorite.Favorite{AdID: k[1]})
		}
	}
	return out, nil
}

type stubAds map[int64]ad.Status

func (s stubAds) FindByID(_ context.Context, id int64) (*ad.AdInfo, error) {
	st, ok := s[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &ad.AdInfo{CarAd: ad.CarAd{ID: id, Status: st}}, nil
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	repo := &memFavorites{saved: map[[2]int64]bool{}}
	svc := NewFavoriteService(repo, stubAds{1: ad.StatusActive, 2: ad.StatusDeleted}, zap.NewNop())

	empty, err := svc.List(ctx, 7)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	require.NoError(t, svc.Add(ctx, 7, 1))
	require.NoError(t, svc.Add(ctx, 7, 1), "adding twice is idempotent")
	assert.ErrorIs(t, svc.Add(ctx, 7, 2), xerrors.ErrNotFound)
	assert.ErrorIs(t, svc.Add(ctx, 7, 3), xerrors.ErrNotFound)

	ok, err := svc.IsFavorite(ctx, 7, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	favs, err := svc.List(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	require.NoError(t, svc.Remove(ctx, 7, 1))
	ok, _ = svc.IsFavorite(ctx, 7, 1)
	assert.False(t, ok)
	assert.ErrorIs(t, svc.Remove(ctx, 7, 1), xerrors.ErrNotFound)
}
