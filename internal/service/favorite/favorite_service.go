// internal/service/favorite/favorite_service.go
package favorite

import (
	"context"
	"fmt"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/favorite"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type AdReader interface {
	FindByID(ctx context.Context, id int64) (*ad.AdInfo, error)
}

type FavoriteService struct {
	repo   favorite.Repository
	ads    AdReader
	logger *zap.Logger
}

func NewFavoriteService(repo favorite.Repository, ads AdReader, logger *zap.Logger) *FavoriteService {
	return &FavoriteService{repo: repo, ads: ads, logger: logger}
}

// Add saves an ad for the user. Saving the same ad twice is not an error.
func (s *FavoriteService) Add(ctx context.Context, userID, adID int64) error {
	info, err := s.ads.FindByID(ctx, adID)
	if err != nil {
		return err
	}
	if info.Status == ad.StatusDeleted {
		return xerrors.ErrNotFound
	}
	if err := s.repo.Add(ctx, userID, adID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	s.logger.Debug("favorite added", zap.Int64("user_id", userID), zap.Int64("ad_id", adID))
	return nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, adID int64) error {
	return s.repo.Remove(ctx, userID, adID)
}

func (s *FavoriteService) List(ctx context.Context, userID int64) ([]*favorite.Favorite, error) {
	favs, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	if favs == nil {
		favs = []*favorite.Favorite{}
	}
	return favs, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, adID int64) (bool, error) {
	return s.repo.Exists(ctx, userID, adID)
}
