// internal/service/boost/boost_service.go
package boost

import (
	"context"
	"fmt"
	"time"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/boost"
	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// DefaultDurationDays applies when a boost item has no DURATION_DAYS feature.
const DefaultDurationDays = 7

type AdReader interface {
	FindByID(ctx context.Context, id int64) (*ad.AdInfo, error)
}

type BoostService struct {
	repo    boost.Repository
	pricing pricing.Repository
	ads     AdReader
	logger  *zap.Logger
}

func NewBoostService(repo boost.Repository, pricingRepo pricing.Repository, ads AdReader, logger *zap.Logger) *BoostService {
	return &BoostService{
		repo:    repo,
		pricing: pricingRepo,
		ads:     ads,
		logger:  logger,
	}
}

// ListBoostOptions returns every active boost item with its active rules.
func (s *BoostService) ListBoostOptions(ctx context.Context) ([]*boost.BoostOption, error) {
	active := pricing.ItemActive
	options := []*boost.BoostOption{}

	for _, itemType := range []pricing.ItemType{pricing.ItemBoost, pricing.ItemBoostItem} {
		it := itemType
		items, err := s.pricing.ListItems(ctx, &pricing.PriceItemFilters{ItemType: &it, Status: &active})
		if err != nil {
			return nil, fmt.Errorf("failed to list boost items: %w", err)
		}

		for _, item := range items {
			rules, err := s.pricing.ListRules(ctx, item.ID, true)
			if err != nil {
				return nil, fmt.Errorf("failed to list boost rules: %w", err)
			}
			features, err := s.pricing.ListFeatures(ctx, item.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list boost features: %w", err)
			}

			boostType, _ := pricing.FeatureValue(features, pricing.FeatureBoostType)
			options = append(options, &boost.BoostOption{
				Item:         item,
				Rules:        rules,
				BoostType:    boost.ParseType(boostType),
				DurationDays: pricing.FeatureDays(features, pricing.FeatureDurationDays, DefaultDurationDays),
			})
		}
	}
	return options, nil
}

// ListAdBoosts returns an ad's boost history to its owner or an admin.
func (s *BoostService) ListAdBoosts(ctx context.Context, userID, adID int64, isAdmin bool) ([]*boost.AdBoost, error) {
	info, err := s.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if info.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: not the owner of this ad", xerrors.ErrForbidden)
	}
	return s.repo.ListByAd(ctx, adID)
}

// ExpireEnded closes boosts whose window has passed.
func (s *BoostService) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.repo.ExpireEnded(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire boosts: %w", err)
	}
	if expired > 0 {
		s.logger.Info("boosts expired", zap.Int64("count", expired))
	}
	return expired, nil
}
