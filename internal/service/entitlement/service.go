// internal/service/entitlement/service.go
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motormart-service/internal/domain/pricing"
	"motormart-service/internal/domain/taxonomy"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// PackageReader is the part of the pricing store the engine reads.
type PackageReader interface {
	FindItemByID(ctx context.Context, id int64) (*pricing.PriceItem, error)
	ListAdLimits(ctx context.Context, packageID int64) ([]*pricing.PackageAdLimit, error)
	ListFeatures(ctx context.Context, packageID int64) ([]*pricing.PackageFeature, error)
}

type TypeLister interface {
	ListTypes(ctx context.Context, activeOnly bool) ([]*taxonomy.VehicleType, error)
}

type Service struct {
	subs     pricing.SubscriptionRepository
	packages PackageReader
	usage    pricing.UsageRepository
	types    TypeLister
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(
	subs pricing.SubscriptionRepository,
	packages PackageReader,
	usage pricing.UsageRepository,
	types TypeLister,
	logger *zap.Logger,
) *Service {
	return &Service{
		subs:     subs,
		packages: packages,
		usage:    usage,
		types:    types,
		logger:   logger,
		now:      time.Now,
	}
}

// ForUser computes the user's current entitlement. A user without an active
// subscription gets HasPackage=false rather than an error.
func (s *Service) ForUser(ctx context.Context, userID int64) (*pricing.Entitlement, error) {
	now := s.now()

	sub, err := s.subs.FindActiveForUser(ctx, userID, now)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return Compute(Input{Now: now}), nil
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	in := Input{Subscription: sub, Now: now}

	if in.Package, err = s.packages.FindItemByID(ctx, sub.PackageID); err != nil {
		return nil, fmt.Errorf("failed to load package: %w", err)
	}
	if in.Limits, err = s.packages.ListAdLimits(ctx, sub.PackageID); err != nil {
		return nil, fmt.Errorf("failed to load ad limits: %w", err)
	}
	if in.Features, err = s.packages.ListFeatures(ctx, sub.PackageID); err != nil {
		return nil, fmt.Errorf("failed to load package features: %w", err)
	}
	if in.Ledger, err = s.usage.LedgerSince(ctx, userID, sub.StartDate); err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}
	if in.LegacyOrders, err = s.usage.LegacyOrderIDsSince(ctx, userID, sub.StartDate); err != nil {
		return nil, fmt.Errorf("failed to load legacy usage: %w", err)
	}
	if len(in.LegacyOrders) > 0 {
		if in.Types, err = s.types.ListTypes(ctx, false); err != nil {
			return nil, fmt.Errorf("failed to load vehicle types: %w", err)
		}
	}

	return Compute(in), nil
}

// CanPost reports whether the user may post one more ad of the vehicle type.
// The computed entitlement is returned either way so callers can show it.
func (s *Service) CanPost(ctx context.Context, userID, vehicleTypeID int64) (bool, *pricing.Entitlement, error) {
	ent, err := s.ForUser(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	allowed := ent.CanPost(vehicleTypeID)
	if !allowed {
		s.logger.Info("posting quota exhausted",
			zap.Int64("user_id", userID),
			zap.Int64("vehicle_type_id", vehicleTypeID),
			zap.Bool("has_package", ent.HasPackage),
		)
	}
	return allowed, ent, nil
}
