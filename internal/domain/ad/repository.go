// internal/domain/ad/repository.go
package ad

import (
	"context"
	"time"
)

// Bundle is everything written together when an ad is created or edited.
type Bundle struct {
	Ad         *CarAd
	Details    *CarDetails
	Images     []AdImage
	Attributes []AdAttributeValue
}

type Repository interface {
	// Ad CRUD
	CreateWithUsage(ctx context.Context, b *Bundle, usage *UsageEntry) error
	FindByID(ctx context.Context, id int64) (*AdInfo, error)
	Update(ctx context.Context, b *Bundle, replaceImages, replaceAttributes bool) error
	UpdateStatus(ctx context.Context, id int64, status Status, reason *string) error
	Renew(ctx context.Context, id int64, expiry time.Time, usage *UsageEntry) error
	IncrementViews(ctx context.Context, id int64) error
	List(ctx context.Context, filters *ListFilters, activeOnly bool) ([]AdInfo, int64, error)
	ListFeatured(ctx context.Context, limit int) ([]AdInfo, error)

	// Sweeps
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListExpiringUnwarned(ctx context.Context, from, to time.Time) ([]ExpiringAd, error)
	MarkExpiryWarned(ctx context.Context, id int64) error
}
