// internal/repository/postgres/boost_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"motormart-service/internal/domain/boost"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BoostRepository struct {
	db *pgxpool.Pool
}

func NewBoostRepository(db *pgxpool.Pool) *BoostRepository {
	return &BoostRepository{db: db}
}

func (r *BoostRepository) ListByAd(ctx context.Context, adID int64) ([]*boost.AdBoost, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ad_id, user_id, price_item_id, boost_type, duration_days, starts_at, ends_at,
		       status, payment_id, created_at, updated_at
		FROM ad_boosts
		WHERE ad_id = $1
		ORDER BY created_at DESC
	`, adID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boosts: %w", err)
	}
	defer rows.Close()

	boosts := []*boost.AdBoost{}
	for rows.Next() {
		var b boost.AdBoost
		if err := rows.Scan(
			&b.ID, &b.AdID, &b.UserID, &b.PriceItemID, &b.BoostType, &b.DurationDays, &b.StartsAt, &b.EndsAt,
			&b.Status, &b.PaymentID, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan boost: %w", err)
		}
		boosts = append(boosts, &b)
	}
	return boosts, rows.Err()
}

// ExpireEnded flips ACTIVE boosts whose window closed to EXPIRED.
func (r *BoostRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE ad_boosts SET status = 'EXPIRED', updated_at = NOW()
		WHERE status = 'ACTIVE' AND ends_at <= $1
	`, now)
	if err != nil {
		return 0, mapError(err, "expire boosts")
	}
	return tag.RowsAffected(), nil
}
