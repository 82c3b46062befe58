// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"motormart-service/internal/domain/payment"
	"motormart-service/internal/domain/pricing"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionSelect = `
	SELECT us.id, us.user_id, us.package_id, pi.name, us.payment_id, us.start_date, us.end_date,
	       us.status, us.cancelled_at, us.created_at, us.updated_at
	FROM user_subscriptions us
	JOIN price_items pi ON pi.id = us.package_id`

func scanSubscription(row interface{ Scan(...interface{}) error }) (*pricing.UserSubscription, error) {
	var s pricing.UserSubscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.PackageID, &s.PackageName, &s.PaymentID, &s.StartDate, &s.EndDate,
		&s.Status, &s.CancelledAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindActiveForUser returns the ACTIVE subscription covering at; the latest end date wins.
func (r *SubscriptionRepository) FindActiveForUser(ctx context.Context, userID int64, at time.Time) (*pricing.UserSubscription, error) {
	query := subscriptionSelect + `
		WHERE us.user_id = $1 AND us.status = 'ACTIVE' AND us.start_date <= $2 AND us.end_date >= $2
		ORDER BY us.end_date DESC, us.id DESC
		LIMIT 1
	`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, userID, at))
	if err != nil {
		return nil, mapError(err, "find active subscription")
	}
	return s, nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id int64) (*pricing.UserSubscription, error) {
	s, err := scanSubscription(r.db.QueryRow(ctx, subscriptionSelect+" WHERE us.id = $1", id))
	if err != nil {
		return nil, mapError(err, "find subscription")
	}
	return s, nil
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]*pricing.UserSubscription, error) {
	rows, err := r.db.Query(ctx, subscriptionSelect+" WHERE us.user_id = $1 ORDER BY us.start_date DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*pricing.UserSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepository) Cancel(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_subscriptions SET status = 'CANCELLED', cancelled_at = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'ACTIVE'
	`, at, id)
	return affected(tag, err, "cancel subscription")
}

func (r *SubscriptionRepository) ListActiveUserIDs(ctx context.Context, at time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT user_id FROM user_subscriptions
		WHERE status = 'ACTIVE' AND start_date <= $1 AND end_date >= $1
	`, at)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ========== Usage ==========

type UsageRepository struct {
	db *pgxpool.Pool
}

func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) LedgerSince(ctx context.Context, userID int64, since time.Time) ([]pricing.UsageRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.vehicle_type_id, vt.name, l.created_at
		FROM ad_usage_ledger l
		JOIN vehicle_types vt ON vt.id = l.vehicle_type_id
		WHERE l.user_id = $1 AND l.created_at >= $2
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage ledger: %w", err)
	}
	defer rows.Close()

	records := []pricing.UsageRecord{}
	for rows.Next() {
		var rec pricing.UsageRecord
		var typeID int64
		if err := rows.Scan(&typeID, &rec.VehicleTypeName, &rec.At); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		rec.VehicleTypeID = &typeID
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LegacyOrderIDsSince returns successful pay-per-post order ids (V-<type>-<ref>).
func (r *UsageRepository) LegacyOrderIDsSince(ctx context.Context, userID int64, since time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id FROM payments
		WHERE user_id = $1 AND status = 'SUCCESS' AND created_at >= $2 AND order_id LIKE $3
	`, userID, since, payment.LegacyUsagePrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy usage: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan legacy usage: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
