// internal/repository/postgres/admin_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"motormart-service/internal/domain/admin"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository serves the dashboard aggregates.
type AdminRepository struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) UserStats(ctx context.Context, since time.Time) (*admin.UserStats, error) {
	var s admin.UserStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status <> 'deleted'),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'banned'),
		       COUNT(*) FILTER (WHERE status <> 'deleted' AND created_at >= $1)
		FROM users
	`, since).Scan(&s.Total, &s.Active, &s.Banned, &s.NewLast30)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return &s, nil
}

func (r *AdminRepository) AdsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM car_ads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get ad stats: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan ad stats: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *AdminRepository) PaymentStats(ctx context.Context, since time.Time) (*admin.PaymentStats, error) {
	var s admin.PaymentStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'SUCCESS'),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'SUCCESS' AND paid_at >= $1), 0),
		       COUNT(*) FILTER (WHERE status = 'PENDING')
		FROM payments
	`, since).Scan(&s.SuccessCount, &s.RevenueLast30, &s.PendingCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment stats: %w", err)
	}
	return &s, nil
}

func (r *AdminRepository) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func (r *AdminRepository) OpenReports(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM ad_reports WHERE status = 'PENDING'`)
}

func (r *AdminRepository) OpenComplaints(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM complaints WHERE status IN ('OPEN', 'IN_PROGRESS')`)
}

func (r *AdminRepository) ActiveSubscriptions(ctx context.Context, at time.Time) (int64, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM user_subscriptions
		WHERE status = 'ACTIVE' AND start_date <= $1 AND end_date >= $1
	`, at)
}
