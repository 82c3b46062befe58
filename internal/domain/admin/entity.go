// internal/domain/admin/entity.go
package admin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type UserStats struct {
	Total     int64 `json:"total" db:"total"`
	Active    int64 `json:"active" db:"active"`
	Banned    int64 `json:"banned" db:"banned"`
	NewLast30 int64 `json:"new_last_30_days" db:"new_last_30"`
}

type PaymentStats struct {
	SuccessCount  int64           `json:"success_count" db:"success_count"`
	RevenueLast30 decimal.Decimal `json:"revenue_last_30_days" db:"revenue_last_30"`
	PendingCount  int64           `json:"pending_count" db:"pending_count"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	Users               UserStats        `json:"users"`
	AdsByStatus         map[string]int64 `json:"ads_by_status"`
	Payments            PaymentStats     `json:"payments"`
	OpenReports         int64            `json:"open_reports"`
	OpenComplaints      int64            `json:"open_complaints"`
	ActiveSubscriptions int64            `json:"active_subscriptions"`
	GeneratedAt         time.Time        `json:"generated_at"`
}

type Repository interface {
	UserStats(ctx context.Context, since time.Time) (*UserStats, error)
	AdsByStatus(ctx context.Context) (map[string]int64, error)
	PaymentStats(ctx context.Context, since time.Time) (*PaymentStats, error)
	OpenReports(ctx context.Context) (int64, error)
	OpenComplaints(ctx context.Context) (int64, error)
	ActiveSubscriptions(ctx context.Context, at time.Time) (int64, error)
}
