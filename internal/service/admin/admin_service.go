// internal/service/admin/admin_service.go
package admin

import (
	"context"
	"fmt"
	"time"

	"motormart-service/internal/domain/admin"
	"motormart-service/internal/domain/auth"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*auth.User, error)
	List(ctx context.Context, filters *auth.UserListFilters) ([]*auth.User, int64, error)
	UpdateRole(ctx context.Context, id int64, role auth.Role) error
}

type SessionKicker interface {
	ForceLogout(userID int64, reason string)
}

type AdminService struct {
	stats    admin.Repository
	users    UserDirectory
	sessions SessionKicker
	logger   *zap.Logger
	now      func() time.Time
}

func NewAdminService(stats admin.Repository, users UserDirectory, sessions SessionKicker, logger *zap.Logger) *AdminService {
	return &AdminService{
		stats:    stats,
		users:    users,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Stats builds the dashboard overview. Windowed figures cover the last 30 days.
func (s *AdminService) Stats(ctx context.Context) (*admin.DashboardStats, error) {
	now := s.now()
	since := now.AddDate(0, 0, -30)

	users, err := s.stats.UserStats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	ads, err := s.stats.AdsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ad stats: %w", err)
	}
	payments, err := s.stats.PaymentStats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment stats: %w", err)
	}
	reports, err := s.stats.OpenReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	complaints, err := s.stats.OpenComplaints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count complaints: %w", err)
	}
	subs, err := s.stats.ActiveSubscriptions(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	if ads == nil {
		ads = map[string]int64{}
	}

	return &admin.DashboardStats{
		Users:               *users,
		AdsByStatus:         ads,
		Payments:            *payments,
		OpenReports:         reports,
		OpenComplaints:      complaints,
		ActiveSubscriptions: subs,
		GeneratedAt:         now,
	}, nil
}

func (s *AdminService) ListUsers(ctx context.Context, filters *auth.UserListFilters) (*auth.UserListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	users, total, err := s.users.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []*auth.User{}
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}
	return &auth.UserListResponse{
		Users:      users,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// ChangeRole promotes or demotes a user. Super admins keep their role.
func (s *AdminService) ChangeRole(ctx context.Context, actorID, userID int64, role auth.Role) (*auth.User, error) {
	if role != auth.RoleUser && role != auth.RoleAdmin {
		return nil, xerrors.Invalid("role must be user or admin")
	}
	if actorID == userID {
		return nil, xerrors.Invalid("you cannot change your own role")
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == auth.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: super admin role cannot be changed", xerrors.ErrForbidden)
	}
	if u.Role == role {
		return u, nil
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	previous := u.Role
	u.Role = role

	// Outstanding access tokens still carry the old role claim.
	if s.sessions != nil {
		s.sessions.ForceLogout(userID, "role_changed")
	}

	s.logger.Info("user role changed",
		zap.Int64("user_id", userID),
		zap.Int64("by", actorID),
		zap.String("from", string(previous)),
		zap.String("to", string(role)))
	return u, nil
}
