// internal/domain/auth/repository.go
package auth

import (
	"context"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateRole(ctx context.Context, id int64, role Role) error
	Ban(ctx context.Context, id int64, reason string, expiresAt *time.Time, bannedBy int64, at time.Time) error
	Unban(ctx context.Context, id int64) error
	LiftExpiredBans(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filters *UserListFilters) ([]*User, int64, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, t *RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*RefreshToken, error)
	// Rotate revokes old, links it to next's jti and stores next, atomically.
	// It returns ErrNotFound when old was already revoked.
	Rotate(ctx context.Context, oldID int64, next *RefreshToken, at time.Time) error
	Revoke(ctx context.Context, id int64, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID int64, at time.Time) error
	RevokeAllExcept(ctx context.Context, userID, keepID int64, at time.Time) error
}
