// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/auth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, external_id, email, phone, password_hash, first_name, last_name, avatar_url,
	role, status, ban_reason, banned_at, ban_expires_at, banned_by, email_verified,
	last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID, &u.ExternalID, &u.Email, &u.Phone, &u.PasswordHash, &u.FirstName, &u.LastName, &u.AvatarURL,
		&u.Role, &u.Status, &u.BanReason, &u.BannedAt, &u.BanExpiresAt, &u.BannedBy, &u.EmailVerified,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ========== Users ==========

func (r *UserRepository) Create(ctx context.Context, u *auth.User) error {
	query := `
		INSERT INTO users (external_id, email, phone, password_hash, first_name, last_name,
		                   avatar_url, role, status, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		u.ExternalID, u.Email, u.Phone, u.PasswordHash, u.FirstName, u.LastName,
		u.AvatarURL, u.Role, u.Status, u.EmailVerified,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapError(err, "create user")
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*auth.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s AND status <> 'deleted'", userColumns, where)
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, "find user")
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*auth.User, error) {
	return r.findOne(ctx, "phone = $1", phone)
}

func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*auth.User, error) {
	return r.findOne(ctx, "external_id = $1", externalID)
}

// UpdateProfile writes the mutable profile and identity-link fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *auth.User) error {
	query := `
		UPDATE users
		SET external_id = $1, email = $2, phone = $3, first_name = $4, last_name = $5,
		    avatar_url = $6, email_verified = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		u.ExternalID, u.Email, u.Phone, u.FirstName, u.LastName,
		u.AvatarURL, u.EmailVerified, u.ID,
	).Scan(&u.UpdatedAt)
	return mapError(err, "update user")
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	return affected(tag, err, "update password")
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	return mapError(err, "update last login")
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role auth.Role) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	return affected(tag, err, "update role")
}

// ========== Bans ==========

func (r *UserRepository) Ban(ctx context.Context, id int64, reason string, expiresAt *time.Time, bannedBy int64, at time.Time) error {
	query := `
		UPDATE users
		SET status = 'banned', ban_reason = $1, banned_at = $2, ban_expires_at = $3,
		    banned_by = $4, updated_at = NOW()
		WHERE id = $5 AND status <> 'deleted'
	`
	tag, err := r.db.Exec(ctx, query, reason, at, expiresAt, bannedBy, id)
	return affected(tag, err, "ban user")
}

func (r *UserRepository) Unban(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET status = 'active', ban_reason = NULL, banned_at = NULL, ban_expires_at = NULL,
		    banned_by = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'banned'
	`
	tag, err := r.db.Exec(ctx, query, id)
	return affected(tag, err, "unban user")
}

// LiftExpiredBans reactivates users whose temporary ban ended before now.
func (r *UserRepository) LiftExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET status = 'active', ban_reason = NULL, banned_at = NULL, ban_expires_at = NULL,
		    banned_by = NULL, updated_at = NOW()
		WHERE status = 'banned' AND ban_expires_at IS NOT NULL AND ban_expires_at < $1
	`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, mapError(err, "lift expired bans")
	}
	return tag.RowsAffected(), nil
}

func (r *UserRepository) List(ctx context.Context, filters *auth.UserListFilters) ([]*auth.User, int64, error) {
	conditions := []string{"status <> 'deleted'"}
	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argPos))
		args = append(args, *filters.Role)
		argPos++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR phone ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			argPos, argPos, argPos, argPos,
		))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	normalizePage(&filters.Page, &filters.PageSize)
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, userColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*auth.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// ========== Refresh Tokens ==========

type RefreshTokenRepository struct {
	db *pgxpool.Pool
}

func NewRefreshTokenRepository(db *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const insertRefreshTokenQuery = `
	INSERT INTO refresh_tokens (user_id, token_hash, jti, device, ip_address, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at
`

func (r *RefreshTokenRepository) Create(ctx context.Context, t *auth.RefreshToken) error {
	err := r.db.QueryRow(ctx, insertRefreshTokenQuery, t.UserID, t.TokenHash, t.JTI, t.Device, t.IPAddress, t.ExpiresAt).
		Scan(&t.ID, &t.CreatedAt)
	return mapError(err, "store refresh token")
}

func (r *RefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*auth.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, jti, device, ip_address, expires_at, revoked_at, replaced_by, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	var t auth.RefreshToken
	err := r.db.QueryRow(ctx, query, hash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.JTI, &t.Device, &t.IPAddress,
		&t.ExpiresAt, &t.RevokedAt, &t.ReplacedBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "find refresh token")
	}
	return &t, nil
}

func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldID int64, next *auth.RefreshToken, at time.Time) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE refresh_tokens SET revoked_at = $1, replaced_by = $2 WHERE id = $3 AND revoked_at IS NULL`,
			at, next.JTI, oldID)
		if err := affected(tag, err, "rotate refresh token"); err != nil {
			return err
		}
		err = tx.QueryRow(ctx, insertRefreshTokenQuery,
			next.UserID, next.TokenHash, next.JTI, next.Device, next.IPAddress, next.ExpiresAt).
			Scan(&next.ID, &next.CreatedAt)
		return mapError(err, "store refresh token")
	})
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`, at, id)
	return mapError(err, "revoke refresh token")
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`, at, userID)
	return mapError(err, "revoke refresh tokens")
}

func (r *RefreshTokenRepository) RevokeAllExcept(ctx context.Context, userID, keepID int64, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND id <> $3 AND revoked_at IS NULL`,
		at, userID, keepID)
	return mapError(err, "revoke refresh tokens")
}
