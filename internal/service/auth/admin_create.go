// internal/service/auth/admin_create.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"motormart-service/internal/domain/auth"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EnsureSuperAdmin creates the bootstrap super admin on startup, or promotes
// an existing account with that email.
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, email, password, fullName string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.logger.Info("super admin credentials not configured, skipping bootstrap")
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role == auth.RoleSuperAdmin {
			s.logger.Info("super admin already exists, skipping creation")
			return nil
		}
		if err := s.users.UpdateRole(ctx, existing.ID, auth.RoleSuperAdmin); err != nil {
			return fmt.Errorf("failed to promote super admin: %w", err)
		}
		s.logger.Info("existing user promoted to super admin", zap.Int64("user_id", existing.ID))
		return nil
	}
	if !errors.Is(err, xerrors.ErrNotFound) {
		return fmt.Errorf("failed to check super admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)

	first, last, _ := strings.Cut(strings.TrimSpace(fullName), " ")
	user := &auth.User{
		Email:         &email,
		PasswordHash:  &hash,
		FirstName:     first,
		LastName:      strings.TrimSpace(last),
		Role:          auth.RoleSuperAdmin,
		Status:        auth.StatusActive,
		EmailVerified: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	s.logger.Info("super admin created successfully",
		zap.String("email", email),
		zap.Int64("user_id", user.ID),
	)
	return nil
}
