// internal/service/auth/social.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"motormart-service/internal/domain/auth"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/socialauth"

	"go.uber.org/zap"
)

// SocialLogin signs in with a provider session token, linking or creating the
// local account. Lookup order is external id, then email, then phone.
func (s *AuthService) SocialLogin(ctx context.Context, req *auth.SocialLoginRequest) (*auth.AuthResponse, error) {
	if s.social == nil {
		return nil, fmt.Errorf("%w: social login is not configured", xerrors.ErrFeatureUnavailable)
	}

	id, err := s.social.Verify(ctx, req.SessionToken)
	if err != nil {
		s.logger.Warn("social token rejected", zap.Error(err))
		if errors.Is(err, socialauth.ErrProvider) {
			return nil, fmt.Errorf("%w: %w", xerrors.ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("%w: %w: %v", xerrors.ErrUnauthorized, socialauth.ErrProvider, err)
	}
	id.Email = normalizeEmail(id.Email)

	user, err := s.matchIdentity(ctx, id)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &auth.User{Role: auth.RoleUser, Status: auth.StatusActive}
		MergeIdentity(user, id)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user created from social identity", zap.Int64("user_id", user.ID))
		if user.Email != nil {
			s.mailer.SendWelcome(*user.Email, user.FirstName)
		}
	} else {
		if err := s.ensureActive(ctx, user); err != nil {
			return nil, err
		}
		if MergeIdentity(user, id) {
			if err := s.users.UpdateProfile(ctx, user); err != nil {
				return nil, err
			}
		}
	}

	return s.login(ctx, user, req.Device, req.IPAddress)
}

func (s *AuthService) matchIdentity(ctx context.Context, id *socialauth.Identity) (*auth.User, error) {
	lookups := []struct {
		value string
		find  func(context.Context, string) (*auth.User, error)
	}{
		{id.ExternalID, s.users.FindByExternalID},
		{id.Email, s.users.FindByEmail},
		{id.Phone, s.users.FindByPhone},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		user, err := l.find(ctx, l.value)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to match identity: %w", err)
		}
	}
	return nil, nil
}

// MergeIdentity copies provider fields into empty local fields. Fields that
// already hold a value are kept. It reports whether anything changed.
func MergeIdentity(u *auth.User, id *socialauth.Identity) bool {
	changed := false
	fill := func(dst **string, v string) {
		if v = strings.TrimSpace(v); v != "" && (*dst == nil || **dst == "") {
			*dst = &v
			changed = true
		}
	}
	fillText := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" && *dst == "" {
			*dst = v
			changed = true
		}
	}

	fill(&u.ExternalID, id.ExternalID)
	fill(&u.Email, id.Email)
	fill(&u.Phone, id.Phone)
	fill(&u.AvatarURL, id.AvatarURL)
	fillText(&u.FirstName, id.FirstName)
	fillText(&u.LastName, id.LastName)

	if id.EmailVerified && !u.EmailVerified && u.Email != nil && strings.EqualFold(*u.Email, id.Email) {
		u.EmailVerified = true
		changed = true
	}
	return changed
}
