// internal/service/auth/auth.go
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/auth"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/jwt"
	"motormart-service/internal/pkg/otp"
	"motormart-service/internal/pkg/session"
	"motormart-service/internal/pkg/socialauth"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IdentityVerifier checks a session token issued by the social identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*socialauth.Identity, error)
}

// Mailer is the part of the email service the auth flows use.
type Mailer interface {
	SendOTP(to, name, code string, ttl time.Duration) error
	SendWelcome(to, name string)
}

type AuthService struct {
	users       auth.UserRepository
	tokens      auth.RefreshTokenRepository
	jwtManager  *jwt.Manager
	rateLimiter *session.RateLimiter
	blacklist   *session.Blacklist
	otpStore    otp.Store
	otpTTL      time.Duration
	social      IdentityVerifier
	mailer      Mailer
	logger      *zap.Logger
	now         func() time.Time
}

func NewAuthService(
	users auth.UserRepository,
	tokens auth.RefreshTokenRepository,
	jwtManager *jwt.Manager,
	rateLimiter *session.RateLimiter,
	blacklist *session.Blacklist,
	otpStore otp.Store,
	otpTTL time.Duration,
	social IdentityVerifier,
	mailer Mailer,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		jwtManager:  jwtManager,
		rateLimiter: rateLimiter,
		blacklist:   blacklist,
		otpStore:    otpStore,
		otpTTL:      otpTTL,
		social:      social,
		mailer:      mailer,
		logger:      logger,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func optional(v string) *string {
	if v = strings.TrimSpace(v); v == "" {
		return nil
	}
	return &v
}

// ========== Registration ==========

// Register creates a password account and logs it in.
func (s *AuthService) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", xerrors.ErrDuplicateEntry)
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if req.Phone != "" {
		if _, err := s.users.FindByPhone(ctx, req.Phone); err == nil {
			return nil, fmt.Errorf("%w: phone already registered", xerrors.ErrDuplicateEntry)
		} else if !errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to check phone: %w", err)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)

	user := &auth.User{
		Email:        &email,
		Phone:        optional(req.Phone),
		PasswordHash: &hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         auth.RoleUser,
		Status:       auth.StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	s.mailer.SendWelcome(email, user.FirstName)

	return s.login(ctx, user, req.Device, req.IPAddress)
}

// ========== Login ==========

// Login authenticates a user with email and password.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, email)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: too many login attempts, please try again in 15 minutes", xerrors.ErrRateLimited)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == nil {
		return nil, fmt.Errorf("%w: this account signs in with a social provider", xerrors.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials (attempts remaining: %d)", xerrors.ErrUnauthorized, remaining)
	}

	if err := s.ensureActive(ctx, user); err != nil {
		return nil, err
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	return s.login(ctx, user, req.Device, req.IPAddress)
}

// ensureActive rejects banned accounts, lifting a temporary ban that already ran out.
func (s *AuthService) ensureActive(ctx context.Context, user *auth.User) error {
	switch user.Status {
	case auth.StatusActive:
		return nil
	case auth.StatusBanned:
		if user.BanExpiresAt != nil && user.BanExpiresAt.Before(s.now()) {
			if err := s.users.Unban(ctx, user.ID); err != nil && !errors.Is(err, xerrors.ErrNotFound) {
				return fmt.Errorf("failed to lift expired ban: %w", err)
			}
			user.Status = auth.StatusActive
			user.BanReason, user.BannedAt, user.BanExpiresAt = nil, nil, nil
			return nil
		}
		reason := "no reason given"
		if user.BanReason != nil {
			reason = *user.BanReason
		}
		return fmt.Errorf("%w: account is banned: %s", xerrors.ErrForbidden, reason)
	default:
		return fmt.Errorf("%w: account is not active", xerrors.ErrForbidden)
	}
}

// login issues tokens and stamps last_login_at.
func (s *AuthService) login(ctx context.Context, user *auth.User, device, ip string) (*auth.AuthResponse, error) {
	pair, _, err := s.IssueTokens(ctx, user, device, ip)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Error("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	return &auth.AuthResponse{TokenPair: *pair, User: user}, nil
}

// ========== Tokens ==========

// mint signs a token pair without persisting anything.
func (s *AuthService) mint(user *auth.User, device, ip string) (*auth.TokenPair, *auth.RefreshToken, error) {
	access, err := s.jwtManager.Generator.GenerateAccessToken(user.ID, string(user.Role), device)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtManager.Generator.GenerateRefreshToken(user.ID, device)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rec := &auth.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh.Token),
		JTI:       refresh.JTI,
		Device:    device,
		IPAddress: optional(ip),
		ExpiresAt: refresh.ExpiresAt,
	}
	pair := &auth.TokenPair{
		AccessToken:           access.Token,
		RefreshToken:          refresh.Token,
		TokenType:             "Bearer",
		ExpiresAt:             access.ExpiresAt,
		RefreshTokenExpiresAt: refresh.ExpiresAt,
	}
	return pair, rec, nil
}

// IssueTokens signs an access/refresh pair and stores the refresh token hash.
func (s *AuthService) IssueTokens(ctx context.Context, user *auth.User, device, ip string) (*auth.TokenPair, *auth.RefreshToken, error) {
	pair, rec, err := s.mint(user, device, ip)
	if err != nil {
		return nil, nil, err
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return pair, rec, nil
}

// Refresh exchanges a refresh token for a new pair. Presenting a token that was
// already rotated revokes every refresh token of its user.
func (s *AuthService) Refresh(ctx context.Context, req *auth.RefreshRequest) (*auth.AuthResponse, error) {
	claims, err := s.jwtManager.Verifier.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", xerrors.ErrUnauthorized)
	}

	rec, err := s.tokens.FindByHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh token", xerrors.ErrUnauthorized)
		}
		return nil, err
	}

	now := s.now()
	if rec.ReplacedBy != nil {
		s.logger.Warn("refresh token reuse detected, revoking all sessions",
			zap.Int64("user_id", rec.UserID),
			zap.String("jti", rec.JTI),
		)
		if err := s.tokens.RevokeAllForUser(ctx, rec.UserID, now); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: refresh token reuse detected", xerrors.ErrSessionExpired)
	}
	if !rec.Usable(now) || rec.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: refresh token revoked or expired", xerrors.ErrSessionExpired)
	}

	user, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user no longer exists", xerrors.ErrUnauthorized)
	}
	if err := s.ensureActive(ctx, user); err != nil {
		return nil, err
	}

	pair, next, err := s.mint(user, rec.Device, req.IPAddress)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Rotate(ctx, rec.ID, next, now); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: refresh token already used", xerrors.ErrSessionExpired)
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return &auth.AuthResponse{TokenPair: *pair, User: user}, nil
}

// ========== Logout ==========

// Logout blacklists the access token until it expires and revokes the refresh token.
func (s *AuthService) Logout(ctx context.Context, userID int64, accessJTI string, accessExp time.Time, refreshToken string) error {
	if err := s.blacklist.Add(ctx, accessJTI, accessExp); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if refreshToken != "" {
		rec, err := s.tokens.FindByHash(ctx, hashToken(refreshToken))
		switch {
		case err == nil && rec.UserID == userID:
			if err := s.tokens.Revoke(ctx, rec.ID, s.now()); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, xerrors.ErrNotFound):
			return err
		}
	}

	s.logger.Info("user logged out", zap.Int64("user_id", userID))
	return nil
}

// LogoutAll revokes every refresh token of the user and blacklists the current access token.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64, accessJTI string, accessExp time.Time) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID, s.now()); err != nil {
		return err
	}
	if err := s.blacklist.Add(ctx, accessJTI, accessExp); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	s.logger.Info("all sessions revoked", zap.Int64("user_id", userID))
	return nil
}

// ValidateToken verifies an access token, rejects blacklisted ones and
// checks the user is still allowed in.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}

	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", xerrors.ErrSessionExpired)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user no longer exists", xerrors.ErrUnauthorized)
	}
	if err := s.ensureActive(ctx, user); err != nil {
		return nil, err
	}
	// Role changes take effect without waiting for the token to expire.
	claims.Role = string(user.Role)
	return claims, nil
}

// ========== Profile ==========

func (s *AuthService) Me(ctx context.Context, userID int64) (*auth.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *auth.UpdateProfileRequest) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		phone := optional(*req.Phone)
		if phone != nil && (user.Phone == nil || *user.Phone != *phone) {
			if other, err := s.users.FindByPhone(ctx, *phone); err == nil && other.ID != user.ID {
				return nil, fmt.Errorf("%w: phone already registered", xerrors.ErrDuplicateEntry)
			}
		}
		user.Phone = phone
	}
	if req.AvatarURL != nil {
		user.AvatarURL = optional(*req.AvatarURL)
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new one and
// returns a fresh pair; every other refresh token is revoked.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, device string, req *auth.ChangePasswordRequest) (*auth.TokenPair, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return nil, fmt.Errorf("%w: current password is incorrect", xerrors.ErrInvalidInput)
	}
	if req.CurrentPassword == req.NewPassword {
		return nil, xerrors.Invalid("new password must differ from the current one")
	}

	if err := s.setPassword(ctx, user.ID, req.NewPassword); err != nil {
		return nil, err
	}

	pair, rec, err := s.IssueTokens(ctx, user, device, "")
	if err != nil {
		return nil, err
	}
	if err := s.tokens.RevokeAllExcept(ctx, user.ID, rec.ID, s.now()); err != nil {
		return nil, err
	}

	s.logger.Info("password changed", zap.Int64("user_id", user.ID))
	return pair, nil
}

func (s *AuthService) setPassword(ctx context.Context, userID int64, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hashed))
}
