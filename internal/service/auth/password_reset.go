// internal/service/auth/password_reset.go
package auth

import (
	"context"
	"errors"
	"fmt"

	"motormart-service/internal/domain/auth"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/otp"

	"go.uber.org/zap"
)

var errResetUnavailable = fmt.Errorf("%w: password reset is temporarily unavailable", xerrors.ErrFeatureUnavailable)

// ForgotPassword emails a reset code. Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, req *auth.ForgotPasswordRequest) error {
	email := normalizeEmail(req.Email)

	allowed, err := s.rateLimiter.CheckPasswordResetAttempt(ctx, email)
	if err != nil {
		s.logger.Error("password reset rate limiter unavailable", zap.Error(err))
		return errResetUnavailable
	}
	if !allowed {
		return fmt.Errorf("%w: too many reset requests, please try again later", xerrors.ErrRateLimited)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.Status != auth.StatusActive {
		return nil
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	if err := s.otpStore.Set(ctx, otp.ResetKey(user.ID), code, s.otpTTL); err != nil {
		s.logger.Error("failed to store reset code", zap.Int64("user_id", user.ID), zap.Error(err))
		return errResetUnavailable
	}

	if err := s.mailer.SendOTP(email, user.FirstName, code, s.otpTTL); err != nil {
		s.logger.Error("failed to send reset code", zap.Int64("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("%w: could not send the reset code", xerrors.ErrFeatureUnavailable)
	}

	s.logger.Info("password reset code sent", zap.Int64("user_id", user.ID))
	return nil
}

// VerifyOTP consumes a valid reset code and returns a short-lived reset token.
func (s *AuthService) VerifyOTP(ctx context.Context, req *auth.VerifyOTPRequest) (*auth.VerifyOTPResponse, error) {
	invalid := xerrors.Invalid("invalid or expired code")

	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	allowed, err := s.rateLimiter.CheckOTPAttempt(ctx, user.ID)
	if err != nil {
		return nil, errResetUnavailable
	}
	if !allowed {
		return nil, fmt.Errorf("%w: too many attempts, request a new code later", xerrors.ErrRateLimited)
	}

	key := otp.ResetKey(user.ID)
	stored, err := s.otpStore.Get(ctx, key)
	switch {
	case errors.Is(err, otp.ErrNotFound):
		return nil, invalid
	case err != nil:
		return nil, errResetUnavailable
	}
	if !otp.Matches(stored, req.Code) {
		return nil, invalid
	}

	if err := s.otpStore.Delete(ctx, key); err != nil {
		return nil, errResetUnavailable
	}
	if err := s.rateLimiter.ResetOTPAttempts(ctx, user.ID); err != nil {
		s.logger.Warn("failed to reset otp attempts", zap.Error(err))
	}

	token, err := s.jwtManager.Generator.GeneratePasswordResetToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}
	return &auth.VerifyOTPResponse{ResetToken: token.Token, ExpiresAt: token.ExpiresAt}, nil
}

// ResetPassword sets a new password and signs the user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, req *auth.ResetPasswordRequest) error {
	claims, err := s.jwtManager.Verifier.VerifyPasswordResetToken(req.ResetToken)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired reset token", xerrors.ErrInvalidInput)
	}

	if err := s.setPassword(ctx, claims.UserID, req.NewPassword); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, claims.UserID, s.now()); err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.Int64("user_id", claims.UserID))
	return nil
}
