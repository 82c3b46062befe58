// internal/handlers/auth/auth_handler.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"motormart-service/internal/domain/auth"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"
	"motormart-service/internal/pkg/socialauth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CodeProviderError marks failures of the social identity provider.
const CodeProviderError = "AUTH_PROVIDER_ERROR"

type Service interface {
	Register(ctx context.Context, req *auth.RegisterRequest) (*auth.AuthResponse, error)
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthResponse, error)
	Refresh(ctx context.Context, req *auth.RefreshRequest) (*auth.AuthResponse, error)
	SocialLogin(ctx context.Context, req *auth.SocialLoginRequest) (*auth.AuthResponse, error)
	Logout(ctx context.Context, userID int64, accessJTI string, accessExp time.Time, refreshToken string) error
	LogoutAll(ctx context.Context, userID int64, accessJTI string, accessExp time.Time) error
	Me(ctx context.Context, userID int64) (*auth.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *auth.UpdateProfileRequest) (*auth.User, error)
	ChangePassword(ctx context.Context, userID int64, device string, req *auth.ChangePasswordRequest) (*auth.TokenPair, error)
	ForgotPassword(ctx context.Context, req *auth.ForgotPasswordRequest) error
	VerifyOTP(ctx context.Context, req *auth.VerifyOTPRequest) (*auth.VerifyOTPResponse, error)
	ResetPassword(ctx context.Context, req *auth.ResetPasswordRequest) error
}

type AuthHandler struct {
	authService Service
	logger      *zap.Logger
}

func NewAuthHandler(authService Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Registration & Login ==========

func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	req.IPAddress = c.ClientIP()
	req.Device = deviceOf(c, req.Device)

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("registration failed", zap.String("email", req.Email), zap.Error(err))
		response.FromError(c, "registration failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	req.IPAddress = c.ClientIP()
	req.Device = deviceOf(c, req.Device)

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		response.FromError(c, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	req.IPAddress = c.ClientIP()

	resp, err := h.authService.Refresh(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "token refresh failed", err)
		return
	}

	response.Success(c, http.StatusOK, "token refreshed", resp)
}

// SocialLogin exchanges an identity provider session token for local tokens.
func (h *AuthHandler) SocialLogin(c *gin.Context) {
	var req auth.SocialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	req.IPAddress = c.ClientIP()
	req.Device = deviceOf(c, req.Device)

	resp, err := h.authService.SocialLogin(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, socialauth.ErrProvider) {
			response.Error(c, http.StatusUnauthorized, "social login failed", err, gin.H{"code": CodeProviderError})
			return
		}
		response.FromError(c, "social login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", resp)
}

// ========== Session ==========

func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req auth.LogoutRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.Logout(c.Request.Context(), userID, middleware.GetJTI(c), middleware.GetTokenExpiry(c), req.RefreshToken); err != nil {
		h.logger.Error("logout failed", zap.Int64("user_id", userID), zap.Error(err))
		response.FromError(c, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	if err := h.authService.LogoutAll(c.Request.Context(), userID, middleware.GetJTI(c), middleware.GetTokenExpiry(c)); err != nil {
		response.FromError(c, "logout all failed", err)
		return
	}

	response.Success(c, http.StatusOK, "all sessions logged out", nil)
}

// ========== Profile ==========

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to load profile", err)
		return
	}
	response.Success(c, http.StatusOK, "profile retrieved", user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req auth.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "failed to update profile", err)
		return
	}
	response.Success(c, http.StatusOK, "profile updated", user)
}

// ========== Password Management ==========

// ChangePassword returns a fresh token pair; every other session is revoked.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req auth.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	tokens, err := h.authService.ChangePassword(c.Request.Context(), middleware.MustGetUserID(c), middleware.GetDevice(c), &req)
	if err != nil {
		response.FromError(c, "password change failed", err)
		return
	}
	response.Success(c, http.StatusOK, "password changed successfully", tokens)
}

// ForgotPassword always answers the same way so accounts cannot be enumerated.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req auth.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), &req); err != nil {
		h.logger.Error("forgot password failed", zap.String("email", req.Email), zap.Error(err))
		response.FromError(c, "failed to process request", err)
		return
	}

	response.Success(c, http.StatusOK, "if the email is registered, a code has been sent", nil)
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req auth.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	resp, err := h.authService.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "code verification failed", err)
		return
	}
	response.Success(c, http.StatusOK, "code verified", resp)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req auth.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		response.FromError(c, "password reset failed", err)
		return
	}
	response.Success(c, http.StatusOK, "password reset successful", nil)
}

func deviceOf(c *gin.Context, device string) string {
	if device != "" {
		return device
	}
	ua := c.GetHeader("User-Agent")
	if len(ua) > 100 {
		ua = ua[:100]
	}
	return ua
}
