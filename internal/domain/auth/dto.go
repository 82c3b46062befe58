// internal/domain/auth/dto.go
package auth

import "time"

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"omitempty,e164"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Device    string `json:"device"`
	IPAddress string `json:"-"`
}

type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Device    string `json:"device"`
	IPAddress string `json:"-"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	IPAddress    string `json:"-"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SocialLoginRequest struct {
	SessionToken string `json:"session_token" binding:"required"`
	Device       string `json:"device"`
	IPAddress    string `json:"-"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,e164"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

// TokenPair is returned by every flow that logs a user in.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	TokenType             string    `json:"token_type"`
	ExpiresAt             time.Time `json:"expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

type AuthResponse struct {
	TokenPair
	User *User `json:"user"`
}

type VerifyOTPResponse struct {
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// UserListFilters drives the admin user list.
type UserListFilters struct {
	Status   *UserStatus `form:"status"`
	Role     *Role       `form:"role"`
	Search   string      `form:"search"`
	Page     int         `form:"page"`
	PageSize int         `form:"page_size"`
}

type UserListResponse struct {
	Users      []*User `json:"users"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

type BanUserRequest struct {
	Reason       string `json:"reason" binding:"required,max=500"`
	DurationDays *int   `json:"duration_days" binding:"omitempty,min=1,max=3650"`
}

type ChangeRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=user admin"`
}
