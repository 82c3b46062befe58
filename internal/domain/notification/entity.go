// internal/domain/notification/entity.go
package notification

import (
	"context"
	"time"
)

type NotificationType string

const (
	TypeSystem       NotificationType = "system"
	TypeAd           NotificationType = "ad"
	TypePayment      NotificationType = "payment"
	TypeSubscription NotificationType = "subscription"
	TypeModeration   NotificationType = "moderation"
)

type Notification struct {
	ID        int64                  `json:"id" db:"id"`
	UserID    int64                  `json:"user_id" db:"user_id"`
	Title     string                 `json:"title" db:"title"`
	Message   string                 `json:"message" db:"message"`
	Type      NotificationType       `json:"type" db:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	IsRead    bool                   `json:"is_read" db:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

// DTOs

type CreateNotificationRequest struct {
	UserID   int64                  `json:"user_id" binding:"required"`
	Title    string                 `json:"title" binding:"required,max=255"`
	Message  string                 `json:"message" binding:"required"`
	Type     NotificationType       `json:"type"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type NotificationListFilters struct {
	IsRead   *bool             `form:"is_read"`
	Type     *NotificationType `form:"type"`
	Page     int               `form:"page"`
	PageSize int               `form:"page_size"`
}

type NotificationSummary struct {
	TotalUnread int `json:"total_unread"`
	TotalRead   int `json:"total_read"`
	Total       int `json:"total"`
}

type NotificationListResponse struct {
	Notifications []Notification      `json:"notifications"`
	Summary       NotificationSummary `json:"summary"`
	Total         int64               `json:"total"`
	Page          int                 `json:"page"`
	PageSize      int                 `json:"page_size"`
	TotalPages    int                 `json:"total_pages"`
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, id int64) (*Notification, error)
	List(ctx context.Context, userID int64, filters *NotificationListFilters) ([]Notification, int64, error)
	GetSummary(ctx context.Context, userID int64) (*NotificationSummary, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
}
