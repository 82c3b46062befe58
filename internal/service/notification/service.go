// internal/service/notification/service.go
package notification

import (
	"context"
	"errors"
	"fmt"

	"motormart-service/internal/domain/notification"
	wstypes "motormart-service/internal/domain/websocket"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// Pusher delivers real-time updates to a user's open connections.
type Pusher interface {
	PushNotification(userID int64, data *wstypes.NotificationData)
	PushUnreadCount(userID int64, unread int)
}

type NotificationService struct {
	repo   notification.Repository
	hub    Pusher
	logger *zap.Logger
}

func NewNotificationService(repo notification.Repository, hub Pusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		hub:    hub,
		logger: logger,
	}
}

// CreateAndPush stores a notification and pushes it plus the new unread count.
func (s *NotificationService) CreateAndPush(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	n := &notification.Notification{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Metadata: req.Metadata,
	}
	if n.Type == "" {
		n.Type = notification.TypeSystem
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.hub != nil {
		s.hub.PushNotification(n.UserID, &wstypes.NotificationData{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			IsRead:    n.IsRead,
			Metadata:  n.Metadata,
			CreatedAt: n.CreatedAt,
		})
		s.pushCount(ctx, n.UserID)
	}

	return n, nil
}

// Notify is the fire-and-forget form used by other services; failures are logged.
func (s *NotificationService) Notify(ctx context.Context, userID int64, typ notification.NotificationType, title, message string, metadata map[string]interface{}) {
	_, err := s.CreateAndPush(ctx, &notification.CreateNotificationRequest{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     typ,
		Metadata: metadata,
	})
	if err != nil {
		s.logger.Warn("failed to send notification",
			zap.Int64("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
	}
}

// GetByID returns the notification when it belongs to userID.
func (s *NotificationService) GetByID(ctx context.Context, userID, id int64) (*notification.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	return n, nil
}

// List returns a page of notifications together with the read summary.
func (s *NotificationService) List(ctx context.Context, userID int64, filters *notification.NotificationListFilters) (*notification.NotificationListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	notifications, total, err := s.repo.List(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	summary, err := s.repo.GetSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &notification.NotificationListResponse{
		Notifications: notifications,
		Summary:       *summary,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    totalPages,
	}, nil
}

func (s *NotificationService) GetSummary(ctx context.Context, userID int64) (*notification.NotificationSummary, error) {
	return s.repo.GetSummary(ctx, userID)
}

// MarkAsRead is idempotent for notifications the user already read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id int64) error {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		if !errors.Is(err, xerrors.ErrNotFound) {
			return fmt.Errorf("failed to mark as read: %w", err)
		}
		n, findErr := s.GetByID(ctx, userID, id)
		if findErr != nil {
			return findErr
		}
		if n.IsRead {
			return nil
		}
		return err
	}

	s.pushCount(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all as read: %w", err)
	}

	if s.hub != nil {
		s.hub.PushUnreadCount(userID, 0)
	}
	return updated, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	s.pushCount(ctx, userID)
	return nil
}

func (s *NotificationService) pushCount(ctx context.Context, userID int64) {
	if s.hub == nil {
		return
	}
	summary, err := s.repo.GetSummary(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load unread count", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	s.hub.PushUnreadCount(userID, summary.TotalUnread)
}
