// internal/websocket/handler/notification.go
package handler

import (
	"context"
	"fmt"

	wstypes "motormart-service/internal/domain/websocket"
	ws "motormart-service/internal/websocket"
)

// NotificationMarker is the part of the notification service used over the socket.
type NotificationMarker interface {
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
}

type NotificationHandler struct {
	notifications NotificationMarker
}

func NewNotificationHandler(notifications NotificationMarker) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeNotificationRead,
		wstypes.EventTypeNotificationReadAll,
	}
}

// HandleMessage processes notification-related messages. Updated unread
// counts reach the client through the service's own push.
func (h *NotificationHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeNotificationRead:
		var req wstypes.ReadRequest
		if err := ws.DecodeData(msg.Data, &req); err != nil || req.NotificationID <= 0 {
			return fmt.Errorf("notification_id is required")
		}
		return h.notifications.MarkAsRead(ctx, client.UserID(), req.NotificationID)

	case wstypes.EventTypeNotificationReadAll:
		_, err := h.notifications.MarkAllAsRead(ctx, client.UserID())
		return err

	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}
