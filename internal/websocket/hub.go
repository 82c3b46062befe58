// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"
	"time"

	wstypes "motormart-service/internal/domain/websocket"
	"motormart-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// Authenticator validates an access token presented on connect.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

// Hub maintains the set of active clients and routes messages to them.
type Hub struct {
	// Registered clients by user ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	dispatcher *dispatcher
	auth       Authenticator
	relay      *Relay
	logger     *zap.Logger
}

type BroadcastMessage struct {
	UserIDs []int64
	Message *wstypes.WSMessage
}

func NewHub(auth Authenticator, relay *Relay, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		dispatcher: newDispatcher(),
		auth:       auth,
		relay:      relay,
		logger:     logger,
	}
}

// AuthenticateClient validates the token and extracts identity.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := h.auth.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return &ClientAuth{
		UserID: claims.UserID,
		JTI:    claims.ID,
		Role:   claims.Role,
		Device: claims.Device,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.dispatcher.add(handler)
}

// HandleClientMessage routes a client message to its handler.
// It reports false when no handler claims the event type.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	return h.dispatcher.dispatch(ctx, client, msg)
}

// Run starts the hub; it also drains the cross-instance relay when one is configured.
func (h *Hub) Run(ctx context.Context) {
	if h.relay != nil {
		go h.relay.Run(ctx, h.enqueueLocal)
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.Int64("user_id", client.userID),
		zap.String("device", client.device))

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id": client.userID,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()

	h.logger.Info("websocket client disconnected", zap.Int64("user_id", client.userID))
}

func (h *Hub) deliver(message *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range message.UserIDs {
		for client := range h.clients[userID] {
			client.SendMessage(message.Message)
		}
	}
}

// enqueueLocal hands a message to the run loop without blocking the caller.
func (h *Hub) enqueueLocal(userIDs []int64, msg *wstypes.WSMessage) {
	select {
	case h.broadcast <- &BroadcastMessage{UserIDs: userIDs, Message: msg}:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message",
			zap.String("type", string(msg.Type)))
	}
}

// SendToUsers delivers to local connections and forwards through the relay.
func (h *Hub) SendToUsers(userIDs []int64, msg *wstypes.WSMessage) {
	if len(userIDs) == 0 {
		return
	}
	h.enqueueLocal(userIDs, msg)

	if h.relay != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.relay.Publish(ctx, userIDs, msg); err != nil {
			h.logger.Warn("failed to relay websocket message", zap.Error(err))
		}
	}
}

func (h *Hub) SendToUser(userID int64, msg *wstypes.WSMessage) {
	h.SendToUsers([]int64{userID}, msg)
}

// ========== Domain pushes ==========

func (h *Hub) PushNotification(userID int64, data *wstypes.NotificationData) {
	h.SendToUser(userID, wstypes.NewMessage(wstypes.EventTypeNotification, data))
}

func (h *Hub) PushUnreadCount(userID int64, unread int) {
	h.SendToUser(userID, wstypes.NewMessage(wstypes.EventTypeNotificationCount, wstypes.CountData{Unread: unread}))
}

func (h *Hub) PushAdStatus(userID, adID int64, status string) {
	h.SendToUser(userID, wstypes.NewMessage(wstypes.EventTypeAdStatus, map[string]interface{}{
		"ad_id":  adID,
		"status": status,
	}))
}

func (h *Hub) PushPaymentStatus(userID int64, orderID, status string) {
	h.SendToUser(userID, wstypes.NewMessage(wstypes.EventTypePaymentStatus, map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	}))
}

// ForceLogout tells every session of the user to drop its tokens.
func (h *Hub) ForceLogout(userID int64, reason string) {
	h.SendToUser(userID, wstypes.NewMessage(wstypes.EventTypeForceLogout, map[string]interface{}{
		"reason": reason,
	}))
}

// ========== Stats ==========

func (h *Hub) GetConnectedClients(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) TotalUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) IsUserConnected(userID int64) bool {
	return h.GetConnectedClients(userID) > 0
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
	h.logger.Info("websocket hub stopped")
}
