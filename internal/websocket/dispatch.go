// internal/websocket/dispatch.go
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	wstypes "motormart-service/internal/domain/websocket"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)

// MessageHandler serves the inbound events a module owns.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// dispatcher maps inbound event types to the handler that claimed them.
// A later registration for the same event replaces the earlier one.
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[wstypes.EventType]MessageHandler
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[wstypes.EventType]MessageHandler)}
}

func (d *dispatcher) add(handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, evt := range handler.SupportedEvents() {
		d.handlers[evt] = handler
	}
}

func (d *dispatcher) dispatch(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	d.mu.RLock()
	handler, ok := d.handlers[msg.Type]
	d.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

// DecodeData re-decodes a generic message payload into target.
func DecodeData(data interface{}, target interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
