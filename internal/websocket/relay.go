// internal/websocket/relay.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	wstypes "motormart-service/internal/domain/websocket"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	relayChannel        = "motormart:ws:relay"
	relayInitialBackoff = time.Second
	relayMaxBackoff     = 30 * time.Second
)

type relayEnvelope struct {
	InstanceID string             `json:"instance_id"`
	UserIDs    []int64            `json:"user_ids"`
	Message    *wstypes.WSMessage `json:"message"`
}

// Relay fans hub messages out to other API instances over Redis pub/sub.
type Relay struct {
	client     *redis.Client
	instanceID string
	logger     *zap.Logger
}

func NewRelay(client *redis.Client, logger *zap.Logger) *Relay {
	return &Relay{
		client:     client,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

func (r *Relay) InstanceID() string {
	return r.instanceID
}

func (r *Relay) Publish(ctx context.Context, userIDs []int64, msg *wstypes.WSMessage) error {
	data, err := json.Marshal(relayEnvelope{
		InstanceID: r.instanceID,
		UserIDs:    userIDs,
		Message:    msg,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal relay message: %w", err)
	}

	if err := r.client.Publish(ctx, relayChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish relay message: %w", err)
	}
	return nil
}

// Run subscribes until ctx is cancelled, reconnecting with backoff.
// Messages published by this instance are skipped.
func (r *Relay) Run(ctx context.Context, deliver func(userIDs []int64, msg *wstypes.WSMessage)) {
	backoff := relayInitialBackoff
	for {
		err := r.subscribe(ctx, deliver)
		if ctx.Err() != nil {
			return
		}

		r.logger.Warn("websocket relay subscription lost, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > relayMaxBackoff {
			backoff = relayMaxBackoff
		}
	}
}

func (r *Relay) subscribe(ctx context.Context, deliver func(userIDs []int64, msg *wstypes.WSMessage)) error {
	pubsub := r.client.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return fmt.Errorf("relay channel closed")
			}

			var env relayEnvelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				r.logger.Warn("invalid relay payload", zap.Error(err))
				continue
			}
			if env.InstanceID == r.instanceID || env.Message == nil {
				continue
			}
			deliver(env.UserIDs, env.Message)
		}
	}
}
