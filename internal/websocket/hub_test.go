package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	wstypes "motormart-service/internal/domain/websocket"
	"motormart-service/internal/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuth struct {
	claims *jwt.Claims
	err    error
}

func (s stubAuth) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	return s.claims, s.err
}

func testClient(h *Hub, userID int64) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{hub: h, send: make(chan []byte, sendBuffer), userID: userID, ctx: ctx, cancel: cancel}
}

func nextMessage(t *testing.T, c *Client) *wstypes.WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		msg, err := wstypes.ParseMessage(data)
		require.NoError(t, err)
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestAuthenticateClient(t *testing.T) {
	claims := &jwt.Claims{UserID: 7, Role: "user", Device: "web"}
	claims.ID = "jti-1"

	h := NewHub(stubAuth{claims: claims}, nil, zap.NewNop())
	auth, err := h.AuthenticateClient(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, &ClientAuth{UserID: 7, JTI: "jti-1", Role: "user", Device: "web"}, auth)

	_, err = h.AuthenticateClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	failing := NewHub(stubAuth{err: errors.New("expired")}, nil, zap.NewNop())
	_, err = failing.AuthenticateClient(context.Background(), "token")
	assert.Error(t, err)
}

func TestHub_DeliversToEveryConnectionOfUser(t *testing.T) {
	h := NewHub(stubAuth{}, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	phone, laptop, other := testClient(h, 1), testClient(h, 1), testClient(h, 2)
	for _, c := range []*Client{phone, laptop, other} {
		h.Register <- c
		assert.Equal(t, wstypes.EventTypeConnected, nextMessage(t, c).Type)
	}
	assert.Equal(t, 3, h.TotalClients())
	assert.Equal(t, 2, h.TotalUsers())

	h.PushUnreadCount(1, 4)

	for _, c := range []*Client{phone, laptop} {
		msg := nextMessage(t, c)
		assert.Equal(t, wstypes.EventTypeNotificationCount, msg.Type)
		assert.Equal(t, float64(4), msg.Data.(map[string]interface{})["unread"])
	}
	select {
	case <-other.send:
		t.Fatal("user 2 should not receive user 1's count")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	h := NewHub(stubAuth{}, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := testClient(h, 3)
	h.Register <- c
	nextMessage(t, c)
	require.True(t, h.IsUserConnected(3))

	h.unregister <- c
	assert.Eventually(t, func() bool { return !h.IsUserConnected(3) }, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, c.ctx.Err(), context.Canceled)
}

type captured struct {
	mu   sync.Mutex
	msgs []*wstypes.WSMessage
	ids  [][]int64
}

func (c *captured) deliver(userIDs []int64, msg *wstypes.WSMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, userIDs)
	c.msgs = append(c.msgs, msg)
}

func (c *captured) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestRelay_ForwardsToOtherInstancesOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rc.Close() })
		return rc
	}

	a := NewRelay(newClient(), zap.NewNop())
	b := NewRelay(newClient(), zap.NewNop())
	require.NotEqual(t, a.InstanceID(), b.InstanceID())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gotA, gotB captured
	go a.Run(ctx, gotA.deliver)
	go b.Run(ctx, gotB.deliver)

	msg := wstypes.NewMessage(wstypes.EventTypeAdStatus, map[string]interface{}{"ad_id": 9, "status": "ACTIVE"})

	// subscriptions are asynchronous; publish until the peer sees one
	assert.Eventually(t, func() bool {
		require.NoError(t, a.Publish(ctx, []int64{5}, msg))
		return gotB.count() > 0
	}, 2*time.Second, 20*time.Millisecond)

	assert.Zero(t, gotA.count())

	gotB.mu.Lock()
	defer gotB.mu.Unlock()
	assert.Equal(t, []int64{5}, gotB.ids[0])
	assert.Equal(t, wstypes.EventTypeAdStatus, gotB.msgs[0].Type)

	raw, err := json.Marshal(gotB.msgs[0].Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ad_id":9,"status":"ACTIVE"}`, string(raw))
}

type readHandler struct {
	got []int64
}

func (r *readHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeNotificationRead}
}

func (r *readHandler) HandleMessage(_ context.Context, client *Client, msg *wstypes.WSMessage) error {
	var req wstypes.ReadRequest
	if err := DecodeData(msg.Data, &req); err != nil {
		return err
	}
	r.got = append(r.got, client.UserID(), req.NotificationID)
	return nil
}

func TestHandleClientMessage_RoutesByEventType(t *testing.T) {
	h := NewHub(stubAuth{}, nil, zap.NewNop())
	rh := &readHandler{}
	h.RegisterHandler(rh)
	c := testClient(h, 9)

	handled, err := h.HandleClientMessage(context.Background(), c,
		wstypes.NewMessage(wstypes.EventTypeNotificationRead, map[string]interface{}{"notification_id": 12}))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []int64{9, 12}, rh.got)

	handled, err = h.HandleClientMessage(context.Background(), c, wstypes.NewMessage(wstypes.EventTypeNotificationReadAll, nil))
	assert.NoError(t, err)
	assert.False(t, handled)
}
