package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"motormart-service/internal/domain/notification"
	"motormart-service/internal/middleware"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/jwt"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct {
	mock.Mock
	Service
}

func (m *mockService) MarkAsRead(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockService) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockService) List(ctx context.Context, userID int64, filters *notification.NotificationListFilters) (*notification.NotificationListResponse, error) {
	args := m.Called(ctx, userID, filters)
	res, _ := args.Get(0).(*notification.NotificationListResponse)
	return res, args.Error(1)
}

func router(h *NotificationHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/notifications", func(c *gin.Context) {
		middleware.SetClaims(c, &jwt.Claims{UserID: 3, Role: "user"})
		c.Next()
	})
	g.GET("", h.GetNotifications)
	g.PUT("/:id/read", h.MarkAsRead)
	g.PUT("/read-all", h.MarkAllAsRead)
	return r
}

func do(r *gin.Engine, method, path string) (*httptest.ResponseRecorder, response.Response) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestMarkAsRead(t *testing.T) {
	svc := &mockService{}
	svc.On("MarkAsRead", mock.Anything, int64(3), int64(41)).Return(nil)

	w, resp := do(router(NewNotificationHandler(svc)), http.MethodPut, "/notifications/41/read")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestMarkAsRead_ForeignNotificationIsNotFound(t *testing.T) {
	svc := &mockService{}
	svc.On("MarkAsRead", mock.Anything, int64(3), int64(99)).Return(xerrors.ErrNotFound)

	w, _ := do(router(NewNotificationHandler(svc)), http.MethodPut, "/notifications/99/read")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAsRead_BadID(t *testing.T) {
	svc := &mockService{}

	w, _ := do(router(NewNotificationHandler(svc)), http.MethodPut, "/notifications/abc/read")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkAllAsRead_ReportsUpdatedCount(t *testing.T) {
	svc := &mockService{}
	svc.On("MarkAllAsRead", mock.Anything, int64(3)).Return(int64(4), nil)

	w, resp := do(router(NewNotificationHandler(svc)), http.MethodPut, "/notifications/read-all")

	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 4, data["updated"])
	assert.EqualValues(t, 0, data["unread_count"])
}

func TestGetNotifications_PassesQueryFilters(t *testing.T) {
	svc := &mockService{}
	svc.On("List", mock.Anything, int64(3), mock.MatchedBy(func(f *notification.NotificationListFilters) bool {
		return f.Page == 2
	})).Return(&notification.NotificationListResponse{Page: 2, PageSize: 20}, nil)

	w, _ := do(router(NewNotificationHandler(svc)), http.MethodGet, "/notifications?page=2")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
