package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"motormart-service/internal/domain/payment"
	"motormart-service/internal/middleware"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/gateway"
	"motormart-service/internal/pkg/jwt"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct {
	mock.Mock
	Service
}

func (m *mockService) HandleWebhook(ctx context.Context, n gateway.Notification, raw []byte) (*payment.Payment, error) {
	args := m.Called(ctx, n, raw)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *mockService) GetStatus(ctx context.Context, userID int64, orderID string) (*payment.Payment, error) {
	args := m.Called(ctx, userID, orderID)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func notifyForm() url.Values {
	return url.Values{
		"merchant_id":      {"1211149"},
		"order_id":         {"MM-01HZX"},
		"payment_id":       {"320025071278"},
		"payhere_amount":   {"1500.00"},
		"payhere_currency": {"LKR"},
		"status_code":      {"2"},
		"md5sig":           {"ABCDEF"},
	}
}

func postForm(r *gin.Engine, path string, form url.Values) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestNotify_BindsFormAndKeepsRawPayload(t *testing.T) {
	svc := &mockService{}
	svc.On("HandleWebhook", mock.Anything, mock.MatchedBy(func(n gateway.Notification) bool {
		return n.OrderID == "MM-01HZX" && n.StatusCode == 2 && n.Amount == "1500.00" && n.Signature == "ABCDEF"
	}), mock.MatchedBy(func(raw []byte) bool {
		return strings.Contains(string(raw), `"order_id":["MM-01HZX"]`)
	})).Return(&payment.Payment{OrderID: "MM-01HZX", Status: payment.StatusSuccess}, nil)

	r := gin.New()
	r.POST("/payments/notify", NewPaymentHandler(svc, zap.NewNop()).Notify)

	w, resp := postForm(r, "/payments/notify", notifyForm())

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "MM-01HZX", data["order_id"])
	assert.Equal(t, string(payment.StatusSuccess), data["status"])
	svc.AssertExpectations(t)
}

func TestNotify_InvalidSignatureIsBadRequest(t *testing.T) {
	svc := &mockService{}
	svc.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).Return(nil, xerrors.ErrInvalidSignature)

	r := gin.New()
	r.POST("/payments/notify", NewPaymentHandler(svc, zap.NewNop()).Notify)

	w, resp := postForm(r, "/payments/notify", notifyForm())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestNotify_UnknownOrderIsNotFound(t *testing.T) {
	svc := &mockService{}
	svc.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).Return(nil, xerrors.ErrNotFound)

	r := gin.New()
	r.POST("/payments/notify", NewPaymentHandler(svc, zap.NewNop()).Notify)

	w, _ := postForm(r, "/payments/notify", notifyForm())

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStatus_UsesCallerAndOrderID(t *testing.T) {
	svc := &mockService{}
	svc.On("GetStatus", mock.Anything, int64(5), "MM-01HZX").
		Return(&payment.Payment{OrderID: "MM-01HZX", Status: payment.StatusPending}, nil)

	r := gin.New()
	r.GET("/payments/status/:order_id", func(c *gin.Context) {
		middleware.SetClaims(c, &jwt.Claims{UserID: 5, Role: "user"})
		c.Next()
	}, NewPaymentHandler(svc, zap.NewNop()).GetStatus)

	req := httptest.NewRequest(http.MethodGet, "/payments/status/MM-01HZX", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
