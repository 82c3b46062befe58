package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"motormart-service/internal/domain/auth"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/response"
	"motormart-service/internal/pkg/socialauth"

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

func (m *mockService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*auth.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockService) SocialLogin(ctx context.Context, req *auth.SocialLoginRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*auth.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockService) ForgotPassword(ctx context.Context, req *auth.ForgotPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func newRouter(svc Service) *gin.Engine {
	h := NewAuthHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/login", h.Login)
	r.POST("/social", h.SocialLogin)
	r.POST("/forgot-password", h.ForgotPassword)
	return r
}

func post(r *gin.Engine, path, body string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestLogin(t *testing.T) {
	svc := &mockService{}
	svc.On("Login", mock.Anything, mock.MatchedBy(func(r *auth.LoginRequest) bool {
		return r.Email == "a@b.lk" && r.Device == "test-agent"
	})).Return(&auth.AuthResponse{TokenPair: auth.TokenPair{AccessToken: "at"}}, nil).Once()
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized))
	r := newRouter(svc)

	w, _ := post(r, "/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := post(r, "/login", `{"email":"a@b.lk","password":"secret123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, resp = post(r, "/login", `{"email":"a@b.lk","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)
}

func TestSocialLogin_ProviderErrorCode(t *testing.T) {
	svc := &mockService{}
	svc.On("SocialLogin", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: %w", xerrors.ErrUnauthorized, socialauth.ErrProvider))

	w, resp := post(newRouter(svc), "/social", `{"session_token":"tok"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, CodeProviderError, data["code"])
}

func TestSocialLogin_NotConfigured(t *testing.T) {
	svc := &mockService{}
	svc.On("SocialLogin", mock.Anything, mock.Anything).Return(nil, xerrors.ErrFeatureUnavailable)

	w, resp := post(newRouter(svc), "/social", `{"session_token":"tok"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Nil(t, resp.Data)
}

func TestForgotPassword(t *testing.T) {
	svc := &mockService{}
	svc.On("ForgotPassword", mock.Anything, mock.Anything).Return(nil)

	w, resp := post(newRouter(svc), "/forgot-password", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}
