package ad

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/pricing"
	"motormart-service/internal/middleware"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/jwt"
	"motormart-service/internal/pkg/response"
	adService "motormart-service/internal/service/ad"

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

func (m *mockService) Create(ctx context.Context, userID int64, req *ad.CreateAdRequest) (*ad.AdInfo, error) {
	args := m.Called(ctx, userID, req)
	info, _ := args.Get(0).(*ad.AdInfo)
	return info, args.Error(1)
}

func (m *mockService) Get(ctx context.Context, id, viewerID int64, isAdmin bool) (*ad.AdInfo, error) {
	args := m.Called(ctx, id, viewerID, isAdmin)
	info, _ := args.Get(0).(*ad.AdInfo)
	return info, args.Error(1)
}

func (m *mockService) List(ctx context.Context, filters *ad.ListFilters) (*ad.AdListResponse, error) {
	args := m.Called(ctx, filters)
	res, _ := args.Get(0).(*ad.AdListResponse)
	return res, args.Error(1)
}

// asUser fakes an authenticated request.
func asUser(id int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetClaims(c, &jwt.Claims{UserID: id, Role: role})
		c.Next()
	}
}

func serve(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

const validAd = `{"vehicle_type_id":1,"title":"Toyota Axio 2016","price":"5500000","location":"Colombo"}`

func TestCreate_QuotaExceededCarriesEntitlement(t *testing.T) {
	svc := &mockService{}
	ent := &pricing.Entitlement{HasPackage: true, PerType: []pricing.TypeEntitlement{{VehicleTypeID: 1, Limit: 2, Used: 2}}}
	svc.On("Create", mock.Anything, int64(7), mock.Anything).Return(nil, &adService.QuotaError{Entitlement: ent})

	r := gin.New()
	r.POST("/cars", asUser(7, "user"), NewAdHandler(svc, zap.NewNop()).Create)

	w, resp := serve(r, http.MethodPost, "/cars", validAd)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["has_package"])
	assert.Len(t, data["per_type"], 1)
}

func TestCreate_ValidationAndSuccess(t *testing.T) {
	svc := &mockService{}
	svc.On("Create", mock.Anything, int64(7), mock.Anything).
		Return(&ad.AdInfo{CarAd: ad.CarAd{ID: 11, Status: ad.StatusActive}}, nil)

	r := gin.New()
	r.POST("/cars", asUser(7, "user"), NewAdHandler(svc, zap.NewNop()).Create)

	w, _ := serve(r, http.MethodPost, "/cars", `{"title":"no"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := serve(r, http.MethodPost, "/cars", validAd)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
}

func TestGet_AnonymousAndAdmin(t *testing.T) {
	svc := &mockService{}
	svc.On("Get", mock.Anything, int64(3), int64(0), false).Return(nil, xerrors.ErrNotFound)
	svc.On("Get", mock.Anything, int64(3), int64(1), true).
		Return(&ad.AdInfo{CarAd: ad.CarAd{ID: 3, Status: ad.StatusPending}}, nil)

	h := NewAdHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/cars/:id", h.Get)
	r.GET("/admin/cars/:id", asUser(1, "admin"), h.Get)

	w, _ := serve(r, http.MethodGet, "/cars/3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = serve(r, http.MethodGet, "/admin/cars/3", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = serve(r, http.MethodGet, "/cars/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_ParsesAttributeFilters(t *testing.T) {
	svc := &mockService{}
	svc.On("List", mock.Anything, mock.MatchedBy(func(f *ad.ListFilters) bool {
		return f.Attributes[4] == "red" && len(f.Attributes) == 1 && *f.VehicleTypeID == 2 && f.Search == "axio"
	})).Return(&ad.AdListResponse{Ads: []ad.AdInfo{}}, nil)

	r := gin.New()
	r.GET("/cars", NewAdHandler(svc, zap.NewNop()).List)

	w, _ := serve(r, http.MethodGet, "/cars?vehicle_type_id=2&q=axio&attr[4]=red&attr[x]=skip", "")
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
