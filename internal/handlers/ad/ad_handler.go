// internal/handlers/ad/ad_handler.go
package ad

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"
	"motormart-service/internal/pkg/storage"
	adService "motormart-service/internal/service/ad"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, userID int64, req *ad.CreateAdRequest) (*ad.AdInfo, error)
	Update(ctx context.Context, userID, id int64, req *ad.UpdateAdRequest) (*ad.AdInfo, error)
	MarkSold(ctx context.Context, userID, id int64) error
	Renew(ctx context.Context, userID, id int64) (*ad.AdInfo, error)
	Delete(ctx context.Context, userID, id int64, isAdmin bool) error
	PresignImageUpload(ctx context.Context, userID int64, req *ad.PresignRequest) (*storage.PresignedUpload, error)
	Get(ctx context.Context, id, viewerID int64, isAdmin bool) (*ad.AdInfo, error)
	List(ctx context.Context, filters *ad.ListFilters) (*ad.AdListResponse, error)
	ListMine(ctx context.Context, userID int64, filters *ad.ListFilters) (*ad.AdListResponse, error)
	ListAll(ctx context.Context, filters *ad.ListFilters) (*ad.AdListResponse, error)
	Featured(ctx context.Context, limit int) ([]ad.AdInfo, error)
	Approve(ctx context.Context, adminID, id int64) error
	Reject(ctx context.Context, adminID, id int64, reason string) error
}

type AdHandler struct {
	adService Service
	logger    *zap.Logger
}

func NewAdHandler(adService Service, logger *zap.Logger) *AdHandler {
	return &AdHandler{adService: adService, logger: logger}
}

// ========== Public ==========

func (h *AdHandler) List(c *gin.Context) {
	filters, ok := bindFilters(c)
	if !ok {
		return
	}

	result, err := h.adService.List(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, "failed to list ads", err)
		return
	}
	response.Success(c, http.StatusOK, "ads retrieved", result)
}

func (h *AdHandler) Featured(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	ads, err := h.adService.Featured(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, "failed to load featured ads", err)
		return
	}
	if ads == nil {
		ads = []ad.AdInfo{}
	}
	response.Success(c, http.StatusOK, "featured ads retrieved", ads)
}

// Get serves both anonymous and signed-in viewers; owners and admins also see inactive ads.
func (h *AdHandler) Get(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserID(c)

	info, err := h.adService.Get(c.Request.Context(), id, viewerID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, "failed to get ad", err)
		return
	}
	response.Success(c, http.StatusOK, "ad retrieved", info)
}

// ========== Owner ==========

func (h *AdHandler) Create(c *gin.Context) {
	var req ad.CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	userID := middleware.MustGetUserID(c)

	info, err := h.adService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		var quota *adService.QuotaError
		if errors.As(err, &quota) {
			response.Error(c, http.StatusForbidden, "ad posting limit reached", err, quota.Entitlement)
			return
		}
		h.logger.Warn("ad creation failed", zap.Int64("user_id", userID), zap.Error(err))
		response.FromError(c, "failed to create ad", err)
		return
	}
	response.Success(c, http.StatusCreated, "ad created", info)
}

func (h *AdHandler) ListMine(c *gin.Context) {
	filters, ok := bindFilters(c)
	if !ok {
		return
	}

	result, err := h.adService.ListMine(c.Request.Context(), middleware.MustGetUserID(c), filters)
	if err != nil {
		response.FromError(c, "failed to list ads", err)
		return
	}
	response.Success(c, http.StatusOK, "ads retrieved", result)
}

func (h *AdHandler) Update(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req ad.UpdateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	info, err := h.adService.Update(c.Request.Context(), middleware.MustGetUserID(c), id, &req)
	if err != nil {
		response.FromError(c, "failed to update ad", err)
		return
	}
	response.Success(c, http.StatusOK, "ad updated", info)
}

func (h *AdHandler) MarkSold(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.adService.MarkSold(c.Request.Context(), middleware.MustGetUserID(c), id); err != nil {
		response.FromError(c, "failed to mark ad as sold", err)
		return
	}
	response.Success(c, http.StatusOK, "ad marked as sold", nil)
}

func (h *AdHandler) Renew(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	info, err := h.adService.Renew(c.Request.Context(), middleware.MustGetUserID(c), id)
	if err != nil {
		var quota *adService.QuotaError
		if errors.As(err, &quota) {
			response.Error(c, http.StatusForbidden, "ad posting limit reached", err, quota.Entitlement)
			return
		}
		response.FromError(c, "failed to renew ad", err)
		return
	}
	response.Success(c, http.StatusOK, "ad renewed", info)
}

func (h *AdHandler) Delete(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.adService.Delete(c.Request.Context(), middleware.MustGetUserID(c), id, middleware.IsAdmin(c)); err != nil {
		response.FromError(c, "failed to delete ad", err)
		return
	}
	response.Success(c, http.StatusOK, "ad deleted", nil)
}

func (h *AdHandler) PresignUpload(c *gin.Context) {
	var req ad.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	upload, err := h.adService.PresignImageUpload(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "failed to prepare upload", err)
		return
	}
	response.Success(c, http.StatusOK, "upload url issued", upload)
}

// ========== Admin ==========

func (h *AdHandler) ListAll(c *gin.Context) {
	filters, ok := bindFilters(c)
	if !ok {
		return
	}

	result, err := h.adService.ListAll(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, "failed to list ads", err)
		return
	}
	response.Success(c, http.StatusOK, "ads retrieved", result)
}

func (h *AdHandler) Approve(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.adService.Approve(c.Request.Context(), middleware.MustGetUserID(c), id); err != nil {
		response.FromError(c, "failed to approve ad", err)
		return
	}
	response.Success(c, http.StatusOK, "ad approved", nil)
}

func (h *AdHandler) Reject(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req ad.RejectAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	if err := h.adService.Reject(c.Request.Context(), middleware.MustGetUserID(c), id, req.Reason); err != nil {
		response.FromError(c, "failed to reject ad", err)
		return
	}
	response.Success(c, http.StatusOK, "ad rejected", nil)
}

// bindFilters reads the search query. Attribute filters use attr[<attribute id>]=<value>.
func bindFilters(c *gin.Context) (*ad.ListFilters, bool) {
	var filters ad.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return nil, false
	}

	if attrs := c.QueryMap("attr"); len(attrs) > 0 {
		filters.Attributes = make(map[int64]string, len(attrs))
		for k, v := range attrs {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil || v == "" {
				continue
			}
			filters.Attributes[id] = v
		}
	}
	return &filters, true
}
