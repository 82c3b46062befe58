// internal/handlers/discount/discount_handler.go
package discount

import (
	"context"
	"net/http"

	"motormart-service/internal/domain/discount"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	Create(ctx context.Context, req *discount.CreateDiscountRequest) (*discount.Discount, error)
	Update(ctx context.Context, id int64, req *discount.UpdateDiscountRequest) (*discount.Discount, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*discount.Discount, error)
	List(ctx context.Context) ([]*discount.Discount, error)
	Preview(ctx context.Context, userID int64, req *discount.PreviewRequest) (*discount.Preview, error)
}

type DiscountHandler struct {
	discountService Service
}

func NewDiscountHandler(discountService Service) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

// Preview prices ?item_id=&vehicle_type_id=&quantity=&code= with the best discount.
func (h *DiscountHandler) Preview(c *gin.Context) {
	var req discount.PreviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	preview, err := h.discountService.Preview(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "failed to preview discount", err)
		return
	}
	response.Success(c, http.StatusOK, "discount preview", preview)
}

func (h *DiscountHandler) List(c *gin.Context) {
	list, err := h.discountService.List(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list discounts", err)
		return
	}
	response.Success(c, http.StatusOK, "discounts retrieved", list)
}

func (h *DiscountHandler) Get(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	d, err := h.discountService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to get discount", err)
		return
	}
	response.Success(c, http.StatusOK, "discount retrieved", d)
}

func (h *DiscountHandler) Create(c *gin.Context) {
	var req discount.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	d, err := h.discountService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create discount", err)
		return
	}
	response.Success(c, http.StatusCreated, "discount created", d)
}

func (h *DiscountHandler) Update(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req discount.UpdateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	d, err := h.discountService.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update discount", err)
		return
	}
	response.Success(c, http.StatusOK, "discount updated", d)
}

func (h *DiscountHandler) Delete(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.discountService.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete discount", err)
		return
	}
	response.Success(c, http.StatusOK, "discount deleted", nil)
}
