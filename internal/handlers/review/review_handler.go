// internal/handlers/review/review_handler.go
package review

import (
	"context"
	"net/http"

	"motormart-service/internal/domain/review"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	Create(ctx context.Context, reviewerID int64, req *review.CreateReviewRequest) (*review.Review, error)
	Update(ctx context.Context, reviewerID, id int64, req *review.UpdateReviewRequest) (*review.Review, error)
	Delete(ctx context.Context, userID, id int64, isAdmin bool) error
	ListBySeller(ctx context.Context, sellerID int64) (*review.SellerReviews, error)
}

type ReviewHandler struct {
	reviewService Service
}

func NewReviewHandler(reviewService Service) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) ListBySeller(c *gin.Context) {
	sellerID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	res, err := h.reviewService.ListBySeller(c.Request.Context(), sellerID)
	if err != nil {
		response.FromError(c, "failed to list reviews", err)
		return
	}
	response.Success(c, http.StatusOK, "reviews retrieved", res)
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var req review.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	r, err := h.reviewService.Create(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "failed to create review", err)
		return
	}
	response.Success(c, http.StatusCreated, "review created", r)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req review.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	r, err := h.reviewService.Update(c.Request.Context(), middleware.MustGetUserID(c), id, &req)
	if err != nil {
		response.FromError(c, "failed to update review", err)
		return
	}
	response.Success(c, http.StatusOK, "review updated", r)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.reviewService.Delete(c.Request.Context(), middleware.MustGetUserID(c), id, middleware.IsAdmin(c)); err != nil {
		response.FromError(c, "failed to delete review", err)
		return
	}
	response.Success(c, http.StatusOK, "review deleted", nil)
}
