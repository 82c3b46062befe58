// internal/handlers/payment/payment_handler.go
package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"motormart-service/internal/domain/payment"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/gateway"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Initiate(ctx context.Context, userID int64, req *payment.InitiateRequest) (*payment.InitiateResponse, error)
	HandleWebhook(ctx context.Context, n gateway.Notification, raw []byte) (*payment.Payment, error)
	GetStatus(ctx context.Context, userID int64, orderID string) (*payment.Payment, error)
	ListMine(ctx context.Context, userID int64, filters *payment.ListFilters) (*payment.ListResponse, error)
	ListAll(ctx context.Context, filters *payment.ListFilters) (*payment.ListResponse, error)
}

type PaymentHandler struct {
	paymentService Service
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService Service, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req payment.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	userID := middleware.MustGetUserID(c)

	res, err := h.paymentService.Initiate(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Warn("payment initiation failed", zap.Int64("user_id", userID), zap.Int64("item_id", req.ItemID), zap.Error(err))
		response.FromError(c, "failed to initiate payment", err)
		return
	}
	response.Success(c, http.StatusCreated, "payment initiated", res)
}

// Notify receives the gateway's form-encoded server callback.
func (h *PaymentHandler) Notify(c *gin.Context) {
	var n gateway.Notification
	if err := c.ShouldBind(&n); err != nil {
		response.ValidationError(c, "invalid notification", err)
		return
	}

	raw, err := json.Marshal(c.Request.PostForm)
	if err != nil {
		raw = nil
	}

	p, err := h.paymentService.HandleWebhook(c.Request.Context(), n, raw)
	if err != nil {
		h.logger.Warn("payment notification rejected",
			zap.String("order_id", n.OrderID),
			zap.Int("status_code", n.StatusCode),
			zap.Error(err))
		response.FromError(c, "notification rejected", err)
		return
	}
	response.Success(c, http.StatusOK, "notification processed", gin.H{
		"order_id": p.OrderID,
		"status":   p.Status,
	})
}

func (h *PaymentHandler) GetStatus(c *gin.Context) {
	p, err := h.paymentService.GetStatus(c.Request.Context(), middleware.MustGetUserID(c), c.Param("order_id"))
	if err != nil {
		response.FromError(c, "failed to get payment", err)
		return
	}
	response.Success(c, http.StatusOK, "payment retrieved", p)
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	var filters payment.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	res, err := h.paymentService.ListMine(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list payments", err)
		return
	}
	response.Success(c, http.StatusOK, "payments retrieved", res)
}

func (h *PaymentHandler) ListAll(c *gin.Context) {
	var filters payment.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	res, err := h.paymentService.ListAll(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list payments", err)
		return
	}
	response.Success(c, http.StatusOK, "payments retrieved", res)
}
