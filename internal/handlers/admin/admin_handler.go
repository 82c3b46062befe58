// internal/handlers/admin/admin_handler.go
package admin

import (
	"context"
	"net/http"

	"motormart-service/internal/domain/admin"
	"motormart-service/internal/domain/auth"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Stats(ctx context.Context) (*admin.DashboardStats, error)
	ListUsers(ctx context.Context, filters *auth.UserListFilters) (*auth.UserListResponse, error)
	ChangeRole(ctx context.Context, actorID, userID int64, role auth.Role) (*auth.User, error)
}

type AdminHandler struct {
	adminService Service
	logger       *zap.Logger
}

func NewAdminHandler(adminService Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to load dashboard stats", err)
		return
	}
	response.Success(c, http.StatusOK, "dashboard stats", stats)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filters auth.UserListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	res, err := h.adminService.ListUsers(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list users", err)
		return
	}
	response.Success(c, http.StatusOK, "users retrieved", res)
}

// ChangeRole is mounted for super admins only.
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	userID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req auth.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	actorID := middleware.MustGetUserID(c)

	u, err := h.adminService.ChangeRole(c.Request.Context(), actorID, userID, req.Role)
	if err != nil {
		response.FromError(c, "failed to change role", err)
		return
	}
	h.logger.Info("user role changed",
		zap.Int64("user_id", userID),
		zap.Int64("actor_id", actorID),
		zap.String("role", string(req.Role)))
	response.Success(c, http.StatusOK, "role updated", u)
}
