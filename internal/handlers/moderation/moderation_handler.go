// internal/handlers/moderation/moderation_handler.go
package moderation

import (
	"context"
	"net/http"

	"motormart-service/internal/domain/auth"
	"motormart-service/internal/domain/moderation"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Report(ctx context.Context, reporterID int64, req *moderation.CreateReportRequest) (*moderation.Report, error)
	ListReports(ctx context.Context, filters *moderation.ReportFilters) ([]*moderation.Report, int64, error)
	ResolveReport(ctx context.Context, adminID, id int64, req *moderation.ResolveReportRequest) (*moderation.Report, error)

	Complain(ctx context.Context, userID int64, req *moderation.CreateComplaintRequest) (*moderation.Complaint, error)
	ListMyComplaints(ctx context.Context, userID int64, filters *moderation.ComplaintFilters) ([]*moderation.Complaint, int64, error)
	ListComplaints(ctx context.Context, filters *moderation.ComplaintFilters) ([]*moderation.Complaint, int64, error)
	RespondComplaint(ctx context.Context, adminID, id int64, req *moderation.RespondComplaintRequest) (*moderation.Complaint, error)

	Ban(ctx context.Context, actorID int64, actorRole auth.Role, userID int64, req *auth.BanUserRequest) (*auth.User, error)
	Unban(ctx context.Context, actorID, userID int64) error
}

// ModerationHandler serves ad reports, user complaints and account bans.
type ModerationHandler struct {
	moderationService Service
	logger            *zap.Logger
}

func NewModerationHandler(moderationService Service, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, logger: logger}
}

func page(items any, total int64, p, size int) gin.H {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return gin.H{
		"items":       items,
		"total":       total,
		"page":        p,
		"page_size":   size,
		"total_pages": pages,
	}
}

// ========== Reports ==========

func (h *ModerationHandler) CreateReport(c *gin.Context) {
	var req moderation.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	r, err := h.moderationService.Report(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "failed to report ad", err)
		return
	}
	response.Success(c, http.StatusCreated, "report submitted", r)
}

func (h *ModerationHandler) ListReports(c *gin.Context) {
	var filters moderation.ReportFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	reports, total, err := h.moderationService.ListReports(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list reports", err)
		return
	}
	if reports == nil {
		reports = []*moderation.Report{}
	}
	response.Success(c, http.StatusOK, "reports retrieved", page(reports, total, filters.Page, filters.PageSize))
}

func (h *ModerationHandler) ResolveReport(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req moderation.ResolveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	adminID := middleware.MustGetUserID(c)

	r, err := h.moderationService.ResolveReport(c.Request.Context(), adminID, id, &req)
	if err != nil {
		response.FromError(c, "failed to resolve report", err)
		return
	}
	h.logger.Info("report resolved", zap.Int64("report_id", id), zap.Int64("admin_id", adminID), zap.String("status", string(r.Status)))
	response.Success(c, http.StatusOK, "report resolved", r)
}

// ========== Complaints ==========

func (h *ModerationHandler) CreateComplaint(c *gin.Context) {
	var req moderation.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	cm, err := h.moderationService.Complain(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "failed to submit complaint", err)
		return
	}
	response.Success(c, http.StatusCreated, "complaint submitted", cm)
}

func (h *ModerationHandler) ListMyComplaints(c *gin.Context) {
	var filters moderation.ComplaintFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	list, total, err := h.moderationService.ListMyComplaints(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list complaints", err)
		return
	}
	if list == nil {
		list = []*moderation.Complaint{}
	}
	response.Success(c, http.StatusOK, "complaints retrieved", page(list, total, filters.Page, filters.PageSize))
}

func (h *ModerationHandler) ListComplaints(c *gin.Context) {
	var filters moderation.ComplaintFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	list, total, err := h.moderationService.ListComplaints(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list complaints", err)
		return
	}
	if list == nil {
		list = []*moderation.Complaint{}
	}
	response.Success(c, http.StatusOK, "complaints retrieved", page(list, total, filters.Page, filters.PageSize))
}

func (h *ModerationHandler) RespondComplaint(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req moderation.RespondComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	cm, err := h.moderationService.RespondComplaint(c.Request.Context(), middleware.MustGetUserID(c), id, &req)
	if err != nil {
		response.FromError(c, "failed to respond to complaint", err)
		return
	}
	response.Success(c, http.StatusOK, "complaint updated", cm)
}

// ========== Bans ==========

func (h *ModerationHandler) BanUser(c *gin.Context) {
	userID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req auth.BanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	actorID := middleware.MustGetUserID(c)

	u, err := h.moderationService.Ban(c.Request.Context(), actorID, auth.Role(middleware.GetRole(c)), userID, &req)
	if err != nil {
		response.FromError(c, "failed to ban user", err)
		return
	}
	h.logger.Info("user banned", zap.Int64("user_id", userID), zap.Int64("actor_id", actorID))
	response.Success(c, http.StatusOK, "user banned", u)
}

func (h *ModerationHandler) UnbanUser(c *gin.Context) {
	userID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	actorID := middleware.MustGetUserID(c)
	if err := h.moderationService.Unban(c.Request.Context(), actorID, userID); err != nil {
		response.FromError(c, "failed to unban user", err)
		return
	}
	h.logger.Info("user unbanned", zap.Int64("user_id", userID), zap.Int64("actor_id", actorID))
	response.Success(c, http.StatusOK, "user unbanned", nil)
}
