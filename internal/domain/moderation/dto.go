// internal/domain/moderation/dto.go
package moderation

import (
	"context"
	"time"
)

type CreateReportRequest struct {
	AdID    int64        `json:"ad_id" binding:"required,min=1"`
	Reason  ReportReason `json:"reason" binding:"required,oneof=SPAM FRAUD INAPPROPRIATE DUPLICATE OTHER"`
	Details string       `json:"details" binding:"max=2000"`
}

type ResolveReportRequest struct {
	Status    ReportStatus `json:"status" binding:"required,oneof=REVIEWED DISMISSED ACTION_TAKEN"`
	AdminNote *string      `json:"admin_note" binding:"omitempty,max=2000"`
	RejectAd  bool         `json:"reject_ad"`
}

type CreateComplaintRequest struct {
	AgainstUserID *int64 `json:"against_user_id" binding:"omitempty,min=1"`
	AdID          *int64 `json:"ad_id" binding:"omitempty,min=1"`
	Subject       string `json:"subject" binding:"required,max=200"`
	Message       string `json:"message" binding:"required,max=5000"`
}

type RespondComplaintRequest struct {
	Status   ComplaintStatus `json:"status" binding:"required,oneof=IN_PROGRESS RESOLVED CLOSED"`
	Response string          `json:"response" binding:"required,max=5000"`
}

type ReportFilters struct {
	Status   *ReportStatus `form:"status"`
	Page     int           `form:"page"`
	PageSize int           `form:"page_size"`
}

type ComplaintFilters struct {
	Status   *ComplaintStatus `form:"status"`
	UserID   *int64           `form:"-"`
	Page     int              `form:"page"`
	PageSize int              `form:"page_size"`
}

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	FindByID(ctx context.Context, id int64) (*Report, error)
	List(ctx context.Context, filters *ReportFilters) ([]*Report, int64, error)
	Resolve(ctx context.Context, id int64, status ReportStatus, note *string, adminID int64, at time.Time) error
}

type ComplaintRepository interface {
	Create(ctx context.Context, c *Complaint) error
	FindByID(ctx context.Context, id int64) (*Complaint, error)
	List(ctx context.Context, filters *ComplaintFilters) ([]*Complaint, int64, error)
	Respond(ctx context.Context, id int64, status ComplaintStatus, response string, adminID int64) error
}
