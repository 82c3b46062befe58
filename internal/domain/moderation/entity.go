// internal/domain/moderation/entity.go
package moderation

import (
	"time"
)

type ReportReason string
type ReportStatus string
type ComplaintStatus string

const (
	ReasonSpam          ReportReason = "SPAM"
	ReasonFraud         ReportReason = "FRAUD"
	ReasonInappropriate ReportReason = "INAPPROPRIATE"
	ReasonDuplicate     ReportReason = "DUPLICATE"
	ReasonOther         ReportReason = "OTHER"

	ReportPending     ReportStatus = "PENDING"
	ReportReviewed    ReportStatus = "REVIEWED"
	ReportDismissed   ReportStatus = "DISMISSED"
	ReportActionTaken ReportStatus = "ACTION_TAKEN"

	ComplaintOpen       ComplaintStatus = "OPEN"
	ComplaintInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintResolved   ComplaintStatus = "RESOLVED"
	ComplaintClosed     ComplaintStatus = "CLOSED"
)

type Report struct {
	ID         int64        `json:"id" db:"id"`
	AdID       int64        `json:"ad_id" db:"ad_id"`
	AdTitle    string       `json:"ad_title,omitempty" db:"ad_title"`
	ReporterID int64        `json:"reporter_id" db:"reporter_id"`
	Reason     ReportReason `json:"reason" db:"reason"`
	Details    string       `json:"details" db:"details"`
	Status     ReportStatus `json:"status" db:"status"`
	AdminNote  *string      `json:"admin_note,omitempty" db:"admin_note"`
	ResolvedBy *int64       `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

type Complaint struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	AgainstUserID *int64          `json:"against_user_id,omitempty" db:"against_user_id"`
	AdID          *int64          `json:"ad_id,omitempty" db:"ad_id"`
	Subject       string          `json:"subject" db:"subject"`
	Message       string          `json:"message" db:"message"`
	Status        ComplaintStatus `json:"status" db:"status"`
	AdminResponse *string         `json:"admin_response,omitempty" db:"admin_response"`
	RespondedBy   *int64          `json:"responded_by,omitempty" db:"responded_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
