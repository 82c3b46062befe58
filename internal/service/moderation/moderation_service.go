// internal/service/moderation/moderation_service.go
package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/auth"
	"motormart-service/internal/domain/moderation"
	"motormart-service/internal/domain/notification"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type AdModerator interface {
	FindByID(ctx context.Context, id int64) (*ad.AdInfo, error)
}

type AdRejecter interface {
	Reject(ctx context.Context, adminID, id int64, reason string) error
}

type UserStore interface {
	FindByID(ctx context.Context, id int64) (*auth.User, error)
	Ban(ctx context.Context, id int64, reason string, expiresAt *time.Time, bannedBy int64, at time.Time) error
	Unban(ctx context.Context, id int64) error
	LiftExpiredBans(ctx context.Context, now time.Time) (int64, error)
}

type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64, at time.Time) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, typ notification.NotificationType, title, message string, metadata map[string]interface{})
}

type SessionKicker interface {
	ForceLogout(userID int64, reason string)
}

type BanMailer interface {
	SendBanNotice(to, name, reason string, until *time.Time)
}

type Deps struct {
	Reports    moderation.ReportRepository
	Complaints moderation.ComplaintRepository
	Ads        AdModerator
	Rejecter   AdRejecter
	Users      UserStore
	Tokens     TokenRevoker
	Notifier   Notifier
	Sessions   SessionKicker
	Mailer     BanMailer
}

type ModerationService struct {
	Deps
	logger *zap.Logger
	now    func() time.Time
}

func NewModerationService(deps Deps, logger *zap.Logger) *ModerationService {
	return &ModerationService{Deps: deps, logger: logger, now: time.Now}
}

// ========== Reports ==========

// Report files a report against an ad. A reporter may hold one open report per ad.
func (s *ModerationService) Report(ctx context.Context, reporterID int64, req *moderation.CreateReportRequest) (*moderation.Report, error) {
	info, err := s.Ads.FindByID(ctx, req.AdID)
	if err != nil {
		return nil, err
	}
	if info.Status == ad.StatusDeleted {
		return nil, xerrors.ErrNotFound
	}
	if info.UserID == reporterID {
		return nil, xerrors.Invalid("you cannot report your own ad")
	}

	r := &moderation.Report{
		AdID:       req.AdID,
		ReporterID: reporterID,
		Reason:     req.Reason,
		Details:    strings.TrimSpace(req.Details),
	}
	if err := s.Reports.Create(ctx, r); err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: you already have an open report for this ad", xerrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	r.AdTitle = info.Title

	s.logger.Info("ad reported",
		zap.Int64("report_id", r.ID),
		zap.Int64("ad_id", r.AdID),
		zap.String("reason", string(r.Reason)))
	return r, nil
}

func (s *ModerationService) ListReports(ctx context.Context, filters *moderation.ReportFilters) ([]*moderation.Report, int64, error) {
	filters.Page, filters.PageSize = paginate(filters.Page, filters.PageSize)
	return s.Reports.List(ctx, filters)
}

// ResolveReport closes a pending report. With RejectAd the reported ad is rejected
// and the report is recorded as ACTION_TAKEN.
func (s *ModerationService) ResolveReport(ctx context.Context, adminID, id int64, req *moderation.ResolveReportRequest) (*moderation.Report, error) {
	r, err := s.Reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != moderation.ReportPending {
		return nil, fmt.Errorf("%w: report is already %s", xerrors.ErrConflict, r.Status)
	}
	if req.Status == moderation.ReportPending {
		return nil, xerrors.Invalid("status must close the report")
	}

	status := req.Status
	if req.RejectAd {
		reason := "Removed after a user report"
		if req.AdminNote != nil && strings.TrimSpace(*req.AdminNote) != "" {
			reason = strings.TrimSpace(*req.AdminNote)
		}
		if err := s.Rejecter.Reject(ctx, adminID, r.AdID, reason); err != nil {
			return nil, fmt.Errorf("failed to reject reported ad: %w", err)
		}
		status = moderation.ReportActionTaken
	}

	now := s.now()
	if err := s.Reports.Resolve(ctx, id, status, req.AdminNote, adminID, now); err != nil {
		return nil, fmt.Errorf("failed to resolve report: %w", err)
	}
	r.Status, r.AdminNote, r.ResolvedBy, r.ResolvedAt = status, req.AdminNote, &adminID, &now

	s.Notifier.Notify(ctx, r.ReporterID, notification.TypeModeration,
		"Report reviewed",
		"Thanks for your report. Our team has reviewed it.",
		map[string]interface{}{"report_id": r.ID, "ad_id": r.AdID, "status": status})

	s.logger.Info("report resolved",
		zap.Int64("report_id", id),
		zap.Int64("admin_id", adminID),
		zap.String("status", string(status)))
	return r, nil
}

// ========== Complaints ==========

func (s *ModerationService) Complain(ctx context.Context, userID int64, req *moderation.CreateComplaintRequest) (*moderation.Complaint, error) {
	if req.AgainstUserID != nil && *req.AgainstUserID == userID {
		return nil, xerrors.Invalid("you cannot file a complaint against yourself")
	}
	c := &moderation.Complaint{
		UserID:        userID,
		AgainstUserID: req.AgainstUserID,
		AdID:          req.AdID,
		Subject:       strings.TrimSpace(req.Subject),
		Message:       strings.TrimSpace(req.Message),
	}
	if c.Subject == "" || c.Message == "" {
		return nil, xerrors.Invalid("subject and message are required")
	}
	if err := s.Complaints.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}
	s.logger.Info("complaint filed", zap.Int64("complaint_id", c.ID), zap.Int64("user_id", userID))
	return c, nil
}

func (s *ModerationService) ListMyComplaints(ctx context.Context, userID int64, filters *moderation.ComplaintFilters) ([]*moderation.Complaint, int64, error) {
	filters.UserID = &userID
	return s.ListComplaints(ctx, filters)
}

func (s *ModerationService) ListComplaints(ctx context.Context, filters *moderation.ComplaintFilters) ([]*moderation.Complaint, int64, error) {
	filters.Page, filters.PageSize = paginate(filters.Page, filters.PageSize)
	return s.Complaints.List(ctx, filters)
}

func (s *ModerationService) RespondComplaint(ctx context.Context, adminID, id int64, req *moderation.RespondComplaintRequest) (*moderation.Complaint, error) {
	c, err := s.Complaints.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == moderation.ComplaintClosed {
		return nil, fmt.Errorf("%w: complaint is closed", xerrors.ErrConflict)
	}
	if req.Status == moderation.ComplaintOpen {
		return nil, xerrors.Invalid("status must move the complaint forward")
	}

	response := strings.TrimSpace(req.Response)
	if err := s.Complaints.Respond(ctx, id, req.Status, response, adminID); err != nil {
		return nil, fmt.Errorf("failed to respond to complaint: %w", err)
	}
	c.Status, c.AdminResponse, c.RespondedBy = req.Status, &response, &adminID

	s.Notifier.Notify(ctx, c.UserID, notification.TypeModeration,
		"Update on your complaint",
		fmt.Sprintf("Your complaint %q is now %s.", c.Subject, strings.ToLower(strings.ReplaceAll(string(c.Status), "_", " "))),
		map[string]interface{}{"complaint_id": c.ID, "status": c.Status})
	return c, nil
}

// ========== Bans ==========

// Ban suspends a user, permanently when durationDays is nil. Only a super admin may
// ban an admin, and super admins cannot be banned.
func (s *ModerationService) Ban(ctx context.Context, actorID int64, actorRole auth.Role, userID int64, req *auth.BanUserRequest) (*auth.User, error) {
	if actorID == userID {
		return nil, xerrors.Invalid("you cannot ban yourself")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, xerrors.Invalid("reason is required")
	}

	target, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.Status == auth.StatusDeleted {
		return nil, xerrors.ErrNotFound
	}
	if target.Role == auth.RoleSuperAdmin || (target.IsAdmin() && actorRole != auth.RoleSuperAdmin) {
		return nil, fmt.Errorf("%w: administrators cannot be banned by administrators", xerrors.ErrForbidden)
	}

	now := s.now()
	var until *time.Time
	if req.DurationDays != nil {
		t := now.AddDate(0, 0, *req.DurationDays)
		until = &t
	}

	if err := s.Users.Ban(ctx, userID, reason, until, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to ban user: %w", err)
	}
	if err := s.Tokens.RevokeAllForUser(ctx, userID, now); err != nil {
		s.logger.Error("failed to revoke tokens of banned user", zap.Int64("user_id", userID), zap.Error(err))
	}
	if s.Sessions != nil {
		s.Sessions.ForceLogout(userID, "account_banned")
	}
	if email := target.EmailAddress(); email != "" && s.Mailer != nil {
		s.Mailer.SendBanNotice(email, target.FirstName, reason, until)
	}

	target.Status = auth.StatusBanned
	target.BanReason, target.BannedAt, target.BanExpiresAt, target.BannedBy = &reason, &now, until, &actorID

	s.logger.Warn("user banned",
		zap.Int64("user_id", userID),
		zap.Int64("by", actorID),
		zap.String("reason", reason),
		zap.Timep("until", until))
	return target, nil
}

func (s *ModerationService) Unban(ctx context.Context, actorID, userID int64) error {
	target, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if target.Status != auth.StatusBanned {
		return fmt.Errorf("%w: user is not banned", xerrors.ErrConflict)
	}
	if err := s.Users.Unban(ctx, userID); err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}

	s.Notifier.Notify(ctx, userID, notification.TypeModeration,
		"Account restored", "Your account has been reinstated.", nil)
	s.logger.Info("user unbanned", zap.Int64("user_id", userID), zap.Int64("by", actorID))
	return nil
}

// LiftExpiredBans reactivates users whose temporary ban has ended.
func (s *ModerationService) LiftExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.Users.LiftExpiredBans(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to lift expired bans: %w", err)
	}
	return n, nil
}

func paginate(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}
