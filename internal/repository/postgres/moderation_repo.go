// internal/repository/postgres/moderation_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/moderation"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ========== Reports ==========

type ReportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportSelect = `
	SELECT r.id, r.ad_id, a.title, r.reporter_id, r.reason, r.details, r.status,
	       r.admin_note, r.resolved_by, r.resolved_at, r.created_at
	FROM ad_reports r
	JOIN car_ads a ON a.id = r.ad_id`

func (r *ReportRepository) Create(ctx context.Context, rep *moderation.Report) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ad_reports (ad_id, reporter_id, reason, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`, rep.AdID, rep.ReporterID, rep.Reason, rep.Details).Scan(&rep.ID, &rep.Status, &rep.CreatedAt)
	return mapError(err, "create report")
}

func (r *ReportRepository) FindByID(ctx context.Context, id int64) (*moderation.Report, error) {
	var rep moderation.Report
	err := r.db.QueryRow(ctx, reportSelect+" WHERE r.id = $1", id).Scan(
		&rep.ID, &rep.AdID, &rep.AdTitle, &rep.ReporterID, &rep.Reason, &rep.Details, &rep.Status,
		&rep.AdminNote, &rep.ResolvedBy, &rep.ResolvedAt, &rep.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "find report")
	}
	return &rep, nil
}

func (r *ReportRepository) List(ctx context.Context, filters *moderation.ReportFilters) ([]*moderation.Report, int64, error) {
	whereClause := ""
	args := []interface{}{}
	argPos := 1
	if filters.Status != nil {
		whereClause = "WHERE r.status = $1"
		args = append(args, *filters.Status)
		argPos++
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM ad_reports r "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	normalizePage(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf("%s %s ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", reportSelect, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*moderation.Report{}
	for rows.Next() {
		var rep moderation.Report
		if err := rows.Scan(
			&rep.ID, &rep.AdID, &rep.AdTitle, &rep.ReporterID, &rep.Reason, &rep.Details, &rep.Status,
			&rep.AdminNote, &rep.ResolvedBy, &rep.ResolvedAt, &rep.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &rep)
	}
	return reports, total, rows.Err()
}

func (r *ReportRepository) Resolve(ctx context.Context, id int64, status moderation.ReportStatus, note *string, adminID int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE ad_reports SET status = $1, admin_note = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $5
	`, status, note, adminID, at, id)
	return affected(tag, err, "resolve report")
}

// ========== Complaints ==========

type ComplaintRepository struct {
	db *pgxpool.Pool
}

func NewComplaintRepository(db *pgxpool.Pool) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintColumns = `id, user_id, against_user_id, ad_id, subject, message, status,
	admin_response, responded_by, created_at, updated_at`

func (r *ComplaintRepository) Create(ctx context.Context, c *moderation.Complaint) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO complaints (user_id, against_user_id, ad_id, subject, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at, updated_at
	`, c.UserID, c.AgainstUserID, c.AdID, c.Subject, c.Message).Scan(&c.ID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err, "create complaint")
}

func (r *ComplaintRepository) FindByID(ctx context.Context, id int64) (*moderation.Complaint, error) {
	var c moderation.Complaint
	err := r.db.QueryRow(ctx, "SELECT "+complaintColumns+" FROM complaints WHERE id = $1", id).Scan(
		&c.ID, &c.UserID, &c.AgainstUserID, &c.AdID, &c.Subject, &c.Message, &c.Status,
		&c.AdminResponse, &c.RespondedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "find complaint")
	}
	return &c, nil
}

func (r *ComplaintRepository) List(ctx context.Context, filters *moderation.ComplaintFilters) ([]*moderation.Complaint, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *filters.UserID)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM complaints "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count complaints: %w", err)
	}

	normalizePage(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf("SELECT %s FROM complaints %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		complaintColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer rows.Close()

	complaints := []*moderation.Complaint{}
	for rows.Next() {
		var c moderation.Complaint
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.AgainstUserID, &c.AdID, &c.Subject, &c.Message, &c.Status,
			&c.AdminResponse, &c.RespondedBy, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, &c)
	}
	return complaints, total, rows.Err()
}

func (r *ComplaintRepository) Respond(ctx context.Context, id int64, status moderation.ComplaintStatus, response string, adminID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE complaints SET status = $1, admin_response = $2, responded_by = $3, updated_at = NOW()
		WHERE id = $4
	`, status, response, adminID, id)
	return affected(tag, err, "respond to complaint")
}
