// internal/repository/postgres/payment_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/boost"
	"motormart-service/internal/domain/payment"
	"motormart-service/internal/domain/pricing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	id, order_id, user_id, purpose, price_item_id, package_id, vehicle_type_id, ad_id, boost_id,
	discount_id, quantity, amount, discount_amount, currency, status, gateway_payment_id,
	gateway_status_code, raw_notification, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	var raw []byte
	err := row.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.Purpose, &p.PriceItemID, &p.PackageID, &p.VehicleTypeID, &p.AdID, &p.BoostID,
		&p.DiscountID, &p.Quantity, &p.Amount, &p.DiscountAmount, &p.Currency, &p.Status, &p.GatewayPaymentID,
		&p.GatewayStatusCode, &raw, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.RawNotification = raw
	return &p, nil
}

func insertPayment(ctx context.Context, q interface {
	QueryRow(context.Context, string, ...any) pgx.Row
}, p *payment.Payment) error {
	err := q.QueryRow(ctx, `
		INSERT INTO payments (order_id, user_id, purpose, price_item_id, package_id, vehicle_type_id, ad_id,
		                      boost_id, discount_id, quantity, amount, discount_amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, p.OrderID, p.UserID, p.Purpose, p.PriceItemID, p.PackageID, p.VehicleTypeID, p.AdID,
		p.BoostID, p.DiscountID, p.Quantity, p.Amount, p.DiscountAmount, p.Currency, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "create payment")
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return insertPayment(ctx, r.db, p)
}

// CreateBoostPayment inserts the PENDING boost and the payment that will activate it.
func (r *PaymentRepository) CreateBoostPayment(ctx context.Context, p *payment.Payment, b *boost.AdBoost) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO ad_boosts (ad_id, user_id, price_item_id, boost_type, duration_days, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`, b.AdID, b.UserID, b.PriceItemID, b.BoostType, b.DurationDays, b.Status).
			Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return mapError(err, "create boost")
		}

		p.BoostID = &b.ID
		if err := insertPayment(ctx, tx, p); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE ad_boosts SET payment_id = $1 WHERE id = $2`, p.ID, b.ID)
		if err != nil {
			return mapError(err, "link boost payment")
		}
		b.PaymentID = &p.ID
		return nil
	})
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*payment.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, "SELECT "+paymentColumns+" FROM payments WHERE order_id = $1", orderID))
	if err != nil {
		return nil, mapError(err, "find payment")
	}
	return p, nil
}

func (r *PaymentRepository) List(ctx context.Context, filters *payment.ListFilters) ([]*payment.Payment, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *filters.UserID)
		argPos++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.Purpose != nil {
		conditions = append(conditions, fmt.Sprintf("purpose = $%d", argPos))
		args = append(args, *filters.Purpose)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM payments "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	normalizePage(&filters.Page, &filters.PageSize)
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf("SELECT %s FROM payments %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		paymentColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*payment.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, total, rows.Err()
}

// ========== Settlement ==========

// settle moves a PENDING payment to the outcome status. It reports false when
// the payment was already final, in which case nothing else may change.
func settle(ctx context.Context, tx pgx.Tx, paymentID int64, o *payment.Outcome) (bool, error) {
	var paidAt *time.Time
	if o.Status == payment.StatusSuccess {
		paidAt = &o.At
	}
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $1, gateway_payment_id = NULLIF($2, ''), gateway_status_code = $3,
		    raw_notification = $4, paid_at = $5, updated_at = NOW()
		WHERE id = $6 AND status = 'PENDING'
	`, o.Status, o.GatewayPaymentID, o.StatusCode, o.Raw, paidAt, paymentID)
	if err != nil {
		return false, mapError(err, "settle payment")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PaymentRepository) Settle(ctx context.Context, paymentID int64, o *payment.Outcome) (bool, error) {
	var changed bool
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		changed, err = settle(ctx, tx, paymentID, o)
		if err != nil || !changed {
			return err
		}
		if o.Status == payment.StatusCancelled || o.Status == payment.StatusFailed {
			_, err = tx.Exec(ctx, `
				UPDATE ad_boosts SET status = 'CANCELLED', updated_at = NOW()
				WHERE payment_id = $1 AND status = 'PENDING'
			`, paymentID)
			return mapError(err, "cancel pending boost")
		}
		return nil
	})
	return changed, err
}

func (r *PaymentRepository) SettleWithSubscription(ctx context.Context, paymentID int64, o *payment.Outcome, sub *pricing.UserSubscription) (bool, error) {
	var changed bool
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		changed, err = settle(ctx, tx, paymentID, o)
		if err != nil || !changed {
			return err
		}
		sub.PaymentID = &paymentID
		err = tx.QueryRow(ctx, `
			INSERT INTO user_subscriptions (user_id, package_id, payment_id, start_date, end_date, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`, sub.UserID, sub.PackageID, sub.PaymentID, sub.StartDate, sub.EndDate, sub.Status).
			Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
		return mapError(err, "create subscription")
	})
	return changed, err
}

func (r *PaymentRepository) SettleWithBoost(ctx context.Context, paymentID int64, o *payment.Outcome, boostID int64, startsAt, endsAt time.Time) (bool, bool, error) {
	var changed, activated bool
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		changed, err = settle(ctx, tx, paymentID, o)
		if err != nil || !changed {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE ad_boosts SET status = 'ACTIVE', starts_at = $1, ends_at = $2, updated_at = NOW()
			WHERE id = $3 AND status = 'PENDING'
		`, startsAt, endsAt, boostID)
		if err != nil {
			return mapError(err, "activate boost")
		}
		activated = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return changed, activated, nil
}
