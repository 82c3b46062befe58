// internal/repository/postgres/discount_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"motormart-service/internal/domain/discount"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DiscountRepository struct {
	db *pgxpool.Pool
}

func NewDiscountRepository(db *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{db: db}
}

const discountSelect = `
	SELECT d.id, d.code, d.name, d.discount_type, d.value, d.valid_from, d.valid_to,
	       d.first_time_only, d.min_quantity, d.is_active, d.created_at, d.updated_at,
	       COALESCE((SELECT array_agg(vehicle_type_id) FROM discount_vehicle_types WHERE discount_id = d.id), '{}'),
	       COALESCE((SELECT array_agg(package_id) FROM discount_packages WHERE discount_id = d.id), '{}')
	FROM discounts d`

func scanDiscount(row pgx.Row) (*discount.Discount, error) {
	var d discount.Discount
	err := row.Scan(
		&d.ID, &d.Code, &d.Name, &d.DiscountType, &d.Value, &d.ValidFrom, &d.ValidTo,
		&d.FirstTimeOnly, &d.MinQuantity, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
		&d.VehicleTypeIDs, &d.PackageIDs,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DiscountRepository) Create(ctx context.Context, d *discount.Discount) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO discounts (code, name, discount_type, value, valid_from, valid_to,
			                       first_time_only, min_quantity, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`, d.Code, d.Name, d.DiscountType, d.Value, d.ValidFrom, d.ValidTo,
			d.FirstTimeOnly, d.MinQuantity, d.IsActive,
		).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return mapError(err, "create discount")
		}
		return replaceDiscountScopes(ctx, tx, d)
	})
}

func (r *DiscountRepository) Update(ctx context.Context, d *discount.Discount) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE discounts
			SET name = $1, value = $2, valid_from = $3, valid_to = $4, first_time_only = $5,
			    min_quantity = $6, is_active = $7, updated_at = NOW()
			WHERE id = $8
			RETURNING updated_at
		`, d.Name, d.Value, d.ValidFrom, d.ValidTo, d.FirstTimeOnly, d.MinQuantity, d.IsActive, d.ID).
			Scan(&d.UpdatedAt)
		if err != nil {
			return mapError(err, "update discount")
		}
		return replaceDiscountScopes(ctx, tx, d)
	})
}

func replaceDiscountScopes(ctx context.Context, tx pgx.Tx, d *discount.Discount) error {
	if _, err := tx.Exec(ctx, `DELETE FROM discount_vehicle_types WHERE discount_id = $1`, d.ID); err != nil {
		return mapError(err, "clear discount vehicle types")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM discount_packages WHERE discount_id = $1`, d.ID); err != nil {
		return mapError(err, "clear discount packages")
	}
	for _, id := range d.VehicleTypeIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO discount_vehicle_types (discount_id, vehicle_type_id) VALUES ($1, $2)`, d.ID, id); err != nil {
			return mapError(err, "scope discount to vehicle type")
		}
	}
	for _, id := range d.PackageIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO discount_packages (discount_id, package_id) VALUES ($1, $2)`, d.ID, id); err != nil {
			return mapError(err, "scope discount to package")
		}
	}
	return nil
}

func (r *DiscountRepository) FindByID(ctx context.Context, id int64) (*discount.Discount, error) {
	d, err := scanDiscount(r.db.QueryRow(ctx, discountSelect+" WHERE d.id = $1", id))
	if err != nil {
		return nil, mapError(err, "find discount")
	}
	return d, nil
}

func (r *DiscountRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	return affected(tag, err, "delete discount")
}

func (r *DiscountRepository) List(ctx context.Context) ([]*discount.Discount, error) {
	return r.query(ctx, discountSelect+" ORDER BY d.created_at DESC")
}

// ListCandidates returns discounts valid at the given time that apply automatically
// (no code) or whose code matches, case-insensitively.
func (r *DiscountRepository) ListCandidates(ctx context.Context, code *string, at time.Time) ([]*discount.Discount, error) {
	query := discountSelect + `
		WHERE d.is_active
		  AND (d.valid_from IS NULL OR d.valid_from <= $1)
		  AND (d.valid_to IS NULL OR d.valid_to >= $1)
		  AND (d.code IS NULL OR ($2::text IS NOT NULL AND LOWER(d.code) = LOWER($2::text)))
	`
	return r.query(ctx, query, at, code)
}

func (r *DiscountRepository) query(ctx context.Context, query string, args ...interface{}) ([]*discount.Discount, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	out := []*discount.Discount{}
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// HasPaidPurchase reports whether the user already completed a package or boost payment.
func (r *DiscountRepository) HasPaidPurchase(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payments WHERE user_id = $1 AND status = 'SUCCESS' AND purpose <> 'USAGE'
		)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check purchase history: %w", err)
	}
	return exists, nil
}
