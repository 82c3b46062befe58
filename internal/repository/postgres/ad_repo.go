// internal/repository/postgres/ad_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/ad"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdRepository struct {
	db *pgxpool.Pool
}

func NewAdRepository(db *pgxpool.Pool) *AdRepository {
	return &AdRepository{db: db}
}

const adSelect = `
	SELECT a.id, a.user_id, a.vehicle_type_id, a.brand_id, a.model_id, a.title, a.description,
	       a.price, a.currency, a.location, a.contact_phone, a.is_negotiable, a.status,
	       a.rejection_reason, a.view_count, a.expiry_date, a.expiry_warned, a.published_at,
	       a.created_at, a.updated_at,
	       vt.name, vb.name, vm.name, TRIM(u.first_name || ' ' || u.last_name),
	       EXISTS (
	           SELECT 1 FROM ad_boosts b
	           WHERE b.ad_id = a.id AND b.status = 'ACTIVE' AND b.ends_at > NOW()
	       ) AS is_boosted
	FROM car_ads a
	JOIN vehicle_types vt ON vt.id = a.vehicle_type_id
	JOIN users u ON u.id = a.user_id
	LEFT JOIN vehicle_brands vb ON vb.id = a.brand_id
	LEFT JOIN vehicle_models vm ON vm.id = a.model_id`

func scanAdInfo(row pgx.Row) (*ad.AdInfo, error) {
	var a ad.AdInfo
	err := row.Scan(
		&a.ID, &a.UserID, &a.VehicleTypeID, &a.BrandID, &a.ModelID, &a.Title, &a.Description,
		&a.Price, &a.Currency, &a.Location, &a.ContactPhone, &a.IsNegotiable, &a.Status,
		&a.RejectionReason, &a.ViewCount, &a.ExpiryDate, &a.ExpiryWarned, &a.PublishedAt,
		&a.CreatedAt, &a.UpdatedAt,
		&a.VehicleTypeName, &a.BrandName, &a.ModelName, &a.SellerName, &a.IsBoosted,
	)
	if err != nil {
		return nil, err
	}
	a.Images = []ad.AdImage{}
	a.Attributes = []ad.AdAttributeValue{}
	return &a, nil
}

// ========== Writes ==========

// CreateWithUsage inserts the ad with its details, images, attribute values and
// the usage ledger row in one transaction.
func (r *AdRepository) CreateWithUsage(ctx context.Context, b *ad.Bundle, usage *ad.UsageEntry) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		a := b.Ad
		err := tx.QueryRow(ctx, `
			INSERT INTO car_ads (user_id, vehicle_type_id, brand_id, model_id, title, description, price,
			                     currency, location, contact_phone, is_negotiable, status, expiry_date, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id, created_at, updated_at
		`, a.UserID, a.VehicleTypeID, a.BrandID, a.ModelID, a.Title, a.Description, a.Price,
			a.Currency, a.Location, a.ContactPhone, a.IsNegotiable, a.Status, a.ExpiryDate, a.PublishedAt,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return mapError(err, "create ad")
		}

		if err := upsertDetails(ctx, tx, a.ID, b.Details); err != nil {
			return err
		}
		if err := replaceImages(ctx, tx, a.ID, b.Images); err != nil {
			return err
		}
		if err := replaceAttributes(ctx, tx, a.ID, b.Attributes); err != nil {
			return err
		}

		if usage != nil {
			usage.AdID = a.ID
			if err := insertUsage(ctx, tx, usage); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *AdRepository) Update(ctx context.Context, b *ad.Bundle, replaceImgs, replaceAttrs bool) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		a := b.Ad
		err := tx.QueryRow(ctx, `
			UPDATE car_ads
			SET brand_id = $1, model_id = $2, title = $3, description = $4, price = $5,
			    location = $6, contact_phone = $7, is_negotiable = $8, updated_at = NOW()
			WHERE id = $9 AND status <> 'DELETED'
			RETURNING updated_at
		`, a.BrandID, a.ModelID, a.Title, a.Description, a.Price,
			a.Location, a.ContactPhone, a.IsNegotiable, a.ID,
		).Scan(&a.UpdatedAt)
		if err != nil {
			return mapError(err, "update ad")
		}

		if err := upsertDetails(ctx, tx, a.ID, b.Details); err != nil {
			return err
		}
		if replaceImgs {
			if err := replaceImages(ctx, tx, a.ID, b.Images); err != nil {
				return err
			}
		}
		if replaceAttrs {
			if err := replaceAttributes(ctx, tx, a.ID, b.Attributes); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertDetails(ctx context.Context, tx pgx.Tx, adID int64, d *ad.CarDetails) error {
	if d == nil {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO car_details (ad_id, year, mileage, fuel_type, transmission, body_type, color, engine_capacity, condition)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ad_id) DO UPDATE SET
			year = EXCLUDED.year, mileage = EXCLUDED.mileage, fuel_type = EXCLUDED.fuel_type,
			transmission = EXCLUDED.transmission, body_type = EXCLUDED.body_type, color = EXCLUDED.color,
			engine_capacity = EXCLUDED.engine_capacity, condition = EXCLUDED.condition
	`, adID, d.Year, d.Mileage, d.FuelType, d.Transmission, d.BodyType, d.Color, d.EngineCapacity, d.Condition)
	return mapError(err, "save ad details")
}

func replaceImages(ctx context.Context, tx pgx.Tx, adID int64, images []ad.AdImage) error {
	if _, err := tx.Exec(ctx, `DELETE FROM ad_images WHERE ad_id = $1`, adID); err != nil {
		return mapError(err, "clear ad images")
	}
	for i := range images {
		img := &images[i]
		img.AdID = adID
		err := tx.QueryRow(ctx, `
			INSERT INTO ad_images (ad_id, url, object_key, sort_order, is_primary)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, adID, img.URL, img.ObjectKey, img.SortOrder, img.IsPrimary).Scan(&img.ID, &img.CreatedAt)
		if err != nil {
			return mapError(err, "save ad image")
		}
	}
	return nil
}

func replaceAttributes(ctx context.Context, tx pgx.Tx, adID int64, values []ad.AdAttributeValue) error {
	if _, err := tx.Exec(ctx, `DELETE FROM ad_attribute_values WHERE ad_id = $1`, adID); err != nil {
		return mapError(err, "clear ad attributes")
	}
	for _, v := range values {
		_, err := tx.Exec(ctx,
			`INSERT INTO ad_attribute_values (ad_id, attribute_id, value) VALUES ($1, $2, $3)`,
			adID, v.AttributeID, v.Value)
		if err != nil {
			return mapError(err, "save ad attribute")
		}
	}
	return nil
}

func insertUsage(ctx context.Context, tx pgx.Tx, u *ad.UsageEntry) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO ad_usage_ledger (user_id, subscription_id, vehicle_type_id, ad_id, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.UserID, u.SubscriptionID, u.VehicleTypeID, u.AdID, u.Reason).Scan(&u.ID, &u.CreatedAt)
	return mapError(err, "record ad usage")
}

func (r *AdRepository) UpdateStatus(ctx context.Context, id int64, status ad.Status, reason *string) error {
	query := `
		UPDATE car_ads
		SET status = $1, rejection_reason = $2, updated_at = NOW(),
		    published_at = CASE WHEN $1 = 'ACTIVE' AND published_at IS NULL THEN NOW() ELSE published_at END
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, status, reason, id)
	return affected(tag, err, "update ad status")
}

// Renew reactivates an ad with a new expiry and records the consumed quota.
func (r *AdRepository) Renew(ctx context.Context, id int64, expiry time.Time, usage *ad.UsageEntry) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE car_ads
			SET status = 'ACTIVE', expiry_date = $1, expiry_warned = FALSE, updated_at = NOW()
			WHERE id = $2 AND status = 'EXPIRED'
		`, expiry, id)
		if err := affected(tag, err, "renew ad"); err != nil {
			return err
		}
		if usage != nil {
			usage.AdID = id
			return insertUsage(ctx, tx, usage)
		}
		return nil
	})
}

func (r *AdRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE car_ads SET view_count = view_count + 1 WHERE id = $1`, id)
	return mapError(err, "count ad view")
}

// ========== Reads ==========

func (r *AdRepository) FindByID(ctx context.Context, id int64) (*ad.AdInfo, error) {
	info, err := scanAdInfo(r.db.QueryRow(ctx, adSelect+" WHERE a.id = $1", id))
	if err != nil {
		return nil, mapError(err, "find ad")
	}

	var d ad.CarDetails
	err = r.db.QueryRow(ctx, `
		SELECT ad_id, year, mileage, fuel_type, transmission, body_type, color, engine_capacity, condition
		FROM car_details WHERE ad_id = $1
	`, id).Scan(&d.AdID, &d.Year, &d.Mileage, &d.FuelType, &d.Transmission, &d.BodyType, &d.Color, &d.EngineCapacity, &d.Condition)
	if err == nil {
		info.Details = &d
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load ad details: %w", err)
	}

	if err := r.attachImages(ctx, []*ad.AdInfo{info}); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT v.ad_id, v.attribute_id, va.key, v.value
		FROM ad_attribute_values v
		JOIN vehicle_attributes va ON va.id = v.attribute_id
		WHERE v.ad_id = $1
		ORDER BY va.sort_order
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load ad attributes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v ad.AdAttributeValue
		if err := rows.Scan(&v.AdID, &v.AttributeID, &v.AttributeKey, &v.Value); err != nil {
			return nil, fmt.Errorf("failed to scan ad attribute: %w", err)
		}
		info.Attributes = append(info.Attributes, v)
	}
	return info, rows.Err()
}

func (r *AdRepository) attachImages(ctx context.Context, ads []*ad.AdInfo) error {
	if len(ads) == 0 {
		return nil
	}
	ids := make([]int64, len(ads))
	byID := make(map[int64]*ad.AdInfo, len(ads))
	for i, a := range ads {
		ids[i] = a.ID
		byID[a.ID] = a
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, ad_id, url, object_key, sort_order, is_primary, created_at
		FROM ad_images
		WHERE ad_id = ANY($1)
		ORDER BY ad_id, is_primary DESC, sort_order
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load ad images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img ad.AdImage
		if err := rows.Scan(&img.ID, &img.AdID, &img.URL, &img.ObjectKey, &img.SortOrder, &img.IsPrimary, &img.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan ad image: %w", err)
		}
		if a, ok := byID[img.AdID]; ok {
			a.Images = append(a.Images, img)
		}
	}
	return rows.Err()
}

// List searches ads. With activeOnly, only ACTIVE unexpired ads are returned and
// boosted ads sort ahead of the rest.
func (r *AdRepository) List(ctx context.Context, filters *ad.ListFilters, activeOnly bool) ([]ad.AdInfo, int64, error) {
	filters.Normalize()

	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if activeOnly {
		conditions = append(conditions, "a.status = 'ACTIVE'")
	} else if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	} else {
		conditions = append(conditions, "a.status <> 'DELETED'")
	}

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", argPos))
		args = append(args, *filters.UserID)
		argPos++
	}
	if filters.VehicleTypeID != nil {
		conditions = append(conditions, fmt.Sprintf("a.vehicle_type_id = $%d", argPos))
		args = append(args, *filters.VehicleTypeID)
		argPos++
	}
	if filters.BrandID != nil {
		conditions = append(conditions, fmt.Sprintf("a.brand_id = $%d", argPos))
		args = append(args, *filters.BrandID)
		argPos++
	}
	if filters.ModelID != nil {
		conditions = append(conditions, fmt.Sprintf("a.model_id = $%d", argPos))
		args = append(args, *filters.ModelID)
		argPos++
	}
	if filters.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("a.price >= $%d", argPos))
		args = append(args, *filters.MinPrice)
		argPos++
	}
	if filters.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("a.price <= $%d", argPos))
		args = append(args, *filters.MaxPrice)
		argPos++
	}
	if filters.MinYear != nil {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM car_details cd WHERE cd.ad_id = a.id AND cd.year >= $%d)", argPos))
		args = append(args, *filters.MinYear)
		argPos++
	}
	if filters.MaxYear != nil {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM car_details cd WHERE cd.ad_id = a.id AND cd.year <= $%d)", argPos))
		args = append(args, *filters.MaxYear)
		argPos++
	}
	if filters.Location != "" {
		conditions = append(conditions, fmt.Sprintf("a.location ILIKE $%d", argPos))
		args = append(args, "%"+filters.Location+"%")
		argPos++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(a.title ILIKE $%d OR a.description ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	for attrID, value := range filters.Attributes {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM ad_attribute_values av WHERE av.ad_id = a.id AND av.attribute_id = $%d AND LOWER(av.value) = LOWER($%d))",
			argPos, argPos+1))
		args = append(args, attrID, value)
		argPos += 2
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM car_ads a " + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count ads: %w", err)
	}

	orderBy := "a.created_at DESC"
	switch filters.Sort {
	case ad.SortPriceAsc:
		orderBy = "a.price ASC, a.created_at DESC"
	case ad.SortPriceDesc:
		orderBy = "a.price DESC, a.created_at DESC"
	}
	if activeOnly {
		orderBy = "is_boosted DESC, " + orderBy
	}

	offset := (filters.Page - 1) * filters.PageSize
	query := fmt.Sprintf("%s %s ORDER BY %s LIMIT $%d OFFSET $%d", adSelect, whereClause, orderBy, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	infos, err := r.queryAds(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ad.AdInfo, len(infos))
	for i, a := range infos {
		out[i] = *a
	}
	return out, total, nil
}

// ListFeatured returns active ads with a running boost, newest boost first.
func (r *AdRepository) ListFeatured(ctx context.Context, limit int) ([]ad.AdInfo, error) {
	query := adSelect + `
		WHERE a.status = 'ACTIVE' AND EXISTS (
			SELECT 1 FROM ad_boosts b WHERE b.ad_id = a.id AND b.status = 'ACTIVE' AND b.ends_at > NOW()
		)
		ORDER BY a.updated_at DESC
		LIMIT $1
	`
	infos, err := r.queryAds(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ad.AdInfo, len(infos))
	for i, a := range infos {
		out[i] = *a
	}
	return out, nil
}

func (r *AdRepository) queryAds(ctx context.Context, query string, args ...interface{}) ([]*ad.AdInfo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	defer rows.Close()

	infos := []*ad.AdInfo{}
	for rows.Next() {
		info, err := scanAdInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	rows.Close()

	if err := r.attachImages(ctx, infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// ========== Sweeps ==========

// ExpireBefore marks ACTIVE ads whose expiry date is before cutoff as EXPIRED.
func (r *AdRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE car_ads SET status = 'EXPIRED', updated_at = NOW()
		WHERE status = 'ACTIVE' AND expiry_date < $1
	`, cutoff)
	if err != nil {
		return 0, mapError(err, "expire ads")
	}
	return tag.RowsAffected(), nil
}

func (r *AdRepository) ListExpiringUnwarned(ctx context.Context, from, to time.Time) ([]ad.ExpiringAd, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.user_id, a.title, a.expiry_date, u.email, u.first_name
		FROM car_ads a
		JOIN users u ON u.id = a.user_id
		WHERE a.status = 'ACTIVE' AND NOT a.expiry_warned AND a.expiry_date >= $1 AND a.expiry_date <= $2
		ORDER BY a.expiry_date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring ads: %w", err)
	}
	defer rows.Close()

	out := []ad.ExpiringAd{}
	for rows.Next() {
		var e ad.ExpiringAd
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.ExpiryDate, &e.Email, &e.FirstName); err != nil {
			return nil, fmt.Errorf("failed to scan expiring ad: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *AdRepository) MarkExpiryWarned(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE car_ads SET expiry_warned = TRUE WHERE id = $1`, id)
	return mapError(err, "mark expiry warned")
}
