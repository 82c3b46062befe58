// internal/repository/postgres/pricing_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"motormart-service/internal/domain/pricing"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PricingRepository struct {
	db *pgxpool.Pool
}

func NewPricingRepository(db *pgxpool.Pool) *PricingRepository {
	return &PricingRepository{db: db}
}

// ========== Price Items ==========

func (r *PricingRepository) CreateItem(ctx context.Context, item *pricing.PriceItem) error {
	query := `
		INSERT INTO price_items (code, name, description, item_type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, item.Code, item.Name, item.Description, item.ItemType, item.Status).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return mapError(err, "create price item")
}

func (r *PricingRepository) FindItemByID(ctx context.Context, id int64) (*pricing.PriceItem, error) {
	var item pricing.PriceItem
	err := r.db.QueryRow(ctx, `
		SELECT id, code, name, description, item_type, status, created_at, updated_at
		FROM price_items WHERE id = $1
	`, id).Scan(&item.ID, &item.Code, &item.Name, &item.Description, &item.ItemType, &item.Status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "find price item")
	}
	return &item, nil
}

func (r *PricingRepository) UpdateItem(ctx context.Context, item *pricing.PriceItem) error {
	err := r.db.QueryRow(ctx, `
		UPDATE price_items SET name = $1, description = $2, status = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, item.Name, item.Description, item.Status, item.ID).Scan(&item.UpdatedAt)
	return mapError(err, "update price item")
}

func (r *PricingRepository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM price_items WHERE id = $1`, id)
	return affected(tag, err, "delete price item")
}

func (r *PricingRepository) ListItems(ctx context.Context, filters *pricing.PriceItemFilters) ([]*pricing.PriceItem, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters != nil && filters.ItemType != nil {
		conditions = append(conditions, fmt.Sprintf("item_type = $%d", argPos))
		args = append(args, *filters.ItemType)
		argPos++
	}
	if filters != nil && filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT id, code, name, description, item_type, status, created_at, updated_at
		FROM price_items %s
		ORDER BY item_type, name
	`, whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list price items: %w", err)
	}
	defer rows.Close()

	items := []*pricing.PriceItem{}
	for rows.Next() {
		var item pricing.PriceItem
		if err := rows.Scan(&item.ID, &item.Code, &item.Name, &item.Description, &item.ItemType, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// ========== Pricing Rules ==========

const ruleColumns = `id, price_item_id, vehicle_type_id, price, currency, min_quantity, max_quantity,
	is_active, created_at, updated_at`

func (r *PricingRepository) CreateRule(ctx context.Context, rule *pricing.PricingRule) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO pricing_rules (price_item_id, vehicle_type_id, price, currency, min_quantity, max_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, rule.PriceItemID, rule.VehicleTypeID, rule.Price, rule.Currency, rule.MinQuantity, rule.MaxQuantity, rule.IsActive).
		Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	return mapError(err, "create pricing rule")
}

func (r *PricingRepository) FindRuleByID(ctx context.Context, id int64) (*pricing.PricingRule, error) {
	var rule pricing.PricingRule
	err := r.db.QueryRow(ctx, "SELECT "+ruleColumns+" FROM pricing_rules WHERE id = $1", id).Scan(
		&rule.ID, &rule.PriceItemID, &rule.VehicleTypeID, &rule.Price, &rule.Currency,
		&rule.MinQuantity, &rule.MaxQuantity, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "find pricing rule")
	}
	return &rule, nil
}

func (r *PricingRepository) UpdateRule(ctx context.Context, rule *pricing.PricingRule) error {
	err := r.db.QueryRow(ctx, `
		UPDATE pricing_rules
		SET price = $1, min_quantity = $2, max_quantity = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, rule.Price, rule.MinQuantity, rule.MaxQuantity, rule.IsActive, rule.ID).Scan(&rule.UpdatedAt)
	return mapError(err, "update pricing rule")
}

func (r *PricingRepository) DeleteRule(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pricing_rules WHERE id = $1`, id)
	return affected(tag, err, "delete pricing rule")
}

func (r *PricingRepository) ListRules(ctx context.Context, itemID int64, activeOnly bool) ([]*pricing.PricingRule, error) {
	rows, err := r.db.Query(ctx, "SELECT "+ruleColumns+`
		FROM pricing_rules
		WHERE price_item_id = $1 AND ($2 = FALSE OR is_active)
		ORDER BY vehicle_type_id NULLS FIRST, min_quantity
	`, itemID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}
	defer rows.Close()

	rules := []*pricing.PricingRule{}
	for rows.Next() {
		var rule pricing.PricingRule
		if err := rows.Scan(
			&rule.ID, &rule.PriceItemID, &rule.VehicleTypeID, &rule.Price, &rule.Currency,
			&rule.MinQuantity, &rule.MaxQuantity, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pricing rule: %w", err)
		}
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

// ========== Package Composition ==========

func (r *PricingRepository) UpsertFeature(ctx context.Context, f *pricing.PackageFeature) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO package_features (package_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (package_id, key) DO UPDATE SET value = EXCLUDED.value
		RETURNING id
	`, f.PackageID, f.Key, f.Value).Scan(&f.ID)
	return mapError(err, "save package feature")
}

func (r *PricingRepository) DeleteFeature(ctx context.Context, packageID int64, key string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM package_features WHERE package_id = $1 AND key = $2`, packageID, key)
	return affected(tag, err, "delete package feature")
}

func (r *PricingRepository) ListFeatures(ctx context.Context, packageID int64) ([]*pricing.PackageFeature, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, package_id, key, value FROM package_features WHERE package_id = $1 ORDER BY key
	`, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list package features: %w", err)
	}
	defer rows.Close()

	features := []*pricing.PackageFeature{}
	for rows.Next() {
		var f pricing.PackageFeature
		if err := rows.Scan(&f.ID, &f.PackageID, &f.Key, &f.Value); err != nil {
			return nil, fmt.Errorf("failed to scan package feature: %w", err)
		}
		features = append(features, &f)
	}
	return features, rows.Err()
}

func (r *PricingRepository) AddIncludedItem(ctx context.Context, item *pricing.PackageIncludedItem) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO package_included_items (package_id, included_item_id, quantity, is_unlimited)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (package_id, included_item_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, is_unlimited = EXCLUDED.is_unlimited
		RETURNING id
	`, item.PackageID, item.IncludedItemID, item.Quantity, item.IsUnlimited).Scan(&item.ID)
	return mapError(err, "add included item")
}

func (r *PricingRepository) RemoveIncludedItem(ctx context.Context, packageID, includedItemID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM package_included_items WHERE package_id = $1 AND included_item_id = $2`,
		packageID, includedItemID)
	return affected(tag, err, "remove included item")
}

func (r *PricingRepository) ListIncludedItems(ctx context.Context, packageID int64) ([]*pricing.PackageIncludedItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT pii.id, pii.package_id, pii.included_item_id, pi.code, pi.name, pii.quantity, pii.is_unlimited
		FROM package_included_items pii
		JOIN price_items pi ON pi.id = pii.included_item_id
		WHERE pii.package_id = $1
		ORDER BY pi.name
	`, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list included items: %w", err)
	}
	defer rows.Close()

	items := []*pricing.PackageIncludedItem{}
	for rows.Next() {
		var it pricing.PackageIncludedItem
		if err := rows.Scan(&it.ID, &it.PackageID, &it.IncludedItemID, &it.IncludedCode, &it.IncludedName, &it.Quantity, &it.IsUnlimited); err != nil {
			return nil, fmt.Errorf("failed to scan included item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *PricingRepository) UpsertAdLimit(ctx context.Context, limit *pricing.PackageAdLimit) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO package_ad_limits (package_id, vehicle_type_id, quantity, is_unlimited)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (package_id, vehicle_type_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, is_unlimited = EXCLUDED.is_unlimited
		RETURNING id
	`, limit.PackageID, limit.VehicleTypeID, limit.Quantity, limit.IsUnlimited).Scan(&limit.ID)
	return mapError(err, "save ad limit")
}

func (r *PricingRepository) DeleteAdLimit(ctx context.Context, packageID, vehicleTypeID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM package_ad_limits WHERE package_id = $1 AND vehicle_type_id = $2`,
		packageID, vehicleTypeID)
	return affected(tag, err, "delete ad limit")
}

func (r *PricingRepository) ListAdLimits(ctx context.Context, packageID int64) ([]*pricing.PackageAdLimit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT pal.id, pal.package_id, pal.vehicle_type_id, vt.name, pal.quantity, pal.is_unlimited
		FROM package_ad_limits pal
		JOIN vehicle_types vt ON vt.id = pal.vehicle_type_id
		WHERE pal.package_id = $1
		ORDER BY vt.sort_order, vt.name
	`, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad limits: %w", err)
	}
	defer rows.Close()

	limits := []*pricing.PackageAdLimit{}
	for rows.Next() {
		var l pricing.PackageAdLimit
		if err := rows.Scan(&l.ID, &l.PackageID, &l.VehicleTypeID, &l.VehicleTypeName, &l.Quantity, &l.IsUnlimited); err != nil {
			return nil, fmt.Errorf("failed to scan ad limit: %w", err)
		}
		limits = append(limits, &l)
	}
	return limits, rows.Err()
}
