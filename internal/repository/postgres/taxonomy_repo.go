// internal/repository/postgres/taxonomy_repo.go
package postgres

import (
	"context"
	"fmt"

	"motormart-service/internal/domain/taxonomy"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TaxonomyRepository struct {
	db *pgxpool.Pool
}

func NewTaxonomyRepository(db *pgxpool.Pool) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// ========== Vehicle Types ==========

func (r *TaxonomyRepository) CreateType(ctx context.Context, t *taxonomy.VehicleType) error {
	query := `
		INSERT INTO vehicle_types (name, slug, icon, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, t.Name, t.Slug, t.Icon, t.IsActive, t.SortOrder).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapError(err, "create vehicle type")
}

func (r *TaxonomyRepository) FindTypeByID(ctx context.Context, id int64) (*taxonomy.VehicleType, error) {
	query := `
		SELECT id, name, slug, icon, is_active, sort_order, created_at, updated_at
		FROM vehicle_types WHERE id = $1
	`
	var t taxonomy.VehicleType
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Icon, &t.IsActive, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "find vehicle type")
	}
	return &t, nil
}

func (r *TaxonomyRepository) UpdateType(ctx context.Context, t *taxonomy.VehicleType) error {
	query := `
		UPDATE vehicle_types
		SET name = $1, slug = $2, icon = $3, is_active = $4, sort_order = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, t.Name, t.Slug, t.Icon, t.IsActive, t.SortOrder, t.ID).Scan(&t.UpdatedAt)
	return mapError(err, "update vehicle type")
}

func (r *TaxonomyRepository) DeleteType(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicle_types WHERE id = $1`, id)
	return affected(tag, err, "delete vehicle type")
}

func (r *TaxonomyRepository) ListTypes(ctx context.Context, activeOnly bool) ([]*taxonomy.VehicleType, error) {
	query := `
		SELECT id, name, slug, icon, is_active, sort_order, created_at, updated_at
		FROM vehicle_types
		WHERE ($1 = FALSE OR is_active)
		ORDER BY sort_order, name
	`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicle types: %w", err)
	}
	defer rows.Close()

	types := []*taxonomy.VehicleType{}
	for rows.Next() {
		var t taxonomy.VehicleType
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Icon, &t.IsActive, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle type: %w", err)
		}
		types = append(types, &t)
	}
	return types, rows.Err()
}

func (r *TaxonomyRepository) CountBrands(ctx context.Context, typeID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vehicle_brands WHERE vehicle_type_id = $1`, typeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count brands: %w", err)
	}
	return n, nil
}

// ========== Brands ==========

func (r *TaxonomyRepository) CreateBrand(ctx context.Context, b *taxonomy.Brand) error {
	query := `
		INSERT INTO vehicle_brands (vehicle_type_id, name, logo_url, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, b.VehicleTypeID, b.Name, b.LogoURL, b.IsActive).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err, "create brand")
}

func (r *TaxonomyRepository) FindBrandByID(ctx context.Context, id int64) (*taxonomy.Brand, error) {
	var b taxonomy.Brand
	err := r.db.QueryRow(ctx, `
		SELECT id, vehicle_type_id, name, logo_url, is_active, created_at, updated_at
		FROM vehicle_brands WHERE id = $1
	`, id).Scan(&b.ID, &b.VehicleTypeID, &b.Name, &b.LogoURL, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "find brand")
	}
	return &b, nil
}

func (r *TaxonomyRepository) UpdateBrand(ctx context.Context, b *taxonomy.Brand) error {
	err := r.db.QueryRow(ctx, `
		UPDATE vehicle_brands SET name = $1, logo_url = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, b.Name, b.LogoURL, b.IsActive, b.ID).Scan(&b.UpdatedAt)
	return mapError(err, "update brand")
}

func (r *TaxonomyRepository) DeleteBrand(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicle_brands WHERE id = $1`, id)
	return affected(tag, err, "delete brand")
}

func (r *TaxonomyRepository) ListBrands(ctx context.Context, typeID int64, activeOnly bool) ([]*taxonomy.Brand, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, vehicle_type_id, name, logo_url, is_active, created_at, updated_at
		FROM vehicle_brands
		WHERE vehicle_type_id = $1 AND ($2 = FALSE OR is_active)
		ORDER BY name
	`, typeID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := []*taxonomy.Brand{}
	for rows.Next() {
		var b taxonomy.Brand
		if err := rows.Scan(&b.ID, &b.VehicleTypeID, &b.Name, &b.LogoURL, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, &b)
	}
	return brands, rows.Err()
}

// ========== Models ==========

func (r *TaxonomyRepository) CreateModel(ctx context.Context, m *taxonomy.Model) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO vehicle_models (brand_id, name, year_from, year_to, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, m.BrandID, m.Name, m.YearFrom, m.YearTo, m.IsActive).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return mapError(err, "create model")
}

func (r *TaxonomyRepository) FindModelByID(ctx context.Context, id int64) (*taxonomy.Model, error) {
	var m taxonomy.Model
	err := r.db.QueryRow(ctx, `
		SELECT id, brand_id, name, year_from, year_to, is_active, created_at, updated_at
		FROM vehicle_models WHERE id = $1
	`, id).Scan(&m.ID, &m.BrandID, &m.Name, &m.YearFrom, &m.YearTo, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "find model")
	}
	return &m, nil
}

func (r *TaxonomyRepository) UpdateModel(ctx context.Context, m *taxonomy.Model) error {
	err := r.db.QueryRow(ctx, `
		UPDATE vehicle_models SET name = $1, year_from = $2, year_to = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, m.Name, m.YearFrom, m.YearTo, m.IsActive, m.ID).Scan(&m.UpdatedAt)
	return mapError(err, "update model")
}

func (r *TaxonomyRepository) DeleteModel(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicle_models WHERE id = $1`, id)
	return affected(tag, err, "delete model")
}

func (r *TaxonomyRepository) ListModels(ctx context.Context, brandID int64, activeOnly bool) ([]*taxonomy.Model, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, brand_id, name, year_from, year_to, is_active, created_at, updated_at
		FROM vehicle_models
		WHERE brand_id = $1 AND ($2 = FALSE OR is_active)
		ORDER BY name
	`, brandID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	models := []*taxonomy.Model{}
	for rows.Next() {
		var m taxonomy.Model
		if err := rows.Scan(&m.ID, &m.BrandID, &m.Name, &m.YearFrom, &m.YearTo, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, &m)
	}
	return models, rows.Err()
}

// ========== Attributes ==========

const attributeColumns = `id, vehicle_type_id, name, key, data_type, options, is_required,
	is_filterable, sort_order, created_at, updated_at`

func (r *TaxonomyRepository) CreateAttribute(ctx context.Context, a *taxonomy.Attribute) error {
	if a.Options == nil {
		a.Options = []string{}
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO vehicle_attributes (vehicle_type_id, name, key, data_type, options, is_required, is_filterable, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, a.VehicleTypeID, a.Name, a.Key, a.DataType, a.Options, a.IsRequired, a.IsFilterable, a.SortOrder).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return mapError(err, "create attribute")
}

func (r *TaxonomyRepository) FindAttributeByID(ctx context.Context, id int64) (*taxonomy.Attribute, error) {
	var a taxonomy.Attribute
	err := r.db.QueryRow(ctx, "SELECT "+attributeColumns+" FROM vehicle_attributes WHERE id = $1", id).Scan(
		&a.ID, &a.VehicleTypeID, &a.Name, &a.Key, &a.DataType, &a.Options, &a.IsRequired,
		&a.IsFilterable, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "find attribute")
	}
	return &a, nil
}

func (r *TaxonomyRepository) UpdateAttribute(ctx context.Context, a *taxonomy.Attribute) error {
	err := r.db.QueryRow(ctx, `
		UPDATE vehicle_attributes
		SET name = $1, options = $2, is_required = $3, is_filterable = $4, sort_order = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, a.Name, a.Options, a.IsRequired, a.IsFilterable, a.SortOrder, a.ID).Scan(&a.UpdatedAt)
	return mapError(err, "update attribute")
}

func (r *TaxonomyRepository) DeleteAttribute(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicle_attributes WHERE id = $1`, id)
	return affected(tag, err, "delete attribute")
}

func (r *TaxonomyRepository) ListAttributes(ctx context.Context, typeID int64) ([]*taxonomy.Attribute, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+attributeColumns+" FROM vehicle_attributes WHERE vehicle_type_id = $1 ORDER BY sort_order, name",
		typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	defer rows.Close()

	attrs := []*taxonomy.Attribute{}
	for rows.Next() {
		var a taxonomy.Attribute
		if err := rows.Scan(
			&a.ID, &a.VehicleTypeID, &a.Name, &a.Key, &a.DataType, &a.Options, &a.IsRequired,
			&a.IsFilterable, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attrs = append(attrs, &a)
	}
	return attrs, rows.Err()
}
