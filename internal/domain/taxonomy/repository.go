// internal/domain/taxonomy/repository.go
package taxonomy

import "context"

type Repository interface {
	CreateType(ctx context.Context, t *VehicleType) error
	FindTypeByID(ctx context.Context, id int64) (*VehicleType, error)
	UpdateType(ctx context.Context, t *VehicleType) error
	DeleteType(ctx context.Context, id int64) error
	ListTypes(ctx context.Context, activeOnly bool) ([]*VehicleType, error)
	CountBrands(ctx context.Context, typeID int64) (int64, error)

	CreateBrand(ctx context.Context, b *Brand) error
	FindBrandByID(ctx context.Context, id int64) (*Brand, error)
	UpdateBrand(ctx context.Context, b *Brand) error
	DeleteBrand(ctx context.Context, id int64) error
	ListBrands(ctx context.Context, typeID int64, activeOnly bool) ([]*Brand, error)

	CreateModel(ctx context.Context, m *Model) error
	FindModelByID(ctx context.Context, id int64) (*Model, error)
	UpdateModel(ctx context.Context, m *Model) error
	DeleteModel(ctx context.Context, id int64) error
	ListModels(ctx context.Context, brandID int64, activeOnly bool) ([]*Model, error)

	CreateAttribute(ctx context.Context, a *Attribute) error
	FindAttributeByID(ctx context.Context, id int64) (*Attribute, error)
	UpdateAttribute(ctx context.Context, a *Attribute) error
	DeleteAttribute(ctx context.Context, id int64) error
	ListAttributes(ctx context.Context, typeID int64) ([]*Attribute, error)
}
