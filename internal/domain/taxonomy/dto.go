// internal/domain/taxonomy/dto.go
package taxonomy

type CreateVehicleTypeRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Slug      string  `json:"slug" binding:"omitempty,max=100"`
	Icon      *string `json:"icon"`
	SortOrder int     `json:"sort_order"`
}

type UpdateVehicleTypeRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=100"`
	Icon      *string `json:"icon"`
	IsActive  *bool   `json:"is_active"`
	SortOrder *int    `json:"sort_order"`
}

type CreateBrandRequest struct {
	VehicleTypeID int64   `json:"vehicle_type_id" binding:"required,min=1"`
	Name          string  `json:"name" binding:"required,max=100"`
	LogoURL       *string `json:"logo_url" binding:"omitempty,url"`
}

type UpdateBrandRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	LogoURL  *string `json:"logo_url" binding:"omitempty,url"`
	IsActive *bool   `json:"is_active"`
}

type CreateModelRequest struct {
	BrandID  int64  `json:"brand_id" binding:"required,min=1"`
	Name     string `json:"name" binding:"required,max=100"`
	YearFrom *int   `json:"year_from" binding:"omitempty,min=1900,max=2100"`
	YearTo   *int   `json:"year_to" binding:"omitempty,min=1900,max=2100"`
}

type UpdateModelRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	YearFrom *int    `json:"year_from" binding:"omitempty,min=1900,max=2100"`
	YearTo   *int    `json:"year_to" binding:"omitempty,min=1900,max=2100"`
	IsActive *bool   `json:"is_active"`
}

type CreateAttributeRequest struct {
	VehicleTypeID int64             `json:"vehicle_type_id" binding:"required,min=1"`
	Name          string            `json:"name" binding:"required,max=100"`
	Key           string            `json:"key" binding:"required,max=60"`
	DataType      AttributeDataType `json:"data_type" binding:"required,oneof=text number boolean select"`
	Options       []string          `json:"options"`
	IsRequired    bool              `json:"is_required"`
	IsFilterable  bool              `json:"is_filterable"`
	SortOrder     int               `json:"sort_order"`
}

type UpdateAttributeRequest struct {
	Name         *string  `json:"name" binding:"omitempty,max=100"`
	Options      []string `json:"options"`
	IsRequired   *bool    `json:"is_required"`
	IsFilterable *bool    `json:"is_filterable"`
	SortOrder    *int     `json:"sort_order"`
}
