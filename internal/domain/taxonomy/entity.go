// internal/domain/taxonomy/entity.go
package taxonomy

import (
	"time"

	"github.com/lib/pq"
)

type AttributeDataType string

const (
	AttributeText    AttributeDataType = "text"
	AttributeNumber  AttributeDataType = "number"
	AttributeBoolean AttributeDataType = "boolean"
	AttributeSelect  AttributeDataType = "select"
)

// VehicleType is the top level of the taxonomy (car, van, motorbike, ...).
// Names are unique case-insensitively; entitlement matching relies on that.
type VehicleType struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Icon      *string   `json:"icon,omitempty" db:"icon"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Brand struct {
	ID            int64     `json:"id" db:"id"`
	VehicleTypeID int64     `json:"vehicle_type_id" db:"vehicle_type_id"`
	Name          string    `json:"name" db:"name"`
	LogoURL       *string   `json:"logo_url,omitempty" db:"logo_url"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type Model struct {
	ID        int64     `json:"id" db:"id"`
	BrandID   int64     `json:"brand_id" db:"brand_id"`
	Name      string    `json:"name" db:"name"`
	YearFrom  *int      `json:"year_from,omitempty" db:"year_from"`
	YearTo    *int      `json:"year_to,omitempty" db:"year_to"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Attribute is a dynamic per-type field whose values live in ad_attribute_values.
type Attribute struct {
	ID            int64             `json:"id" db:"id"`
	VehicleTypeID int64             `json:"vehicle_type_id" db:"vehicle_type_id"`
	Name          string            `json:"name" db:"name"`
	Key           string            `json:"key" db:"key"`
	DataType      AttributeDataType `json:"data_type" db:"data_type"`
	Options       pq.StringArray    `json:"options" db:"options"`
	IsRequired    bool              `json:"is_required" db:"is_required"`
	IsFilterable  bool              `json:"is_filterable" db:"is_filterable"`
	SortOrder     int               `json:"sort_order" db:"sort_order"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}
