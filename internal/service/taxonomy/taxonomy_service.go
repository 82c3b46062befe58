// internal/service/taxonomy/taxonomy_service.go
package taxonomy

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"motormart-service/internal/domain/taxonomy"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
)

var (
	slugStrip   = regexp.MustCompile(`[^a-z0-9]+`)
	attrKeyRule = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

type TaxonomyService struct {
	repo   taxonomy.Repository
	logger *zap.Logger
}

func NewTaxonomyService(repo taxonomy.Repository, logger *zap.Logger) *TaxonomyService {
	return &TaxonomyService{repo: repo, logger: logger}
}

// Slugify lower-cases name and joins its words with dashes.
func Slugify(name string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ========== Vehicle Types ==========

func (s *TaxonomyService) CreateType(ctx context.Context, req *taxonomy.CreateVehicleTypeRequest) (*taxonomy.VehicleType, error) {
	name := strings.TrimSpace(req.Name)
	slug := req.Slug
	if slug == "" {
		slug = name
	}
	slug = Slugify(slug)
	if slug == "" {
		return nil, xerrors.Invalid("name must contain letters or digits")
	}

	t := &taxonomy.VehicleType{
		Name:      name,
		Slug:      slug,
		Icon:      req.Icon,
		IsActive:  true,
		SortOrder: req.SortOrder,
	}
	if err := s.repo.CreateType(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("vehicle type created", zap.Int64("type_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

func (s *TaxonomyService) UpdateType(ctx context.Context, id int64, req *taxonomy.UpdateVehicleTypeRequest) (*taxonomy.VehicleType, error) {
	t, err := s.repo.FindTypeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Icon != nil {
		t.Icon = req.Icon
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		t.SortOrder = *req.SortOrder
	}
	if err := s.repo.UpdateType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteType refuses to remove a type that still has brands.
func (s *TaxonomyService) DeleteType(ctx context.Context, id int64) error {
	n, err := s.repo.CountBrands(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count brands: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: vehicle type still has %d brand(s)", xerrors.ErrConflict, n)
	}
	return s.repo.DeleteType(ctx, id)
}

func (s *TaxonomyService) GetType(ctx context.Context, id int64) (*taxonomy.VehicleType, error) {
	return s.repo.FindTypeByID(ctx, id)
}

func (s *TaxonomyService) ListTypes(ctx context.Context, activeOnly bool) ([]*taxonomy.VehicleType, error) {
	return s.repo.ListTypes(ctx, activeOnly)
}

// ========== Brands ==========

func (s *TaxonomyService) CreateBrand(ctx context.Context, req *taxonomy.CreateBrandRequest) (*taxonomy.Brand, error) {
	if _, err := s.repo.FindTypeByID(ctx, req.VehicleTypeID); err != nil {
		return nil, err
	}
	b := &taxonomy.Brand{
		VehicleTypeID: req.VehicleTypeID,
		Name:          strings.TrimSpace(req.Name),
		LogoURL:       req.LogoURL,
		IsActive:      true,
	}
	if err := s.repo.CreateBrand(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *TaxonomyService) UpdateBrand(ctx context.Context, id int64, req *taxonomy.UpdateBrandRequest) (*taxonomy.Brand, error) {
	b, err := s.repo.FindBrandByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		b.Name = strings.TrimSpace(*req.Name)
	}
	if req.LogoURL != nil {
		b.LogoURL = req.LogoURL
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateBrand(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *TaxonomyService) DeleteBrand(ctx context.Context, id int64) error {
	return s.repo.DeleteBrand(ctx, id)
}

func (s *TaxonomyService) ListBrands(ctx context.Context, typeID int64, activeOnly bool) ([]*taxonomy.Brand, error) {
	return s.repo.ListBrands(ctx, typeID, activeOnly)
}

// ========== Models ==========

func validYears(from, to *int) error {
	if from != nil && to != nil && *to < *from {
		return xerrors.Invalid("year_to must not be before year_from")
	}
	return nil
}

func (s *TaxonomyService) CreateModel(ctx context.Context, req *taxonomy.CreateModelRequest) (*taxonomy.Model, error) {
	if err := validYears(req.YearFrom, req.YearTo); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindBrandByID(ctx, req.BrandID); err != nil {
		return nil, err
	}
	m := &taxonomy.Model{
		BrandID:  req.BrandID,
		Name:     strings.TrimSpace(req.Name),
		YearFrom: req.YearFrom,
		YearTo:   req.YearTo,
		IsActive: true,
	}
	if err := s.repo.CreateModel(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *TaxonomyService) UpdateModel(ctx context.Context, id int64, req *taxonomy.UpdateModelRequest) (*taxonomy.Model, error) {
	m, err := s.repo.FindModelByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.YearFrom != nil {
		m.YearFrom = req.YearFrom
	}
	if req.YearTo != nil {
		m.YearTo = req.YearTo
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := validYears(m.YearFrom, m.YearTo); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateModel(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *TaxonomyService) DeleteModel(ctx context.Context, id int64) error {
	return s.repo.DeleteModel(ctx, id)
}

func (s *TaxonomyService) ListModels(ctx context.Context, brandID int64, activeOnly bool) ([]*taxonomy.Model, error) {
	return s.repo.ListModels(ctx, brandID, activeOnly)
}

// ========== Attributes ==========

func (s *TaxonomyService) CreateAttribute(ctx context.Context, req *taxonomy.CreateAttributeRequest) (*taxonomy.Attribute, error) {
	key := strings.ToLower(strings.TrimSpace(req.Key))
	if !attrKeyRule.MatchString(key) {
		return nil, xerrors.Invalid("attribute key must be snake_case")
	}
	if req.DataType == taxonomy.AttributeSelect && len(req.Options) == 0 {
		return nil, xerrors.Invalid("select attributes need at least one option")
	}
	if _, err := s.repo.FindTypeByID(ctx, req.VehicleTypeID); err != nil {
		return nil, err
	}

	a := &taxonomy.Attribute{
		VehicleTypeID: req.VehicleTypeID,
		Name:          strings.TrimSpace(req.Name),
		Key:           key,
		DataType:      req.DataType,
		Options:       req.Options,
		IsRequired:    req.IsRequired,
		IsFilterable:  req.IsFilterable,
		SortOrder:     req.SortOrder,
	}
	if a.Options == nil {
		a.Options = []string{}
	}
	if err := s.repo.CreateAttribute(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *TaxonomyService) UpdateAttribute(ctx context.Context, id int64, req *taxonomy.UpdateAttributeRequest) (*taxonomy.Attribute, error) {
	a, err := s.repo.FindAttributeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		a.Name = strings.TrimSpace(*req.Name)
	}
	if req.Options != nil {
		a.Options = req.Options
	}
	if req.IsRequired != nil {
		a.IsRequired = *req.IsRequired
	}
	if req.IsFilterable != nil {
		a.IsFilterable = *req.IsFilterable
	}
	if req.SortOrder != nil {
		a.SortOrder = *req.SortOrder
	}
	if a.DataType == taxonomy.AttributeSelect && len(a.Options) == 0 {
		return nil, xerrors.Invalid("select attributes need at least one option")
	}
	if err := s.repo.UpdateAttribute(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *TaxonomyService) DeleteAttribute(ctx context.Context, id int64) error {
	return s.repo.DeleteAttribute(ctx, id)
}

func (s *TaxonomyService) ListAttributes(ctx context.Context, typeID int64) ([]*taxonomy.Attribute, error) {
	return s.repo.ListAttributes(ctx, typeID)
}

// ========== Ad Classification ==========

// ValidateClassification checks that the brand belongs to the type and the
// model to the brand.
func (s *TaxonomyService) ValidateClassification(ctx context.Context, typeID int64, brandID, modelID *int64) error {
	t, err := s.repo.FindTypeByID(ctx, typeID)
	if err != nil {
		return fmt.Errorf("vehicle type: %w", err)
	}
	if !t.IsActive {
		return xerrors.Invalid("vehicle type %s is not accepting ads", t.Name)
	}
	if brandID == nil {
		if modelID != nil {
			return xerrors.Invalid("model given without a brand")
		}
		return nil
	}
	b, err := s.repo.FindBrandByID(ctx, *brandID)
	if err != nil {
		return fmt.Errorf("brand: %w", err)
	}
	if b.VehicleTypeID != typeID {
		return xerrors.Invalid("brand %s does not belong to %s", b.Name, t.Name)
	}
	if modelID == nil {
		return nil
	}
	m, err := s.repo.FindModelByID(ctx, *modelID)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if m.BrandID != b.ID {
		return xerrors.Invalid("model %s does not belong to %s", m.Name, b.Name)
	}
	return nil
}

// ValidateAttributeValues checks values against the type's attribute
// definitions: every required attribute is present and every value parses.
func (s *TaxonomyService) ValidateAttributeValues(ctx context.Context, typeID int64, values map[int64]string) error {
	attrs, err := s.repo.ListAttributes(ctx, typeID)
	if err != nil {
		return fmt.Errorf("failed to load attributes: %w", err)
	}
	return CheckAttributeValues(attrs, values)
}

// CheckAttributeValues is the pure part of ValidateAttributeValues.
func CheckAttributeValues(attrs []*taxonomy.Attribute, values map[int64]string) error {
	byID := make(map[int64]*taxonomy.Attribute, len(attrs))
	for _, a := range attrs {
		byID[a.ID] = a
		if v := strings.TrimSpace(values[a.ID]); a.IsRequired && v == "" {
			return xerrors.Invalid("attribute %s is required", a.Name)
		}
	}

	for id, raw := range values {
		a, ok := byID[id]
		if !ok {
			return xerrors.Invalid("attribute %d does not apply to this vehicle type", id)
		}
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		switch a.DataType {
		case taxonomy.AttributeNumber:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return xerrors.Invalid("attribute %s must be a number", a.Name)
			}
		case taxonomy.AttributeBoolean:
			if _, err := strconv.ParseBool(v); err != nil {
				return xerrors.Invalid("attribute %s must be true or false", a.Name)
			}
		case taxonomy.AttributeSelect:
			if !containsFold(a.Options, v) {
				return xerrors.Invalid("attribute %s must be one of %s", a.Name, strings.Join(a.Options, ", "))
			}
		}
	}
	return nil
}

func containsFold(options []string, v string) bool {
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return true
		}
	}
	return false
}
