// internal/handlers/taxonomy/taxonomy_handler.go
package taxonomy

import (
	"context"
	"net/http"

	"motormart-service/internal/domain/taxonomy"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	CreateType(ctx context.Context, req *taxonomy.CreateVehicleTypeRequest) (*taxonomy.VehicleType, error)
	UpdateType(ctx context.Context, id int64, req *taxonomy.UpdateVehicleTypeRequest) (*taxonomy.VehicleType, error)
	DeleteType(ctx context.Context, id int64) error
	ListTypes(ctx context.Context, activeOnly bool) ([]*taxonomy.VehicleType, error)

	CreateBrand(ctx context.Context, req *taxonomy.CreateBrandRequest) (*taxonomy.Brand, error)
	UpdateBrand(ctx context.Context, id int64, req *taxonomy.UpdateBrandRequest) (*taxonomy.Brand, error)
	DeleteBrand(ctx context.Context, id int64) error
	ListBrands(ctx context.Context, typeID int64, activeOnly bool) ([]*taxonomy.Brand, error)

	CreateModel(ctx context.Context, req *taxonomy.CreateModelRequest) (*taxonomy.Model, error)
	UpdateModel(ctx context.Context, id int64, req *taxonomy.UpdateModelRequest) (*taxonomy.Model, error)
	DeleteModel(ctx context.Context, id int64) error
	ListModels(ctx context.Context, brandID int64, activeOnly bool) ([]*taxonomy.Model, error)

	CreateAttribute(ctx context.Context, req *taxonomy.CreateAttributeRequest) (*taxonomy.Attribute, error)
	UpdateAttribute(ctx context.Context, id int64, req *taxonomy.UpdateAttributeRequest) (*taxonomy.Attribute, error)
	DeleteAttribute(ctx context.Context, id int64) error
	ListAttributes(ctx context.Context, typeID int64) ([]*taxonomy.Attribute, error)
}

// TaxonomyHandler serves the vehicle configuration: types, brands, models and attributes.
type TaxonomyHandler struct {
	taxonomyService Service
}

func NewTaxonomyHandler(taxonomyService Service) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

// activeOnly hides inactive entries unless an admin asks for them.
func activeOnly(c *gin.Context) bool {
	return !(middleware.IsAdmin(c) && c.Query("include_inactive") == "true")
}

// ========== Vehicle types ==========

func (h *TaxonomyHandler) ListTypes(c *gin.Context) {
	types, err := h.taxonomyService.ListTypes(c.Request.Context(), activeOnly(c))
	if err != nil {
		response.FromError(c, "failed to list vehicle types", err)
		return
	}
	response.Success(c, http.StatusOK, "vehicle types retrieved", types)
}

func (h *TaxonomyHandler) CreateType(c *gin.Context) {
	var req taxonomy.CreateVehicleTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	t, err := h.taxonomyService.CreateType(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create vehicle type", err)
		return
	}
	response.Success(c, http.StatusCreated, "vehicle type created", t)
}

func (h *TaxonomyHandler) UpdateType(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req taxonomy.UpdateVehicleTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	t, err := h.taxonomyService.UpdateType(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update vehicle type", err)
		return
	}
	response.Success(c, http.StatusOK, "vehicle type updated", t)
}

func (h *TaxonomyHandler) DeleteType(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.taxonomyService.DeleteType(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete vehicle type", err)
		return
	}
	response.Success(c, http.StatusOK, "vehicle type deleted", nil)
}

// ========== Brands ==========

func (h *TaxonomyHandler) ListBrands(c *gin.Context) {
	typeID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	brands, err := h.taxonomyService.ListBrands(c.Request.Context(), typeID, activeOnly(c))
	if err != nil {
		response.FromError(c, "failed to list brands", err)
		return
	}
	response.Success(c, http.StatusOK, "brands retrieved", brands)
}

func (h *TaxonomyHandler) CreateBrand(c *gin.Context) {
	var req taxonomy.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	b, err := h.taxonomyService.CreateBrand(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create brand", err)
		return
	}
	response.Success(c, http.StatusCreated, "brand created", b)
}

func (h *TaxonomyHandler) UpdateBrand(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req taxonomy.UpdateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	b, err := h.taxonomyService.UpdateBrand(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update brand", err)
		return
	}
	response.Success(c, http.StatusOK, "brand updated", b)
}

func (h *TaxonomyHandler) DeleteBrand(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.taxonomyService.DeleteBrand(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete brand", err)
		return
	}
	response.Success(c, http.StatusOK, "brand deleted", nil)
}

// ========== Models ==========

func (h *TaxonomyHandler) ListModels(c *gin.Context) {
	brandID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	models, err := h.taxonomyService.ListModels(c.Request.Context(), brandID, activeOnly(c))
	if err != nil {
		response.FromError(c, "failed to list models", err)
		return
	}
	response.Success(c, http.StatusOK, "models retrieved", models)
}

func (h *TaxonomyHandler) CreateModel(c *gin.Context) {
	var req taxonomy.CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	m, err := h.taxonomyService.CreateModel(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create model", err)
		return
	}
	response.Success(c, http.StatusCreated, "model created", m)
}

func (h *TaxonomyHandler) UpdateModel(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req taxonomy.UpdateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	m, err := h.taxonomyService.UpdateModel(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update model", err)
		return
	}
	response.Success(c, http.StatusOK, "model updated", m)
}

func (h *TaxonomyHandler) DeleteModel(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.taxonomyService.DeleteModel(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete model", err)
		return
	}
	response.Success(c, http.StatusOK, "model deleted", nil)
}

// ========== Attributes ==========

func (h *TaxonomyHandler) ListAttributes(c *gin.Context) {
	typeID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	attrs, err := h.taxonomyService.ListAttributes(c.Request.Context(), typeID)
	if err != nil {
		response.FromError(c, "failed to list attributes", err)
		return
	}
	response.Success(c, http.StatusOK, "attributes retrieved", attrs)
}

func (h *TaxonomyHandler) CreateAttribute(c *gin.Context) {
	var req taxonomy.CreateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	a, err := h.taxonomyService.CreateAttribute(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create attribute", err)
		return
	}
	response.Success(c, http.StatusCreated, "attribute created", a)
}

func (h *TaxonomyHandler) UpdateAttribute(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req taxonomy.UpdateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	a, err := h.taxonomyService.UpdateAttribute(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update attribute", err)
		return
	}
	response.Success(c, http.StatusOK, "attribute updated", a)
}

func (h *TaxonomyHandler) DeleteAttribute(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.taxonomyService.DeleteAttribute(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete attribute", err)
		return
	}
	response.Success(c, http.StatusOK, "attribute deleted", nil)
}
