// internal/handlers/pricing/pricing_handler.go
package pricing

import (
	"context"
	"net/http"
	"strconv"

	"motormart-service/internal/domain/boost"
	"motormart-service/internal/domain/pricing"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	CreateItem(ctx context.Context, req *pricing.CreatePriceItemRequest) (*pricing.PriceItem, error)
	UpdateItem(ctx context.Context, id int64, req *pricing.UpdatePriceItemRequest) (*pricing.PriceItem, error)
	DeleteItem(ctx context.Context, id int64) error
	GetItem(ctx context.Context, id int64) (*pricing.PriceItem, error)
	ListItems(ctx context.Context, filters *pricing.PriceItemFilters) ([]*pricing.PriceItem, error)

	CreateRule(ctx context.Context, req *pricing.CreatePricingRuleRequest) (*pricing.PricingRule, error)
	UpdateRule(ctx context.Context, id int64, req *pricing.UpdatePricingRuleRequest) (*pricing.PricingRule, error)
	DeleteRule(ctx context.Context, id int64) error
	ListRules(ctx context.Context, itemID int64) ([]*pricing.PricingRule, error)
	ResolvePrice(ctx context.Context, itemID int64, vehicleTypeID *int64, quantity int) (*pricing.PriceQuote, error)

	SetFeature(ctx context.Context, packageID int64, req *pricing.SetFeatureRequest) (*pricing.PackageFeature, error)
	DeleteFeature(ctx context.Context, packageID int64, key string) error
	AddIncludedItem(ctx context.Context, packageID int64, req *pricing.AddIncludedItemRequest) (*pricing.PackageIncludedItem, error)
	RemoveIncludedItem(ctx context.Context, packageID, includedItemID int64) error
	SetAdLimit(ctx context.Context, packageID int64, req *pricing.SetAdLimitRequest) (*pricing.PackageAdLimit, error)
	DeleteAdLimit(ctx context.Context, packageID, vehicleTypeID int64) error

	ListPackages(ctx context.Context) ([]*pricing.PackageDetails, error)
	GetUserActivePackage(ctx context.Context, userID int64) (*pricing.Entitlement, error)
	ListMySubscriptions(ctx context.Context, userID int64) ([]*pricing.UserSubscription, error)
	Unsubscribe(ctx context.Context, userID, subscriptionID int64) (*pricing.UserSubscription, error)
}

type BoostLister interface {
	ListBoostOptions(ctx context.Context) ([]*boost.BoostOption, error)
}

type PricingHandler struct {
	pricingService Service
	boosts         BoostLister
}

func NewPricingHandler(pricingService Service, boosts BoostLister) *PricingHandler {
	return &PricingHandler{pricingService: pricingService, boosts: boosts}
}

// ========== Catalogue ==========

func (h *PricingHandler) ListPackages(c *gin.Context) {
	packages, err := h.pricingService.ListPackages(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list packages", err)
		return
	}
	response.Success(c, http.StatusOK, "packages retrieved", packages)
}

func (h *PricingHandler) ListBoosts(c *gin.Context) {
	options, err := h.boosts.ListBoostOptions(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list boosts", err)
		return
	}
	response.Success(c, http.StatusOK, "boosts retrieved", options)
}

// GetPrice quotes an item: ?vehicle_type_id=&quantity=
func (h *PricingHandler) GetPrice(c *gin.Context) {
	itemID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var q struct {
		VehicleTypeID *int64 `form:"vehicle_type_id" binding:"omitempty,min=1"`
		Quantity      int    `form:"quantity" binding:"omitempty,min=1,max=1000"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	if q.Quantity == 0 {
		q.Quantity = 1
	}

	quote, err := h.pricingService.ResolvePrice(c.Request.Context(), itemID, q.VehicleTypeID, q.Quantity)
	if err != nil {
		response.FromError(c, "failed to resolve price", err)
		return
	}
	response.Success(c, http.StatusOK, "price resolved", quote)
}

// ========== Subscriber ==========

func (h *PricingHandler) MyPackage(c *gin.Context) {
	ent, err := h.pricingService.GetUserActivePackage(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to load package", err)
		return
	}
	response.Success(c, http.StatusOK, "package retrieved", ent)
}

// Usage is the quota part of the entitlement.
func (h *PricingHandler) Usage(c *gin.Context) {
	ent, err := h.pricingService.GetUserActivePackage(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to load usage", err)
		return
	}
	response.Success(c, http.StatusOK, "usage retrieved", gin.H{
		"has_package": ent.HasPackage,
		"per_type":    ent.PerType,
		"global":      ent.Global,
		"total_used":  ent.TotalUsed,
		"computed_at": ent.ComputedAt,
	})
}

func (h *PricingHandler) MySubscriptions(c *gin.Context) {
	subs, err := h.pricingService.ListMySubscriptions(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to list subscriptions", err)
		return
	}
	if subs == nil {
		subs = []*pricing.UserSubscription{}
	}
	response.Success(c, http.StatusOK, "subscriptions retrieved", subs)
}

func (h *PricingHandler) CancelSubscription(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	sub, err := h.pricingService.Unsubscribe(c.Request.Context(), middleware.MustGetUserID(c), id)
	if err != nil {
		response.FromError(c, "failed to cancel subscription", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription cancelled", sub)
}

// ========== Admin: items ==========

func (h *PricingHandler) ListItems(c *gin.Context) {
	var filters pricing.PriceItemFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}
	items, err := h.pricingService.ListItems(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list items", err)
		return
	}
	response.Success(c, http.StatusOK, "items retrieved", items)
}

func (h *PricingHandler) GetItem(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	item, err := h.pricingService.GetItem(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to get item", err)
		return
	}
	response.Success(c, http.StatusOK, "item retrieved", item)
}

func (h *PricingHandler) CreateItem(c *gin.Context) {
	var req pricing.CreatePriceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	item, err := h.pricingService.CreateItem(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create item", err)
		return
	}
	response.Success(c, http.StatusCreated, "item created", item)
}

func (h *PricingHandler) UpdateItem(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req pricing.UpdatePriceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	item, err := h.pricingService.UpdateItem(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update item", err)
		return
	}
	response.Success(c, http.StatusOK, "item updated", item)
}

func (h *PricingHandler) DeleteItem(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.pricingService.DeleteItem(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete item", err)
		return
	}
	response.Success(c, http.StatusOK, "item deleted", nil)
}

// ========== Admin: rules ==========

func (h *PricingHandler) ListRules(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	rules, err := h.pricingService.ListRules(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to list rules", err)
		return
	}
	response.Success(c, http.StatusOK, "rules retrieved", rules)
}

func (h *PricingHandler) CreateRule(c *gin.Context) {
	var req pricing.CreatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	rule, err := h.pricingService.CreateRule(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create rule", err)
		return
	}
	response.Success(c, http.StatusCreated, "rule created", rule)
}

func (h *PricingHandler) UpdateRule(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req pricing.UpdatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	rule, err := h.pricingService.UpdateRule(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update rule", err)
		return
	}
	response.Success(c, http.StatusOK, "rule updated", rule)
}

func (h *PricingHandler) DeleteRule(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.pricingService.DeleteRule(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete rule", err)
		return
	}
	response.Success(c, http.StatusOK, "rule deleted", nil)
}

// ========== Admin: package composition ==========

func (h *PricingHandler) SetFeature(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req pricing.SetFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	f, err := h.pricingService.SetFeature(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to set feature", err)
		return
	}
	response.Success(c, http.StatusOK, "feature saved", f)
}

func (h *PricingHandler) DeleteFeature(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.pricingService.DeleteFeature(c.Request.Context(), id, c.Param("key")); err != nil {
		response.FromError(c, "failed to delete feature", err)
		return
	}
	response.Success(c, http.StatusOK, "feature deleted", nil)
}

func (h *PricingHandler) AddIncludedItem(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req pricing.AddIncludedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	item, err := h.pricingService.AddIncludedItem(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to add included item", err)
		return
	}
	response.Success(c, http.StatusOK, "included item saved", item)
}

func (h *PricingHandler) RemoveIncludedItem(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	itemID, ok := response.ParamID(c, "item_id")
	if !ok {
		return
	}
	if err := h.pricingService.RemoveIncludedItem(c.Request.Context(), id, itemID); err != nil {
		response.FromError(c, "failed to remove included item", err)
		return
	}
	response.Success(c, http.StatusOK, "included item removed", nil)
}

func (h *PricingHandler) SetAdLimit(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var req pricing.SetAdLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	limit, err := h.pricingService.SetAdLimit(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to set ad limit", err)
		return
	}
	response.Success(c, http.StatusOK, "ad limit saved", limit)
}

func (h *PricingHandler) DeleteAdLimit(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	typeID, err := strconv.ParseInt(c.Param("type_id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid type_id", err)
		return
	}
	if err := h.pricingService.DeleteAdLimit(c.Request.Context(), id, typeID); err != nil {
		response.FromError(c, "failed to delete ad limit", err)
		return
	}
	response.Success(c, http.StatusOK, "ad limit deleted", nil)
}
