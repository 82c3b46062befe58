// internal/handlers/boost/boost_handler.go
package boost

import (
	"context"
	"net/http"

	"motormart-service/internal/domain/boost"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	ListAdBoosts(ctx context.Context, userID, adID int64, isAdmin bool) ([]*boost.AdBoost, error)
}

type BoostHandler struct {
	boostService Service
}

func NewBoostHandler(boostService Service) *BoostHandler {
	return &BoostHandler{boostService: boostService}
}

// ListAdBoosts returns the boost history of an ad owned by the caller.
func (h *BoostHandler) ListAdBoosts(c *gin.Context) {
	adID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	boosts, err := h.boostService.ListAdBoosts(c.Request.Context(), middleware.MustGetUserID(c), adID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, "failed to list boosts", err)
		return
	}
	if boosts == nil {
		boosts = []*boost.AdBoost{}
	}
	response.Success(c, http.StatusOK, "boosts retrieved", boosts)
}
