// internal/handlers/favorite/favorite_handler.go
package favorite

import (
	"context"
	"net/http"

	"motormart-service/internal/domain/favorite"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	Add(ctx context.Context, userID, adID int64) error
	Remove(ctx context.Context, userID, adID int64) error
	List(ctx context.Context, userID int64) ([]*favorite.Favorite, error)
	IsFavorite(ctx context.Context, userID, adID int64) (bool, error)
}

type FavoriteHandler struct {
	favoriteService Service
}

func NewFavoriteHandler(favoriteService Service) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

func (h *FavoriteHandler) List(c *gin.Context) {
	favs, err := h.favoriteService.List(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to list favorites", err)
		return
	}
	response.Success(c, http.StatusOK, "favorites retrieved", favs)
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	adID, ok := response.ParamID(c, "ad_id")
	if !ok {
		return
	}
	if err := h.favoriteService.Add(c.Request.Context(), middleware.MustGetUserID(c), adID); err != nil {
		response.FromError(c, "failed to add favorite", err)
		return
	}
	response.Success(c, http.StatusOK, "added to favorites", gin.H{"ad_id": adID, "is_favorite": true})
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	adID, ok := response.ParamID(c, "ad_id")
	if !ok {
		return
	}
	if err := h.favoriteService.Remove(c.Request.Context(), middleware.MustGetUserID(c), adID); err != nil {
		response.FromError(c, "failed to remove favorite", err)
		return
	}
	response.Success(c, http.StatusOK, "removed from favorites", gin.H{"ad_id": adID, "is_favorite": false})
}

func (h *FavoriteHandler) Status(c *gin.Context) {
	adID, ok := response.ParamID(c, "ad_id")
	if !ok {
		return
	}
	fav, err := h.favoriteService.IsFavorite(c.Request.Context(), middleware.MustGetUserID(c), adID)
	if err != nil {
		response.FromError(c, "failed to check favorite", err)
		return
	}
	response.Success(c, http.StatusOK, "favorite status", gin.H{"ad_id": adID, "is_favorite": fav})
}
