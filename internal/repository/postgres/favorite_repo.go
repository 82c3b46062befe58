// internal/repository/postgres/favorite_repo.go
package postgres

import (
	"context"
	"fmt"

	"motormart-service/internal/domain/favorite"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FavoriteRepository struct {
	db *pgxpool.Pool
}

func NewFavoriteRepository(db *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add is idempotent.
func (r *FavoriteRepository) Add(ctx context.Context, userID, adID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO favorites (user_id, ad_id) VALUES ($1, $2)
		ON CONFLICT (user_id, ad_id) DO NOTHING
	`, userID, adID)
	return mapError(err, "add favorite")
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, adID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND ad_id = $2`, userID, adID)
	return affected(tag, err, "remove favorite")
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, adID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND ad_id = $2)`,
		userID, adID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

func (r *FavoriteRepository) List(ctx context.Context, userID int64) ([]*favorite.Favorite, error) {
	rows, err := r.db.Query(ctx, `
		SELECT f.ad_id, a.title, a.price, a.currency, a.location, a.status,
		       (SELECT url FROM ad_images i WHERE i.ad_id = a.id ORDER BY i.is_primary DESC, i.sort_order LIMIT 1),
		       f.created_at
		FROM favorites f
		JOIN car_ads a ON a.id = f.ad_id
		WHERE f.user_id = $1 AND a.status <> 'DELETED'
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favs := []*favorite.Favorite{}
	for rows.Next() {
		var f favorite.Favorite
		if err := rows.Scan(&f.AdID, &f.Title, &f.Price, &f.Currency, &f.Location, &f.Status, &f.PrimaryImage, &f.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favs = append(favs, &f)
	}
	return favs, rows.Err()
}
