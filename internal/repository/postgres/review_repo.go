// internal/repository/postgres/review_repo.go
package postgres

import (
	"context"
	"fmt"

	"motormart-service/internal/domain/review"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO reviews (seller_id, reviewer_id, ad_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, rv.SellerID, rv.ReviewerID, rv.AdID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	return mapError(err, "create review")
}

func (r *ReviewRepository) FindByID(ctx context.Context, id int64) (*review.Review, error) {
	var rv review.Review
	err := r.db.QueryRow(ctx, `
		SELECT id, seller_id, reviewer_id, ad_id, rating, comment, created_at, updated_at
		FROM reviews WHERE id = $1
	`, id).Scan(&rv.ID, &rv.SellerID, &rv.ReviewerID, &rv.AdID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "find review")
	}
	return &rv, nil
}

func (r *ReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	err := r.db.QueryRow(ctx, `
		UPDATE reviews SET rating = $1, comment = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, rv.Rating, rv.Comment, rv.ID).Scan(&rv.UpdatedAt)
	return mapError(err, "update review")
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	return affected(tag, err, "delete review")
}

func (r *ReviewRepository) ListBySeller(ctx context.Context, sellerID int64) ([]*review.Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT rv.id, rv.seller_id, rv.reviewer_id, TRIM(u.first_name || ' ' || u.last_name),
		       rv.ad_id, rv.rating, rv.comment, rv.created_at, rv.updated_at
		FROM reviews rv
		JOIN users u ON u.id = rv.reviewer_id
		WHERE rv.seller_id = $1
		ORDER BY rv.created_at DESC
	`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*review.Review{}
	for rows.Next() {
		var rv review.Review
		if err := rows.Scan(&rv.ID, &rv.SellerID, &rv.ReviewerID, &rv.ReviewerName,
			&rv.AdID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &rv)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) SellerRating(ctx context.Context, sellerID int64) (float64, int64, error) {
	var avg float64
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE seller_id = $1
	`, sellerID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute seller rating: %w", err)
	}
	return avg, count, nil
}
