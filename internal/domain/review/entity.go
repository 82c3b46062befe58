// internal/domain/review/entity.go
package review

import (
	"context"
	"time"
)

type Review struct {
	ID           int64     `json:"id" db:"id"`
	SellerID     int64     `json:"seller_id" db:"seller_id"`
	ReviewerID   int64     `json:"reviewer_id" db:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name,omitempty" db:"reviewer_name"`
	AdID         *int64    `json:"ad_id,omitempty" db:"ad_id"`
	Rating       int       `json:"rating" db:"rating"`
	Comment      string    `json:"comment" db:"comment"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type CreateReviewRequest struct {
	SellerID int64  `json:"seller_id" binding:"required,min=1"`
	AdID     *int64 `json:"ad_id" binding:"omitempty,min=1"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Comment  string `json:"comment" binding:"max=2000"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

type SellerReviews struct {
	SellerID      int64     `json:"seller_id"`
	AverageRating float64   `json:"average_rating"`
	Count         int64     `json:"count"`
	Reviews       []*Review `json:"reviews"`
}

type Repository interface {
	Create(ctx context.Context, r *Review) error
	FindByID(ctx context.Context, id int64) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id int64) error
	ListBySeller(ctx context.Context, sellerID int64) ([]*Review, error)
	SellerRating(ctx context.Context, sellerID int64) (float64, int64, error)
}
