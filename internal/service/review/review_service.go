// internal/service/review/review_service.go
package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"motormart-service/internal/domain/auth"
	"motormart-service/internal/domain/review"
	xerrors "motormart-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type UserReader interface {
	FindByID(ctx context.Context, id int64) (*auth.User, error)
}

type ReviewService struct {
	repo   review.Repository
	users  UserReader
	logger *zap.Logger
}

func NewReviewService(repo review.Repository, users UserReader, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		repo:   repo,
		users:  users,
		logger: logger,
	}
}

// Create records a review of a seller. Each reviewer may review a seller once.
func (s *ReviewService) Create(ctx context.Context, reviewerID int64, req *review.CreateReviewRequest) (*review.Review, error) {
	if req.SellerID == reviewerID {
		return nil, xerrors.Invalid("you cannot review yourself")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, xerrors.Invalid("rating must be between 1 and 5")
	}

	seller, err := s.users.FindByID(ctx, req.SellerID)
	if err != nil {
		return nil, err
	}
	if seller.Status == auth.StatusDeleted {
		return nil, xerrors.ErrNotFound
	}

	r := &review.Review{
		SellerID:   req.SellerID,
		ReviewerID: reviewerID,
		AdID:       req.AdID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: you have already reviewed this seller", xerrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info("review created",
		zap.Int64("review_id", r.ID),
		zap.Int64("seller_id", r.SellerID),
		zap.Int("rating", r.Rating))
	return r, nil
}

func (s *ReviewService) Update(ctx context.Context, reviewerID, id int64, req *review.UpdateReviewRequest) (*review.Review, error) {
	r, err := s.own(ctx, reviewerID, id)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, xerrors.Invalid("rating must be between 1 and 5")
		}
		r.Rating = *req.Rating
	}
	if req.Comment != nil {
		r.Comment = strings.TrimSpace(*req.Comment)
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return r, nil
}

// Delete removes a review; admins may remove any review.
func (s *ReviewService) Delete(ctx context.Context, userID, id int64, isAdmin bool) error {
	if !isAdmin {
		if _, err := s.own(ctx, userID, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("review deleted", zap.Int64("review_id", id), zap.Int64("by", userID))
	return nil
}

// ListBySeller returns a seller's reviews with their average rating, rounded to one decimal.
func (s *ReviewService) ListBySeller(ctx context.Context, sellerID int64) (*review.SellerReviews, error) {
	reviews, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	avg, count, err := s.repo.SellerRating(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller rating: %w", err)
	}
	if reviews == nil {
		reviews = []*review.Review{}
	}

	return &review.SellerReviews{
		SellerID:      sellerID,
		AverageRating: math.Round(avg*10) / 10,
		Count:         count,
		Reviews:       reviews,
	}, nil
}

func (s *ReviewService) own(ctx context.Context, userID, id int64) (*review.Review, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.ReviewerID != userID {
		return nil, fmt.Errorf("%w: not the author of this review", xerrors.ErrForbidden)
	}
	return r, nil
}
