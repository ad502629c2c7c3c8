package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/pkg/trm"
)

type ReviewRepo interface {
	CreateReview(ctx context.Context, rev entities.Review) error
	GetReviewByID(ctx context.Context, reviewID string) (entities.Review, error)
	UpdateReview(ctx context.Context, rev entities.Review) error
	DeleteReview(ctx context.Context, reviewID string) error
	ListReviews(ctx context.Context, filter repo.ReviewFilter, limit, offset int) ([]entities.Review, int, error)
}

type PurchaseChecker interface {
	HasDeliveredOrder(ctx context.Context, customerID, productID string) (bool, error)
}

type RatingRecomputer interface {
	GetProductByID(ctx context.Context, productID string) (entities.Product, error)
	RecomputeRating(ctx context.Context, productID string) error
}

type reviewService struct {
	logger    *slog.Logger
	txManager trm.Manager
	reviews   ReviewRepo
	orders    PurchaseChecker
	products  RatingRecomputer
	cache     Cache
}

func NewReviewService(logger *slog.Logger, txManager trm.Manager, reviews ReviewRepo, orders PurchaseChecker, products RatingRecomputer, cache Cache) *reviewService {
	return &reviewService{
		logger:    logger.With(slog.String("service", "review")),
		txManager: txManager,
		reviews:   reviews,
		orders:    orders,
		products:  products,
		cache:     cache,
	}
}

// CreateReview - отзыв попадает на модерацию, флаг verified
// выставляется по факту доставленного заказа с этим товаром
func (s *reviewService) CreateReview(ctx context.Context, rev entities.Review) (entities.Review, error) {
	if _, err := s.products.GetProductByID(ctx, rev.ProductID); err != nil {
		return entities.Review{}, err
	}

	verified, err := s.orders.HasDeliveredOrder(ctx, rev.CustomerID, rev.ProductID)
	if err != nil {
		return entities.Review{}, fmt.Errorf("failed to check purchase: %w", err)
	}

	now := time.Now()
	rev.ID = uuid.NewString()
	rev.Verified = verified
	rev.Moderation = entities.Moderation{Status: entities.ModerationStatusPending}
	rev.CreatedAt = now
	rev.UpdatedAt = now

	if err := s.reviews.CreateReview(ctx, rev); err != nil {
		return entities.Review{}, err
	}

	s.logger.Info("review created",
		slog.String("review_id", rev.ID), slog.String("product_id", rev.ProductID))
	return rev, nil
}

func (s *reviewService) GetReview(ctx context.Context, reviewID string) (entities.Review, error) {
	return s.reviews.GetReviewByID(ctx, reviewID)
}

func (s *reviewService) ListReviews(ctx context.Context, filter repo.ReviewFilter, limit, offset int) ([]entities.Review, int, error) {
	return s.reviews.ListReviews(ctx, filter, limit, offset)
}

// UpdateReview сохраняет правки, статус модерации не трогает:
// одобренный отзыв остается одобренным с новой оценкой
func (s *reviewService) UpdateReview(ctx context.Context, rev entities.Review) (entities.Review, error) {
	rev.UpdatedAt = time.Now()

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.reviews.UpdateReview(ctx, rev); err != nil {
			return err
		}
		// оценка могла измениться, агрегат пересчитывается
		return s.recomputeRating(ctx, rev.ProductID)
	})
	if err != nil {
		return entities.Review{}, err
	}
	return rev, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, rev entities.Review) error {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.reviews.DeleteReview(ctx, rev.ID); err != nil {
			return err
		}
		return s.recomputeRating(ctx, rev.ProductID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("review deleted", slog.String("review_id", rev.ID))
	return nil
}

// Moderate одобряет или отклоняет отзыв и пересчитывает рейтинг товара
func (s *reviewService) Moderate(ctx context.Context, reviewID, moderatorID string, approve bool, reason string) (entities.Review, error) {
	var rev entities.Review

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		rev, err = s.reviews.GetReviewByID(ctx, reviewID)
		if err != nil {
			return err
		}

		if approve {
			rev.Approve(moderatorID)
		} else {
			rev.Reject(moderatorID, reason)
		}
		rev.UpdatedAt = time.Now()

		if err := s.reviews.UpdateReview(ctx, rev); err != nil {
			return err
		}
		return s.recomputeRating(ctx, rev.ProductID)
	})
	if err != nil {
		return entities.Review{}, err
	}

	s.logger.Info("review moderated",
		slog.String("review_id", rev.ID), slog.String("status", string(rev.Moderation.Status)))
	return rev, nil
}

func (s *reviewService) MarkHelpful(ctx context.Context, reviewID, userID string, isHelpful bool) (entities.Review, error) {
	rev, err := s.reviews.GetReviewByID(ctx, reviewID)
	if err != nil {
		return entities.Review{}, err
	}

	rev.MarkHelpful(userID, isHelpful)
	rev.UpdatedAt = time.Now()

	if err := s.reviews.UpdateReview(ctx, rev); err != nil {
		return entities.Review{}, err
	}
	return rev, nil
}

func (s *reviewService) ReportReview(ctx context.Context, reviewID, userID, reason string) error {
	rev, err := s.reviews.GetReviewByID(ctx, reviewID)
	if err != nil {
		return err
	}

	rev.Report(userID, reason)
	rev.UpdatedAt = time.Now()

	return s.reviews.UpdateReview(ctx, rev)
}

func (s *reviewService) RespondToReview(ctx context.Context, reviewID, sellerID, comment string) (entities.Review, error) {
	rev, err := s.reviews.GetReviewByID(ctx, reviewID)
	if err != nil {
		return entities.Review{}, err
	}

	rev.AddSellerResponse(sellerID, comment)
	rev.UpdatedAt = time.Now()

	if err := s.reviews.UpdateReview(ctx, rev); err != nil {
		return entities.Review{}, err
	}
	return rev, nil
}

func (s *reviewService) recomputeRating(ctx context.Context, productID string) error {
	if err := s.products.RecomputeRating(ctx, productID); err != nil {
		return fmt.Errorf("failed to recompute rating: %w", err)
	}
	s.cache.Delete(productID)
	return nil
}
