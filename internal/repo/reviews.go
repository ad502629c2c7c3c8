package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/mvshop/marketplace-service/internal/entities"
)

var reviewColumns = []string{
	"id", "product_id", "customer_id", "order_id", "rating", "title",
	"comment", "images", "helpful_count", "helpful_votes", "verified",
	"moderation_status", "moderated_by", "moderated_at", "moderation_reason",
	"seller_response", "report_count", "reports", "created_at", "updated_at",
}

type reviewsRepo struct {
	base
}

func NewReviewsRepo(db *sqlx.DB) *reviewsRepo {
	return &reviewsRepo{base: newBase(db)}
}

type ReviewFilter struct {
	ProductID        string
	CustomerID       string
	Rating           int
	ApprovedOnly     bool
	ModerationStatus string
	Sort             string
}

func (f ReviewFilter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.ProductID != "" {
		b = b.Where(sq.Eq{"product_id": f.ProductID})
	}
	if f.CustomerID != "" {
		b = b.Where(sq.Eq{"customer_id": f.CustomerID})
	}
	if f.Rating > 0 {
		b = b.Where(sq.Eq{"rating": f.Rating})
	}
	if f.ApprovedOnly {
		b = b.Where(sq.Eq{"moderation_status": string(entities.ModerationStatusApproved)})
	}
	if f.ModerationStatus != "" {
		b = b.Where(sq.Eq{"moderation_status": f.ModerationStatus})
	}
	return b
}

func (f ReviewFilter) orderBy() string {
	switch f.Sort {
	case "oldest":
		return "created_at ASC"
	case "rating_desc":
		return "rating DESC"
	case "rating_asc":
		return "rating ASC"
	case "helpful":
		return "helpful_count DESC"
	default: // newest
		return "created_at DESC"
	}
}

func (r *reviewsRepo) CreateReview(ctx context.Context, rev entities.Review) error {
	row, err := reviewToRow(rev)
	if err != nil {
		return err
	}

	query, args := r.qb.Insert("reviews").
		Columns(reviewColumns...).
		Values(
			row.ID, row.ProductID, row.CustomerID, row.OrderID, row.Rating, row.Title,
			row.Comment, row.Images, row.HelpfulCount, row.HelpfulVotes, row.Verified,
			row.ModStatus, row.ModeratedBy, row.ModeratedAt, row.ModReason,
			row.SellerResponse, row.ReportCount, row.Reports, row.CreatedAt, row.UpdatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		// один отзыв на пару (товар, покупатель)
		if isUniqueViolation(err, "reviews_product_id_customer_id_key") {
			return entities.ErrDuplicateReview
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

func (r *reviewsRepo) GetReviewByID(ctx context.Context, reviewID string) (entities.Review, error) {
	query, args := r.qb.Select(reviewColumns...).
		From("reviews").
		Where(sq.Eq{"id": reviewID}).
		MustSql()

	var row reviewRow
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Review{}, entities.ErrReviewNotFound
	}
	if err != nil {
		return entities.Review{}, fmt.Errorf("failed to get review: %w", err)
	}

	return reviewToEntity(row)
}

func (r *reviewsRepo) UpdateReview(ctx context.Context, rev entities.Review) error {
	row, err := reviewToRow(rev)
	if err != nil {
		return err
	}

	query, args := r.qb.Update("reviews").
		Set("rating", row.Rating).
		Set("title", row.Title).
		Set("comment", row.Comment).
		Set("images", row.Images).
		Set("helpful_count", row.HelpfulCount).
		Set("helpful_votes", row.HelpfulVotes).
		Set("moderation_status", row.ModStatus).
		Set("moderated_by", row.ModeratedBy).
		Set("moderated_at", row.ModeratedAt).
		Set("moderation_reason", row.ModReason).
		Set("seller_response", row.SellerResponse).
		Set("report_count", row.ReportCount).
		Set("reports", row.Reports).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": rev.ID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrReviewNotFound
	}
	return nil
}

func (r *reviewsRepo) DeleteReview(ctx context.Context, reviewID string) error {
	query, args := r.qb.Delete("reviews").Where(sq.Eq{"id": reviewID}).MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrReviewNotFound
	}
	return nil
}

func (r *reviewsRepo) ListReviews(ctx context.Context, filter ReviewFilter, limit, offset int) ([]entities.Review, int, error) {
	query, args := filter.apply(r.qb.Select(reviewColumns...).From("reviews")).
		OrderBy(filter.orderBy()).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		MustSql()

	var rows []reviewRow
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select reviews: %w", err)
	}

	reviews := make([]entities.Review, 0, len(rows))
	for _, row := range rows {
		review, err := reviewToEntity(row)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}

	query, args = filter.apply(r.qb.Select("COUNT(*)").From("reviews")).MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	return reviews, total, nil
}
