package repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/mvshop/marketplace-service/internal/entities"
)

type wishlistRepo struct {
	base
}

func NewWishlistRepo(db *sqlx.DB) *wishlistRepo {
	return &wishlistRepo{base: newBase(db)}
}

func (r *wishlistRepo) AddToWishlist(ctx context.Context, userID, productID string) error {
	query, args := r.qb.Insert("wishlist_items").
		Columns("user_id", "product_id", "added_at").
		Values(userID, productID, time.Now()).
		MustSql()

	_, err := r.execContext(ctx, query, args...)
	if isUniqueViolation(err, "wishlist_items_user_id_product_id_key") {
		return entities.ErrAlreadyInWishlist
	}
	if err != nil {
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return nil
}

func (r *wishlistRepo) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	query, args := r.qb.Delete("wishlist_items").
		Where(sq.Eq{"user_id": userID, "product_id": productID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrNotInWishlist
	}
	return nil
}

func (r *wishlistRepo) ClearWishlist(ctx context.Context, userID string) error {
	query, args := r.qb.Delete("wishlist_items").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}
	return nil
}

func (r *wishlistRepo) InWishlist(ctx context.Context, userID, productID string) (bool, error) {
	query, args := r.qb.Select("COUNT(*)").
		From("wishlist_items").
		Where(sq.Eq{"user_id": userID, "product_id": productID}).
		MustSql()

	var count int
	if err := r.getContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

func (r *wishlistRepo) WishlistCount(ctx context.Context, userID string) (int, error) {
	query, args := r.qb.Select("COUNT(*)").
		From("wishlist_items").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	var count int
	if err := r.getContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count wishlist: %w", err)
	}
	return count, nil
}

// ListWishlist возвращает товары из вишлиста вместе с датой добавления.
func (r *wishlistRepo) ListWishlist(ctx context.Context, userID string, limit, offset int) ([]entities.WishlistEntry, int, error) {
	cols := make([]string, 0, len(productColumns)+1)
	for _, c := range productColumns {
		cols = append(cols, "p."+c)
	}
	cols = append(cols, "w.added_at")

	query, args := r.qb.Select(cols...).
		From("wishlist_items w").
		Join("products p ON p.id = w.product_id").
		Where(sq.Eq{"w.user_id": userID}).
		OrderBy("w.added_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		MustSql()

	var rows []wishlistRow
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select wishlist: %w", err)
	}

	entries := make([]entities.WishlistEntry, 0, len(rows))
	for _, row := range rows {
		product, err := productToEntity(row.productRow)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entities.WishlistEntry{Product: product, AddedAt: row.AddedAt})
	}

	query, args = r.qb.Select("COUNT(*)").
		From("wishlist_items").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count wishlist: %w", err)
	}

	return entries, total, nil
}

type wishlistRow struct {
	productRow
	AddedAt time.Time `db:"added_at"`
}
