package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/mvshop/marketplace-service/internal/entities"
)

var productColumns = []string{
	"id", "name", "description", "short_description", "price",
	"compare_at_price", "cost_price", "category", "subcategory", "brand",
	"model", "sku", "barcode", "images", "thumbnail", "seller_id",
	"quantity", "low_stock_threshold", "track_inventory", "allow_backorders",
	"variants", "specifications", "tags", "status", "featured",
	"rating_average", "rating_count", "total_sold", "revenue", "views",
	"created_at", "updated_at",
}

type productsRepo struct {
	base
}

func NewProductsRepo(db *sqlx.DB) *productsRepo {
	return &productsRepo{base: newBase(db)}
}

type ProductFilter struct {
	Status    string
	Category  string
	SellerID  string
	MinPrice  float64
	MaxPrice  float64
	MinRating float64
	Search    string
	Featured  *bool
	InStock   *bool
	Sort      string
}

func (f ProductFilter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if f.SellerID != "" {
		b = b.Where(sq.Eq{"seller_id": f.SellerID})
	}
	if f.MinPrice > 0 {
		b = b.Where(sq.GtOrEq{"price": f.MinPrice})
	}
	if f.MaxPrice > 0 {
		b = b.Where(sq.LtOrEq{"price": f.MaxPrice})
	}
	if f.MinRating > 0 {
		b = b.Where(sq.GtOrEq{"rating_average": f.MinRating})
	}
	if f.Search != "" {
		// поиск - регистронезависимое вхождение подстроки, без ранжирования
		pattern := "%" + f.Search + "%"
		b = b.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
			sq.ILike{"brand": pattern},
			sq.Expr("tags::text ILIKE ?", pattern),
		})
	}
	if f.Featured != nil {
		b = b.Where(sq.Eq{"featured": *f.Featured})
	}
	if f.InStock != nil {
		if *f.InStock {
			b = b.Where(sq.Gt{"quantity": 0})
		} else {
			b = b.Where(sq.LtOrEq{"quantity": 0})
		}
	}
	return b
}

func (f ProductFilter) orderBy() string {
	switch f.Sort {
	case "price_asc":
		return "price ASC"
	case "price_desc":
		return "price DESC"
	case "rating_desc":
		return "rating_average DESC"
	case "popular":
		return "total_sold DESC"
	default: // newest
		return "created_at DESC"
	}
}

func (r *productsRepo) CreateProduct(ctx context.Context, p entities.Product) error {
	row, err := productToRow(p)
	if err != nil {
		return err
	}

	query, args := r.qb.Insert("products").
		Columns(productColumns...).
		Values(
			row.ID, row.Name, row.Description, row.ShortDescription, row.Price,
			row.CompareAtPrice, row.CostPrice, row.Category, row.Subcategory, row.Brand,
			row.Model, row.SKU, row.Barcode, row.Images, row.Thumbnail, row.SellerID,
			row.Quantity, row.LowStockThreshold, row.TrackInventory, row.AllowBackorders,
			row.Variants, row.Specifications, row.Tags, row.Status, row.Featured,
			row.RatingAverage, row.RatingCount, row.TotalSold, row.Revenue, row.Views,
			row.CreatedAt, row.UpdatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (r *productsRepo) GetProductByID(ctx context.Context, productID string) (entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": productID}).
		MustSql()

	var row productRow
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return productToEntity(row)
}

func (r *productsRepo) UpdateProduct(ctx context.Context, p entities.Product) error {
	row, err := productToRow(p)
	if err != nil {
		return err
	}

	query, args := r.qb.Update("products").
		Set("name", row.Name).
		Set("description", row.Description).
		Set("short_description", row.ShortDescription).
		Set("price", row.Price).
		Set("compare_at_price", row.CompareAtPrice).
		Set("cost_price", row.CostPrice).
		Set("category", row.Category).
		Set("subcategory", row.Subcategory).
		Set("brand", row.Brand).
		Set("model", row.Model).
		Set("barcode", row.Barcode).
		Set("images", row.Images).
		Set("thumbnail", row.Thumbnail).
		Set("low_stock_threshold", row.LowStockThreshold).
		Set("track_inventory", row.TrackInventory).
		Set("allow_backorders", row.AllowBackorders).
		Set("quantity", row.Quantity).
		Set("variants", row.Variants).
		Set("specifications", row.Specifications).
		Set("tags", row.Tags).
		Set("status", row.Status).
		Set("featured", row.Featured).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": p.ID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}

func (r *productsRepo) DeleteProduct(ctx context.Context, productID string) error {
	query, args := r.qb.Delete("products").Where(sq.Eq{"id": productID}).MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}

func (r *productsRepo) ListProducts(ctx context.Context, filter ProductFilter, limit, offset int) ([]entities.Product, int, error) {
	query, args := filter.apply(r.qb.Select(productColumns...).From("products")).
		OrderBy(filter.orderBy()).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		MustSql()

	var rows []productRow
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select products: %w", err)
	}

	products := make([]entities.Product, 0, len(rows))
	for _, row := range rows {
		product, err := productToEntity(row)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}

	query, args = filter.apply(r.qb.Select("COUNT(*)").From("products")).MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, total, nil
}

func (r *productsRepo) Categories(ctx context.Context) ([]string, error) {
	query, args := r.qb.Select("DISTINCT category").
		From("products").
		Where(sq.Eq{"status": string(entities.ProductStatusActive)}).
		OrderBy("category").
		MustSql()

	var categories []string
	if err := r.selectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	return categories, nil
}

// DecrementInventory уменьшает остаток только если его хватает:
// проверка и списание - один условный UPDATE, пересорт невозможен.
func (r *productsRepo) DecrementInventory(ctx context.Context, productID string, quantity int) error {
	query, args := r.qb.Update("products").
		Set("quantity", sq.Expr("quantity - ?", quantity)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		Where("(NOT track_inventory OR allow_backorders OR quantity >= ?)", quantity).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement inventory: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrInsufficientStock
	}
	return nil
}

func (r *productsRepo) RestoreInventory(ctx context.Context, productID string, quantity int) error {
	query, args := r.qb.Update("products").
		Set("quantity", sq.Expr("quantity + ?", quantity)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to restore inventory: %w", err)
	}
	return nil
}

func (r *productsRepo) IncrementViews(ctx context.Context, productID string) error {
	query, args := r.qb.Update("products").
		Set("views", sq.Expr("views + 1")).
		Where(sq.Eq{"id": productID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func (r *productsRepo) RecordSale(ctx context.Context, productID string, quantity int, price float64) error {
	query, args := r.qb.Update("products").
		Set("total_sold", sq.Expr("total_sold + ?", quantity)).
		Set("revenue", sq.Expr("revenue + ?", float64(quantity)*price)).
		Where(sq.Eq{"id": productID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}

// RecomputeRating пересчитывает агрегат рейтинга полным проходом по
// одобренным отзывам товара. O(отзывов), приемлемо на текущих объемах.
func (r *productsRepo) RecomputeRating(ctx context.Context, productID string) error {
	query, args := r.qb.Select(
		"COALESCE(AVG(rating), 0) AS average",
		"COUNT(*) AS count",
	).
		From("reviews").
		Where(sq.Eq{
			"product_id":        productID,
			"moderation_status": string(entities.ModerationStatusApproved),
		}).
		MustSql()

	var stats struct {
		Average float64 `db:"average"`
		Count   int     `db:"count"`
	}
	if err := r.getContext(ctx, &stats, query, args...); err != nil {
		return fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	average := 0.0
	if stats.Count > 0 {
		average = math.Round(stats.Average*10) / 10
	}

	query, args = r.qb.Update("products").
		Set("rating_average", average).
		Set("rating_count", stats.Count).
		Where(sq.Eq{"id": productID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	return nil
}
