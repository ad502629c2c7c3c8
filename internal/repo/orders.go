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

var orderColumns = []string{
	"id", "order_number", "customer_id", "status", "items",
	"billing_address", "shipping_address", "payment", "shipping", "pricing",
	"notes", "timeline", "refund", "is_gift", "gift_message",
	"created_at", "updated_at",
}

type ordersRepo struct {
	base
}

func NewOrdersRepo(db *sqlx.DB) *ordersRepo {
	return &ordersRepo{base: newBase(db)}
}

// OrderFilter ограничивает выборку заказов по роли вызывающего
type OrderFilter struct {
	CustomerID string
	SellerID   string
	Status     string
}

func (f OrderFilter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.CustomerID != "" {
		b = b.Where(sq.Eq{"customer_id": f.CustomerID})
	}
	if f.SellerID != "" {
		// заказы, содержащие хотя бы одну позицию продавца
		b = b.Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements(items) item WHERE item->>'seller_id' = ?)",
			f.SellerID,
		)
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	return b
}

func (r *ordersRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	row, err := orderToRow(o)
	if err != nil {
		return err
	}

	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			row.ID, row.OrderNumber, row.CustomerID, row.Status, row.Items,
			row.BillingAddress, row.ShippingAddress, row.Payment, row.Shipping, row.Pricing,
			row.Notes, row.Timeline, row.Refund, row.IsGift, row.GiftMessage,
			row.CreatedAt, row.UpdatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return entities.ErrOrderNumberTaken
		}
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *ordersRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		MustSql()

	var row orderRow
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	return orderToEntity(row)
}

// UpdateOrder перезаписывает изменяемую часть документа заказа.
// Адресные снапшоты, позиции и created_at после создания не меняются.
func (r *ordersRepo) UpdateOrder(ctx context.Context, o entities.Order) error {
	row, err := orderToRow(o)
	if err != nil {
		return err
	}

	query, args := r.qb.Update("orders").
		Set("status", row.Status).
		Set("items", row.Items).
		Set("payment", row.Payment).
		Set("shipping", row.Shipping).
		Set("pricing", row.Pricing).
		Set("notes", row.Notes).
		Set("timeline", row.Timeline).
		Set("refund", row.Refund).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": o.ID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *ordersRepo) ListOrders(ctx context.Context, filter OrderFilter, limit, offset int) ([]entities.Order, int, error) {
	query, args := filter.apply(r.qb.Select(orderColumns...).From("orders")).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		MustSql()

	var rows []orderRow
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select orders: %w", err)
	}

	orders := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		order, err := orderToEntity(row)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}

	query, args = filter.apply(r.qb.Select("COUNT(*)").From("orders")).MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return orders, total, nil
}

type OrderOverview struct {
	TotalOrders       int     `db:"total_orders"`
	TotalRevenue      float64 `db:"total_revenue"`
	AverageOrderValue float64 `db:"average_order_value"`
}

func (r *ordersRepo) OrderOverview(ctx context.Context, filter OrderFilter) (OrderOverview, error) {
	query, args := filter.apply(r.qb.Select(
		"COUNT(*) AS total_orders",
		"COALESCE(SUM((pricing->>'total')::numeric), 0) AS total_revenue",
		"COALESCE(AVG((pricing->>'total')::numeric), 0) AS average_order_value",
	).From("orders")).MustSql()

	var overview OrderOverview
	if err := r.getContext(ctx, &overview, query, args...); err != nil {
		return OrderOverview{}, fmt.Errorf("failed to get order overview: %w", err)
	}
	return overview, nil
}

type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

func (r *ordersRepo) StatusBreakdown(ctx context.Context, filter OrderFilter) ([]StatusCount, error) {
	query, args := filter.apply(r.qb.Select("status", "COUNT(*) AS count").From("orders")).
		GroupBy("status").
		MustSql()

	var counts []StatusCount
	if err := r.selectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get status breakdown: %w", err)
	}
	return counts, nil
}

type MonthlyOrderStat struct {
	Year    int     `db:"year"`
	Month   int     `db:"month"`
	Orders  int     `db:"orders"`
	Revenue float64 `db:"revenue"`
}

func (r *ordersRepo) MonthlyTrends(ctx context.Context, filter OrderFilter, months int) ([]MonthlyOrderStat, error) {
	query, args := filter.apply(r.qb.Select(
		"EXTRACT(YEAR FROM created_at)::int AS year",
		"EXTRACT(MONTH FROM created_at)::int AS month",
		"COUNT(*) AS orders",
		"COALESCE(SUM((pricing->>'total')::numeric), 0) AS revenue",
	).From("orders")).
		GroupBy("1", "2").
		OrderBy("1 DESC", "2 DESC").
		Limit(uint64(months)).
		MustSql()

	var stats []MonthlyOrderStat
	if err := r.selectContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get monthly trends: %w", err)
	}
	return stats, nil
}

// HasDeliveredOrder проверяет, покупал ли клиент товар (для verified отзывов)
func (r *ordersRepo) HasDeliveredOrder(ctx context.Context, customerID, productID string) (bool, error) {
	query, args := r.qb.Select("1").
		From("orders").
		Where(sq.Eq{"customer_id": customerID, "status": string(entities.OrderStatusDelivered)}).
		Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements(items) item WHERE item->>'product_id' = ?)",
			productID,
		).
		Limit(1).
		MustSql()

	var one int
	err := r.getContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check delivered orders: %w", err)
	}
	return true, nil
}
