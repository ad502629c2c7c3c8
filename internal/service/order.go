package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/pkg/trm"
	"github.com/mvshop/marketplace-service/pkg/utils"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, o entities.Order) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	UpdateOrder(ctx context.Context, o entities.Order) error
	ListOrders(ctx context.Context, filter repo.OrderFilter, limit, offset int) ([]entities.Order, int, error)
	OrderOverview(ctx context.Context, filter repo.OrderFilter) (repo.OrderOverview, error)
	StatusBreakdown(ctx context.Context, filter repo.OrderFilter) ([]repo.StatusCount, error)
	MonthlyTrends(ctx context.Context, filter repo.OrderFilter, months int) ([]repo.MonthlyOrderStat, error)
}

type ProductInventory interface {
	GetProductByID(ctx context.Context, productID string) (entities.Product, error)
	DecrementInventory(ctx context.Context, productID string, quantity int) error
	RestoreInventory(ctx context.Context, productID string, quantity int) error
	RecordSale(ctx context.Context, productID string, quantity int, price float64) error
}

type EventPublisher interface {
	OrderCreated(ctx context.Context, order entities.Order)
	OrderStatusChanged(ctx context.Context, order entities.Order)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	products  ProductInventory
	events    EventPublisher
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, orders OrderRepo, products ProductInventory, events EventPublisher) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		products:  products,
		events:    events,
	}
}

type CheckoutItem struct {
	ProductID string
	Quantity  int
	Variant   *entities.ItemVariant
}

type CheckoutInput struct {
	CustomerID      string
	Items           []CheckoutItem
	ShippingAddress entities.Address
	BillingAddress  *entities.Address
	PaymentMethod   entities.PaymentMethod
	ShippingMethod  entities.ShippingMethod
	CustomerNote    string
	IsGift          bool
	GiftMessage     string
}

// Checkout резервирует остатки и создает заказ в одной транзакции.
// Коллизия номера заказа ретраится с новым номером, вся транзакция
// при этом выполняется заново.
func (s *orderService) Checkout(ctx context.Context, input CheckoutInput) (entities.Order, error) {
	var order entities.Order

	fn := func() error {
		return s.txManager.Do(ctx, func(ctx context.Context) error {
			items := make([]entities.OrderItem, 0, len(input.Items))
			for _, in := range input.Items {
				product, err := s.products.GetProductByID(ctx, in.ProductID)
				if err != nil {
					return fmt.Errorf("failed to get product: %w", err)
				}
				if product.Status != entities.ProductStatusActive {
					return entities.ErrProductUnavailable
				}

				if err := s.products.DecrementInventory(ctx, in.ProductID, in.Quantity); err != nil {
					return fmt.Errorf("failed to reserve stock: %w", err)
				}

				items = append(items, entities.OrderItem{
					ProductID:  product.ID,
					SellerID:   product.SellerID,
					Quantity:   in.Quantity,
					Price:      product.Price,
					TotalPrice: product.Price * float64(in.Quantity),
					Variant:    in.Variant,
					Status:     entities.OrderStatusPending,
				})
			}

			billing := input.ShippingAddress
			if input.BillingAddress != nil {
				billing = *input.BillingAddress
			}

			now := time.Now()
			order = entities.Order{
				ID:              uuid.NewString(),
				OrderNumber:     entities.GenerateOrderNumber(),
				CustomerID:      input.CustomerID,
				Items:           items,
				ShippingAddress: input.ShippingAddress,
				BillingAddress:  billing,
				Payment: entities.Payment{
					Method:   input.PaymentMethod,
					Status:   entities.PaymentStatusPending,
					Currency: "USD",
				},
				// стоимость доставки и скидка на оформлении всегда нулевые,
				// клиент ценообразованием не управляет
				Shipping: entities.Shipping{
					Method: input.ShippingMethod,
					Cost:   0,
				},
				Notes:     entities.OrderNotes{Customer: input.CustomerNote},
				IsGift:    input.IsGift,
				GiftMessage: input.GiftMessage,
				CreatedAt: now,
				UpdatedAt: now,
			}
			order.CalculateTotals()
			order.Payment.Amount = order.Pricing.Total
			order.UpdateStatus(entities.OrderStatusPending, "Order placed", input.CustomerID)

			if err := s.orders.CreateOrder(ctx, order); err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
			return nil
		})
	}

	cfg := utils.RetryConfig{
		InitialDelay: 10 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
	err := utils.Retry(cfg, fn,
		entities.ErrProductNotFound,
		entities.ErrProductUnavailable,
		entities.ErrInsufficientStock,
	)
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("order created",
		slog.String("order_id", order.ID), slog.String("order_number", order.OrderNumber))
	s.events.OrderCreated(ctx, order)

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	return s.orders.GetOrderByID(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, filter repo.OrderFilter, limit, offset int) ([]entities.Order, int, error) {
	return s.orders.ListOrders(ctx, filter, limit, offset)
}

// CancelOrder - отмена разрешена только из pending/confirmed.
// Остатки возвращаются, при оплаченном заказе фиксируется возврат.
func (s *orderService) CancelOrder(ctx context.Context, orderID, actorID, reason string) (entities.Order, error) {
	var order entities.Order

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.CanCancel() {
			return entities.ErrOrderNotCancellable
		}

		for _, item := range order.Items {
			if err := s.products.RestoreInventory(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
		}

		note := "Order cancelled"
		if reason != "" {
			note = reason
		}
		order.UpdateStatus(entities.OrderStatusCancelled, note, actorID)

		if order.Payment.Status == entities.PaymentStatusCompleted {
			now := time.Now()
			order.Payment.Status = entities.PaymentStatusRefunded
			order.Refund = &entities.Refund{
				Amount:      order.Pricing.Total,
				Reason:      note,
				ProcessedAt: &now,
				ProcessedBy: actorID,
			}
		}

		if err := s.orders.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("order cancelled", slog.String("order_id", order.ID))
	s.events.OrderStatusChanged(ctx, order)

	return order, nil
}

type StatusUpdateInput struct {
	Status         entities.OrderStatus
	Note           string
	UpdatedBy      string
	TrackingNumber string
	Carrier        string
}

// UpdateOrderStatus проставляет отметки времени доставки и учитывает
// продажи при переходе в delivered.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, input StatusUpdateInput) (entities.Order, error) {
	var order entities.Order

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}

		order.UpdateStatus(input.Status, input.Note, input.UpdatedBy)

		now := time.Now()
		switch input.Status {
		case entities.OrderStatusShipped:
			order.Shipping.ShippedAt = &now
			if input.TrackingNumber != "" {
				order.Shipping.TrackingNumber = input.TrackingNumber
			}
			if input.Carrier != "" {
				order.Shipping.Carrier = input.Carrier
			}
		case entities.OrderStatusDelivered:
			order.Shipping.DeliveredAt = &now
			order.Payment.Status = entities.PaymentStatusCompleted
			if order.Payment.PaidAt == nil {
				order.Payment.PaidAt = &now
			}
			for _, item := range order.Items {
				if err := s.products.RecordSale(ctx, item.ProductID, item.Quantity, item.Price); err != nil {
					return fmt.Errorf("failed to record sale: %w", err)
				}
			}
		}

		if err := s.orders.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("order status updated",
		slog.String("order_id", order.ID), slog.String("status", string(order.Status)))
	s.events.OrderStatusChanged(ctx, order)

	return order, nil
}

type OrderStats struct {
	Overview repo.OrderOverview
	ByStatus []repo.StatusCount
	Monthly  []repo.MonthlyOrderStat
}

const trendMonths = 12

func (s *orderService) Stats(ctx context.Context, filter repo.OrderFilter) (OrderStats, error) {
	var stats OrderStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Overview, err = s.orders.OrderOverview(ctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ByStatus, err = s.orders.StatusBreakdown(ctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Monthly, err = s.orders.MonthlyTrends(ctx, filter, trendMonths)
		return err
	})

	if err := g.Wait(); err != nil {
		return OrderStats{}, fmt.Errorf("failed to collect order stats: %w", err)
	}
	return stats, nil
}
