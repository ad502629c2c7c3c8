package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/internal/service"
	"github.com/mvshop/marketplace-service/pkg/trm"
)

// noopTxManager выполняет колбэк без настоящей транзакции
type noopTxManager struct{}

func (noopTxManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	return ctx, noopTx{}, nil
}

func (noopTxManager) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	return callback(ctx)
}

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]entities.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]entities.Order)}
}

func (r *fakeOrderRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return entities.ErrOrderNumberTaken
		}
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) UpdateOrder(ctx context.Context, o entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return entities.ErrOrderNotFound
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) ListOrders(ctx context.Context, filter repo.OrderFilter, limit, offset int) ([]entities.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []entities.Order
	for _, o := range r.orders {
		orders = append(orders, o)
	}
	return orders, len(orders), nil
}

func (r *fakeOrderRepo) OrderOverview(ctx context.Context, filter repo.OrderFilter) (repo.OrderOverview, error) {
	return repo.OrderOverview{TotalOrders: len(r.orders)}, nil
}

func (r *fakeOrderRepo) StatusBreakdown(ctx context.Context, filter repo.OrderFilter) ([]repo.StatusCount, error) {
	return nil, nil
}

func (r *fakeOrderRepo) MonthlyTrends(ctx context.Context, filter repo.OrderFilter, months int) ([]repo.MonthlyOrderStat, error) {
	return nil, nil
}

type fakeInventory struct {
	mu       sync.Mutex
	products map[string]entities.Product
	sales    map[string]int
}

func newFakeInventory(products ...entities.Product) *fakeInventory {
	f := &fakeInventory{
		products: make(map[string]entities.Product),
		sales:    make(map[string]int),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeInventory) GetProductByID(ctx context.Context, productID string) (entities.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeInventory) DecrementInventory(ctx context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return entities.ErrProductNotFound
	}
	if p.Inventory.TrackInventory && !p.Inventory.AllowBackorders && p.Inventory.Quantity < quantity {
		return entities.ErrInsufficientStock
	}
	p.Inventory.Quantity -= quantity
	f.products[productID] = p
	return nil
}

func (f *fakeInventory) RestoreInventory(ctx context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return entities.ErrProductNotFound
	}
	p.Inventory.Quantity += quantity
	f.products[productID] = p
	return nil
}

func (f *fakeInventory) RecordSale(ctx context.Context, productID string, quantity int, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales[productID] += quantity
	return nil
}

func (f *fakeInventory) quantity(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[productID].Inventory.Quantity
}

type fakeEvents struct {
	mu      sync.Mutex
	created []string
	changed []string
}

func (f *fakeEvents) OrderCreated(ctx context.Context, order entities.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, order.ID)
}

func (f *fakeEvents) OrderStatusChanged(ctx context.Context, order entities.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, order.ID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeProduct(id, sellerID string, price float64, quantity int) entities.Product {
	return entities.Product{
		ID:       id,
		SellerID: sellerID,
		Price:    price,
		Status:   entities.ProductStatusActive,
		Inventory: entities.Inventory{
			Quantity:       quantity,
			TrackInventory: true,
		},
	}
}

func TestOrderService_Checkout(t *testing.T) {
	orders := newFakeOrderRepo()
	inventory := newFakeInventory(activeProduct("p1", "seller-1", 10, 5))
	events := &fakeEvents{}
	svc := service.NewOrderService(testLogger(), noopTxManager{}, orders, inventory, events)

	order, err := svc.Checkout(context.Background(), service.CheckoutInput{
		CustomerID: "cust-1",
		Items: []service.CheckoutItem{
			{ProductID: "p1", Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, entities.OrderStatusPending, order.Status)
	assert.Regexp(t, `^ORD-\d{8}-[A-Z0-9]{5}$`, order.OrderNumber)
	assert.Equal(t, "cust-1", order.CustomerID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "seller-1", order.Items[0].SellerID)
	assert.InDelta(t, 20.0, order.Items[0].TotalPrice, 1e-9)
	assert.InDelta(t, 20.0, order.Pricing.Subtotal, 1e-9)
	assert.InDelta(t, 2.0, order.Pricing.Tax, 1e-9)
	assert.Zero(t, order.Pricing.Discount)
	assert.Zero(t, order.Shipping.Cost)
	assert.InDelta(t, 22.0, order.Pricing.Total, 1e-9)
	assert.InDelta(t, 22.0, order.Payment.Amount, 1e-9)
	require.Len(t, order.Timeline, 1)

	assert.Equal(t, 3, inventory.quantity("p1"))
	assert.Equal(t, []string{order.ID}, events.created)
}

func TestOrderService_Checkout_InsufficientStock(t *testing.T) {
	orders := newFakeOrderRepo()
	inventory := newFakeInventory(activeProduct("p1", "seller-1", 10, 1))
	svc := service.NewOrderService(testLogger(), noopTxManager{}, orders, inventory, &fakeEvents{})

	_, err := svc.Checkout(context.Background(), service.CheckoutInput{
		CustomerID: "cust-1",
		Items: []service.CheckoutItem{
			{ProductID: "p1", Quantity: 2},
		},
	})
	assert.ErrorIs(t, err, entities.ErrInsufficientStock)
	assert.Empty(t, orders.orders)
}

func TestOrderService_Checkout_InactiveProduct(t *testing.T) {
	product := activeProduct("p1", "seller-1", 10, 5)
	product.Status = entities.ProductStatusInactive

	svc := service.NewOrderService(testLogger(), noopTxManager{}, newFakeOrderRepo(), newFakeInventory(product), &fakeEvents{})

	_, err := svc.Checkout(context.Background(), service.CheckoutInput{
		CustomerID: "cust-1",
		Items: []service.CheckoutItem{
			{ProductID: "p1", Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, entities.ErrProductUnavailable)
}

func TestOrderService_CancelOrder(t *testing.T) {
	orders := newFakeOrderRepo()
	inventory := newFakeInventory(activeProduct("p1", "seller-1", 10, 5))
	events := &fakeEvents{}
	svc := service.NewOrderService(testLogger(), noopTxManager{}, orders, inventory, events)

	order, err := svc.Checkout(context.Background(), service.CheckoutInput{
		CustomerID: "cust-1",
		Items: []service.CheckoutItem{
			{ProductID: "p1", Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, inventory.quantity("p1"))

	cancelled, err := svc.CancelOrder(context.Background(), order.ID, "cust-1", "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, entities.OrderStatusCancelled, cancelled.Status)
	// остатки возвращаются ровно на количество позиций заказа
	assert.Equal(t, 5, inventory.quantity("p1"))
	for _, item := range cancelled.Items {
		assert.Equal(t, entities.OrderStatusCancelled, item.Status)
	}
	assert.Len(t, cancelled.Timeline, 2)
	assert.Equal(t, []string{order.ID}, events.changed)
}

func TestOrderService_CancelOrder_NotCancellable(t *testing.T) {
	orders := newFakeOrderRepo()
	inventory := newFakeInventory(activeProduct("p1", "seller-1", 10, 5))
	svc := service.NewOrderService(testLogger(), noopTxManager{}, orders, inventory, &fakeEvents{})

	order, err := svc.Checkout(context.Background(), service.CheckoutInput{
		CustomerID: "cust-1",
		Items: []service.CheckoutItem{
			{ProductID: "p1", Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), order.ID, service.StatusUpdateInput{
		Status:    entities.OrderStatusShipped,
		UpdatedBy: "seller-1",
	})
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), order.ID, "cust-1", "")
	assert.ErrorIs(t, err, entities.ErrOrderNotCancellable)
	// остатки не трогаются при неудачной отмене
	assert.Equal(t, 4, inventory.quantity("p1"))
}

func TestOrderService_UpdateOrderStatus_Delivered(t *testing.T) {
	orders := newFakeOrderRepo()
	inventory := newFakeInventory(activeProduct("p1", "seller-1", 10, 5))
	svc := service.NewOrderService(testLogger(), noopTxManager{}, orders, inventory, &fakeEvents{})

	order, err := svc.Checkout(context.Background(), service.CheckoutInput{
		CustomerID: "cust-1",
		Items: []service.CheckoutItem{
			{ProductID: "p1", Quantity: 2},
		},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(context.Background(), order.ID, service.StatusUpdateInput{
		Status:    entities.OrderStatusDelivered,
		UpdatedBy: "seller-1",
	})
	require.NoError(t, err)

	assert.Equal(t, entities.OrderStatusDelivered, updated.Status)
	require.NotNil(t, updated.Shipping.DeliveredAt)
	assert.Equal(t, entities.PaymentStatusCompleted, updated.Payment.Status)
	assert.Equal(t, 2, inventory.sales["p1"])
}

func TestOrderService_UpdateOrderStatus_Shipped(t *testing.T) {
	orders := newFakeOrderRepo()
	inventory := newFakeInventory(activeProduct("p1", "seller-1", 10, 5))
	svc := service.NewOrderService(testLogger(), noopTxManager{}, orders, inventory, &fakeEvents{})

	order, err := svc.Checkout(context.Background(), service.CheckoutInput{
		CustomerID: "cust-1",
		Items: []service.CheckoutItem{
			{ProductID: "p1", Quantity: 1},
		},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(context.Background(), order.ID, service.StatusUpdateInput{
		Status:         entities.OrderStatusShipped,
		UpdatedBy:      "seller-1",
		TrackingNumber: "TRK-42",
		Carrier:        "DHL",
	})
	require.NoError(t, err)

	require.NotNil(t, updated.Shipping.ShippedAt)
	assert.Equal(t, "TRK-42", updated.Shipping.TrackingNumber)
	assert.Equal(t, "DHL", updated.Shipping.Carrier)
}
