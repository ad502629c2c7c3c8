package entities_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvshop/marketplace-service/internal/entities"
)

func TestGenerateOrderNumber(t *testing.T) {
	re := regexp.MustCompile(`^ORD-\d{8}-[A-Z0-9]{5}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		num := entities.GenerateOrderNumber()
		assert.Regexp(t, re, num)
		seen[num] = struct{}{}
	}
	// 100 подряд сгенерированных номеров почти наверняка различны
	assert.Greater(t, len(seen), 90)
}

func TestOrder_CalculateTotals(t *testing.T) {
	order := entities.Order{
		Items: []entities.OrderItem{
			{ProductID: "p1", Quantity: 2, Price: 5, TotalPrice: 10},
			{ProductID: "p2", Quantity: 1, Price: 10, TotalPrice: 10},
		},
		Shipping: entities.Shipping{Cost: 0},
	}

	pricing := order.CalculateTotals()

	assert.InDelta(t, 20.0, pricing.Subtotal, 1e-9)
	assert.InDelta(t, 2.0, pricing.Tax, 1e-9)
	assert.InDelta(t, 22.0, pricing.Total, 1e-9)
}

func TestOrder_CalculateTotals_WithShippingAndDiscount(t *testing.T) {
	order := entities.Order{
		Items: []entities.OrderItem{
			{TotalPrice: 100},
		},
		Shipping: entities.Shipping{Cost: 15},
		Pricing:  entities.Pricing{Discount: 5},
	}

	pricing := order.CalculateTotals()

	assert.InDelta(t, 100.0, pricing.Subtotal, 1e-9)
	assert.InDelta(t, 10.0, pricing.Tax, 1e-9)
	assert.InDelta(t, 15.0, pricing.Shipping, 1e-9)
	assert.InDelta(t, 120.0, pricing.Total, 1e-9)
}

func TestOrder_UpdateStatus(t *testing.T) {
	order := entities.Order{Status: entities.OrderStatusPending}

	order.UpdateStatus(entities.OrderStatusConfirmed, "payment received", "admin-1")

	require.Len(t, order.Timeline, 1)
	assert.Equal(t, entities.OrderStatusConfirmed, order.Status)
	assert.Equal(t, entities.OrderStatusConfirmed, order.Timeline[0].Status)
	assert.Equal(t, "payment received", order.Timeline[0].Note)
	assert.Equal(t, "admin-1", order.Timeline[0].UpdatedBy)

	order.UpdateStatus(entities.OrderStatusProcessing, "", "admin-1")
	assert.Len(t, order.Timeline, 2)
}

func TestOrder_UpdateStatus_CascadesToItems(t *testing.T) {
	testCases := []struct {
		name    string
		status  entities.OrderStatus
		cascade bool
	}{
		{name: "cancelled cascades", status: entities.OrderStatusCancelled, cascade: true},
		{name: "refunded cascades", status: entities.OrderStatusRefunded, cascade: true},
		{name: "shipped does not cascade", status: entities.OrderStatusShipped, cascade: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			order := entities.Order{
				Items: []entities.OrderItem{
					{ProductID: "p1", Status: entities.OrderStatusPending},
					{ProductID: "p2", Status: entities.OrderStatusPending},
				},
			}

			order.UpdateStatus(tc.status, "", "admin-1")

			for _, item := range order.Items {
				if tc.cascade {
					assert.Equal(t, tc.status, item.Status)
				} else {
					assert.Equal(t, entities.OrderStatusPending, item.Status)
				}
			}
		})
	}
}

func TestOrder_CanCancel(t *testing.T) {
	testCases := []struct {
		status entities.OrderStatus
		want   bool
	}{
		{entities.OrderStatusPending, true},
		{entities.OrderStatusConfirmed, true},
		{entities.OrderStatusProcessing, false},
		{entities.OrderStatusShipped, false},
		{entities.OrderStatusDelivered, false},
		{entities.OrderStatusCancelled, false},
		{entities.OrderStatusRefunded, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			order := entities.Order{Status: tc.status}
			assert.Equal(t, tc.want, order.CanCancel())
		})
	}
}

func TestOrder_HasSeller(t *testing.T) {
	order := entities.Order{
		Items: []entities.OrderItem{
			{SellerID: "seller-1"},
			{SellerID: "seller-2"},
		},
	}

	assert.True(t, order.HasSeller("seller-1"))
	assert.True(t, order.HasSeller("seller-2"))
	assert.False(t, order.HasSeller("seller-3"))
}

func TestOrder_Summary(t *testing.T) {
	order := entities.Order{
		Status: entities.OrderStatusPending,
		Items: []entities.OrderItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
		Pricing: entities.Pricing{Total: 55},
	}

	summary := order.Summary()

	assert.Equal(t, 5, summary.TotalItems)
	assert.Equal(t, 2, summary.UniqueProducts)
	assert.InDelta(t, 55.0, summary.TotalValue, 1e-9)
	assert.Equal(t, entities.OrderStatusPending, summary.Status)
}
