package entities_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvshop/marketplace-service/internal/entities"
)

func TestGenerateSKU(t *testing.T) {
	re := regexp.MustCompile(`^SKU-\d+-[a-z0-9]{9}$`)

	for i := 0; i < 20; i++ {
		assert.Regexp(t, re, entities.GenerateSKU())
	}
}

func TestProduct_StockStatus(t *testing.T) {
	testCases := []struct {
		name      string
		inventory entities.Inventory
		want      entities.StockStatus
	}{
		{
			name:      "not tracked",
			inventory: entities.Inventory{TrackInventory: false, Quantity: 0},
			want:      entities.StockStatusUnlimited,
		},
		{
			name:      "out of stock",
			inventory: entities.Inventory{TrackInventory: true, Quantity: 0, LowStockThreshold: 10},
			want:      entities.StockStatusOutOfStock,
		},
		{
			name:      "low stock",
			inventory: entities.Inventory{TrackInventory: true, Quantity: 5, LowStockThreshold: 10},
			want:      entities.StockStatusLowStock,
		},
		{
			name:      "low stock boundary",
			inventory: entities.Inventory{TrackInventory: true, Quantity: 10, LowStockThreshold: 10},
			want:      entities.StockStatusLowStock,
		},
		{
			name:      "in stock",
			inventory: entities.Inventory{TrackInventory: true, Quantity: 11, LowStockThreshold: 10},
			want:      entities.StockStatusInStock,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := entities.Product{Inventory: tc.inventory}
			assert.Equal(t, tc.want, p.StockStatus())
		})
	}
}

func TestProduct_DiscountPercentage(t *testing.T) {
	testCases := []struct {
		name           string
		price          float64
		compareAtPrice float64
		want           int
	}{
		{name: "no compare price", price: 100, compareAtPrice: 0, want: 0},
		{name: "compare below price", price: 100, compareAtPrice: 80, want: 0},
		{name: "quarter off", price: 75, compareAtPrice: 100, want: 25},
		{name: "rounded", price: 66.6, compareAtPrice: 100, want: 33},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := entities.Product{Price: tc.price, CompareAtPrice: tc.compareAtPrice}
			assert.Equal(t, tc.want, p.DiscountPercentage())
		})
	}
}

func TestProduct_ApplyRatingStats(t *testing.T) {
	p := entities.Product{}

	p.ApplyRatingStats(4.26666, 3)
	assert.InDelta(t, 4.3, p.Rating.Average, 1e-9)
	assert.Equal(t, 3, p.Rating.Count)

	// без отзывов агрегат обнуляется
	p.ApplyRatingStats(0, 0)
	assert.Zero(t, p.Rating.Average)
	assert.Zero(t, p.Rating.Count)
}

func TestProduct_Available(t *testing.T) {
	testCases := []struct {
		name      string
		inventory entities.Inventory
		quantity  int
		want      bool
	}{
		{
			name:      "not tracked always available",
			inventory: entities.Inventory{TrackInventory: false},
			quantity:  1000,
			want:      true,
		},
		{
			name:      "backorders allowed",
			inventory: entities.Inventory{TrackInventory: true, AllowBackorders: true, Quantity: 0},
			quantity:  5,
			want:      true,
		},
		{
			name:      "enough stock",
			inventory: entities.Inventory{TrackInventory: true, Quantity: 5},
			quantity:  5,
			want:      true,
		},
		{
			name:      "not enough stock",
			inventory: entities.Inventory{TrackInventory: true, Quantity: 4},
			quantity:  5,
			want:      false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := entities.Product{Inventory: tc.inventory}
			assert.Equal(t, tc.want, p.Available(tc.quantity))
		})
	}
}

func TestProduct_PrimaryImage(t *testing.T) {
	p := entities.Product{
		Thumbnail: "thumb.jpg",
		Images: []entities.ProductImage{
			{URL: "a.jpg"},
			{URL: "b.jpg", IsPrimary: true},
		},
	}
	assert.Equal(t, "b.jpg", p.PrimaryImage())

	p.Images[1].IsPrimary = false
	assert.Equal(t, "a.jpg", p.PrimaryImage())

	p.Images = nil
	assert.Equal(t, "thumb.jpg", p.PrimaryImage())
}

func TestValidCategory(t *testing.T) {
	assert.True(t, entities.ValidCategory("Electronics"))
	assert.True(t, entities.ValidCategory("Other"))
	assert.False(t, entities.ValidCategory("electronics"))
	assert.False(t, entities.ValidCategory("Gadgets"))
}
