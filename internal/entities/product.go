package entities

import (
	"fmt"
	"math"
	"time"
)

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusArchived ProductStatus = "archived"
)

type StockStatus string

const (
	StockStatusUnlimited  StockStatus = "unlimited"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusInStock    StockStatus = "in_stock"
)

// ProductCategories - фиксированный список категорий
var ProductCategories = []string{
	"Electronics", "Clothing", "Books", "Home & Garden", "Sports & Outdoors",
	"Beauty & Health", "Toys & Games", "Automotive", "Food & Beverages",
	"Jewelry & Watches", "Art & Collectibles", "Tools & Hardware",
	"Pet Supplies", "Baby & Kids", "Office & School", "Music & Instruments",
	"Movies & TV", "Garden & Outdoor", "Health & Wellness", "Other",
}

type ProductImage struct {
	URL       string
	Alt       string
	IsPrimary bool
}

type Inventory struct {
	Quantity          int
	LowStockThreshold int
	TrackInventory    bool
	AllowBackorders   bool
}

type ProductVariant struct {
	Name          string
	Options       []string
	PriceModifier float64
}

type Specification struct {
	Name  string
	Value string
}

type Rating struct {
	Average float64
	Count   int
}

type Sales struct {
	TotalSold int
	Revenue   float64
}

type Product struct {
	ID               string
	Name             string
	Description      string
	ShortDescription string
	Price            float64
	CompareAtPrice   float64
	CostPrice        float64
	Category         string
	Subcategory      string
	Brand            string
	Model            string
	SKU              string
	Barcode          string
	Images           []ProductImage
	Thumbnail        string
	SellerID         string
	Inventory        Inventory
	Variants         []ProductVariant
	Specifications   []Specification
	Tags             []string
	Status           ProductStatus
	Featured         bool
	Rating           Rating
	Sales            Sales
	Views            int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerateSKU формирует артикул вида SKU-<ms-таймстамп>-<9 символов base36>
func GenerateSKU() string {
	return fmt.Sprintf("SKU-%d-%s", time.Now().UnixMilli(), randomBase36(9, false))
}

// StockStatus - производный статус наличия, нигде не хранится
func (p *Product) StockStatus() StockStatus {
	if !p.Inventory.TrackInventory {
		return StockStatusUnlimited
	}
	if p.Inventory.Quantity == 0 {
		return StockStatusOutOfStock
	}
	if p.Inventory.Quantity <= p.Inventory.LowStockThreshold {
		return StockStatusLowStock
	}
	return StockStatusInStock
}

func (p *Product) DiscountPercentage() int {
	if p.CompareAtPrice > p.Price && p.CompareAtPrice > 0 {
		return int(math.Round((p.CompareAtPrice - p.Price) / p.CompareAtPrice * 100))
	}
	return 0
}

func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return p.Thumbnail
}

// ApplyRatingStats применяет агрегат по одобренным отзывам,
// среднее округляется до одного знака
func (p *Product) ApplyRatingStats(average float64, count int) {
	if count == 0 {
		p.Rating = Rating{}
		return
	}
	p.Rating.Average = math.Round(average*10) / 10
	p.Rating.Count = count
}

// RecordSale учитывает продажу на пути выполнения заказа
func (p *Product) RecordSale(quantity int, price float64) {
	p.Sales.TotalSold += quantity
	p.Sales.Revenue += float64(quantity) * price
}

// Available проверяет, можно ли заказать quantity единиц.
// Без учета наличия - если инвентарь не отслеживается или разрешены бэкордеры.
func (p *Product) Available(quantity int) bool {
	if !p.Inventory.TrackInventory || p.Inventory.AllowBackorders {
		return true
	}
	return p.Inventory.Quantity >= quantity
}

func ValidCategory(category string) bool {
	for _, c := range ProductCategories {
		if c == category {
			return true
		}
	}
	return false
}
