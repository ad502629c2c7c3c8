package handler

import (
	"time"

	"github.com/mvshop/marketplace-service/internal/entities"
)

// Address - адрес доставки или оплаты
type Address struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country" validate:"required"`
}

type ItemVariant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OrderItem позиция заказа
type OrderItem struct {
	ProductID  string       `json:"productId"`
	SellerID   string       `json:"sellerId"`
	Quantity   int          `json:"quantity"`
	Price      float64      `json:"price"`
	TotalPrice float64      `json:"totalPrice"`
	Variant    *ItemVariant `json:"variant,omitempty"`
	Status     string       `json:"status"`
}

type Payment struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transactionId,omitempty"`
	Gateway       string     `json:"gateway,omitempty"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

type Shipping struct {
	Method            string     `json:"method"`
	Cost              float64    `json:"cost"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	Carrier           string     `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	ShippedAt         *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
}

type Pricing struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type TimelineEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

type Refund struct {
	Amount      float64    `json:"amount"`
	Reason      string     `json:"reason,omitempty"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	ProcessedBy string     `json:"processedBy,omitempty"`
}

type OrderNotes struct {
	Customer string `json:"customer,omitempty"`
	Internal string `json:"internal,omitempty"`
}

// Order представляет заказ
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	CustomerID      string          `json:"customerId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  Address         `json:"billingAddress"`
	Payment         Payment         `json:"payment"`
	Shipping        Shipping        `json:"shipping"`
	Pricing         Pricing         `json:"pricing"`
	Status          string          `json:"status"`
	Notes           OrderNotes      `json:"notes,omitempty"`
	Timeline        []TimelineEntry `json:"timeline"`
	Refund          *Refund         `json:"refund,omitempty"`
	IsGift          bool            `json:"isGift"`
	GiftMessage     string          `json:"giftMessage,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func addressEntityToJSON(a entities.Address) Address {
	return Address(a)
}

func addressJSONToEntity(a Address) entities.Address {
	return entities.Address(a)
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		item := OrderItem{
			ProductID:  it.ProductID,
			SellerID:   it.SellerID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			TotalPrice: it.TotalPrice,
			Status:     string(it.Status),
		}
		if it.Variant != nil {
			v := ItemVariant(*it.Variant)
			item.Variant = &v
		}
		items = append(items, item)
	}

	timeline := make([]TimelineEntry, 0, len(o.Timeline))
	for _, t := range o.Timeline {
		timeline = append(timeline, TimelineEntry{
			Status:    string(t.Status),
			Timestamp: t.Timestamp,
			Note:      t.Note,
			UpdatedBy: t.UpdatedBy,
		})
	}

	order := Order{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Items:           items,
		ShippingAddress: addressEntityToJSON(o.ShippingAddress),
		BillingAddress:  addressEntityToJSON(o.BillingAddress),
		Payment: Payment{
			Method:        string(o.Payment.Method),
			Status:        string(o.Payment.Status),
			TransactionID: o.Payment.TransactionID,
			Gateway:       o.Payment.Gateway,
			Amount:        o.Payment.Amount,
			Currency:      o.Payment.Currency,
			PaidAt:        o.Payment.PaidAt,
		},
		Shipping: Shipping{
			Method:            string(o.Shipping.Method),
			Cost:              o.Shipping.Cost,
			TrackingNumber:    o.Shipping.TrackingNumber,
			Carrier:           o.Shipping.Carrier,
			EstimatedDelivery: o.Shipping.EstimatedDelivery,
			ShippedAt:         o.Shipping.ShippedAt,
			DeliveredAt:       o.Shipping.DeliveredAt,
		},
		Pricing:     Pricing(o.Pricing),
		Status:      string(o.Status),
		Notes:       OrderNotes(o.Notes),
		Timeline:    timeline,
		IsGift:      o.IsGift,
		GiftMessage: o.GiftMessage,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.Refund != nil {
		r := Refund(*o.Refund)
		order.Refund = &r
	}
	return order
}

type ProductImage struct {
	URL       string `json:"url" validate:"required,url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary,omitempty"`
}

type Inventory struct {
	Quantity          int  `json:"quantity"`
	LowStockThreshold int  `json:"lowStockThreshold"`
	TrackInventory    bool `json:"trackInventory"`
	AllowBackorders   bool `json:"allowBackorders"`
}

type ProductVariant struct {
	Name          string   `json:"name" validate:"required"`
	Options       []string `json:"options" validate:"required"`
	PriceModifier float64  `json:"priceModifier,omitempty"`
}

type Specification struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Sales struct {
	TotalSold int     `json:"totalSold"`
	Revenue   float64 `json:"revenue"`
}

// Product представляет товар. stockStatus и discountPercentage
// производные, нигде не хранятся
type Product struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	ShortDescription   string           `json:"shortDescription,omitempty"`
	Price              float64          `json:"price"`
	CompareAtPrice     float64          `json:"compareAtPrice,omitempty"`
	DiscountPercentage int              `json:"discountPercentage,omitempty"`
	Category           string           `json:"category"`
	Subcategory        string           `json:"subcategory,omitempty"`
	Brand              string           `json:"brand,omitempty"`
	Model              string           `json:"model,omitempty"`
	SKU                string           `json:"sku"`
	Barcode            string           `json:"barcode,omitempty"`
	Images             []ProductImage   `json:"images"`
	Thumbnail          string           `json:"thumbnail,omitempty"`
	PrimaryImage       string           `json:"primaryImage,omitempty"`
	SellerID           string           `json:"sellerId"`
	Inventory          Inventory        `json:"inventory"`
	StockStatus        string           `json:"stockStatus"`
	Variants           []ProductVariant `json:"variants,omitempty"`
	Specifications     []Specification  `json:"specifications,omitempty"`
	Tags               []string         `json:"tags,omitempty"`
	Status             string           `json:"status"`
	Featured           bool             `json:"featured"`
	Rating             Rating           `json:"rating"`
	Sales              Sales            `json:"sales"`
	Views              int              `json:"views"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

func ProductEntityToJSON(p entities.Product) Product {
	images := make([]ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ProductImage(img))
	}
	variants := make([]ProductVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, ProductVariant(v))
	}
	specs := make([]Specification, 0, len(p.Specifications))
	for _, sp := range p.Specifications {
		specs = append(specs, Specification(sp))
	}

	return Product{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		ShortDescription:   p.ShortDescription,
		Price:              p.Price,
		CompareAtPrice:     p.CompareAtPrice,
		DiscountPercentage: p.DiscountPercentage(),
		Category:           p.Category,
		Subcategory:        p.Subcategory,
		Brand:              p.Brand,
		Model:              p.Model,
		SKU:                p.SKU,
		Barcode:            p.Barcode,
		Images:             images,
		Thumbnail:          p.Thumbnail,
		PrimaryImage:       p.PrimaryImage(),
		SellerID:           p.SellerID,
		Inventory:          Inventory(p.Inventory),
		StockStatus:        string(p.StockStatus()),
		Variants:           variants,
		Specifications:     specs,
		Tags:               p.Tags,
		Status:             string(p.Status),
		Featured:           p.Featured,
		Rating:             Rating(p.Rating),
		Sales:              Sales(p.Sales),
		Views:              p.Views,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

type ReviewImage struct {
	URL string `json:"url" validate:"required,url"`
	Alt string `json:"alt,omitempty"`
}

type Moderation struct {
	Status      string     `json:"status"`
	ModeratedBy string     `json:"moderatedBy,omitempty"`
	ModeratedAt *time.Time `json:"moderatedAt,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

type SellerResponse struct {
	Comment     string    `json:"comment"`
	RespondedAt time.Time `json:"respondedAt"`
	RespondedBy string    `json:"respondedBy"`
}

// Review представляет отзыв. Голоса и жалобы наружу не отдаются,
// только счетчики
type Review struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"productId"`
	CustomerID     string          `json:"customerId"`
	OrderID        string          `json:"orderId,omitempty"`
	Rating         int             `json:"rating"`
	Title          string          `json:"title"`
	Comment        string          `json:"comment"`
	Images         []ReviewImage   `json:"images,omitempty"`
	HelpfulCount   int             `json:"helpfulCount"`
	Verified       bool            `json:"verified"`
	Moderation     Moderation      `json:"moderation"`
	SellerResponse *SellerResponse `json:"sellerResponse,omitempty"`
	ReportCount    int             `json:"reportCount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func ReviewEntityToJSON(rev entities.Review) Review {
	images := make([]ReviewImage, 0, len(rev.Images))
	for _, img := range rev.Images {
		images = append(images, ReviewImage(img))
	}

	review := Review{
		ID:           rev.ID,
		ProductID:    rev.ProductID,
		CustomerID:   rev.CustomerID,
		OrderID:      rev.OrderID,
		Rating:       rev.Rating,
		Title:        rev.Title,
		Comment:      rev.Comment,
		Images:       images,
		HelpfulCount: rev.HelpfulCount,
		Verified:     rev.Verified,
		Moderation: Moderation{
			Status:      string(rev.Moderation.Status),
			ModeratedBy: rev.Moderation.ModeratedBy,
			ModeratedAt: rev.Moderation.ModeratedAt,
			Reason:      rev.Moderation.Reason,
		},
		ReportCount: rev.ReportCount,
		CreatedAt:   rev.CreatedAt,
		UpdatedAt:   rev.UpdatedAt,
	}
	if rev.SellerResponse != nil {
		sr := SellerResponse(*rev.SellerResponse)
		review.SellerResponse = &sr
	}
	return review
}

type SellerProfile struct {
	BusinessName  string     `json:"businessName,omitempty"`
	BusinessPhone string     `json:"businessPhone,omitempty"`
	IsApproved    bool       `json:"isApproved"`
	ApprovalDate  *time.Time `json:"approvalDate,omitempty"`
	Rating        float64    `json:"rating,omitempty"`
	TotalReviews  int        `json:"totalReviews,omitempty"`
}

// User представляет пользователя
type User struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone,omitempty"`
	Avatar        string         `json:"avatar,omitempty"`
	Role          string         `json:"role"`
	IsActive      bool           `json:"isActive"`
	Address       *Address       `json:"address,omitempty"`
	SellerProfile *SellerProfile `json:"sellerProfile,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func UserEntityToJSON(u entities.User) User {
	user := User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Address != nil {
		a := addressEntityToJSON(*u.Address)
		user.Address = &a
	}
	if u.SellerProfile != nil {
		sp := SellerProfile(*u.SellerProfile)
		user.SellerProfile = &sp
	}
	return user
}

// WishlistItem - товар в вишлисте с датой добавления
type WishlistItem struct {
	Product Product   `json:"product"`
	AddedAt time.Time `json:"addedAt"`
}

func WishlistEntryToJSON(e entities.WishlistEntry) WishlistItem {
	return WishlistItem{
		Product: ProductEntityToJSON(e.Product),
		AddedAt: e.AddedAt,
	}
}
