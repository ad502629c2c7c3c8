package entities

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPaypal         PaymentMethod = "paypal"
	PaymentMethodStripe         PaymentMethod = "stripe"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

type ShippingMethod string

const (
	ShippingMethodStandard  ShippingMethod = "standard"
	ShippingMethodExpress   ShippingMethod = "express"
	ShippingMethodOvernight ShippingMethod = "overnight"
	ShippingMethodEconomy   ShippingMethod = "economy"
)

// TaxRate - плоская ставка 10%, пока не настраивается по регионам
const TaxRate = 0.1

type Address struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
}

type ItemVariant struct {
	Name  string
	Value string
}

type OrderItem struct {
	ProductID  string
	SellerID   string
	Quantity   int
	Price      float64
	TotalPrice float64
	Variant    *ItemVariant
	Status     OrderStatus
}

type Payment struct {
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	Gateway       string
	Amount        float64
	Currency      string
	PaidAt        *time.Time
}

type Shipping struct {
	Method            ShippingMethod
	Cost              float64
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
}

type Pricing struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Discount float64
	Total    float64
}

type TimelineEntry struct {
	Status    OrderStatus
	Timestamp time.Time
	Note      string
	UpdatedBy string
}

type Refund struct {
	Amount      float64
	Reason      string
	ProcessedAt *time.Time
	ProcessedBy string
}

type OrderNotes struct {
	Customer string
	Internal string
}

type Order struct {
	ID          string
	OrderNumber string
	CustomerID  string

	// тут без указателей, потому что эти данные всегда присутствуют
	Items           []OrderItem
	BillingAddress  Address
	ShippingAddress Address
	Payment         Payment
	Shipping        Shipping
	Pricing         Pricing

	Status      OrderStatus
	Notes       OrderNotes
	Timeline    []TimelineEntry
	Refund      *Refund
	IsGift      bool
	GiftMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerateOrderNumber формирует номер вида ORD-<8 последних цифр ms-таймстампа>-<5 символов base36>
func GenerateOrderNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return fmt.Sprintf("ORD-%s-%s", ts[len(ts)-8:], randomBase36(5, true))
}

// UpdateStatus переводит заказ в новый статус и добавляет ровно одну запись в timeline.
// Для cancelled/refunded статус каскадно проставляется всем позициям.
// Допустимость перехода здесь не проверяется, гейт отмены живет в сервисе.
func (o *Order) UpdateStatus(status OrderStatus, note, updatedBy string) {
	o.Status = status
	o.Timeline = append(o.Timeline, TimelineEntry{
		Status:    status,
		Timestamp: time.Now(),
		Note:      note,
		UpdatedBy: updatedBy,
	})

	if status == OrderStatusCancelled || status == OrderStatusRefunded {
		for i := range o.Items {
			o.Items[i].Status = status
		}
	}
}

// CalculateTotals пересчитывает pricing по позициям. TotalPrice позиции
// берется как есть, без пересчета из price*quantity.
func (o *Order) CalculateTotals() Pricing {
	var subtotal float64
	for _, it := range o.Items {
		subtotal += it.TotalPrice
	}

	o.Pricing.Subtotal = subtotal
	o.Pricing.Tax = subtotal * TaxRate
	o.Pricing.Shipping = o.Shipping.Cost
	o.Pricing.Total = subtotal + o.Pricing.Tax + o.Pricing.Shipping - o.Pricing.Discount

	return o.Pricing
}

// CanCancel - отменить можно только pending или confirmed заказ
func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

func (o *Order) HasSeller(sellerID string) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

type OrderSummary struct {
	TotalItems     int
	UniqueProducts int
	TotalValue     float64
	Status         OrderStatus
}

func (o *Order) Summary() OrderSummary {
	total := 0
	for _, it := range o.Items {
		total += it.Quantity
	}
	return OrderSummary{
		TotalItems:     total,
		UniqueProducts: len(o.Items),
		TotalValue:     o.Pricing.Total,
		Status:         o.Status,
	}
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int, upper bool) string {
	b := make([]byte, n)
	for i := range b {
		c := base36Alphabet[rand.Intn(len(base36Alphabet))]
		if upper && c >= 'a' {
			c -= 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}
