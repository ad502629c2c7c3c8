package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mvshop/marketplace-service/internal/entities"
)

// Вложенные документы хранятся в jsonb колонках, сохраняя форму
// исходных документов. Ниже - их json-представления.

type addressDoc struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

type variantDoc struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type itemDoc struct {
	ProductID  string      `json:"product_id"`
	SellerID   string      `json:"seller_id"`
	Quantity   int         `json:"quantity"`
	Price      float64     `json:"price"`
	TotalPrice float64     `json:"total_price"`
	Variant    *variantDoc `json:"variant,omitempty"`
	Status     string      `json:"status"`
}

type paymentDoc struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Gateway       string     `json:"gateway,omitempty"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type shippingDoc struct {
	Method            string     `json:"method"`
	Cost              float64    `json:"cost"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	Carrier           string     `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ShippedAt         *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
}

type pricingDoc struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type timelineEntryDoc struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

type refundDoc struct {
	Amount      float64    `json:"amount"`
	Reason      string     `json:"reason,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	ProcessedBy string     `json:"processed_by,omitempty"`
}

type notesDoc struct {
	Customer string `json:"customer,omitempty"`
	Internal string `json:"internal,omitempty"`
}

type orderRow struct {
	ID              string         `db:"id"`
	OrderNumber     string         `db:"order_number"`
	CustomerID      string         `db:"customer_id"`
	Status          string         `db:"status"`
	Items           []byte         `db:"items"`
	BillingAddress  []byte         `db:"billing_address"`
	ShippingAddress []byte         `db:"shipping_address"`
	Payment         []byte         `db:"payment"`
	Shipping        []byte         `db:"shipping"`
	Pricing         []byte         `db:"pricing"`
	Notes           []byte         `db:"notes"`
	Timeline        []byte         `db:"timeline"`
	Refund          []byte         `db:"refund"`
	IsGift          bool           `db:"is_gift"`
	GiftMessage     sql.NullString `db:"gift_message"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func addressToDoc(a entities.Address) addressDoc {
	return addressDoc(a)
}

func addressToEntity(d addressDoc) entities.Address {
	return entities.Address(d)
}

func itemsToDocs(items []entities.OrderItem) []itemDoc {
	docs := make([]itemDoc, 0, len(items))
	for _, it := range items {
		doc := itemDoc{
			ProductID:  it.ProductID,
			SellerID:   it.SellerID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			TotalPrice: it.TotalPrice,
			Status:     string(it.Status),
		}
		if it.Variant != nil {
			doc.Variant = &variantDoc{Name: it.Variant.Name, Value: it.Variant.Value}
		}
		docs = append(docs, doc)
	}
	return docs
}

func itemsToEntities(docs []itemDoc) []entities.OrderItem {
	items := make([]entities.OrderItem, 0, len(docs))
	for _, d := range docs {
		it := entities.OrderItem{
			ProductID:  d.ProductID,
			SellerID:   d.SellerID,
			Quantity:   d.Quantity,
			Price:      d.Price,
			TotalPrice: d.TotalPrice,
			Status:     entities.OrderStatus(d.Status),
		}
		if d.Variant != nil {
			it.Variant = &entities.ItemVariant{Name: d.Variant.Name, Value: d.Variant.Value}
		}
		items = append(items, it)
	}
	return items
}

func timelineToDocs(timeline []entities.TimelineEntry) []timelineEntryDoc {
	docs := make([]timelineEntryDoc, 0, len(timeline))
	for _, e := range timeline {
		docs = append(docs, timelineEntryDoc{
			Status:    string(e.Status),
			Timestamp: e.Timestamp,
			Note:      e.Note,
			UpdatedBy: e.UpdatedBy,
		})
	}
	return docs
}

func timelineToEntities(docs []timelineEntryDoc) []entities.TimelineEntry {
	timeline := make([]entities.TimelineEntry, 0, len(docs))
	for _, d := range docs {
		timeline = append(timeline, entities.TimelineEntry{
			Status:    entities.OrderStatus(d.Status),
			Timestamp: d.Timestamp,
			Note:      d.Note,
			UpdatedBy: d.UpdatedBy,
		})
	}
	return timeline
}

func orderToRow(o entities.Order) (orderRow, error) {
	row := orderRow{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		IsGift:      o.IsGift,
		GiftMessage: nullString(o.GiftMessage),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}

	var err error
	if row.Items, err = json.Marshal(itemsToDocs(o.Items)); err != nil {
		return orderRow{}, fmt.Errorf("failed to marshal items: %w", err)
	}
	if row.BillingAddress, err = json.Marshal(addressToDoc(o.BillingAddress)); err != nil {
		return orderRow{}, fmt.Errorf("failed to marshal billing address: %w", err)
	}
	if row.ShippingAddress, err = json.Marshal(addressToDoc(o.ShippingAddress)); err != nil {
		return orderRow{}, fmt.Errorf("failed to marshal shipping address: %w", err)
	}
	if row.Payment, err = json.Marshal(paymentDoc{
		Method:        string(o.Payment.Method),
		Status:        string(o.Payment.Status),
		TransactionID: o.Payment.TransactionID,
		Gateway:       o.Payment.Gateway,
		Amount:        o.Payment.Amount,
		Currency:      o.Payment.Currency,
		PaidAt:        o.Payment.PaidAt,
	}); err != nil {
		return orderRow{}, fmt.Errorf("failed to marshal payment: %w", err)
	}
	if row.Shipping, err = json.Marshal(shippingDoc{
		Method:            string(o.Shipping.Method),
		Cost:              o.Shipping.Cost,
		TrackingNumber:    o.Shipping.TrackingNumber,
		Carrier:           o.Shipping.Carrier,
		EstimatedDelivery: o.Shipping.EstimatedDelivery,
		ShippedAt:         o.Shipping.ShippedAt,
		DeliveredAt:       o.Shipping.DeliveredAt,
	}); err != nil {
		return orderRow{}, fmt.Errorf("failed to marshal shipping: %w", err)
	}
	if row.Pricing, err = json.Marshal(pricingDoc(o.Pricing)); err != nil {
		return orderRow{}, fmt.Errorf("failed to marshal pricing: %w", err)
	}
	if row.Notes, err = json.Marshal(notesDoc(o.Notes)); err != nil {
		return orderRow{}, fmt.Errorf("failed to marshal notes: %w", err)
	}
	if row.Timeline, err = json.Marshal(timelineToDocs(o.Timeline)); err != nil {
		return orderRow{}, fmt.Errorf("failed to marshal timeline: %w", err)
	}
	if o.Refund != nil {
		if row.Refund, err = json.Marshal(refundDoc{
			Amount:      o.Refund.Amount,
			Reason:      o.Refund.Reason,
			ProcessedAt: o.Refund.ProcessedAt,
			ProcessedBy: o.Refund.ProcessedBy,
		}); err != nil {
			return orderRow{}, fmt.Errorf("failed to marshal refund: %w", err)
		}
	}

	return row, nil
}

func orderToEntity(row orderRow) (entities.Order, error) {
	o := entities.Order{
		ID:          row.ID,
		OrderNumber: row.OrderNumber,
		CustomerID:  row.CustomerID,
		Status:      entities.OrderStatus(row.Status),
		IsGift:      row.IsGift,
		GiftMessage: row.GiftMessage.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	var items []itemDoc
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	o.Items = itemsToEntities(items)

	var billing, shipping addressDoc
	if err := json.Unmarshal(row.BillingAddress, &billing); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal billing address: %w", err)
	}
	if err := json.Unmarshal(row.ShippingAddress, &shipping); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}
	o.BillingAddress = addressToEntity(billing)
	o.ShippingAddress = addressToEntity(shipping)

	var payment paymentDoc
	if err := json.Unmarshal(row.Payment, &payment); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal payment: %w", err)
	}
	o.Payment = entities.Payment{
		Method:        entities.PaymentMethod(payment.Method),
		Status:        entities.PaymentStatus(payment.Status),
		TransactionID: payment.TransactionID,
		Gateway:       payment.Gateway,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		PaidAt:        payment.PaidAt,
	}

	var ship shippingDoc
	if err := json.Unmarshal(row.Shipping, &ship); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal shipping: %w", err)
	}
	o.Shipping = entities.Shipping{
		Method:            entities.ShippingMethod(ship.Method),
		Cost:              ship.Cost,
		TrackingNumber:    ship.TrackingNumber,
		Carrier:           ship.Carrier,
		EstimatedDelivery: ship.EstimatedDelivery,
		ShippedAt:         ship.ShippedAt,
		DeliveredAt:       ship.DeliveredAt,
	}

	var pricing pricingDoc
	if err := json.Unmarshal(row.Pricing, &pricing); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal pricing: %w", err)
	}
	o.Pricing = entities.Pricing(pricing)

	if len(row.Notes) > 0 {
		var notes notesDoc
		if err := json.Unmarshal(row.Notes, &notes); err != nil {
			return entities.Order{}, fmt.Errorf("failed to unmarshal notes: %w", err)
		}
		o.Notes = entities.OrderNotes(notes)
	}

	var timeline []timelineEntryDoc
	if err := json.Unmarshal(row.Timeline, &timeline); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal timeline: %w", err)
	}
	o.Timeline = timelineToEntities(timeline)

	if len(row.Refund) > 0 {
		var refund refundDoc
		if err := json.Unmarshal(row.Refund, &refund); err != nil {
			return entities.Order{}, fmt.Errorf("failed to unmarshal refund: %w", err)
		}
		o.Refund = &entities.Refund{
			Amount:      refund.Amount,
			Reason:      refund.Reason,
			ProcessedAt: refund.ProcessedAt,
			ProcessedBy: refund.ProcessedBy,
		}
	}

	return o, nil
}

type productImageDoc struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

type productVariantDoc struct {
	Name          string   `json:"name"`
	Options       []string `json:"options"`
	PriceModifier float64  `json:"price_modifier,omitempty"`
}

type specificationDoc struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type productRow struct {
	ID               string          `db:"id"`
	Name             string          `db:"name"`
	Description      string          `db:"description"`
	ShortDescription sql.NullString  `db:"short_description"`
	Price            float64         `db:"price"`
	CompareAtPrice   sql.NullFloat64 `db:"compare_at_price"`
	CostPrice        sql.NullFloat64 `db:"cost_price"`
	Category         string          `db:"category"`
	Subcategory      sql.NullString  `db:"subcategory"`
	Brand            sql.NullString  `db:"brand"`
	Model            sql.NullString  `db:"model"`
	SKU              string          `db:"sku"`
	Barcode          sql.NullString  `db:"barcode"`
	Images           []byte          `db:"images"`
	Thumbnail        sql.NullString  `db:"thumbnail"`
	SellerID         string          `db:"seller_id"`

	// Инвентарь и агрегаты лежат колонками - по ним фильтруют и сортируют
	Quantity          int  `db:"quantity"`
	LowStockThreshold int  `db:"low_stock_threshold"`
	TrackInventory    bool `db:"track_inventory"`
	AllowBackorders   bool `db:"allow_backorders"`

	Variants       []byte `db:"variants"`
	Specifications []byte `db:"specifications"`
	Tags           []byte `db:"tags"`

	Status   string `db:"status"`
	Featured bool   `db:"featured"`

	RatingAverage float64 `db:"rating_average"`
	RatingCount   int     `db:"rating_count"`
	TotalSold     int     `db:"total_sold"`
	Revenue       float64 `db:"revenue"`
	Views         int     `db:"views"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func productToRow(p entities.Product) (productRow, error) {
	row := productRow{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		ShortDescription:  nullString(p.ShortDescription),
		Price:             p.Price,
		CompareAtPrice:    nullFloat(p.CompareAtPrice),
		CostPrice:         nullFloat(p.CostPrice),
		Category:          p.Category,
		Subcategory:       nullString(p.Subcategory),
		Brand:             nullString(p.Brand),
		Model:             nullString(p.Model),
		SKU:               p.SKU,
		Barcode:           nullString(p.Barcode),
		Thumbnail:         nullString(p.Thumbnail),
		SellerID:          p.SellerID,
		Quantity:          p.Inventory.Quantity,
		LowStockThreshold: p.Inventory.LowStockThreshold,
		TrackInventory:    p.Inventory.TrackInventory,
		AllowBackorders:   p.Inventory.AllowBackorders,
		Status:            string(p.Status),
		Featured:          p.Featured,
		RatingAverage:     p.Rating.Average,
		RatingCount:       p.Rating.Count,
		TotalSold:         p.Sales.TotalSold,
		Revenue:           p.Sales.Revenue,
		Views:             p.Views,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}

	images := make([]productImageDoc, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, productImageDoc(img))
	}
	variants := make([]productVariantDoc, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, productVariantDoc(v))
	}
	specs := make([]specificationDoc, 0, len(p.Specifications))
	for _, s := range p.Specifications {
		specs = append(specs, specificationDoc(s))
	}

	var err error
	if row.Images, err = json.Marshal(images); err != nil {
		return productRow{}, fmt.Errorf("failed to marshal images: %w", err)
	}
	if row.Variants, err = json.Marshal(variants); err != nil {
		return productRow{}, fmt.Errorf("failed to marshal variants: %w", err)
	}
	if row.Specifications, err = json.Marshal(specs); err != nil {
		return productRow{}, fmt.Errorf("failed to marshal specifications: %w", err)
	}
	if row.Tags, err = json.Marshal(p.Tags); err != nil {
		return productRow{}, fmt.Errorf("failed to marshal tags: %w", err)
	}

	return row, nil
}

func productToEntity(row productRow) (entities.Product, error) {
	p := entities.Product{
		ID:               row.ID,
		Name:             row.Name,
		Description:      row.Description,
		ShortDescription: row.ShortDescription.String,
		Price:            row.Price,
		CompareAtPrice:   row.CompareAtPrice.Float64,
		CostPrice:        row.CostPrice.Float64,
		Category:         row.Category,
		Subcategory:      row.Subcategory.String,
		Brand:            row.Brand.String,
		Model:            row.Model.String,
		SKU:              row.SKU,
		Barcode:          row.Barcode.String,
		Thumbnail:        row.Thumbnail.String,
		SellerID:         row.SellerID,
		Inventory: entities.Inventory{
			Quantity:          row.Quantity,
			LowStockThreshold: row.LowStockThreshold,
			TrackInventory:    row.TrackInventory,
			AllowBackorders:   row.AllowBackorders,
		},
		Status:   entities.ProductStatus(row.Status),
		Featured: row.Featured,
		Rating:   entities.Rating{Average: row.RatingAverage, Count: row.RatingCount},
		Sales:    entities.Sales{TotalSold: row.TotalSold, Revenue: row.Revenue},
		Views:    row.Views,

		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	var images []productImageDoc
	if err := json.Unmarshal(row.Images, &images); err != nil {
		return entities.Product{}, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	for _, img := range images {
		p.Images = append(p.Images, entities.ProductImage(img))
	}

	var variants []productVariantDoc
	if err := json.Unmarshal(row.Variants, &variants); err != nil {
		return entities.Product{}, fmt.Errorf("failed to unmarshal variants: %w", err)
	}
	for _, v := range variants {
		p.Variants = append(p.Variants, entities.ProductVariant(v))
	}

	var specs []specificationDoc
	if err := json.Unmarshal(row.Specifications, &specs); err != nil {
		return entities.Product{}, fmt.Errorf("failed to unmarshal specifications: %w", err)
	}
	for _, s := range specs {
		p.Specifications = append(p.Specifications, entities.Specification(s))
	}

	if err := json.Unmarshal(row.Tags, &p.Tags); err != nil {
		return entities.Product{}, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	return p, nil
}

type reviewImageDoc struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type helpfulVoteDoc struct {
	UserID    string    `json:"user_id"`
	IsHelpful bool      `json:"is_helpful"`
	VotedAt   time.Time `json:"voted_at"`
}

type reportDoc struct {
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reported_at"`
}

type sellerResponseDoc struct {
	Comment     string    `json:"comment"`
	RespondedAt time.Time `json:"responded_at"`
	RespondedBy string    `json:"responded_by"`
}

type reviewRow struct {
	ID             string         `db:"id"`
	ProductID      string         `db:"product_id"`
	CustomerID     string         `db:"customer_id"`
	OrderID        sql.NullString `db:"order_id"`
	Rating         int            `db:"rating"`
	Title          string         `db:"title"`
	Comment        string         `db:"comment"`
	Images         []byte         `db:"images"`
	HelpfulCount   int            `db:"helpful_count"`
	HelpfulVotes   []byte         `db:"helpful_votes"`
	Verified       bool           `db:"verified"`
	ModStatus      string         `db:"moderation_status"`
	ModeratedBy    sql.NullString `db:"moderated_by"`
	ModeratedAt    sql.NullTime   `db:"moderated_at"`
	ModReason      sql.NullString `db:"moderation_reason"`
	SellerResponse []byte         `db:"seller_response"`
	ReportCount    int            `db:"report_count"`
	Reports        []byte         `db:"reports"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func reviewToRow(rev entities.Review) (reviewRow, error) {
	row := reviewRow{
		ID:           rev.ID,
		ProductID:    rev.ProductID,
		CustomerID:   rev.CustomerID,
		OrderID:      nullString(rev.OrderID),
		Rating:       rev.Rating,
		Title:        rev.Title,
		Comment:      rev.Comment,
		HelpfulCount: rev.HelpfulCount,
		Verified:     rev.Verified,
		ModStatus:    string(rev.Moderation.Status),
		ModeratedBy:  nullString(rev.Moderation.ModeratedBy),
		ModReason:    nullString(rev.Moderation.Reason),
		ReportCount:  rev.ReportCount,
		CreatedAt:    rev.CreatedAt,
		UpdatedAt:    rev.UpdatedAt,
	}
	if rev.Moderation.ModeratedAt != nil {
		row.ModeratedAt = sql.NullTime{Time: *rev.Moderation.ModeratedAt, Valid: true}
	}

	images := make([]reviewImageDoc, 0, len(rev.Images))
	for _, img := range rev.Images {
		images = append(images, reviewImageDoc(img))
	}
	votes := make([]helpfulVoteDoc, 0, len(rev.HelpfulVotes))
	for _, v := range rev.HelpfulVotes {
		votes = append(votes, helpfulVoteDoc(v))
	}
	reports := make([]reportDoc, 0, len(rev.Reports))
	for _, rep := range rev.Reports {
		reports = append(reports, reportDoc(rep))
	}

	var err error
	if row.Images, err = json.Marshal(images); err != nil {
		return reviewRow{}, fmt.Errorf("failed to marshal images: %w", err)
	}
	if row.HelpfulVotes, err = json.Marshal(votes); err != nil {
		return reviewRow{}, fmt.Errorf("failed to marshal helpful votes: %w", err)
	}
	if row.Reports, err = json.Marshal(reports); err != nil {
		return reviewRow{}, fmt.Errorf("failed to marshal reports: %w", err)
	}
	if rev.SellerResponse != nil {
		if row.SellerResponse, err = json.Marshal(sellerResponseDoc(*rev.SellerResponse)); err != nil {
			return reviewRow{}, fmt.Errorf("failed to marshal seller response: %w", err)
		}
	}

	return row, nil
}

func reviewToEntity(row reviewRow) (entities.Review, error) {
	rev := entities.Review{
		ID:           row.ID,
		ProductID:    row.ProductID,
		CustomerID:   row.CustomerID,
		OrderID:      row.OrderID.String,
		Rating:       row.Rating,
		Title:        row.Title,
		Comment:      row.Comment,
		HelpfulCount: row.HelpfulCount,
		Verified:     row.Verified,
		Moderation: entities.Moderation{
			Status:      entities.ModerationStatus(row.ModStatus),
			ModeratedBy: row.ModeratedBy.String,
			Reason:      row.ModReason.String,
		},
		ReportCount: row.ReportCount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.ModeratedAt.Valid {
		t := row.ModeratedAt.Time
		rev.Moderation.ModeratedAt = &t
	}

	var images []reviewImageDoc
	if err := json.Unmarshal(row.Images, &images); err != nil {
		return entities.Review{}, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	for _, img := range images {
		rev.Images = append(rev.Images, entities.ReviewImage(img))
	}

	var votes []helpfulVoteDoc
	if err := json.Unmarshal(row.HelpfulVotes, &votes); err != nil {
		return entities.Review{}, fmt.Errorf("failed to unmarshal helpful votes: %w", err)
	}
	for _, v := range votes {
		rev.HelpfulVotes = append(rev.HelpfulVotes, entities.HelpfulVote(v))
	}

	var reports []reportDoc
	if err := json.Unmarshal(row.Reports, &reports); err != nil {
		return entities.Review{}, fmt.Errorf("failed to unmarshal reports: %w", err)
	}
	for _, rep := range reports {
		rev.Reports = append(rev.Reports, entities.ReviewReport(rep))
	}

	if len(row.SellerResponse) > 0 {
		var resp sellerResponseDoc
		if err := json.Unmarshal(row.SellerResponse, &resp); err != nil {
			return entities.Review{}, fmt.Errorf("failed to unmarshal seller response: %w", err)
		}
		sr := entities.SellerResponse(resp)
		rev.SellerResponse = &sr
	}

	return rev, nil
}

type sellerProfileDoc struct {
	BusinessName  string     `json:"business_name,omitempty"`
	BusinessPhone string     `json:"business_phone,omitempty"`
	IsApproved    bool       `json:"is_approved"`
	ApprovalDate  *time.Time `json:"approval_date,omitempty"`
	Rating        float64    `json:"rating,omitempty"`
	TotalReviews  int        `json:"total_reviews,omitempty"`
}

type userRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Phone         sql.NullString `db:"phone"`
	Avatar        sql.NullString `db:"avatar"`
	Role          string         `db:"role"`
	IsActive      bool           `db:"is_active"`
	Address       []byte         `db:"address"`
	SellerProfile []byte         `db:"seller_profile"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func userToRow(u entities.User) (userRow, error) {
	row := userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     nullString(u.Phone),
		Avatar:    nullString(u.Avatar),
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	var err error
	if u.Address != nil {
		if row.Address, err = json.Marshal(addressToDoc(*u.Address)); err != nil {
			return userRow{}, fmt.Errorf("failed to marshal address: %w", err)
		}
	}
	if u.SellerProfile != nil {
		if row.SellerProfile, err = json.Marshal(sellerProfileDoc(*u.SellerProfile)); err != nil {
			return userRow{}, fmt.Errorf("failed to marshal seller profile: %w", err)
		}
	}

	return row, nil
}

func userToEntity(row userRow) (entities.User, error) {
	u := entities.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone.String,
		Avatar:    row.Avatar.String,
		Role:      entities.Role(row.Role),
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if len(row.Address) > 0 {
		var addr addressDoc
		if err := json.Unmarshal(row.Address, &addr); err != nil {
			return entities.User{}, fmt.Errorf("failed to unmarshal address: %w", err)
		}
		a := addressToEntity(addr)
		u.Address = &a
	}

	if len(row.SellerProfile) > 0 {
		var profile sellerProfileDoc
		if err := json.Unmarshal(row.SellerProfile, &profile); err != nil {
			return entities.User{}, fmt.Errorf("failed to unmarshal seller profile: %w", err)
		}
		sp := entities.SellerProfile(profile)
		u.SellerProfile = &sp
	}

	return u, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
