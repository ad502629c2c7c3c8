package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mvshop/marketplace-service/internal/authz"
	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/internal/service"
	"github.com/mvshop/marketplace-service/pkg/utils"
)

type OrderService interface {
	Checkout(ctx context.Context, input service.CheckoutInput) (entities.Order, error)
	GetOrder(ctx context.Context, orderID string) (entities.Order, error)
	ListOrders(ctx context.Context, filter repo.OrderFilter, limit, offset int) ([]entities.Order, int, error)
	CancelOrder(ctx context.Context, orderID, actorID, reason string) (entities.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, input service.StatusUpdateInput) (entities.Order, error)
	Stats(ctx context.Context, filter repo.OrderFilter) (service.OrderStats, error)
}

type OrderHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewOrderHandler(logger *slog.Logger, svc OrderService) *OrderHandler {
	return &OrderHandler{
		logger:   logger.With(slog.String("handler", "orders")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *OrderHandler) Init(r chi.Router) {
	r.Post("/orders", h.Checkout)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/stats", h.Stats)
	r.Get("/orders/{order_id}", h.GetOrder)
	r.Put("/orders/{order_id}/status", h.UpdateStatus)
	r.Put("/orders/{order_id}/cancel", h.CancelOrder)
}

type CheckoutItemRequest struct {
	ProductID string       `json:"productId" validate:"required,uuid"`
	Quantity  int          `json:"quantity" validate:"required,min=1"`
	Variant   *ItemVariant `json:"variant,omitempty"`
}

type CheckoutRequest struct {
	Items           []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress Address               `json:"shippingAddress" validate:"required"`
	BillingAddress  *Address              `json:"billingAddress,omitempty"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required,oneof=credit_card debit_card paypal stripe cash_on_delivery bank_transfer"`
	ShippingMethod  string                `json:"shippingMethod" validate:"required,oneof=standard express overnight economy"`
	CustomerNote    string                `json:"customerNote,omitempty"`
	IsGift          bool                  `json:"isGift,omitempty"`
	GiftMessage     string                `json:"giftMessage,omitempty"`
}

// Checkout оформляет заказ из корзины.
// @Summary      Оформить заказ
// @Description  Резервирует остатки и создает заказ со статусом pending
// @Tags         orders
// @Accept       json
// @Param        request  body  CheckoutRequest  true  "Состав заказа"
// @Success      201  {object}  Order
// @Failure      400  {object}  utils.Response "Ошибка валидации или нет остатков"
// @Failure      401  {object}  utils.Response
// @Failure      403  {object}  utils.Response "Заказы оформляют только покупатели"
// @Router       /orders [post]
// @Security     BearerAuth
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireCustomer(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	input := service.CheckoutInput{
		CustomerID:      actor.ID,
		ShippingAddress: addressJSONToEntity(req.ShippingAddress),
		PaymentMethod:   entities.PaymentMethod(req.PaymentMethod),
		ShippingMethod:  entities.ShippingMethod(req.ShippingMethod),
		CustomerNote:    req.CustomerNote,
		IsGift:          req.IsGift,
		GiftMessage:     req.GiftMessage,
	}
	if req.BillingAddress != nil {
		billing := addressJSONToEntity(*req.BillingAddress)
		input.BillingAddress = &billing
	}
	for _, item := range req.Items {
		in := service.CheckoutItem{ProductID: item.ProductID, Quantity: item.Quantity}
		if item.Variant != nil {
			v := entities.ItemVariant(*item.Variant)
			in.Variant = &v
		}
		input.Items = append(input.Items, in)
	}

	order, err := h.svc.Checkout(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrInsufficientStock):
			checkoutFailures.WithLabelValues("insufficient_stock").Inc()
		case errors.Is(err, entities.ErrProductUnavailable):
			checkoutFailures.WithLabelValues("product_unavailable").Inc()
		case errors.Is(err, entities.ErrProductNotFound):
			checkoutFailures.WithLabelValues("product_not_found").Inc()
		}
		writeServiceError(w, r, h.logger, err)
		return
	}

	ordersCreated.Inc()
	utils.WriteSuccess(w, OrderEntityToJSON(order), "Order created successfully", http.StatusCreated)
}

// ListOrders возвращает заказы с пагинацией.
// Покупатель видит только свои, продавец - содержащие его позиции,
// админ - все.
// @Summary      Список заказов
// @Tags         orders
// @Param        page    query  int     false  "Номер страницы"
// @Param        limit   query  int     false  "Размер страницы"
// @Param        status  query  string  false  "Фильтр по статусу"
// @Success      200  {object}  OrdersPage
// @Failure      401  {object}  utils.Response
// @Router       /orders [get]
// @Security     BearerAuth
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, limit, offset := parsePagination(r)

	filter := repo.OrderFilter{Status: r.URL.Query().Get("status")}
	switch actor.Role {
	case entities.RoleCustomer:
		filter.CustomerID = actor.ID
	case entities.RoleSeller:
		filter.SellerID = actor.ID
	}

	orders, total, err := h.svc.ListOrders(ctx, filter, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]Order, 0, len(orders))
	for _, o := range orders {
		items = append(items, OrderEntityToJSON(o))
	}

	utils.WriteSuccess(w, OrdersPage{
		Orders:     items,
		Pagination: utils.NewPagination(page, limit, total),
	}, "", http.StatusOK)
}

// OrdersPage - страница списка заказов
type OrdersPage struct {
	Orders     []Order          `json:"orders"`
	Pagination utils.Pagination `json:"pagination"`
}

// GetOrder возвращает заказ по ID.
// @Summary      Получить заказ
// @Tags         orders
// @Param        order_id  path  string  true  "Идентификатор заказа"
// @Success      200  {object}  Order
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Заказ не найден"
// @Router       /orders/{order_id} [get]
// @Security     BearerAuth
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "order_id")

	order, err := h.svc.GetOrder(ctx, orderID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if !authz.Allow(actor, authz.ActionView, &order) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	utils.WriteSuccess(w, OrderEntityToJSON(order), "", http.StatusOK)
}

type StatusUpdateRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	Note           string `json:"note,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
}

// UpdateStatus переводит заказ в новый статус.
// @Summary      Обновить статус заказа
// @Description  Доступно продавцу с позициями в заказе и администратору
// @Tags         orders
// @Accept       json
// @Param        order_id  path  string               true  "Идентификатор заказа"
// @Param        request   body  StatusUpdateRequest  true  "Новый статус"
// @Success      200  {object}  Order
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Заказ не найден"
// @Router       /orders/{order_id}/status [put]
// @Security     BearerAuth
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "order_id")

	var req StatusUpdateRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.GetOrder(ctx, orderID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !authz.Allow(actor, authz.ActionUpdate, &order) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	updated, err := h.svc.UpdateOrderStatus(ctx, orderID, service.StatusUpdateInput{
		Status:         entities.OrderStatus(req.Status),
		Note:           req.Note,
		UpdatedBy:      actor.ID,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, OrderEntityToJSON(updated), "Order status updated successfully", http.StatusOK)
}

type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelOrder отменяет заказ.
// @Summary      Отменить заказ
// @Description  Отмена возможна только из статусов pending и confirmed
// @Tags         orders
// @Accept       json
// @Param        order_id  path  string              true   "Идентификатор заказа"
// @Param        request   body  CancelOrderRequest  false  "Причина отмены"
// @Success      200  {object}  Order
// @Failure      400  {object}  utils.Response "Заказ нельзя отменить"
// @Failure      403  {object}  utils.Response
// @Router       /orders/{order_id}/cancel [put]
// @Security     BearerAuth
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "order_id")

	var req CancelOrderRequest
	if r.ContentLength > 0 {
		if err := utils.DecodeBody(r, &req); err != nil {
			utils.WriteError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	order, err := h.svc.GetOrder(ctx, orderID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !authz.Allow(actor, authz.ActionCancel, &order) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	cancelled, err := h.svc.CancelOrder(ctx, orderID, actor.ID, req.Reason)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	ordersCancelled.Inc()
	utils.WriteSuccess(w, OrderEntityToJSON(cancelled), "Order cancelled successfully", http.StatusOK)
}

// Stats возвращает сводку по заказам.
// @Summary      Статистика заказов
// @Description  Админ видит все заказы, продавец и покупатель - только свои
// @Tags         orders
// @Success      200  {object}  service.OrderStats
// @Failure      401  {object}  utils.Response
// @Router       /orders/stats [get]
// @Security     BearerAuth
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var filter repo.OrderFilter
	switch actor.Role {
	case entities.RoleAdmin:
	case entities.RoleSeller:
		filter.SellerID = actor.ID
	default:
		filter.CustomerID = actor.ID
	}

	stats, err := h.svc.Stats(ctx, filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, stats, "", http.StatusOK)
}
