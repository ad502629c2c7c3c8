package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvshop/marketplace-service/internal/auth"
	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/handler"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/internal/service"
	"github.com/mvshop/marketplace-service/pkg/utils"
)

type fakeOrderService struct {
	orders     map[string]entities.Order
	lastFilter repo.OrderFilter
	cancelErr  error
}

func (f *fakeOrderService) Checkout(ctx context.Context, input service.CheckoutInput) (entities.Order, error) {
	order := entities.Order{
		ID:          "order-1",
		OrderNumber: "ORD-12345678-ABCDE",
		CustomerID:  input.CustomerID,
		Status:      entities.OrderStatusPending,
	}
	return order, nil
}

func (f *fakeOrderService) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderService) ListOrders(ctx context.Context, filter repo.OrderFilter, limit, offset int) ([]entities.Order, int, error) {
	f.lastFilter = filter
	var orders []entities.Order
	for _, o := range f.orders {
		orders = append(orders, o)
	}
	return orders, len(orders), nil
}

func (f *fakeOrderService) CancelOrder(ctx context.Context, orderID, actorID, reason string) (entities.Order, error) {
	if f.cancelErr != nil {
		return entities.Order{}, f.cancelErr
	}
	order := f.orders[orderID]
	order.Status = entities.OrderStatusCancelled
	return order, nil
}

func (f *fakeOrderService) UpdateOrderStatus(ctx context.Context, orderID string, input service.StatusUpdateInput) (entities.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	order.Status = input.Status
	return order, nil
}

func (f *fakeOrderService) Stats(ctx context.Context, filter repo.OrderFilter) (service.OrderStats, error) {
	f.lastFilter = filter
	return service.OrderStats{}, nil
}

// newOrderRouter собирает роутер с подстановкой актора вместо JWT
func newOrderRouter(svc handler.OrderService, actor *auth.Actor) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewOrderHandler(logger, svc)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		if actor != nil {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(auth.WithActor(req.Context(), *actor)))
				})
			})
		}
		h.Init(r)
	})
	return r
}

func checkoutBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(handler.CheckoutRequest{
		Items: []handler.CheckoutItemRequest{
			{ProductID: "5bf9f2f1-5b6c-4d52-9f2a-111111111111", Quantity: 2},
		},
		ShippingAddress: handler.Address{
			FirstName: "Ivan", LastName: "Petrov",
			Street: "Lenina 1", City: "Moscow", ZipCode: "101000", Country: "RU",
		},
		PaymentMethod:  "credit_card",
		ShippingMethod: "standard",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var res utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestOrderHandler_Checkout(t *testing.T) {
	actor := auth.Actor{ID: "cust-1", Role: entities.RoleCustomer}
	router := newOrderRouter(&fakeOrderService{}, &actor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", checkoutBody(t)))

	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeResponse(t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "Order created successfully", res.Message)
}

func TestOrderHandler_Checkout_SellerForbidden(t *testing.T) {
	actor := auth.Actor{ID: "seller-1", Role: entities.RoleSeller}
	router := newOrderRouter(&fakeOrderService{}, &actor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", checkoutBody(t)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderHandler_Checkout_IgnoresPricingFields(t *testing.T) {
	actor := auth.Actor{ID: "cust-1", Role: entities.RoleCustomer}
	router := newOrderRouter(&fakeOrderService{}, &actor)

	// посторонние поля ценообразования в теле не должны ломать оформление
	body := bytes.NewBufferString(`{
		"items":[{"productId":"5bf9f2f1-5b6c-4d52-9f2a-111111111111","quantity":2}],
		"shippingAddress":{"firstName":"Ivan","lastName":"Petrov","street":"Lenina 1","city":"Moscow","zipCode":"101000","country":"RU"},
		"paymentMethod":"credit_card",
		"shippingMethod":"standard",
		"shippingCost":99,
		"discount":1000
	}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", body))

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestOrderHandler_Checkout_Unauthenticated(t *testing.T) {
	router := newOrderRouter(&fakeOrderService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", checkoutBody(t)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderHandler_Checkout_ValidationErrors(t *testing.T) {
	actor := auth.Actor{ID: "cust-1", Role: entities.RoleCustomer}
	router := newOrderRouter(&fakeOrderService{}, &actor)

	body := bytes.NewBufferString(`{"items":[],"paymentMethod":"bitcoin"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeResponse(t, rec)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Errors)
}

func TestOrderHandler_GetOrder_Forbidden(t *testing.T) {
	svc := &fakeOrderService{orders: map[string]entities.Order{
		"order-1": {ID: "order-1", CustomerID: "cust-1", Status: entities.OrderStatusPending},
	}}
	stranger := auth.Actor{ID: "cust-2", Role: entities.RoleCustomer}
	router := newOrderRouter(svc, &stranger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/order-1", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderHandler_CancelOrder_NotCancellable(t *testing.T) {
	svc := &fakeOrderService{
		orders: map[string]entities.Order{
			"order-1": {ID: "order-1", CustomerID: "cust-1", Status: entities.OrderStatusShipped},
		},
		cancelErr: entities.ErrOrderNotCancellable,
	}
	actor := auth.Actor{ID: "cust-1", Role: entities.RoleCustomer}
	router := newOrderRouter(svc, &actor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/orders/order-1/cancel", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeResponse(t, rec)
	assert.Equal(t, "Order cannot be cancelled at this stage", res.Message)
}

func TestOrderHandler_ListOrders_ScopedByRole(t *testing.T) {
	svc := &fakeOrderService{}
	actor := auth.Actor{ID: "cust-1", Role: entities.RoleCustomer}
	router := newOrderRouter(svc, &actor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?page=1&limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cust-1", svc.lastFilter.CustomerID)
}

func TestOrderHandler_Stats_CustomerScoped(t *testing.T) {
	svc := &fakeOrderService{}
	actor := auth.Actor{ID: "cust-1", Role: entities.RoleCustomer}
	router := newOrderRouter(svc, &actor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cust-1", svc.lastFilter.CustomerID)
	assert.Empty(t, svc.lastFilter.SellerID)
}
