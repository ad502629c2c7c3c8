package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvshop/marketplace-service/internal/auth"
	"github.com/mvshop/marketplace-service/internal/authz"
	"github.com/mvshop/marketplace-service/internal/entities"
)

func TestAllow(t *testing.T) {
	admin := auth.Actor{ID: "admin-1", Role: entities.RoleAdmin}
	customer := auth.Actor{ID: "cust-1", Role: entities.RoleCustomer}
	seller := auth.Actor{ID: "seller-1", Role: entities.RoleSeller}

	order := &entities.Order{
		CustomerID: "cust-1",
		Items:      []entities.OrderItem{{SellerID: "seller-1"}},
	}
	product := &entities.Product{SellerID: "seller-1"}
	review := &entities.Review{CustomerID: "cust-1"}
	user := &entities.User{ID: "cust-1"}

	testCases := []struct {
		name     string
		actor    auth.Actor
		action   authz.Action
		resource any
		want     bool
	}{
		{"admin can view any order", admin, authz.ActionView, order, true},
		{"admin can delete users", admin, authz.ActionDelete, user, true},
		{"admin can moderate reviews", admin, authz.ActionModerate, review, true},

		{"customer views own order", customer, authz.ActionView, order, true},
		{"customer cancels own order", customer, authz.ActionCancel, order, true},
		{"customer cannot update order status", customer, authz.ActionUpdate, order, false},
		{"stranger cannot view order", auth.Actor{ID: "cust-2", Role: entities.RoleCustomer}, authz.ActionView, order, false},

		{"seller views order with own item", seller, authz.ActionView, order, true},
		{"seller updates order with own item", seller, authz.ActionUpdate, order, true},
		{"other seller cannot view order", auth.Actor{ID: "seller-2", Role: entities.RoleSeller}, authz.ActionView, order, false},

		{"seller updates own product", seller, authz.ActionUpdate, product, true},
		{"other seller cannot update product", auth.Actor{ID: "seller-2", Role: entities.RoleSeller}, authz.ActionUpdate, product, false},
		{"customer cannot update product", customer, authz.ActionUpdate, product, false},

		{"customer updates own review", customer, authz.ActionUpdate, review, true},
		{"customer cannot moderate", customer, authz.ActionModerate, review, false},
		{"stranger cannot delete review", auth.Actor{ID: "cust-2", Role: entities.RoleCustomer}, authz.ActionDelete, review, false},

		{"user views own profile", customer, authz.ActionView, user, true},
		{"user updates own profile", customer, authz.ActionUpdate, user, true},
		{"user cannot delete even self", customer, authz.ActionDelete, user, false},
		{"stranger cannot view profile", auth.Actor{ID: "cust-2", Role: entities.RoleCustomer}, authz.ActionView, user, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, authz.Allow(tc.actor, tc.action, tc.resource))
		})
	}
}
