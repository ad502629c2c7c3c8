// Package authz - единая точка принятия решений о доступе.
// Все хендлеры спрашивают Allow вместо дублирования проверок по роутам.
package authz

import (
	"github.com/mvshop/marketplace-service/internal/auth"
	"github.com/mvshop/marketplace-service/internal/entities"
)

type Action string

const (
	ActionView     Action = "view"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionCancel   Action = "cancel"
	ActionModerate Action = "moderate"
)

// Allow решает, может ли актор выполнить действие над ресурсом.
// Политика: admin может все; customer - только свои ресурсы; seller -
// заказы с хотя бы одной своей позицией и свои товары.
func Allow(actor auth.Actor, action Action, resource any) bool {
	if actor.Role == entities.RoleAdmin {
		return true
	}

	switch res := resource.(type) {
	case *entities.Order:
		return allowOrder(actor, action, res)
	case *entities.Product:
		return actor.Role == entities.RoleSeller && res.SellerID == actor.ID
	case *entities.Review:
		if action == ActionModerate {
			return false
		}
		return res.CustomerID == actor.ID
	case *entities.User:
		if action == ActionDelete {
			return false
		}
		return res.ID == actor.ID
	}
	return false
}

func allowOrder(actor auth.Actor, action Action, order *entities.Order) bool {
	switch actor.Role {
	case entities.RoleCustomer:
		// покупатель не меняет статус заказа, только смотрит и отменяет
		if action == ActionUpdate {
			return false
		}
		return order.CustomerID == actor.ID
	case entities.RoleSeller:
		return order.HasSeller(actor.ID)
	}
	return false
}
