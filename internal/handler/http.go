package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mvshop/marketplace-service/internal/auth"
	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/pkg/utils"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePagination читает ?page и ?limit, лимит зажат сверху
func parsePagination(r *http.Request) (page, limit, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit, (page - 1) * limit
}

// requireActor достает актора из контекста, без него пишет 401
func requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		utils.WriteError(w, "authentication required", http.StatusUnauthorized)
		return auth.Actor{}, false
	}
	return actor, true
}

// writeServiceError переводит доменные ошибки в HTTP-статусы
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrProductNotFound):
		utils.WriteError(w, "Product not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrReviewNotFound):
		utils.WriteError(w, "Review not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrUserNotFound):
		utils.WriteError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrOrderNotCancellable):
		utils.WriteError(w, "Order cannot be cancelled at this stage", http.StatusBadRequest)
	case errors.Is(err, entities.ErrInsufficientStock):
		utils.WriteError(w, "Insufficient stock", http.StatusBadRequest)
	case errors.Is(err, entities.ErrProductUnavailable):
		utils.WriteError(w, "Product is not available", http.StatusBadRequest)
	case errors.Is(err, entities.ErrDuplicateReview):
		utils.WriteError(w, "You have already reviewed this product", http.StatusBadRequest)
	case errors.Is(err, entities.ErrAlreadyInWishlist):
		utils.WriteError(w, "Product is already in wishlist", http.StatusBadRequest)
	case errors.Is(err, entities.ErrNotInWishlist):
		utils.WriteError(w, "Product is not in wishlist", http.StatusBadRequest)
	case errors.Is(err, entities.ErrNotSeller):
		utils.WriteError(w, "User is not a seller", http.StatusBadRequest)
	case errors.Is(err, entities.ErrSelfDelete):
		utils.WriteError(w, "Cannot delete your own account", http.StatusBadRequest)
	case errors.Is(err, entities.ErrForbidden):
		utils.WriteError(w, "access denied", http.StatusForbidden)
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
