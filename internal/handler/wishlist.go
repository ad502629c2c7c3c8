package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mvshop/marketplace-service/internal/auth"
	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/pkg/utils"
)

type WishlistService interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
	Contains(ctx context.Context, userID, productID string) (bool, error)
	Count(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string, limit, offset int) ([]entities.WishlistEntry, int, error)
}

type WishlistHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      WishlistService
}

func NewWishlistHandler(logger *slog.Logger, svc WishlistService) *WishlistHandler {
	return &WishlistHandler{
		logger:   logger.With(slog.String("handler", "wishlist")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *WishlistHandler) Init(r chi.Router) {
	r.Get("/wishlist", h.List)
	r.Post("/wishlist", h.Add)
	r.Delete("/wishlist", h.Clear)
	r.Get("/wishlist/count", h.Count)
	r.Get("/wishlist/check/{product_id}", h.Contains)
	r.Delete("/wishlist/{product_id}", h.Remove)
}

// requireCustomer - вишлист есть только у покупателей
func requireCustomer(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return auth.Actor{}, false
	}
	if actor.Role != entities.RoleCustomer {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return auth.Actor{}, false
	}
	return actor, true
}

// WishlistPage - страница вишлиста
type WishlistPage struct {
	Items      []WishlistItem   `json:"items"`
	Pagination utils.Pagination `json:"pagination"`
}

// List возвращает вишлист пользователя.
// @Summary      Вишлист
// @Tags         wishlist
// @Param        page   query  int  false  "Номер страницы"
// @Param        limit  query  int  false  "Размер страницы"
// @Success      200  {object}  WishlistPage
// @Failure      401  {object}  utils.Response
// @Router       /wishlist [get]
// @Security     BearerAuth
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireCustomer(w, r)
	if !ok {
		return
	}

	page, limit, offset := parsePagination(r)

	entries, total, err := h.svc.List(ctx, actor.ID, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]WishlistItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, WishlistEntryToJSON(e))
	}

	utils.WriteSuccess(w, WishlistPage{
		Items:      items,
		Pagination: utils.NewPagination(page, limit, total),
	}, "", http.StatusOK)
}

type AddToWishlistRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

// Add добавляет товар в вишлист.
// @Summary      Добавить в вишлист
// @Tags         wishlist
// @Accept       json
// @Param        request  body  AddToWishlistRequest  true  "Товар"
// @Success      200  {object}  utils.Response
// @Failure      400  {object}  utils.Response "Товар уже в вишлисте"
// @Failure      404  {object}  utils.Response "Товар не найден"
// @Router       /wishlist [post]
// @Security     BearerAuth
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireCustomer(w, r)
	if !ok {
		return
	}

	var req AddToWishlistRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	if err := h.svc.Add(ctx, actor.ID, req.ProductID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, nil, "Product added to wishlist successfully", http.StatusOK)
}

// Remove убирает товар из вишлиста.
// @Summary      Убрать из вишлиста
// @Tags         wishlist
// @Param        product_id  path  string  true  "Идентификатор товара"
// @Success      200  {object}  utils.Response
// @Failure      400  {object}  utils.Response "Товара нет в вишлисте"
// @Router       /wishlist/{product_id} [delete]
// @Security     BearerAuth
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireCustomer(w, r)
	if !ok {
		return
	}

	if err := h.svc.Remove(ctx, actor.ID, chi.URLParam(r, "product_id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, nil, "Product removed from wishlist successfully", http.StatusOK)
}

// Clear очищает вишлист.
// @Summary      Очистить вишлист
// @Tags         wishlist
// @Success      200  {object}  utils.Response
// @Failure      401  {object}  utils.Response
// @Router       /wishlist [delete]
// @Security     BearerAuth
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireCustomer(w, r)
	if !ok {
		return
	}

	if err := h.svc.Clear(ctx, actor.ID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, nil, "Wishlist cleared successfully", http.StatusOK)
}

// Contains проверяет наличие товара в вишлисте.
// @Summary      Проверить товар в вишлисте
// @Tags         wishlist
// @Param        product_id  path  string  true  "Идентификатор товара"
// @Success      200  {object}  utils.Response
// @Failure      401  {object}  utils.Response
// @Router       /wishlist/check/{product_id} [get]
// @Security     BearerAuth
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireCustomer(w, r)
	if !ok {
		return
	}

	isInWishlist, err := h.svc.Contains(ctx, actor.ID, chi.URLParam(r, "product_id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, map[string]bool{"isInWishlist": isInWishlist}, "", http.StatusOK)
}

// Count возвращает число товаров в вишлисте.
// @Summary      Размер вишлиста
// @Tags         wishlist
// @Success      200  {object}  utils.Response
// @Failure      401  {object}  utils.Response
// @Router       /wishlist/count [get]
// @Security     BearerAuth
func (h *WishlistHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireCustomer(w, r)
	if !ok {
		return
	}

	count, err := h.svc.Count(ctx, actor.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, map[string]int{"count": count}, "", http.StatusOK)
}
