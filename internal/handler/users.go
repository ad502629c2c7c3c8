package handler

import (
	"context"
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

type UserService interface {
	GetUser(ctx context.Context, userID string) (entities.User, error)
	ListUsers(ctx context.Context, filter repo.UserFilter, limit, offset int) ([]entities.User, int, error)
	UpdateUser(ctx context.Context, u entities.User) (entities.User, error)
	SetActive(ctx context.Context, userID string, active bool) (entities.User, error)
	DeleteUser(ctx context.Context, userID, actorID string) error
	ApproveSeller(ctx context.Context, userID string, approved bool) (entities.User, error)
	Stats(ctx context.Context) (service.UserStats, error)
}

type UserHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      UserService
}

func NewUserHandler(logger *slog.Logger, svc UserService) *UserHandler {
	return &UserHandler{
		logger:   logger.With(slog.String("handler", "users")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *UserHandler) Init(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Get("/users/stats", h.Stats)
	r.Get("/users/me", h.Me)
	r.Get("/users/{user_id}", h.GetUser)
	r.Put("/users/{user_id}", h.UpdateUser)
	r.Delete("/users/{user_id}", h.DeleteUser)
	r.Post("/users/{user_id}/activate", h.Activate)
	r.Post("/users/{user_id}/deactivate", h.Deactivate)
	r.Put("/users/{user_id}/approve-seller", h.ApproveSeller)
}

// UsersPage - страница списка пользователей
type UsersPage struct {
	Users      []User           `json:"users"`
	Pagination utils.Pagination `json:"pagination"`
}

// ListUsers возвращает пользователей, только для администратора.
// @Summary      Список пользователей
// @Tags         users
// @Param        page    query  int     false  "Номер страницы"
// @Param        limit   query  int     false  "Размер страницы"
// @Param        role    query  string  false  "Фильтр по роли"
// @Param        search  query  string  false  "Поиск по имени и почте"
// @Success      200  {object}  UsersPage
// @Failure      403  {object}  utils.Response
// @Router       /users [get]
// @Security     BearerAuth
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != entities.RoleAdmin {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	page, limit, offset := parsePagination(r)
	filter := repo.UserFilter{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
	}

	users, total, err := h.svc.ListUsers(ctx, filter, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]User, 0, len(users))
	for _, u := range users {
		items = append(items, UserEntityToJSON(u))
	}

	utils.WriteSuccess(w, UsersPage{
		Users:      items,
		Pagination: utils.NewPagination(page, limit, total),
	}, "", http.StatusOK)
}

// Me возвращает профиль текущего пользователя.
// @Summary      Текущий пользователь
// @Tags         users
// @Success      200  {object}  User
// @Failure      401  {object}  utils.Response
// @Router       /users/me [get]
// @Security     BearerAuth
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	user, err := h.svc.GetUser(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, UserEntityToJSON(user), "", http.StatusOK)
}

// GetUser возвращает пользователя по ID.
// @Summary      Получить пользователя
// @Tags         users
// @Param        user_id  path  string  true  "Идентификатор пользователя"
// @Success      200  {object}  User
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Пользователь не найден"
// @Router       /users/{user_id} [get]
// @Security     BearerAuth
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "user_id")

	user, err := h.svc.GetUser(ctx, userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !authz.Allow(actor, authz.ActionView, &user) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	utils.WriteSuccess(w, UserEntityToJSON(user), "", http.StatusOK)
}

type UpdateUserRequest struct {
	Name          string         `json:"name" validate:"required,max=100"`
	Phone         string         `json:"phone,omitempty"`
	Avatar        string         `json:"avatar,omitempty" validate:"omitempty,url"`
	Address       *Address       `json:"address,omitempty"`
	SellerProfile *SellerProfile `json:"sellerProfile,omitempty"`
}

// UpdateUser обновляет профиль.
// Пользователь меняет только свой профиль, админ - любой.
// @Summary      Обновить профиль
// @Tags         users
// @Accept       json
// @Param        user_id  path  string             true  "Идентификатор пользователя"
// @Param        request  body  UpdateUserRequest  true  "Профиль"
// @Success      200  {object}  User
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Пользователь не найден"
// @Router       /users/{user_id} [put]
// @Security     BearerAuth
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "user_id")

	var req UpdateUserRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	user, err := h.svc.GetUser(ctx, userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !authz.Allow(actor, authz.ActionUpdate, &user) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	user.Name = req.Name
	user.Phone = req.Phone
	user.Avatar = req.Avatar
	if req.Address != nil {
		addr := addressJSONToEntity(*req.Address)
		user.Address = &addr
	}
	if req.SellerProfile != nil && user.Role == entities.RoleSeller {
		if user.SellerProfile == nil {
			user.SellerProfile = &entities.SellerProfile{}
		}
		// одобрение и рейтинг через профиль не меняются
		user.SellerProfile.BusinessName = req.SellerProfile.BusinessName
		user.SellerProfile.BusinessPhone = req.SellerProfile.BusinessPhone
	}

	updated, err := h.svc.UpdateUser(ctx, user)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, UserEntityToJSON(updated), "Profile updated successfully", http.StatusOK)
}

// DeleteUser удаляет пользователя, только для администратора.
// Удалить собственную учетку нельзя.
// @Summary      Удалить пользователя
// @Tags         users
// @Param        user_id  path  string  true  "Идентификатор пользователя"
// @Success      200  {object}  utils.Response
// @Failure      400  {object}  utils.Response "Попытка удалить себя"
// @Failure      403  {object}  utils.Response
// @Router       /users/{user_id} [delete]
// @Security     BearerAuth
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != entities.RoleAdmin {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	if err := h.svc.DeleteUser(ctx, chi.URLParam(r, "user_id"), actor.ID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, nil, "User deleted successfully", http.StatusOK)
}

// Activate включает учетную запись.
// @Summary      Активировать пользователя
// @Tags         users
// @Param        user_id  path  string  true  "Идентификатор пользователя"
// @Success      200  {object}  User
// @Failure      403  {object}  utils.Response
// @Router       /users/{user_id}/activate [post]
// @Security     BearerAuth
func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "User activated")
}

// Deactivate отключает учетную запись.
// @Summary      Деактивировать пользователя
// @Tags         users
// @Param        user_id  path  string  true  "Идентификатор пользователя"
// @Success      200  {object}  User
// @Failure      403  {object}  utils.Response
// @Router       /users/{user_id}/deactivate [post]
// @Security     BearerAuth
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "User deactivated")
}

func (h *UserHandler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != entities.RoleAdmin {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	user, err := h.svc.SetActive(ctx, chi.URLParam(r, "user_id"), active)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, UserEntityToJSON(user), message, http.StatusOK)
}

type ApproveSellerRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// ApproveSeller одобряет или отклоняет заявку продавца.
// @Summary      Одобрить продавца
// @Tags         users
// @Accept       json
// @Param        user_id  path  string                true  "Идентификатор пользователя"
// @Param        request  body  ApproveSellerRequest  true  "Решение"
// @Success      200  {object}  User
// @Failure      400  {object}  utils.Response "Пользователь не продавец"
// @Failure      403  {object}  utils.Response
// @Router       /users/{user_id}/approve-seller [put]
// @Security     BearerAuth
func (h *UserHandler) ApproveSeller(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != entities.RoleAdmin {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	var req ApproveSellerRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	user, err := h.svc.ApproveSeller(ctx, chi.URLParam(r, "user_id"), *req.Approved)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	message := "Seller rejected successfully"
	if *req.Approved {
		message = "Seller approved successfully"
	}
	utils.WriteSuccess(w, UserEntityToJSON(user), message, http.StatusOK)
}

// Stats возвращает сводку по пользователям, только для администратора.
// @Summary      Статистика пользователей
// @Tags         users
// @Success      200  {object}  service.UserStats
// @Failure      403  {object}  utils.Response
// @Router       /users/stats [get]
// @Security     BearerAuth
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != entities.RoleAdmin {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, stats, "", http.StatusOK)
}
