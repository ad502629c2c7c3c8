package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mvshop/marketplace-service/internal/authz"
	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/pkg/utils"
)

type ReviewService interface {
	CreateReview(ctx context.Context, rev entities.Review) (entities.Review, error)
	GetReview(ctx context.Context, reviewID string) (entities.Review, error)
	ListReviews(ctx context.Context, filter repo.ReviewFilter, limit, offset int) ([]entities.Review, int, error)
	UpdateReview(ctx context.Context, rev entities.Review) (entities.Review, error)
	DeleteReview(ctx context.Context, rev entities.Review) error
	Moderate(ctx context.Context, reviewID, moderatorID string, approve bool, reason string) (entities.Review, error)
	MarkHelpful(ctx context.Context, reviewID, userID string, isHelpful bool) (entities.Review, error)
	ReportReview(ctx context.Context, reviewID, userID, reason string) error
	RespondToReview(ctx context.Context, reviewID, sellerID, comment string) (entities.Review, error)
}

type ReviewHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      ReviewService
}

func NewReviewHandler(logger *slog.Logger, svc ReviewService) *ReviewHandler {
	return &ReviewHandler{
		logger:   logger.With(slog.String("handler", "reviews")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *ReviewHandler) InitPublic(r chi.Router) {
	r.Get("/reviews", h.ListReviews)
}

func (h *ReviewHandler) Init(r chi.Router) {
	r.Post("/reviews", h.CreateReview)
	r.Get("/reviews/pending", h.ListPending)
	r.Put("/reviews/{review_id}", h.UpdateReview)
	r.Delete("/reviews/{review_id}", h.DeleteReview)
	r.Put("/reviews/{review_id}/moderate", h.Moderate)
	r.Post("/reviews/{review_id}/helpful", h.MarkHelpful)
	r.Post("/reviews/{review_id}/report", h.Report)
	r.Post("/reviews/{review_id}/respond", h.Respond)
}

// ReviewsPage - страница списка отзывов
type ReviewsPage struct {
	Reviews    []Review         `json:"reviews"`
	Pagination utils.Pagination `json:"pagination"`
}

// ListReviews возвращает одобренные отзывы.
// @Summary      Список отзывов
// @Tags         reviews
// @Param        product  query  string  false  "Фильтр по товару"
// @Param        page     query  int     false  "Номер страницы"
// @Param        limit    query  int     false  "Размер страницы"
// @Param        rating   query  int     false  "Фильтр по оценке"
// @Param        sort     query  string  false  "newest, oldest, rating_desc, rating_asc, helpful"
// @Success      200  {object}  ReviewsPage
// @Router       /reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, offset := parsePagination(r)

	rating, _ := strconv.Atoi(r.URL.Query().Get("rating"))
	filter := repo.ReviewFilter{
		ProductID:    r.URL.Query().Get("product"),
		Rating:       rating,
		ApprovedOnly: true,
		Sort:         r.URL.Query().Get("sort"),
	}

	reviews, total, err := h.svc.ListReviews(ctx, filter, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]Review, 0, len(reviews))
	for _, rev := range reviews {
		items = append(items, ReviewEntityToJSON(rev))
	}

	utils.WriteSuccess(w, ReviewsPage{
		Reviews:    items,
		Pagination: utils.NewPagination(page, limit, total),
	}, "", http.StatusOK)
}

type CreateReviewRequest struct {
	ProductID string        `json:"productId" validate:"required,uuid"`
	OrderID   string        `json:"orderId,omitempty" validate:"omitempty,uuid"`
	Rating    int           `json:"rating" validate:"required,min=1,max=5"`
	Title     string        `json:"title" validate:"required,max=100"`
	Comment   string        `json:"comment" validate:"required,max=2000"`
	Images    []ReviewImage `json:"images,omitempty" validate:"dive"`
}

// CreateReview создает отзыв, он попадает на модерацию.
// @Summary      Оставить отзыв
// @Tags         reviews
// @Accept       json
// @Param        request  body  CreateReviewRequest  true  "Отзыв"
// @Success      201  {object}  Review
// @Failure      400  {object}  utils.Response "Повторный отзыв на товар"
// @Failure      404  {object}  utils.Response "Товар не найден"
// @Router       /reviews [post]
// @Security     BearerAuth
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	images := make([]entities.ReviewImage, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, entities.ReviewImage(img))
	}

	review, err := h.svc.CreateReview(ctx, entities.Review{
		ProductID:  req.ProductID,
		CustomerID: actor.ID,
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
		Images:     images,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, ReviewEntityToJSON(review), "Review created successfully", http.StatusCreated)
}

// ListPending возвращает отзывы, ожидающие модерации.
// @Summary      Очередь модерации
// @Tags         reviews
// @Success      200  {object}  ReviewsPage
// @Failure      403  {object}  utils.Response
// @Router       /reviews/pending [get]
// @Security     BearerAuth
func (h *ReviewHandler) ListPending(w http.ResponseWriter, r *http.Request) {
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

	filter := repo.ReviewFilter{
		ModerationStatus: string(entities.ModerationStatusPending),
		Sort:             "oldest",
	}
	reviews, total, err := h.svc.ListReviews(ctx, filter, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]Review, 0, len(reviews))
	for _, rev := range reviews {
		items = append(items, ReviewEntityToJSON(rev))
	}

	utils.WriteSuccess(w, ReviewsPage{
		Reviews:    items,
		Pagination: utils.NewPagination(page, limit, total),
	}, "", http.StatusOK)
}

type UpdateReviewRequest struct {
	Rating  int           `json:"rating" validate:"required,min=1,max=5"`
	Title   string        `json:"title" validate:"required,max=100"`
	Comment string        `json:"comment" validate:"required,max=2000"`
	Images  []ReviewImage `json:"images,omitempty" validate:"dive"`
}

// UpdateReview редактирует отзыв и возвращает его на модерацию.
// @Summary      Изменить отзыв
// @Tags         reviews
// @Accept       json
// @Param        review_id  path  string               true  "Идентификатор отзыва"
// @Param        request    body  UpdateReviewRequest  true  "Отзыв"
// @Success      200  {object}  Review
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Отзыв не найден"
// @Router       /reviews/{review_id} [put]
// @Security     BearerAuth
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "review_id")

	var req UpdateReviewRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	review, err := h.svc.GetReview(ctx, reviewID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !authz.Allow(actor, authz.ActionUpdate, &review) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	review.Rating = req.Rating
	review.Title = req.Title
	review.Comment = req.Comment
	review.Images = review.Images[:0]
	for _, img := range req.Images {
		review.Images = append(review.Images, entities.ReviewImage(img))
	}

	updated, err := h.svc.UpdateReview(ctx, review)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, ReviewEntityToJSON(updated), "Review updated successfully", http.StatusOK)
}

// DeleteReview удаляет отзыв.
// @Summary      Удалить отзыв
// @Tags         reviews
// @Param        review_id  path  string  true  "Идентификатор отзыва"
// @Success      200  {object}  utils.Response
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Отзыв не найден"
// @Router       /reviews/{review_id} [delete]
// @Security     BearerAuth
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "review_id")

	review, err := h.svc.GetReview(ctx, reviewID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !authz.Allow(actor, authz.ActionDelete, &review) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	if err := h.svc.DeleteReview(ctx, review); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, nil, "Review deleted successfully", http.StatusOK)
}

type ModerateRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason,omitempty"`
}

// Moderate одобряет или отклоняет отзыв.
// @Summary      Модерация отзыва
// @Tags         reviews
// @Accept       json
// @Param        review_id  path  string           true  "Идентификатор отзыва"
// @Param        request    body  ModerateRequest  true  "Решение"
// @Success      200  {object}  Review
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Отзыв не найден"
// @Router       /reviews/{review_id}/moderate [put]
// @Security     BearerAuth
func (h *ReviewHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != entities.RoleAdmin {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}
	reviewID := chi.URLParam(r, "review_id")

	var req ModerateRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	approve := req.Action == "approve"
	review, err := h.svc.Moderate(ctx, reviewID, actor.ID, approve, req.Reason)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	outcome := "rejected"
	if approve {
		outcome = "approved"
	}
	reviewsModerated.WithLabelValues(outcome).Inc()

	utils.WriteSuccess(w, ReviewEntityToJSON(review), "Review "+req.Action+"d successfully", http.StatusOK)
}

type HelpfulRequest struct {
	IsHelpful bool `json:"isHelpful"`
}

// MarkHelpful - голос за полезность отзыва.
// @Summary      Отметить отзыв полезным
// @Tags         reviews
// @Accept       json
// @Param        review_id  path  string          true  "Идентификатор отзыва"
// @Param        request    body  HelpfulRequest  true  "Голос"
// @Success      200  {object}  Review
// @Failure      404  {object}  utils.Response "Отзыв не найден"
// @Router       /reviews/{review_id}/helpful [post]
// @Security     BearerAuth
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "review_id")

	req := HelpfulRequest{IsHelpful: true}
	if r.ContentLength > 0 {
		if err := utils.DecodeBody(r, &req); err != nil {
			utils.WriteError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	review, err := h.svc.MarkHelpful(ctx, reviewID, actor.ID, req.IsHelpful)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, ReviewEntityToJSON(review), "Review marked as helpful", http.StatusOK)
}

type ReportRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=200"`
}

// Report - жалоба на отзыв.
// @Summary      Пожаловаться на отзыв
// @Tags         reviews
// @Accept       json
// @Param        review_id  path  string         true  "Идентификатор отзыва"
// @Param        request    body  ReportRequest  true  "Причина жалобы"
// @Success      200  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Отзыв не найден"
// @Router       /reviews/{review_id}/report [post]
// @Security     BearerAuth
func (h *ReviewHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "review_id")

	var req ReportRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	if err := h.svc.ReportReview(ctx, reviewID, actor.ID, req.Reason); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, nil, "Review reported successfully", http.StatusOK)
}

type RespondRequest struct {
	Comment string `json:"comment" validate:"required,max=1000"`
}

// Respond - ответ продавца на отзыв о его товаре.
// @Summary      Ответ продавца
// @Tags         reviews
// @Accept       json
// @Param        review_id  path  string          true  "Идентификатор отзыва"
// @Param        request    body  RespondRequest  true  "Ответ"
// @Success      200  {object}  Review
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Отзыв не найден"
// @Router       /reviews/{review_id}/respond [post]
// @Security     BearerAuth
func (h *ReviewHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != entities.RoleSeller && actor.Role != entities.RoleAdmin {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}
	reviewID := chi.URLParam(r, "review_id")

	var req RespondRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	review, err := h.svc.RespondToReview(ctx, reviewID, actor.ID, req.Comment)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, ReviewEntityToJSON(review), "Response added", http.StatusOK)
}
