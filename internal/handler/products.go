package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mvshop/marketplace-service/internal/auth"
	"github.com/mvshop/marketplace-service/internal/authz"
	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/pkg/utils"
)

type ProductService interface {
	CreateProduct(ctx context.Context, p entities.Product) (entities.Product, error)
	GetProduct(ctx context.Context, productID string, countView bool) (entities.Product, error)
	UpdateProduct(ctx context.Context, p entities.Product) (entities.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	ListProducts(ctx context.Context, filter repo.ProductFilter, limit, offset int) ([]entities.Product, int, error)
	Categories(ctx context.Context) ([]string, error)
}

type SellerChecker interface {
	GetUser(ctx context.Context, userID string) (entities.User, error)
}

type ProductHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      ProductService
	users    SellerChecker
}

func NewProductHandler(logger *slog.Logger, svc ProductService, users SellerChecker) *ProductHandler {
	return &ProductHandler{
		logger:   logger.With(slog.String("handler", "products")),
		validate: validator.New(),
		svc:      svc,
		users:    users,
	}
}

// InitPublic - роуты, не требующие токена
func (h *ProductHandler) InitPublic(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/categories", h.Categories)
	r.Get("/products/featured", h.Featured)
	r.Get("/products/search", h.Search)
	r.Get("/products/{product_id}", h.GetProduct)
}

func (h *ProductHandler) Init(r chi.Router) {
	r.Post("/products", h.CreateProduct)
	r.Get("/products/seller/my-products", h.MyProducts)
	r.Put("/products/{product_id}", h.UpdateProduct)
	r.Delete("/products/{product_id}", h.DeleteProduct)
}

// ListProducts возвращает каталог с фильтрами и пагинацией.
// Неактивные товары видит только их продавец и админ через фильтр status.
// @Summary      Каталог товаров
// @Tags         products
// @Param        page       query  int     false  "Номер страницы"
// @Param        limit      query  int     false  "Размер страницы"
// @Param        category   query  string  false  "Категория"
// @Param        search     query  string  false  "Поиск по названию, описанию, бренду и тегам"
// @Param        minPrice   query  number  false  "Минимальная цена"
// @Param        maxPrice   query  number  false  "Максимальная цена"
// @Param        minRating  query  number  false  "Минимальный рейтинг"
// @Param        featured   query  bool    false  "Только рекомендуемые"
// @Param        inStock    query  bool    false  "Только в наличии"
// @Param        sort       query  string  false  "price_asc, price_desc, rating_desc, popular, newest"
// @Success      200  {object}  ProductsPage
// @Router       /products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, offset := parsePagination(r)

	q := r.URL.Query()
	filter := repo.ProductFilter{
		Status:   string(entities.ProductStatusActive),
		Category: q.Get("category"),
		SellerID: q.Get("seller"),
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
	}
	filter.MinPrice, _ = strconv.ParseFloat(q.Get("minPrice"), 64)
	filter.MaxPrice, _ = strconv.ParseFloat(q.Get("maxPrice"), 64)
	filter.MinRating, _ = strconv.ParseFloat(q.Get("minRating"), 64)
	if v := q.Get("featured"); v != "" {
		featured, _ := strconv.ParseBool(v)
		filter.Featured = &featured
	}
	if v := q.Get("inStock"); v != "" {
		inStock, _ := strconv.ParseBool(v)
		filter.InStock = &inStock
	}

	products, total, err := h.svc.ListProducts(ctx, filter, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]Product, 0, len(products))
	for _, p := range products {
		items = append(items, ProductEntityToJSON(p))
	}

	utils.WriteSuccess(w, ProductsPage{
		Products:   items,
		Pagination: utils.NewPagination(page, limit, total),
	}, "", http.StatusOK)
}

// ProductsPage - страница каталога
type ProductsPage struct {
	Products   []Product        `json:"products"`
	Pagination utils.Pagination `json:"pagination"`
}

// Categories возвращает категории, в которых есть активные товары.
// @Summary      Список категорий
// @Tags         products
// @Success      200  {object}  utils.Response
// @Router       /products/categories [get]
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteSuccess(w, categories, "", http.StatusOK)
}

// Featured возвращает рекомендуемые товары.
// @Summary      Рекомендуемые товары
// @Tags         products
// @Param        limit  query  int  false  "Максимум товаров (по умолчанию 8)"
// @Success      200  {object}  utils.Response
// @Router       /products/featured [get]
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > maxPageLimit {
		limit = 8
	}

	featured := true
	filter := repo.ProductFilter{
		Status:   string(entities.ProductStatusActive),
		Featured: &featured,
	}

	products, _, err := h.svc.ListProducts(r.Context(), filter, limit, 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]Product, 0, len(products))
	for _, p := range products {
		items = append(items, ProductEntityToJSON(p))
	}
	utils.WriteSuccess(w, items, "", http.StatusOK)
}

// Search ищет товары по подстроке.
// @Summary      Поиск товаров
// @Tags         products
// @Param        q      query  string  true   "Поисковый запрос"
// @Param        page   query  int     false  "Номер страницы"
// @Param        limit  query  int     false  "Размер страницы"
// @Success      200  {object}  ProductsPage
// @Failure      400  {object}  utils.Response "Пустой запрос"
// @Router       /products/search [get]
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		utils.WriteError(w, "Search query is required", http.StatusBadRequest)
		return
	}

	page, limit, offset := parsePagination(r)
	filter := repo.ProductFilter{
		Status: string(entities.ProductStatusActive),
		Search: q,
	}

	products, total, err := h.svc.ListProducts(r.Context(), filter, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]Product, 0, len(products))
	for _, p := range products {
		items = append(items, ProductEntityToJSON(p))
	}
	utils.WriteSuccess(w, ProductsPage{
		Products:   items,
		Pagination: utils.NewPagination(page, limit, total),
	}, "", http.StatusOK)
}

// GetProduct возвращает карточку товара.
// Просмотр засчитывается только авторизованным пользователям.
// @Summary      Получить товар
// @Tags         products
// @Param        product_id  path  string  true  "Идентификатор товара"
// @Success      200  {object}  Product
// @Failure      404  {object}  utils.Response "Товар не найден"
// @Router       /products/{product_id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "product_id")

	_, authenticated := auth.ActorFromContext(ctx)

	product, err := h.svc.GetProduct(ctx, productID, authenticated)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, ProductEntityToJSON(product), "", http.StatusOK)
}

// MyProducts возвращает товары продавца, включая черновики.
// @Summary      Мои товары
// @Tags         products
// @Param        page    query  int     false  "Номер страницы"
// @Param        limit   query  int     false  "Размер страницы"
// @Param        status  query  string  false  "Фильтр по статусу"
// @Success      200  {object}  ProductsPage
// @Failure      403  {object}  utils.Response
// @Router       /products/seller/my-products [get]
// @Security     BearerAuth
func (h *ProductHandler) MyProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != entities.RoleSeller {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	page, limit, offset := parsePagination(r)
	filter := repo.ProductFilter{
		SellerID: actor.ID,
		Status:   r.URL.Query().Get("status"),
	}

	products, total, err := h.svc.ListProducts(ctx, filter, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]Product, 0, len(products))
	for _, p := range products {
		items = append(items, ProductEntityToJSON(p))
	}
	utils.WriteSuccess(w, ProductsPage{
		Products:   items,
		Pagination: utils.NewPagination(page, limit, total),
	}, "", http.StatusOK)
}

type ProductRequest struct {
	Name             string           `json:"name" validate:"required,max=200"`
	Description      string           `json:"description" validate:"required,max=5000"`
	ShortDescription string           `json:"shortDescription,omitempty" validate:"max=500"`
	Price            float64          `json:"price" validate:"required,gt=0"`
	CompareAtPrice   float64          `json:"compareAtPrice,omitempty" validate:"gte=0"`
	CostPrice        float64          `json:"costPrice,omitempty" validate:"gte=0"`
	Category         string           `json:"category" validate:"required"`
	Subcategory      string           `json:"subcategory,omitempty"`
	Brand            string           `json:"brand,omitempty"`
	Model            string           `json:"model,omitempty"`
	SKU              string           `json:"sku,omitempty"`
	Barcode          string           `json:"barcode,omitempty"`
	Images           []ProductImage   `json:"images,omitempty" validate:"dive"`
	Thumbnail        string           `json:"thumbnail,omitempty"`
	Inventory        Inventory        `json:"inventory"`
	Variants         []ProductVariant `json:"variants,omitempty" validate:"dive"`
	Specifications   []Specification  `json:"specifications,omitempty" validate:"dive"`
	Tags             []string         `json:"tags,omitempty"`
	Status           string           `json:"status,omitempty" validate:"omitempty,oneof=draft active inactive archived"`
	Featured         bool             `json:"featured,omitempty"`
}

func (req ProductRequest) toEntity() entities.Product {
	images := make([]entities.ProductImage, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, entities.ProductImage(img))
	}
	variants := make([]entities.ProductVariant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, entities.ProductVariant(v))
	}
	specs := make([]entities.Specification, 0, len(req.Specifications))
	for _, sp := range req.Specifications {
		specs = append(specs, entities.Specification(sp))
	}

	return entities.Product{
		Name:             req.Name,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		CompareAtPrice:   req.CompareAtPrice,
		CostPrice:        req.CostPrice,
		Category:         req.Category,
		Subcategory:      req.Subcategory,
		Brand:            req.Brand,
		Model:            req.Model,
		SKU:              req.SKU,
		Barcode:          req.Barcode,
		Images:           images,
		Thumbnail:        req.Thumbnail,
		Inventory:        entities.Inventory(req.Inventory),
		Variants:         variants,
		Specifications:   specs,
		Tags:             req.Tags,
		Status:           entities.ProductStatus(req.Status),
		Featured:         req.Featured,
	}
}

// CreateProduct создает товар.
// @Summary      Создать товар
// @Description  Доступно одобренным продавцам и администраторам
// @Tags         products
// @Accept       json
// @Param        request  body  ProductRequest  true  "Данные товара"
// @Success      201  {object}  Product
// @Failure      400  {object}  utils.Response "Ошибка валидации"
// @Failure      403  {object}  utils.Response "Продавец не одобрен"
// @Router       /products [post]
// @Security     BearerAuth
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	if actor.Role != entities.RoleAdmin {
		user, err := h.users.GetUser(ctx, actor.ID)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		if !user.IsApprovedSeller() {
			utils.WriteError(w, "seller account is not approved", http.StatusForbidden)
			return
		}
	}

	product := req.toEntity()
	product.SellerID = actor.ID

	created, err := h.svc.CreateProduct(ctx, product)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, ProductEntityToJSON(created), "Product created successfully", http.StatusCreated)
}

// UpdateProduct обновляет товар.
// @Summary      Обновить товар
// @Tags         products
// @Accept       json
// @Param        product_id  path  string          true  "Идентификатор товара"
// @Param        request     body  ProductRequest  true  "Данные товара"
// @Success      200  {object}  Product
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Товар не найден"
// @Router       /products/{product_id} [put]
// @Security     BearerAuth
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "product_id")

	var req ProductRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	current, err := h.svc.GetProduct(ctx, productID, false)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !authz.Allow(actor, authz.ActionUpdate, &current) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	product := req.toEntity()
	product.ID = current.ID
	product.SellerID = current.SellerID
	product.CreatedAt = current.CreatedAt
	if product.SKU == "" {
		product.SKU = current.SKU
	}
	if product.Status == "" {
		product.Status = current.Status
	}
	// агрегаты не принимаются с клиента
	product.Rating = current.Rating
	product.Sales = current.Sales
	product.Views = current.Views

	updated, err := h.svc.UpdateProduct(ctx, product)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, ProductEntityToJSON(updated), "Product updated successfully", http.StatusOK)
}

// DeleteProduct удаляет товар.
// @Summary      Удалить товар
// @Tags         products
// @Param        product_id  path  string  true  "Идентификатор товара"
// @Success      200  {object}  utils.Response
// @Failure      403  {object}  utils.Response
// @Failure      404  {object}  utils.Response "Товар не найден"
// @Router       /products/{product_id} [delete]
// @Security     BearerAuth
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "product_id")

	product, err := h.svc.GetProduct(ctx, productID, false)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if !authz.Allow(actor, authz.ActionDelete, &product) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}

	if err := h.svc.DeleteProduct(ctx, productID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	utils.WriteSuccess(w, nil, "Product deleted successfully", http.StatusOK)
}
