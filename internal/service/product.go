package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
)

type ProductRepo interface {
	CreateProduct(ctx context.Context, p entities.Product) error
	GetProductByID(ctx context.Context, productID string) (entities.Product, error)
	UpdateProduct(ctx context.Context, p entities.Product) error
	DeleteProduct(ctx context.Context, productID string) error
	ListProducts(ctx context.Context, filter repo.ProductFilter, limit, offset int) ([]entities.Product, int, error)
	Categories(ctx context.Context) ([]string, error)
	IncrementViews(ctx context.Context, productID string) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type productService struct {
	logger   *slog.Logger
	products ProductRepo
	cache    Cache
}

func NewProductService(logger *slog.Logger, products ProductRepo, cache Cache) *productService {
	return &productService{
		logger:   logger.With(slog.String("service", "product")),
		products: products,
		cache:    cache,
	}
}

func (s *productService) CreateProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	if !entities.ValidCategory(p.Category) {
		return entities.Product{}, fmt.Errorf("unknown category %q", p.Category)
	}

	p.ID = uuid.NewString()
	if p.SKU == "" {
		p.SKU = entities.GenerateSKU()
	}
	if p.Status == "" {
		p.Status = entities.ProductStatusDraft
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.products.CreateProduct(ctx, p); err != nil {
		return entities.Product{}, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created", slog.String("product_id", p.ID), slog.String("sku", p.SKU))
	return p, nil
}

// GetProduct читает через кеш, просмотр считается best-effort
func (s *productService) GetProduct(ctx context.Context, productID string, countView bool) (entities.Product, error) {
	if countView {
		if err := s.products.IncrementViews(ctx, productID); err != nil {
			s.logger.Warn("failed to increment views", slog.Any("error", err))
		}
	}

	if data, ok := s.cache.Get(productID); ok {
		var product entities.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return product, nil
		}
		s.cache.Delete(productID)
	}

	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return entities.Product{}, err
	}

	if data, err := json.Marshal(product); err == nil {
		s.cache.Set(productID, data)
	}
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	if p.Category != "" && !entities.ValidCategory(p.Category) {
		return entities.Product{}, fmt.Errorf("unknown category %q", p.Category)
	}

	p.UpdatedAt = time.Now()
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return entities.Product{}, err
	}
	s.cache.Delete(p.ID)

	return p, nil
}

func (s *productService) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.products.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	s.cache.Delete(productID)

	s.logger.Info("product deleted", slog.String("product_id", productID))
	return nil
}

func (s *productService) ListProducts(ctx context.Context, filter repo.ProductFilter, limit, offset int) ([]entities.Product, int, error) {
	return s.products.ListProducts(ctx, filter, limit, offset)
}

func (s *productService) Categories(ctx context.Context) ([]string, error) {
	return s.products.Categories(ctx)
}
