package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
	"github.com/mvshop/marketplace-service/internal/service"
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]entities.Product
	views    map[string]int
	gets     int
}

func newFakeProductRepo(products ...entities.Product) *fakeProductRepo {
	r := &fakeProductRepo{
		products: make(map[string]entities.Product),
		views:    make(map[string]int),
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) CreateProduct(ctx context.Context, p entities.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetProductByID(ctx context.Context, productID string) (entities.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	p, ok := r.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) UpdateProduct(ctx context.Context, p entities.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return entities.ErrProductNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) DeleteProduct(ctx context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[productID]; !ok {
		return entities.ErrProductNotFound
	}
	delete(r.products, productID)
	return nil
}

func (r *fakeProductRepo) ListProducts(ctx context.Context, filter repo.ProductFilter, limit, offset int) ([]entities.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var products []entities.Product
	for _, p := range r.products {
		products = append(products, p)
	}
	return products, len(products), nil
}

func (r *fakeProductRepo) Categories(ctx context.Context) ([]string, error) {
	return []string{"Electronics"}, nil
}

func (r *fakeProductRepo) IncrementViews(ctx context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[productID]++
	return nil
}

// recordingCache хранит значения, чтобы проверить кеширование товара
type recordingCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	deleted []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{values: make(map[string][]byte)}
}

func (c *recordingCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *recordingCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

func (c *recordingCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	c.deleted = append(c.deleted, key)
}

func TestProductService_CreateProduct_Defaults(t *testing.T) {
	repo := newFakeProductRepo()
	svc := service.NewProductService(testLogger(), repo, newRecordingCache())

	product, err := svc.CreateProduct(context.Background(), entities.Product{
		Name:     "Наушники",
		Category: "Electronics",
		SellerID: "seller-1",
		Price:    49.99,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, product.ID)
	assert.Regexp(t, `^SKU-\d+-[a-z0-9]{9}$`, product.SKU)
	assert.Equal(t, entities.ProductStatusDraft, product.Status)
	assert.False(t, product.CreatedAt.IsZero())
}

func TestProductService_CreateProduct_UnknownCategory(t *testing.T) {
	svc := service.NewProductService(testLogger(), newFakeProductRepo(), newRecordingCache())

	_, err := svc.CreateProduct(context.Background(), entities.Product{
		Name:     "Наушники",
		Category: "nonsense",
		SellerID: "seller-1",
	})
	assert.Error(t, err)
}

func TestProductService_GetProduct_Cached(t *testing.T) {
	repo := newFakeProductRepo(entities.Product{ID: "p1", Name: "Наушники", Status: entities.ProductStatusActive})
	svc := service.NewProductService(testLogger(), repo, newRecordingCache())

	first, err := svc.GetProduct(context.Background(), "p1", false)
	require.NoError(t, err)

	second, err := svc.GetProduct(context.Background(), "p1", false)
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	// второй вызов обслуживается из кеша
	assert.Equal(t, 1, repo.gets)
}

func TestProductService_GetProduct_CountsViews(t *testing.T) {
	repo := newFakeProductRepo(entities.Product{ID: "p1", Status: entities.ProductStatusActive})
	svc := service.NewProductService(testLogger(), repo, newRecordingCache())

	_, err := svc.GetProduct(context.Background(), "p1", true)
	require.NoError(t, err)
	_, err = svc.GetProduct(context.Background(), "p1", false)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.views["p1"])
}

func TestProductService_UpdateProduct_Invalidates(t *testing.T) {
	repo := newFakeProductRepo(entities.Product{ID: "p1", Name: "Наушники", Status: entities.ProductStatusActive})
	cache := newRecordingCache()
	svc := service.NewProductService(testLogger(), repo, cache)

	_, err := svc.GetProduct(context.Background(), "p1", false)
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(context.Background(), entities.Product{
		ID: "p1", Name: "Колонка", Category: "Electronics", Status: entities.ProductStatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Колонка", updated.Name)
	assert.Contains(t, cache.deleted, "p1")

	fresh, err := svc.GetProduct(context.Background(), "p1", false)
	require.NoError(t, err)
	assert.Equal(t, "Колонка", fresh.Name)
}

func TestProductService_DeleteProduct(t *testing.T) {
	repo := newFakeProductRepo(entities.Product{ID: "p1"})
	cache := newRecordingCache()
	svc := service.NewProductService(testLogger(), repo, cache)

	require.NoError(t, svc.DeleteProduct(context.Background(), "p1"))
	assert.Contains(t, cache.deleted, "p1")

	err := svc.DeleteProduct(context.Background(), "p1")
	assert.ErrorIs(t, err, entities.ErrProductNotFound)
}
