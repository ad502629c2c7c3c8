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

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[string]entities.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[string]entities.Review)}
}

func (r *fakeReviewRepo) CreateReview(ctx context.Context, rev entities.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.ProductID == rev.ProductID && existing.CustomerID == rev.CustomerID {
			return entities.ErrDuplicateReview
		}
	}
	r.reviews[rev.ID] = rev
	return nil
}

func (r *fakeReviewRepo) GetReviewByID(ctx context.Context, reviewID string) (entities.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.reviews[reviewID]
	if !ok {
		return entities.Review{}, entities.ErrReviewNotFound
	}
	return rev, nil
}

func (r *fakeReviewRepo) UpdateReview(ctx context.Context, rev entities.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[rev.ID]; !ok {
		return entities.ErrReviewNotFound
	}
	r.reviews[rev.ID] = rev
	return nil
}

func (r *fakeReviewRepo) DeleteReview(ctx context.Context, reviewID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[reviewID]; !ok {
		return entities.ErrReviewNotFound
	}
	delete(r.reviews, reviewID)
	return nil
}

func (r *fakeReviewRepo) ListReviews(ctx context.Context, filter repo.ReviewFilter, limit, offset int) ([]entities.Review, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var reviews []entities.Review
	for _, rev := range r.reviews {
		reviews = append(reviews, rev)
	}
	return reviews, len(reviews), nil
}

type fakePurchases struct {
	delivered map[string]bool // customerID+productID
}

func (f *fakePurchases) HasDeliveredOrder(ctx context.Context, customerID, productID string) (bool, error) {
	return f.delivered[customerID+"/"+productID], nil
}

type fakeRecomputer struct {
	mu         sync.Mutex
	products   map[string]entities.Product
	recomputed []string
}

func (f *fakeRecomputer) GetProductByID(ctx context.Context, productID string) (entities.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeRecomputer) RecomputeRating(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputed = append(f.recomputed, productID)
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeCache) Get(key string) ([]byte, bool) { return nil, false }
func (f *fakeCache) Set(key string, value []byte)  {}
func (f *fakeCache) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
}

type reviewSvc interface {
	CreateReview(ctx context.Context, rev entities.Review) (entities.Review, error)
	UpdateReview(ctx context.Context, rev entities.Review) (entities.Review, error)
	Moderate(ctx context.Context, reviewID, moderatorID string, approve bool, reason string) (entities.Review, error)
	MarkHelpful(ctx context.Context, reviewID, userID string, isHelpful bool) (entities.Review, error)
}

func newReviewService(t *testing.T, purchases *fakePurchases) (*fakeReviewRepo, *fakeRecomputer, reviewSvc) {
	t.Helper()
	reviews := newFakeReviewRepo()
	products := &fakeRecomputer{products: map[string]entities.Product{
		"p1": {ID: "p1", Status: entities.ProductStatusActive},
	}}
	svc := service.NewReviewService(testLogger(), noopTxManager{}, reviews, purchases, products, &fakeCache{})
	return reviews, products, svc
}

func TestReviewService_CreateReview_Verified(t *testing.T) {
	purchases := &fakePurchases{delivered: map[string]bool{"cust-1/p1": true}}
	_, _, svc := newReviewService(t, purchases)

	rev, err := svc.CreateReview(context.Background(), entities.Review{
		ProductID:  "p1",
		CustomerID: "cust-1",
		Rating:     5,
		Title:      "great",
		Comment:    "works as expected",
	})
	require.NoError(t, err)

	assert.True(t, rev.Verified)
	assert.Equal(t, entities.ModerationStatusPending, rev.Moderation.Status)
	assert.NotEmpty(t, rev.ID)
}

func TestReviewService_CreateReview_NotVerified(t *testing.T) {
	purchases := &fakePurchases{delivered: map[string]bool{}}
	_, _, svc := newReviewService(t, purchases)

	rev, err := svc.CreateReview(context.Background(), entities.Review{
		ProductID:  "p1",
		CustomerID: "cust-1",
		Rating:     4,
		Title:      "fine",
		Comment:    "ok",
	})
	require.NoError(t, err)
	assert.False(t, rev.Verified)
}

func TestReviewService_CreateReview_Duplicate(t *testing.T) {
	purchases := &fakePurchases{delivered: map[string]bool{}}
	_, _, svc := newReviewService(t, purchases)

	review := entities.Review{ProductID: "p1", CustomerID: "cust-1", Rating: 4, Title: "a", Comment: "b"}

	_, err := svc.CreateReview(context.Background(), review)
	require.NoError(t, err)

	_, err = svc.CreateReview(context.Background(), review)
	assert.ErrorIs(t, err, entities.ErrDuplicateReview)
}

func TestReviewService_CreateReview_UnknownProduct(t *testing.T) {
	purchases := &fakePurchases{delivered: map[string]bool{}}
	_, _, svc := newReviewService(t, purchases)

	_, err := svc.CreateReview(context.Background(), entities.Review{
		ProductID:  "missing",
		CustomerID: "cust-1",
	})
	assert.ErrorIs(t, err, entities.ErrProductNotFound)
}

func TestReviewService_Moderate(t *testing.T) {
	purchases := &fakePurchases{delivered: map[string]bool{}}
	reviews, products, svc := newReviewService(t, purchases)

	rev, err := svc.CreateReview(context.Background(), entities.Review{
		ProductID:  "p1",
		CustomerID: "cust-1",
		Rating:     5,
		Title:      "great",
		Comment:    "works",
	})
	require.NoError(t, err)

	approved, err := svc.Moderate(context.Background(), rev.ID, "admin-1", true, "")
	require.NoError(t, err)

	assert.True(t, approved.IsApproved())
	assert.Equal(t, "admin-1", approved.Moderation.ModeratedBy)
	// после модерации рейтинг товара пересчитывается
	assert.Equal(t, []string{"p1"}, products.recomputed)

	stored, err := reviews.GetReviewByID(context.Background(), rev.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsApproved())
}

func TestReviewService_Moderate_Reject(t *testing.T) {
	purchases := &fakePurchases{delivered: map[string]bool{}}
	_, _, svc := newReviewService(t, purchases)

	rev, err := svc.CreateReview(context.Background(), entities.Review{
		ProductID:  "p1",
		CustomerID: "cust-1",
		Rating:     1,
		Title:      "bad",
		Comment:    "spam",
	})
	require.NoError(t, err)

	rejected, err := svc.Moderate(context.Background(), rev.ID, "admin-1", false, "spam content")
	require.NoError(t, err)

	assert.Equal(t, entities.ModerationStatusRejected, rejected.Moderation.Status)
	assert.Equal(t, "spam content", rejected.Moderation.Reason)
}

func TestReviewService_UpdateReview_KeepsModeration(t *testing.T) {
	purchases := &fakePurchases{delivered: map[string]bool{}}
	reviews, products, svc := newReviewService(t, purchases)

	rev, err := svc.CreateReview(context.Background(), entities.Review{
		ProductID:  "p1",
		CustomerID: "cust-1",
		Rating:     5,
		Title:      "great",
		Comment:    "works",
	})
	require.NoError(t, err)

	approved, err := svc.Moderate(context.Background(), rev.ID, "admin-1", true, "")
	require.NoError(t, err)
	require.True(t, approved.IsApproved())

	// правка одобренного отзыва не отправляет его на повторную модерацию
	approved.Rating = 3
	approved.Comment = "edited"
	updated, err := svc.UpdateReview(context.Background(), approved)
	require.NoError(t, err)

	assert.Equal(t, entities.ModerationStatusApproved, updated.Moderation.Status)
	assert.Len(t, products.recomputed, 2)

	stored, err := reviews.GetReviewByID(context.Background(), rev.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsApproved())
	assert.Equal(t, 3, stored.Rating)
}

func TestReviewService_MarkHelpful(t *testing.T) {
	purchases := &fakePurchases{delivered: map[string]bool{}}
	_, _, svc := newReviewService(t, purchases)

	rev, err := svc.CreateReview(context.Background(), entities.Review{
		ProductID:  "p1",
		CustomerID: "cust-1",
		Rating:     5,
		Title:      "great",
		Comment:    "works",
	})
	require.NoError(t, err)

	marked, err := svc.MarkHelpful(context.Background(), rev.ID, "user-2", true)
	require.NoError(t, err)
	assert.Equal(t, 1, marked.HelpfulCount)

	marked, err = svc.MarkHelpful(context.Background(), rev.ID, "user-2", false)
	require.NoError(t, err)
	assert.Equal(t, 0, marked.HelpfulCount)
}
