package service

import (
	"context"
	"log/slog"

	"github.com/mvshop/marketplace-service/internal/entities"
)

type WishlistRepo interface {
	AddToWishlist(ctx context.Context, userID, productID string) error
	RemoveFromWishlist(ctx context.Context, userID, productID string) error
	ClearWishlist(ctx context.Context, userID string) error
	InWishlist(ctx context.Context, userID, productID string) (bool, error)
	WishlistCount(ctx context.Context, userID string) (int, error)
	ListWishlist(ctx context.Context, userID string, limit, offset int) ([]entities.WishlistEntry, int, error)
}

type wishlistService struct {
	logger   *slog.Logger
	wishlist WishlistRepo
	products ProductRepo
}

func NewWishlistService(logger *slog.Logger, wishlist WishlistRepo, products ProductRepo) *wishlistService {
	return &wishlistService{
		logger:   logger.With(slog.String("service", "wishlist")),
		wishlist: wishlist,
		products: products,
	}
}

func (s *wishlistService) Add(ctx context.Context, userID, productID string) error {
	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	// снятые с продажи товары в вишлист не добавляются
	if product.Status != entities.ProductStatusActive {
		return entities.ErrProductUnavailable
	}
	return s.wishlist.AddToWishlist(ctx, userID, productID)
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID string) error {
	return s.wishlist.RemoveFromWishlist(ctx, userID, productID)
}

func (s *wishlistService) Clear(ctx context.Context, userID string) error {
	return s.wishlist.ClearWishlist(ctx, userID)
}

func (s *wishlistService) Contains(ctx context.Context, userID, productID string) (bool, error) {
	return s.wishlist.InWishlist(ctx, userID, productID)
}

func (s *wishlistService) Count(ctx context.Context, userID string) (int, error) {
	return s.wishlist.WishlistCount(ctx, userID)
}

func (s *wishlistService) List(ctx context.Context, userID string, limit, offset int) ([]entities.WishlistEntry, int, error) {
	return s.wishlist.ListWishlist(ctx, userID, limit, offset)
}
