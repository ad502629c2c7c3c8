package entities

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrUserNotFound    = errors.New("user not found")

	ErrOrderNotCancellable = errors.New("order cannot be cancelled at this stage")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrProductUnavailable  = errors.New("product is not available")
	ErrDuplicateReview     = errors.New("customer has already reviewed this product")
	ErrAlreadyInWishlist   = errors.New("product is already in wishlist")
	ErrNotInWishlist       = errors.New("product is not in wishlist")
	ErrNotSeller           = errors.New("user is not a seller")
	ErrOrderNumberTaken    = errors.New("order number already taken")
	ErrSelfDelete          = errors.New("cannot delete your own account")

	ErrForbidden = errors.New("forbidden")
)
