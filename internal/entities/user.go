package entities

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

type SellerProfile struct {
	BusinessName  string
	BusinessPhone string
	IsApproved    bool
	ApprovalDate  *time.Time
	Rating        float64
	TotalReviews  int
}

type User struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Avatar   string
	Role     Role
	IsActive bool
	Address  *Address

	SellerProfile *SellerProfile

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsApprovedSeller() bool {
	return u.Role == RoleSeller && u.SellerProfile != nil && u.SellerProfile.IsApproved
}

type WishlistEntry struct {
	Product Product
	AddedAt time.Time
}
