package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/mvshop/marketplace-service/internal/entities"
)

var userColumns = []string{
	"id", "name", "email", "phone", "avatar", "role", "is_active",
	"address", "seller_profile", "created_at", "updated_at",
}

type usersRepo struct {
	base
}

func NewUsersRepo(db *sqlx.DB) *usersRepo {
	return &usersRepo{base: newBase(db)}
}

type UserFilter struct {
	Role   string
	Search string
}

func (f UserFilter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.Role != "" {
		b = b.Where(sq.Eq{"role": f.Role})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		b = b.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"email": pattern},
		})
	}
	return b
}

func (r *usersRepo) GetUserByID(ctx context.Context, userID string) (entities.User, error) {
	query, args := r.qb.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": userID}).
		MustSql()

	var row userRow
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.User{}, entities.ErrUserNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return userToEntity(row)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u entities.User) error {
	row, err := userToRow(u)
	if err != nil {
		return err
	}

	query, args := r.qb.Update("users").
		Set("name", row.Name).
		Set("phone", row.Phone).
		Set("avatar", row.Avatar).
		Set("is_active", row.IsActive).
		Set("address", row.Address).
		Set("seller_profile", row.SellerProfile).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": u.ID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrUserNotFound
	}
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	query, args := r.qb.Delete("users").Where(sq.Eq{"id": userID}).MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrUserNotFound
	}
	return nil
}

func (r *usersRepo) ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]entities.User, int, error) {
	query, args := filter.apply(r.qb.Select(userColumns...).From("users")).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		MustSql()

	var rows []userRow
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select users: %w", err)
	}

	users := make([]entities.User, 0, len(rows))
	for _, row := range rows {
		user, err := userToEntity(row)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	query, args = filter.apply(r.qb.Select("COUNT(*)").From("users")).MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	return users, total, nil
}

type UserOverview struct {
	TotalUsers      int `db:"total_users"`
	TotalCustomers  int `db:"total_customers"`
	TotalSellers    int `db:"total_sellers"`
	ApprovedSellers int `db:"approved_sellers"`
	ActiveUsers     int `db:"active_users"`
}

func (r *usersRepo) UserOverview(ctx context.Context) (UserOverview, error) {
	query, args := r.qb.Select(
		"COUNT(*) AS total_users",
		"COUNT(*) FILTER (WHERE role = 'customer') AS total_customers",
		"COUNT(*) FILTER (WHERE role = 'seller') AS total_sellers",
		"COUNT(*) FILTER (WHERE role = 'seller' AND (seller_profile->>'is_approved')::bool) AS approved_sellers",
		"COUNT(*) FILTER (WHERE is_active) AS active_users",
	).From("users").MustSql()

	var overview UserOverview
	if err := r.getContext(ctx, &overview, query, args...); err != nil {
		return UserOverview{}, fmt.Errorf("failed to get user overview: %w", err)
	}
	return overview, nil
}

type MonthlyUserStat struct {
	Year     int `db:"year"`
	Month    int `db:"month"`
	NewUsers int `db:"new_users"`
}

func (r *usersRepo) MonthlyGrowth(ctx context.Context, months int) ([]MonthlyUserStat, error) {
	query, args := r.qb.Select(
		"EXTRACT(YEAR FROM created_at)::int AS year",
		"EXTRACT(MONTH FROM created_at)::int AS month",
		"COUNT(*) AS new_users",
	).From("users").
		GroupBy("1", "2").
		OrderBy("1 DESC", "2 DESC").
		Limit(uint64(months)).
		MustSql()

	var stats []MonthlyUserStat
	if err := r.selectContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get monthly growth: %w", err)
	}
	return stats, nil
}
