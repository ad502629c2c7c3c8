package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvshop/marketplace-service/internal/entities"
	"github.com/mvshop/marketplace-service/internal/repo"
)

type UserRepo interface {
	GetUserByID(ctx context.Context, userID string) (entities.User, error)
	UpdateUser(ctx context.Context, u entities.User) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, filter repo.UserFilter, limit, offset int) ([]entities.User, int, error)
	UserOverview(ctx context.Context) (repo.UserOverview, error)
	MonthlyGrowth(ctx context.Context, months int) ([]repo.MonthlyUserStat, error)
}

type userService struct {
	logger *slog.Logger
	users  UserRepo
}

func NewUserService(logger *slog.Logger, users UserRepo) *userService {
	return &userService{
		logger: logger.With(slog.String("service", "user")),
		users:  users,
	}
}

func (s *userService) GetUser(ctx context.Context, userID string) (entities.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, filter repo.UserFilter, limit, offset int) ([]entities.User, int, error) {
	return s.users.ListUsers(ctx, filter, limit, offset)
}

func (s *userService) UpdateUser(ctx context.Context, u entities.User) (entities.User, error) {
	u.UpdatedAt = time.Now()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return entities.User{}, err
	}
	return u, nil
}

func (s *userService) SetActive(ctx context.Context, userID string, active bool) (entities.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return entities.User{}, err
	}

	user.IsActive = active
	user.UpdatedAt = time.Now()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	s.logger.Info("user activity changed",
		slog.String("user_id", userID), slog.Bool("active", active))
	return user, nil
}

// DeleteUser - администратор не может удалить сам себя
func (s *userService) DeleteUser(ctx context.Context, userID, actorID string) error {
	if userID == actorID {
		return entities.ErrSelfDelete
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("user_id", userID))
	return nil
}

// ApproveSeller одобряет или отклоняет заявку продавца,
// для остальных ролей - ошибка
func (s *userService) ApproveSeller(ctx context.Context, userID string, approved bool) (entities.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return entities.User{}, err
	}
	if user.Role != entities.RoleSeller {
		return entities.User{}, entities.ErrNotSeller
	}

	now := time.Now()
	if user.SellerProfile == nil {
		user.SellerProfile = &entities.SellerProfile{}
	}
	user.SellerProfile.IsApproved = approved
	if approved {
		user.SellerProfile.ApprovalDate = &now
	}
	user.UpdatedAt = now

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	s.logger.Info("seller approval changed",
		slog.String("user_id", userID), slog.Bool("approved", approved))
	return user, nil
}

type UserStats struct {
	Overview repo.UserOverview
	Monthly  []repo.MonthlyUserStat
}

func (s *userService) Stats(ctx context.Context) (UserStats, error) {
	var stats UserStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Overview, err = s.users.UserOverview(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Monthly, err = s.users.MonthlyGrowth(ctx, trendMonths)
		return err
	})

	if err := g.Wait(); err != nil {
		return UserStats{}, fmt.Errorf("failed to collect user stats: %w", err)
	}
	return stats, nil
}
