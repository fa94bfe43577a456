package usecase

import (
	"context"
	"fmt"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/internal/dto/response"
	"account-service/pkg/password"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	List(ctx context.Context, page, limit int) (*response.UserListResponse, error)
	UpdateName(ctx context.Context, userID uuid.UUID, name string) (*response.UserResponse, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*response.UserResponse, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

type userService struct {
	users  repository.UserRepository
	hasher *password.Hasher
	log    *zap.Logger
}

func NewUserService(users repository.UserRepository, hasher *password.Hasher, log *zap.Logger) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		log:    log,
	}
}

func (s *userService) Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context, page, limit int) (*response.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	offset := (page - 1) * limit

	users, err := s.users.FindAll(ctx, limit, offset)
	if err != nil {
		s.log.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}

	total, err := s.users.CountAll(ctx)
	if err != nil {
		s.log.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("count users: %w", err)
	}

	resp := &response.UserListResponse{
		Users:   make([]response.UserResponse, 0, len(users)),
		Results: total,
		Page:    page,
		Limit:   limit,
	}
	for _, user := range users {
		resp.Users = append(resp.Users, response.UserToResponse(user))
	}

	return resp, nil
}

func (s *userService) UpdateName(ctx context.Context, userID uuid.UUID, name string) (*response.UserResponse, error) {
	if err := s.users.UpdateName(ctx, userID, name); err != nil {
		s.log.Error("Failed to update name",
			zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("update name: %w", err)
	}

	return s.Me(ctx, userID)
}

func (s *userService) UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*response.UserResponse, error) {
	// Closed set: anything outside {admin, user} is rejected here at the
	// boundary, regardless of what the store would accept.
	newRole := entity.UserRole(role)
	if !newRole.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateRole(ctx, user.ID, newRole); err != nil {
		s.log.Error("Failed to update role",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("role", role))
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.log.Info("Role updated",
		zap.String("user_id", userID.String()),
		zap.String("role", role))

	user.Role = newRole
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Compare(ctx, oldPassword, user.PasswordHash)
	if err != nil {
		s.log.Error("Failed to compare old password",
			zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return ErrWrongOldPassword
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		s.log.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		s.log.Error("Failed to update password",
			zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info("Password changed", zap.String("user_id", userID.String()))
	return nil
}

func (s *userService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to find user",
			zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
