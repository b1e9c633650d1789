package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/loyalty"
	"go.uber.org/zap"
)

// UserService serves the member's own profile
type UserService struct {
	userRepo identity.UserRepository
	accounts loyalty.AccountRepository
	hasher   identity.PasswordHasher
	logger   *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, accounts loyalty.AccountRepository, hasher identity.PasswordHasher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo: userRepo,
		accounts: accounts,
		hasher:   hasher,
		logger:   logger,
	}
}

// GetProfile returns the member profile with balance and tier
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toProfile(ctx, user)
}

// UpdateProfile changes name, phone and address
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(input.Name, input.Phone, input.Address); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.String("user_id", userID.String()))
	return s.toProfile(ctx, user)
}

// ChangePassword replaces the password after checking the current one.
// Existing sessions keep their fixed expiry.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.CurrentPassword, input.NewPassword, s.hasher); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.String("user_id", userID.String()))
	return nil
}

func (s *UserService) toProfile(ctx context.Context, user *identity.User) (*ProfileResponse, error) {
	account, err := s.accounts.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Phone:         user.Phone,
		Address:       user.Address,
		PointsBalance: account.Balance(),
		Tier:          account.TierName(),
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
	}, nil
}
