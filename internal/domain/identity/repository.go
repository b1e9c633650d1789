package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists members
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create inserts a new member; a duplicate email yields shared.ErrAlreadyExists
	Create(ctx context.Context, user *User) error
	// Update saves profile and credential fields; it never touches the points columns
	Update(ctx context.Context, user *User) error
}

// AdminUserRepository persists back-office operators
type AdminUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)
	Save(ctx context.Context, admin *AdminUser) error
}
