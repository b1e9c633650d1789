package identity

import (
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// AdminUser is a back-office operator stored in admin_users
type AdminUser struct {
	shared.BaseEntity
	Email        string
	PasswordHash string
	Name         string
	Active       bool
	LastLoginAt  *time.Time
}

// NewAdminUser creates an active administrator
func NewAdminUser(email, password, name string, hasher PasswordHasher) (*AdminUser, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInternal, "Failed to hash password", err)
	}
	return &AdminUser{
		BaseEntity:   shared.NewBaseEntity(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Active:       true,
	}, nil
}

// CanLogin verifies the password of an active administrator
func (a *AdminUser) CanLogin(password string, hasher PasswordHasher) bool {
	return a.Active && hasher.Verify(a.PasswordHash, password)
}

// RecordLogin stamps the last successful login
func (a *AdminUser) RecordLogin(at time.Time) {
	a.LastLoginAt = &at
}
