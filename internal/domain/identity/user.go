package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterPattern = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
)

// PasswordHasher hashes and verifies credentials. The domain treats it as opaque.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// User is a storefront member. The member's points position is the separate
// loyalty.Account aggregate stored on the same row.
type User struct {
	shared.BaseAggregateRoot
	Email             string
	PasswordHash      string
	Name              string
	Phone             string
	Address           string
	LastLoginAt       *time.Time
	PasswordChangedAt *time.Time
}

// NewUser validates input and creates a user with a hashed password
func NewUser(email, password, name string, hasher PasswordHasher) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Name cannot exceed 100 characters")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              name,
	}
	if err := u.SetPassword(password, hasher); err != nil {
		return nil, err
	}
	u.AddDomainEvent(NewUserRegisteredEvent(u))
	return u, nil
}

// SetPassword validates and stores a new password hash
func (u *User) SetPassword(password string, hasher PasswordHasher) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return shared.WrapDomainError(shared.CodeInternal, "Failed to hash password", err)
	}
	u.PasswordHash = hash
	now := time.Now()
	u.PasswordChangedAt = &now
	u.UpdatedAt = now
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (u *User) VerifyPassword(password string, hasher PasswordHasher) bool {
	return hasher.Verify(u.PasswordHash, password)
}

// ChangePassword replaces the password after verifying the current one
func (u *User) ChangePassword(current, next string, hasher PasswordHasher) error {
	if !u.VerifyPassword(current, hasher) {
		return shared.NewDomainError(shared.CodeUnauthorized, "Current password is incorrect")
	}
	return u.SetPassword(next, hasher)
}

// UpdateProfile changes contact details. Empty name is rejected; phone and address may be cleared.
func (u *User) UpdateProfile(name, phone, address string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError(shared.CodeValidation, "Name cannot be empty")
	}
	if len(phone) > 30 {
		return shared.NewDomainError(shared.CodeValidation, "Phone cannot exceed 30 characters")
	}
	if len(address) > 500 {
		return shared.NewDomainError(shared.CodeValidation, "Address cannot exceed 500 characters")
	}
	u.Name = name
	u.Phone = strings.TrimSpace(phone)
	u.Address = strings.TrimSpace(address)
	u.Touch()
	return nil
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the email format
func ValidateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError(shared.CodeValidation, "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError(shared.CodeValidation, "Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError(shared.CodeValidation, "Invalid email format")
	}
	return nil
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError(shared.CodeValidation, "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError(shared.CodeValidation, "Password cannot exceed 72 characters")
	}
	if !letterPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return shared.NewDomainError(shared.CodeValidation, "Password must contain at least one letter and one number")
	}
	return nil
}
