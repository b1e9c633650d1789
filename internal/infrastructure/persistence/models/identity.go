package models

import (
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/loyalty"
)

// UserModel is the persistence model for members. The points columns belong to
// the loyalty.Account aggregate and are only written by the account repository.
type UserModel struct {
	AggregateModel
	Email             string `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash      string `gorm:"type:varchar(255);not null"`
	Name              string `gorm:"type:varchar(100);not null"`
	Phone             string `gorm:"type:varchar(30)"`
	Address           string `gorm:"type:text"`
	PointsBalance     int64  `gorm:"not null;default:0"`
	Tier              string `gorm:"type:varchar(30);not null"`
	LastLoginAt       *time.Time
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Name:              m.Name,
		Phone:             m.Phone,
		Address:           m.Address,
		LastLoginAt:       m.LastLoginAt,
		PasswordChangedAt: m.PasswordChangedAt,
	}
}

// ToAccount converts the points columns to a loyalty account
func (m *UserModel) ToAccount() *loyalty.Account {
	return loyalty.RestoreAccount(m.ID, m.PointsBalance, m.Tier)
}

// FromDomain populates the profile and credential columns from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.Name = u.Name
	m.Phone = u.Phone
	m.Address = u.Address
	m.LastLoginAt = u.LastLoginAt
	m.PasswordChangedAt = u.PasswordChangedAt
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// AdminUserModel is the persistence model for back-office operators
type AdminUserModel struct {
	BaseModel
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	Name         string `gorm:"type:varchar(100)"`
	Active       bool   `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (AdminUserModel) TableName() string {
	return "admin_users"
}

// ToDomain converts the persistence model to a domain AdminUser
func (m *AdminUserModel) ToDomain() *identity.AdminUser {
	return &identity.AdminUser{
		BaseEntity:   m.BaseModel.ToDomain(),
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Active:       m.Active,
		LastLoginAt:  m.LastLoginAt,
	}
}

// AdminUserModelFromDomain creates a persistence model from a domain AdminUser
func AdminUserModelFromDomain(a *identity.AdminUser) *AdminUserModel {
	m := &AdminUserModel{
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Name:         a.Name,
		Active:       a.Active,
		LastLoginAt:  a.LastLoginAt,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

