// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns; repositories convert with ToDomain / FromDomain.
//
// Tables:
//   - users, admin_users (identity.go)
//   - points_transactions (loyalty.go)
//   - orders (order.go)
//   - products (catalog.go)
//   - newsletter_subscribers, contact_requests (marketing.go)
//   - audit_log (audit.go)
//
// Money columns are integer minor units.
package models
