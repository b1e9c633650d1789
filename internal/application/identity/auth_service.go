package identity

import (
	"context"
	"errors"
	"time"

	apployalty "github.com/storefront/backend/internal/application/loyalty"
	"github.com/storefront/backend/internal/domain/audit"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TokenType is the scheme clients send the access token with
const TokenType = "Bearer"

// TokenIssuer signs access tokens bound to a session
type TokenIssuer interface {
	GenerateToken(session *identity.Session) (string, error)
}

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	SessionTTL      time.Duration // Lifetime of member sessions
	AdminSessionTTL time.Duration // Lifetime of back-office sessions
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		SessionTTL:      24 * time.Hour,
		AdminSessionTTL: 8 * time.Hour,
	}
}

// AuthService handles sign-up, login and logout
type AuthService struct {
	userRepo  identity.UserRepository
	adminRepo identity.AdminUserRepository
	scope     apployalty.TransactionScope
	sessions  identity.SessionStore
	tokens    TokenIssuer
	hasher    identity.PasswordHasher
	points    loyalty.PointsConfig
	tiers     *loyalty.TierTable
	publisher shared.EventPublisher
	config    AuthServiceConfig
	logger    *zap.Logger
}

// AuthServiceDeps groups the collaborators of AuthService
type AuthServiceDeps struct {
	Users     identity.UserRepository
	Admins    identity.AdminUserRepository
	Scope     apployalty.TransactionScope
	Sessions  identity.SessionStore
	Tokens    TokenIssuer
	Hasher    identity.PasswordHasher
	Points    loyalty.PointsConfig
	Tiers     *loyalty.TierTable
	Publisher shared.EventPublisher
	Logger    *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(deps AuthServiceDeps, config AuthServiceConfig) *AuthService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	defaults := DefaultAuthServiceConfig()
	if config.SessionTTL <= 0 {
		config.SessionTTL = defaults.SessionTTL
	}
	if config.AdminSessionTTL <= 0 {
		config.AdminSessionTTL = defaults.AdminSessionTTL
	}
	return &AuthService{
		userRepo:  deps.Users,
		adminRepo: deps.Admins,
		scope:     deps.Scope,
		sessions:  deps.Sessions,
		tokens:    deps.Tokens,
		hasher:    deps.Hasher,
		points:    deps.Points,
		tiers:     deps.Tiers,
		publisher: deps.Publisher,
		config:    config,
		logger:    deps.Logger,
	}
}

// Register creates a member with an empty account and credits the signup
// bonus in the same transaction, then logs the member in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	user, err := identity.NewUser(input.Email, input.Password, input.Name, s.hasher)
	if err != nil {
		return nil, err
	}

	var account *loyalty.Account
	err = s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		if err := repos.Users().Create(ctx, user); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.ErrAlreadyExists.WithMessage("Email is already registered")
			}
			return err
		}

		account = loyalty.NewAccount(user.ID, s.tiers)
		if s.points.SignupBonus > 0 {
			if _, err := account.Credit(s.points.SignupBonus, loyalty.EntryKindEarn, loyalty.EntrySourceSignup, user.ID.String(), "Welcome bonus"); err != nil {
				return err
			}
			account.RefreshTier(s.tiers)
		}
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		return repos.Audit().Append(ctx, audit.NewEntry(audit.ActorCustomer, &user.ID, "user.registered", "user", user.ID.String(), map[string]any{
			"signup_bonus": s.points.SignupBonus,
		}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member registered",
		zap.String("user_id", user.ID.String()),
		zap.Int64("signup_bonus", s.points.SignupBonus))

	if s.publisher != nil {
		events := make([]shared.DomainEvent, 0, 2)
		events = append(events, user.GetDomainEvents()...)
		events = append(events, account.GetDomainEvents()...)
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("Failed to publish registration events", zap.Error(err))
		}
	}

	return s.startSession(ctx, UserInfo{ID: user.ID, Email: user.Email, Name: user.Name, Role: identity.RoleCustomer}, s.config.SessionTTL)
}

// Login authenticates a member. Unknown emails and wrong passwords produce the
// same error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email")
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(input.Password, s.hasher) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, shared.ErrInvalidCredentials
	}

	user.RecordLogin(time.Now())
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	return s.startSession(ctx, UserInfo{ID: user.ID, Email: user.Email, Name: user.Name, Role: identity.RoleCustomer}, s.config.SessionTTL)
}

// AdminLogin authenticates a back-office operator
func (s *AuthService) AdminLogin(ctx context.Context, input LoginInput) (*LoginResult, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Admin login attempt for unknown email")
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !admin.CanLogin(input.Password, s.hasher) {
		s.logger.Warn("Rejected admin login", zap.String("admin_id", admin.ID.String()))
		return nil, shared.ErrInvalidCredentials
	}

	admin.RecordLogin(time.Now())
	if err := s.adminRepo.Save(ctx, admin); err != nil {
		s.logger.Error("Failed to record admin login", zap.Error(err))
	}

	s.logger.Info("Admin logged in", zap.String("admin_id", admin.ID.String()))
	return s.startSession(ctx, UserInfo{ID: admin.ID, Email: admin.Email, Name: admin.Name, Role: identity.RoleAdmin}, s.config.AdminSessionTTL)
}

// Logout ends a session. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("Session ended", zap.String("session_id", sessionID))
	return nil
}

func (s *AuthService) startSession(ctx context.Context, subject UserInfo, ttl time.Duration) (*LoginResult, error) {
	session := identity.NewSession(subject.ID, subject.Role, ttl)
	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("Failed to store session", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeInternal, "Failed to start session", err)
	}

	token, err := s.tokens.GenerateToken(session)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		s.logger.Error("Failed to generate token", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeInternal, "Failed to generate authentication token", err)
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresAt:   session.ExpiresAt,
		User:        subject,
	}, nil
}
